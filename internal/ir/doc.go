// Package ir provides canonical JSON values and content hashes.
//
// The execution log derives record ids and query hashes here, and the
// scenario harness renders responses through MarshalCanonical so golden
// files compare byte for byte.
//
// Constraints:
//   - No floats: numbers are int64 only
//   - No null
//   - Strings are NFC-normalized when serialized
//   - Object keys are ordered by UTF-16 code units (RFC 8785)
package ir
