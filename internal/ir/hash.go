package ir

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows the
// algorithm to change without colliding with existing ids.
const (
	DomainQuery     = "semanteco/query/v1"
	DomainExecution = "semanteco/execution/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
// The null separator keeps domain and data from running together.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// QueryHash identifies serialized query text. Canonically equivalent
// strings (same NFC form) hash the same.
func QueryHash(text string) string {
	var buf bytes.Buffer
	writeString(&buf, text)
	return hashWithDomain(DomainQuery, buf.Bytes())
}

// ExecutionID computes the id of one execution log record. The id is
// stable for the same request, sequence number and query.
func ExecutionID(requestID string, seq int64, queryHash string) (string, error) {
	canonical, err := MarshalCanonical(Object{
		"request_id": String(requestID),
		"seq":        Int(seq),
		"query_hash": String(queryHash),
	})
	if err != nil {
		return "", fmt.Errorf("ExecutionID: %w", err)
	}
	return hashWithDomain(DomainExecution, canonical), nil
}

// MustExecutionID is like ExecutionID but panics on error.
// Use only in tests.
func MustExecutionID(requestID string, seq int64, queryHash string) string {
	id, err := ExecutionID(requestID, seq, queryHash)
	if err != nil {
		panic(err)
	}
	return id
}
