// Package store provides SQLite-backed storage for the SPARQL execution log.
//
// Every query the executor sends can be recorded as one row in the
// executions table: which request and extension issued it, the serialized
// text and its hash, the negotiated media type, and how the round trip
// ended. The log is append-only.
//
// # Identity and Ordering
//
//   - Record ids are content hashes from internal/ir (request id, seq,
//     query hash), so recording the same execution twice is a no-op
//   - seq is a per-request logical counter, never a wall-clock timestamp
//   - Per-request reads use ORDER BY seq ASC, id ASC COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
