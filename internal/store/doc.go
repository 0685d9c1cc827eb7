// Package store provides SQLite-backed persistence for statements.
//
// Statements are stored in their canonical serialized form and keyed by a
// content hash, so saving the same statement twice yields one record.
//
// # Identity
//
//   - id: a generated record id (UUIDv7 by default, see IDGenerator)
//   - content_hash: SHA-256 over the canonical form with domain separation,
//     see ContentHash
//
// Only the statement's contents take part in the hash; the original SQL
// text does not, so two spellings of the same statement share a record and
// the first SQL text saved is kept.
//
// # Ordering
//
// Records carry a logical sequence number. List results are ordered by
// seq ASC, id ASC COLLATE BINARY and never by wall-clock time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
