package store

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"

	"github.com/GNOME/libgda-sub020/internal/sqlstmt"
)

// DomainStatement prefixes statement content hashes.
// Version suffix enables future algorithm migration.
const DomainStatement = "gdasql/statement/v1"

// IDGenerator produces record ids.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 record ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ContentHash returns the content-addressed key of stmt: the hash of its
// canonical serialization with the SQL text left out.
func ContentHash(stmt *sqlstmt.Statement) string {
	return hashWithDomain(DomainStatement, []byte(canonical(stmt)))
}

// canonical serializes stmt without its SQL text.
func canonical(stmt *sqlstmt.Statement) string {
	return sqlstmt.Serialize(&sqlstmt.Statement{Contents: stmt.Contents})
}
