package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/GNOME/libgda-sub020/internal/sqlstmt"
)

// ErrNotFound is returned when no record matches.
var ErrNotFound = errors.New("statement not found")

// Record is one stored statement.
type Record struct {
	ID          string
	ContentHash string
	Type        string
	SQL         string
	Canonical   string
	Seq         int64
}

// Statement decodes the record back into a statement tree.
func (r Record) Statement() (*sqlstmt.Statement, error) {
	stmt, err := sqlstmt.Parse(r.Canonical)
	if err != nil {
		return nil, fmt.Errorf("decode record %s: %w", r.ID, err)
	}
	stmt.SQL = r.SQL
	return stmt, nil
}

// Save validates stmt and stores it. Saving a statement whose content hash
// is already stored returns the existing record and reports created=false.
func (s *Store) Save(ctx context.Context, stmt *sqlstmt.Statement) (rec Record, created bool, err error) {
	if err := sqlstmt.Validate(stmt); err != nil {
		return Record{}, false, fmt.Errorf("save statement: %w", err)
	}

	hash := ContentHash(stmt)
	var sqlText any
	if stmt.SQL != "" {
		sqlText = stmt.SQL
	}

	// ON CONFLICT DO NOTHING keeps the first record for a content hash
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO statements (id, content_hash, stmt_type, sql, canonical, seq)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_hash) DO NOTHING
	`,
		s.ids.Generate(),
		hash,
		stmt.Type().String(),
		sqlText,
		canonical(stmt),
		s.clock.Next(),
	)
	if err != nil {
		return Record{}, false, fmt.Errorf("save statement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Record{}, false, fmt.Errorf("save statement: %w", err)
	}

	rec, err = s.GetByHash(ctx, hash)
	if err != nil {
		return Record{}, false, fmt.Errorf("save statement: %w", err)
	}
	slog.Debug("saved statement", "id", rec.ID, "type", rec.Type, "created", n > 0)
	return rec, n > 0, nil
}

const selectRecord = `SELECT id, content_hash, stmt_type, sql, canonical, seq FROM statements`

// Get returns the record with the given id.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	return s.getOne(ctx, selectRecord+" WHERE id = ?", id)
}

// GetByHash returns the record with the given content hash.
func (s *Store) GetByHash(ctx context.Context, hash string) (Record, error) {
	return s.getOne(ctx, selectRecord+" WHERE content_hash = ?", hash)
}

// Lookup returns the record matching an id or a content hash.
func (s *Store) Lookup(ctx context.Context, key string) (Record, error) {
	return s.getOne(ctx, selectRecord+" WHERE id = ? OR content_hash = ?", key, key)
}

// Load returns the decoded statement stored under id.
func (s *Store) Load(ctx context.Context, id string) (*sqlstmt.Statement, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.Statement()
}

func (s *Store) getOne(ctx context.Context, query string, args ...any) (Record, error) {
	row := s.db.QueryRowContext(ctx, query, args...)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("query statement: %w", err)
	}
	return rec, nil
}

// ListOptions filters List results.
type ListOptions struct {
	// Type restricts results to one statement type (e.g., "SELECT").
	Type string

	// Limit caps the number of results (0 = no limit).
	Limit int
}

// List returns stored records ordered by seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if no records match.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Record, error) {
	query := selectRecord
	var args []any
	if opts.Type != "" {
		query += " WHERE stmt_type = ?"
		args = append(args, opts.Type)
	}
	query += " ORDER BY seq ASC, id COLLATE BINARY ASC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query statements: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate statements: %w", err)
	}
	return records, nil
}

// Delete removes the record with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM statements WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete statement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete statement: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var rec Record
	var sqlText sql.NullString
	if err := row.Scan(&rec.ID, &rec.ContentHash, &rec.Type, &sqlText, &rec.Canonical, &rec.Seq); err != nil {
		return Record{}, err
	}
	rec.SQL = sqlText.String
	return rec, nil
}
