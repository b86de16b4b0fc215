// ABOUTME: SQLite-backed version store
// ABOUTME: The composite primary key turns Put into a conditional write

package sqlitestore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/nainya/docvault/pkg/diff"
	"github.com/nainya/docvault/pkg/version"
)

//go:embed schema.sql
var schemaSQL string

const columns = `document_id, version_number, version_id, created_at,
	author_id, author_name, comment, content, metadata, diff`

// Store persists versions in a single SQLite database file.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent use.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put inserts v, relying on the primary key to reject an already-claimed
// (document, number) pair.
func (s *Store) Put(ctx context.Context, v *version.Version) error {
	metadata, err := encodeMetadata(v.Metadata)
	if err != nil {
		return &version.StorageError{Op: "put", Err: err}
	}
	diffJSON, err := encodeDiff(v.DiffFromPrevious)
	if err != nil {
		return &version.StorageError{Op: "put", Err: err}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO versions (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.DocumentID, v.VersionNumber, v.ID,
		v.Timestamp.UTC().Format(time.RFC3339Nano),
		v.Author.ID, v.Author.DisplayName, v.Comment, v.Content,
		metadata, diffJSON,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return &version.ConflictError{DocumentID: v.DocumentID, VersionNumber: v.VersionNumber}
		}
		return &version.StorageError{Op: "put", Err: fmt.Errorf("insert version: %w", err)}
	}
	return nil
}

// List returns all retained versions of a document ordered by number.
func (s *Store) List(ctx context.Context, documentID string) ([]*version.Version, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+columns+`
		FROM versions
		WHERE document_id = ?
		ORDER BY version_number ASC`, documentID,
	)
	if err != nil {
		return nil, &version.StorageError{Op: "list", Err: fmt.Errorf("query versions: %w", err)}
	}
	defer rows.Close()

	return scanVersions(rows)
}

// Get returns the version with the given number.
func (s *Store) Get(ctx context.Context, documentID string, number uint64) (*version.Version, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+columns+`
		FROM versions
		WHERE document_id = ? AND version_number = ?`, documentID, number,
	)

	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &version.NotFoundError{DocumentID: documentID, Ref: strconv.FormatUint(number, 10)}
	}
	if err != nil {
		return nil, &version.StorageError{Op: "get", Err: err}
	}
	return v, nil
}

// GetByID returns the version with the given opaque ID.
func (s *Store) GetByID(ctx context.Context, documentID, versionID string) (*version.Version, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+columns+`
		FROM versions
		WHERE document_id = ? AND version_id = ?`, documentID, versionID,
	)

	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &version.NotFoundError{DocumentID: documentID, Ref: versionID}
	}
	if err != nil {
		return nil, &version.StorageError{Op: "get_by_id", Err: err}
	}
	return v, nil
}

// Delete removes the version with the given ID. Survivors keep their numbers.
func (s *Store) Delete(ctx context.Context, documentID, versionID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM versions
		WHERE document_id = ? AND version_id = ?`, documentID, versionID,
	)
	if err != nil {
		return &version.StorageError{Op: "delete", Err: fmt.Errorf("delete version: %w", err)}
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return &version.StorageError{Op: "delete", Err: fmt.Errorf("rows affected: %w", err)}
	}
	if affected == 0 {
		return &version.NotFoundError{DocumentID: documentID, Ref: versionID}
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanVersion(row scanner) (*version.Version, error) {
	var (
		v         version.Version
		createdAt string
		metadata  string
		diffJSON  sql.NullString
	)
	err := row.Scan(
		&v.DocumentID, &v.VersionNumber, &v.ID, &createdAt,
		&v.Author.ID, &v.Author.DisplayName, &v.Comment, &v.Content,
		&metadata, &diffJSON,
	)
	if err != nil {
		return nil, err
	}

	v.Timestamp, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if metadata != "" && metadata != "{}" && metadata != "null" {
		if err := json.Unmarshal([]byte(metadata), &v.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	if diffJSON.Valid {
		var d diff.Diff
		if err := json.Unmarshal([]byte(diffJSON.String), &d); err != nil {
			return nil, fmt.Errorf("decode diff: %w", err)
		}
		v.DiffFromPrevious = &d
	}
	return &v, nil
}

func scanVersions(rows *sql.Rows) ([]*version.Version, error) {
	versions := []*version.Version{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, &version.StorageError{Op: "list", Err: fmt.Errorf("scan version: %w", err)}
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, &version.StorageError{Op: "list", Err: fmt.Errorf("iterate versions: %w", err)}
	}
	return versions, nil
}

func encodeMetadata(m version.Metadata) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(data), nil
}

func encodeDiff(d *diff.Diff) (sql.NullString, error) {
	if d == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode diff: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
