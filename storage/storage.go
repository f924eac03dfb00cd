// Package storage realizes the registry's durable schema contract on
// SQLite via database/sql: an append-only leaf log, a single-active-row
// root table, and the uniqueness-constrained nullifier table. The
// accumulator and nullifier registry only ever see its interfaces.
package storage

import (
	"context"
	"database/sql"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/veilchat/zkregistry/nullifier"
)

const schema = `
CREATE TABLE IF NOT EXISTS leaves (
	leaf_index     INTEGER PRIMARY KEY,
	commitment_hex TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS roots (
	root_hex TEXT NOT NULL,
	active   BOOLEAN NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS nullifiers (
	topic          TEXT NOT NULL,
	nullifier_hex  TEXT NOT NULL,
	pseudonym_id   TEXT,
	commitment_hex TEXT,
	UNIQUE (topic, nullifier_hex)
);

CREATE INDEX IF NOT EXISTS idx_nullifiers_pseudonym
	ON nullifiers (pseudonym_id);
`

// Store wraps a SQL database holding the registry's durable state.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the registry database at path and applies the
// schema. Use ":memory:" for an ephemeral database in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// sqlite handles one writer at a time; serializing in the pool
	// avoids SQLITE_BUSY under concurrent registrations.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing database handle and applies the schema.
func NewWithDB(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return errors.Wrap(err, "apply schema")
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AppendLeaf durably records a leaf at an index. Indices are dense and
// never reused; the primary key rejects a reassignment.
func (s *Store) AppendLeaf(ctx context.Context, index uint64, leafHex string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leaves (leaf_index, commitment_hex) VALUES (?, ?)`,
		int64(index), leafHex)
	return errors.Wrap(err, "append leaf")
}

// AppendLeafWithRoot records a leaf and supersedes the active root in
// one transaction, so a crash can not leave the leaf without its root or
// the reverse.
func (s *Store) AppendLeafWithRoot(ctx context.Context, index uint64, leafHex, rootHex string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO leaves (leaf_index, commitment_hex) VALUES (?, ?)`,
		int64(index), leafHex); err != nil {
		return errors.Wrap(err, "append leaf")
	}
	if err := replaceActiveRoot(ctx, tx, rootHex); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit")
}

// LeafLog returns all persisted leaves in index order, verifying the
// index set is dense and contiguous from zero.
func (s *Store) LeafLog(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT leaf_index, commitment_hex FROM leaves ORDER BY leaf_index`)
	if err != nil {
		return nil, errors.Wrap(err, "query leaves")
	}
	defer func() { _ = rows.Close() }()

	var leaves []string
	for rows.Next() {
		var index int64
		var leafHex string
		if err := rows.Scan(&index, &leafHex); err != nil {
			return nil, errors.Wrap(err, "scan leaf")
		}
		if index != int64(len(leaves)) {
			return nil, errors.Errorf("leaf log has gap: row %d at position %d", index, len(leaves))
		}
		leaves = append(leaves, leafHex)
	}
	return leaves, errors.Wrap(rows.Err(), "iterate leaves")
}

// ActiveRoot returns the active root hex, or "" when no root row exists.
func (s *Store) ActiveRoot(ctx context.Context) (string, error) {
	var rootHex string
	err := s.db.QueryRowContext(ctx,
		`SELECT root_hex FROM roots WHERE active = 1 LIMIT 1`).Scan(&rootHex)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return rootHex, errors.Wrap(err, "query active root")
}

// ReplaceActiveRoot marks rootHex active, superseding any prior row.
func (s *Store) ReplaceActiveRoot(ctx context.Context, rootHex string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	if err := replaceActiveRoot(ctx, tx, rootHex); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit")
}

func replaceActiveRoot(ctx context.Context, tx *sql.Tx, rootHex string) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE roots SET active = 0 WHERE active = 1`); err != nil {
		return errors.Wrap(err, "deactivate root")
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO roots (root_hex, active) VALUES (?, 1)`, rootHex); err != nil {
		return errors.Wrap(err, "insert active root")
	}
	return nil
}

// InsertNullifier atomically records a nullifier for a topic. The unique
// constraint on (topic, nullifier_hex) makes concurrent double inserts
// lose cleanly with nullifier.ErrDuplicate.
func (s *Store) InsertNullifier(ctx context.Context, topic, nullifierHex string, pseudonymID, commitmentHex *string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO nullifiers (topic, nullifier_hex, pseudonym_id, commitment_hex)
		 VALUES (?, ?, ?, ?)`,
		topic, nullifierHex, pseudonymID, commitmentHex)
	if isUniqueViolation(err) {
		return errors.WithMessagef(nullifier.ErrDuplicate, "topic %q", topic)
	}
	return errors.Wrap(err, "insert nullifier")
}

// NullifierExists reports whether a (topic, nullifier) row exists.
func (s *Store) NullifierExists(ctx context.Context, topic, nullifierHex string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM nullifiers WHERE topic = ? AND nullifier_hex = ?`,
		topic, nullifierHex).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "query nullifier")
	}
	return true, nil
}

// CommitmentByPseudonym resolves a pseudonym id to its commitment and
// topic through the secondary index. Rows created before the optional
// columns existed are reported as absent, not as errors.
func (s *Store) CommitmentByPseudonym(ctx context.Context, pseudonymID string) (string, string, bool, error) {
	var commitmentHex sql.NullString
	var topic string
	err := s.db.QueryRowContext(ctx,
		`SELECT commitment_hex, topic FROM nullifiers WHERE pseudonym_id = ? LIMIT 1`,
		pseudonymID).Scan(&commitmentHex, &topic)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, errors.Wrap(err, "query pseudonym")
	}
	if !commitmentHex.Valid {
		return "", "", false, nil
	}
	return commitmentHex.String, topic, true, nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
		se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
