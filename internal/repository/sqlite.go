package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
)

// SQLiteStore handles entrant persistence on a single SQLite file.
// Timestamps are stored as unix milliseconds.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore constructs a SQLiteStore over an already opened handle.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// FindByEmailKey returns a single entrant or ErrNotFound.
func (s *SQLiteStore) FindByEmailKey(ctx context.Context, key string) (*model.Entrant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entrantColumns+` FROM participants WHERE email_key = ?`, key)
	e, err := scanSQLiteEntrant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find by email: %w", err)
	}
	return e, nil
}

// CodeExists reports whether a code is already assigned.
func (s *SQLiteStore) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM participants WHERE checkin_code = ?)`, code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check code: %w", err)
	}
	return exists, nil
}

// InsertBatch inserts every entrant inside one transaction.
func (s *SQLiteStore) InsertBatch(ctx context.Context, entrants []model.Entrant) (err error) {
	if len(entrants) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO participants (id, name, email, email_key, checkin_code, qr_data, checked_in, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entrants {
		_, err = stmt.ExecContext(ctx,
			e.ID, e.Name, e.Email, e.EmailKey, e.CheckinCode, e.QRData, e.CreatedAt.UTC().UnixMilli())
		if err != nil {
			if isSQLiteUniqueViolation(err) {
				err = fmt.Errorf("insert %s: %w", e.Email, ErrConflict)
				return err
			}
			err = fmt.Errorf("insert %s: %w", e.Email, err)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// FindByCode returns a single entrant or ErrNotFound.
func (s *SQLiteStore) FindByCode(ctx context.Context, code string) (*model.Entrant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entrantColumns+` FROM participants WHERE checkin_code = ?`, code)
	e, err := scanSQLiteEntrant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find by code: %w", err)
	}
	return e, nil
}

// MarkCheckedIn performs the PENDING -> ARRIVED transition with a single
// guarded UPDATE; SQLite serialises writers, so only one caller can match the
// "checked_in = 0" predicate.
func (s *SQLiteStore) MarkCheckedIn(ctx context.Context, code string, at time.Time) (*model.Entrant, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE participants
		 SET checked_in = 1, checkin_time = ?
		 WHERE checkin_code = ? AND checked_in = 0
		 RETURNING `+entrantColumns,
		at.UTC().UnixMilli(), code,
	)
	e, err := scanSQLiteEntrant(row)
	if err == nil {
		return e, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("mark checked in: %w", err)
	}

	e, err = s.FindByCode(ctx, code)
	if err != nil {
		return nil, false, err
	}
	return e, false, nil
}

// List returns all entrants, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]model.Entrant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entrantColumns+` FROM participants ORDER BY created_at DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return collectSQLiteEntrants(rows)
}

// ListByIDs returns the entrants whose id is in ids.
func (s *SQLiteStore) ListByIDs(ctx context.Context, ids []string) ([]model.Entrant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entrantColumns+` FROM participants WHERE id IN (`+placeholders+`) ORDER BY created_at ASC, name ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list participants by id: %w", err)
	}
	return collectSQLiteEntrants(rows)
}

// Stats counts total and checked-in entrants.
func (s *SQLiteStore) Stats(ctx context.Context) (model.Stats, error) {
	var st model.Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(checked_in), 0) FROM participants`,
	).Scan(&st.Total, &st.CheckedIn)
	if err != nil {
		return model.Stats{}, fmt.Errorf("stats: %w", err)
	}
	st.NotCheckedIn = st.Total - st.CheckedIn
	return st, nil
}

// Delete removes one entrant or returns ErrNotFound.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM participants WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll clears the roster and returns the number of removed rows.
func (s *SQLiteStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM participants`)
	if err != nil {
		return 0, fmt.Errorf("delete participants: %w", err)
	}
	return res.RowsAffected()
}

// Ping checks the database file is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the SQLite connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteEntrant(row rowScanner) (*model.Entrant, error) {
	var (
		e           model.Entrant
		checkedIn   int64
		checkinTime sql.NullInt64
		createdAt   int64
	)
	err := row.Scan(&e.ID, &e.Name, &e.Email, &e.EmailKey, &e.CheckinCode, &e.QRData,
		&checkedIn, &checkinTime, &createdAt)
	if err != nil {
		return nil, err
	}
	e.CheckedIn = checkedIn != 0
	if checkinTime.Valid {
		t := time.UnixMilli(checkinTime.Int64).UTC()
		e.CheckinTime = &t
	}
	e.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &e, nil
}

func collectSQLiteEntrants(rows *sql.Rows) ([]model.Entrant, error) {
	defer rows.Close()

	var entrants []model.Entrant
	for rows.Next() {
		e, err := scanSQLiteEntrant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		entrants = append(entrants, *e)
	}
	return entrants, rows.Err()
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}
