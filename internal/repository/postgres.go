package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
)

const pgUniqueViolation = "23505"

// PostgresStore handles entrant persistence on PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// FindByEmailKey returns a single entrant or ErrNotFound.
func (s *PostgresStore) FindByEmailKey(ctx context.Context, key string) (*model.Entrant, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+entrantColumns+` FROM participants WHERE email_key = $1`, key)
	e, err := scanPgEntrant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find by email: %w", err)
	}
	return e, nil
}

// CodeExists reports whether a code is already assigned.
func (s *PostgresStore) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM participants WHERE checkin_code = $1)`, code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check code: %w", err)
	}
	return exists, nil
}

// InsertBatch inserts every entrant inside one transaction.
func (s *PostgresStore) InsertBatch(ctx context.Context, entrants []model.Entrant) (err error) {
	if len(entrants) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, e := range entrants {
		_, err = tx.Exec(ctx,
			`INSERT INTO participants (id, name, email, email_key, checkin_code, qr_data, checked_in, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)`,
			e.ID, e.Name, e.Email, e.EmailKey, e.CheckinCode, e.QRData, e.CreatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				err = fmt.Errorf("insert %s: %w", e.Email, ErrConflict)
				return err
			}
			err = fmt.Errorf("insert %s: %w", e.Email, err)
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// FindByCode returns a single entrant or ErrNotFound.
func (s *PostgresStore) FindByCode(ctx context.Context, code string) (*model.Entrant, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+entrantColumns+` FROM participants WHERE checkin_code = $1`, code)
	e, err := scanPgEntrant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find by code: %w", err)
	}
	return e, nil
}

// MarkCheckedIn performs the PENDING -> ARRIVED transition.
//
// The UPDATE is guarded by "NOT checked_in", so PostgreSQL's row lock makes
// the read-check-write a single atomic step: of two concurrent calls for the
// same code exactly one sees a row come back.
func (s *PostgresStore) MarkCheckedIn(ctx context.Context, code string, at time.Time) (*model.Entrant, bool, error) {
	row := s.db.QueryRow(ctx,
		`UPDATE participants
		 SET checked_in = TRUE, checkin_time = $2
		 WHERE checkin_code = $1 AND NOT checked_in
		 RETURNING `+entrantColumns,
		code, at,
	)
	e, err := scanPgEntrant(row)
	if err == nil {
		return e, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("mark checked in: %w", err)
	}

	e, err = s.FindByCode(ctx, code)
	if err != nil {
		return nil, false, err
	}
	return e, false, nil
}

// List returns all entrants, newest first.
func (s *PostgresStore) List(ctx context.Context) ([]model.Entrant, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+entrantColumns+` FROM participants ORDER BY created_at DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return collectPgEntrants(rows)
}

// ListByIDs returns the entrants whose id is in ids.
func (s *PostgresStore) ListByIDs(ctx context.Context, ids []string) ([]model.Entrant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+entrantColumns+` FROM participants WHERE id = ANY($1) ORDER BY created_at ASC, name ASC`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("list participants by id: %w", err)
	}
	return collectPgEntrants(rows)
}

// Stats counts total and checked-in entrants.
func (s *PostgresStore) Stats(ctx context.Context) (model.Stats, error) {
	var st model.Stats
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE checked_in) FROM participants`,
	).Scan(&st.Total, &st.CheckedIn)
	if err != nil {
		return model.Stats{}, fmt.Errorf("stats: %w", err)
	}
	st.NotCheckedIn = st.Total - st.CheckedIn
	return st, nil
}

// Delete removes one entrant or returns ErrNotFound.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM participants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll clears the roster and returns the number of removed rows.
func (s *PostgresStore) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM participants`)
	if err != nil {
		return 0, fmt.Errorf("delete participants: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Ping checks the pool can reach the server.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

func scanPgEntrant(row pgx.Row) (*model.Entrant, error) {
	var e model.Entrant
	err := row.Scan(&e.ID, &e.Name, &e.Email, &e.EmailKey, &e.CheckinCode, &e.QRData,
		&e.CheckedIn, &e.CheckinTime, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func collectPgEntrants(rows pgx.Rows) ([]model.Entrant, error) {
	defer rows.Close()

	var entrants []model.Entrant
	for rows.Next() {
		e, err := scanPgEntrant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		entrants = append(entrants, *e)
	}
	return entrants, rows.Err()
}
