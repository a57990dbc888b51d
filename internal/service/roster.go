package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/event-checkin/internal/checkincode"
	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/qr"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository"
	"github.com/Shivanand-hulikatti/event-checkin/internal/roster"
)

// MaxCodeAttempts bounds the draws per entrant before ingestion gives up.
const MaxCodeAttempts = 10

// RosterService turns uploaded roster files into persisted entrants.
type RosterService struct {
	store    repository.Store
	newCode  func() (string, error)
	encodeQR func(string) (string, error)
	now      func() time.Time
}

// RosterOption customises a RosterService.
type RosterOption func(*RosterService)

// WithCodeGenerator replaces the random code source.
func WithCodeGenerator(gen func() (string, error)) RosterOption {
	return func(s *RosterService) { s.newCode = gen }
}

// WithClock replaces time.Now for created_at stamps.
func WithClock(now func() time.Time) RosterOption {
	return func(s *RosterService) { s.now = now }
}

// NewRosterService constructs a RosterService with its dependencies.
func NewRosterService(store repository.Store, opts ...RosterOption) *RosterService {
	s := &RosterService{
		store:    store,
		newCode:  checkincode.Generate,
		encodeQR: qr.DataURL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest parses a CSV roster and persists every new entrant in one batch.
//
// Rows are handled in file order. A row whose email (compared caselessly) is
// already persisted, or was accepted earlier in the same file, is reported as
// skipped and gets no code. Rows without a name or email never reach this
// point. If any accepted row cannot be given a unique code, or the batch
// insert fails, nothing is persisted.
func (s *RosterService) Ingest(ctx context.Context, file io.Reader) (*model.IngestResult, error) {
	if file == nil {
		return nil, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}

	rows, err := roster.Parse(file)
	if err != nil {
		if errors.Is(err, roster.ErrMalformed) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, err
	}

	result := &model.IngestResult{
		Accepted: []model.Entrant{},
		Skipped:  []model.SkippedRow{},
	}
	acceptedNames := make(map[string]string) // email key -> name
	stagedCodes := make(map[string]bool)

	for _, row := range rows {
		key := roster.EmailKey(row.Email)

		owner, dup, err := s.emailOwner(ctx, key, acceptedNames)
		if err != nil {
			return nil, err
		}
		if dup {
			result.Skipped = append(result.Skipped, model.SkippedRow{
				Name:   row.Name,
				Email:  row.Email,
				Reason: fmt.Sprintf("duplicate email (%s)", owner),
			})
			continue
		}

		code, err := s.uniqueCode(ctx, stagedCodes)
		if err != nil {
			return nil, err
		}
		qrData, err := s.encodeQR(code)
		if err != nil {
			return nil, fmt.Errorf("encode qr for %s: %w", code, err)
		}

		stagedCodes[code] = true
		acceptedNames[key] = row.Name
		result.Accepted = append(result.Accepted, model.Entrant{
			ID:          uuid.New().String(),
			Name:        row.Name,
			Email:       row.Email,
			EmailKey:    key,
			CheckinCode: code,
			QRData:      qrData,
			CreatedAt:   s.now().UTC(),
		})
	}

	if err := s.store.InsertBatch(ctx, result.Accepted); err != nil {
		return nil, fmt.Errorf("insert roster: %w", err)
	}

	slog.InfoContext(ctx, "roster ingested",
		"rows", len(rows),
		"inserted", len(result.Accepted),
		"skipped", len(result.Skipped),
	)
	return result, nil
}

// emailOwner returns the name already holding key, looking first at rows
// accepted earlier in this upload and then at the store.
func (s *RosterService) emailOwner(ctx context.Context, key string, accepted map[string]string) (string, bool, error) {
	if name, ok := accepted[key]; ok {
		return name, true, nil
	}
	existing, err := s.store.FindByEmailKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("check email: %w", err)
	}
	return existing.Name, true, nil
}

// uniqueCode draws codes until one is free both in the store and among the
// codes staged for this batch.
func (s *RosterService) uniqueCode(ctx context.Context, staged map[string]bool) (string, error) {
	for attempt := 1; attempt <= MaxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return "", err
		}
		if staged[code] {
			slog.DebugContext(ctx, "check-in code collision in batch", "attempt", attempt)
			continue
		}
		taken, err := s.store.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
		slog.DebugContext(ctx, "check-in code collision in store", "attempt", attempt)
	}
	return "", fmt.Errorf("%w after %d attempts", ErrCodeSpaceExhausted, MaxCodeAttempts)
}
