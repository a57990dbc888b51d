package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shivanand-hulikatti/event-checkin/internal/checkincode"
	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository"
)

// CheckinService marks entrants as arrived.
type CheckinService struct {
	store repository.Store
	now   func() time.Time
}

// NewCheckinService constructs a CheckinService.
func NewCheckinService(store repository.Store) *CheckinService {
	return &CheckinService{store: store, now: time.Now}
}

// CheckIn normalizes code and attempts the PENDING -> ARRIVED transition.
//
// Unknown codes and repeat attempts are ordinary results, not errors. A
// repeat attempt reports the time of the first successful check-in.
func (s *CheckinService) CheckIn(ctx context.Context, code string) (model.CheckinResult, error) {
	code = checkincode.Normalize(code)
	if code == "" {
		return model.CheckinResult{}, fmt.Errorf("%w: code is required", ErrInvalidInput)
	}

	entrant, transitioned, err := s.store.MarkCheckedIn(ctx, code, s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.InfoContext(ctx, "check-in code not found", "code", code)
			return model.CheckinResult{Kind: model.CheckinNotFound}, nil
		}
		return model.CheckinResult{}, fmt.Errorf("check in: %w", err)
	}

	if !transitioned {
		slog.InfoContext(ctx, "duplicate check-in", "code", code, "name", entrant.Name)
		return model.CheckinResult{Kind: model.CheckinDuplicate, Entrant: entrant}, nil
	}

	slog.InfoContext(ctx, "checked in", "code", code, "name", entrant.Name)
	return model.CheckinResult{Kind: model.CheckinSuccess, Entrant: entrant}, nil
}
