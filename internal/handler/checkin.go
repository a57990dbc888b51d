package handler

import (
	"errors"
	"net/http"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/service"
)

// CheckinHandler serves the door-scanning endpoint.
type CheckinHandler struct {
	svc *service.CheckinService
}

// NewCheckinHandler constructs a CheckinHandler.
func NewCheckinHandler(svc *service.CheckinService) *CheckinHandler {
	return &CheckinHandler{svc: svc}
}

// CheckIn handles POST /api/checkin
//
// A first check-in and a repeat both answer 200; isDuplicate tells them
// apart. An unknown code answers 404.
func (h *CheckinHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req model.CheckinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.CheckinResponse{Message: "invalid request body"})
		return
	}

	res, err := h.svc.CheckIn(r.Context(), req.Code)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, model.CheckinResponse{Message: "Code is required"})
			return
		}
		internalError(w, r, "Internal Server Error", err)
		return
	}

	switch res.Kind {
	case model.CheckinNotFound:
		writeJSON(w, http.StatusNotFound, model.CheckinResponse{Message: "Invalid Code"})
	case model.CheckinDuplicate:
		writeJSON(w, http.StatusOK, model.CheckinResponse{
			Success:     true,
			IsDuplicate: true,
			Message:     "Already Checked In",
			Participant: participantView(res.Entrant),
		})
	default:
		writeJSON(w, http.StatusOK, model.CheckinResponse{
			Success:     true,
			Message:     "Check-in Successful",
			Participant: participantView(res.Entrant),
		})
	}
}

func participantView(e *model.Entrant) *model.CheckinParticipant {
	return &model.CheckinParticipant{
		Name:        e.Name,
		Email:       e.Email,
		CheckinTime: e.CheckinTime,
	}
}
