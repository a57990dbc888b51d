package handler

import (
	"errors"
	"net/http"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository"
	"github.com/Shivanand-hulikatti/event-checkin/internal/service"
)

// RosterHandler serves roster uploads.
type RosterHandler struct {
	svc      *service.RosterService
	maxBytes int64
}

// NewRosterHandler constructs a RosterHandler that accepts uploads up to
// maxBytes.
func NewRosterHandler(svc *service.RosterService, maxBytes int64) *RosterHandler {
	return &RosterHandler{svc: svc, maxBytes: maxBytes}
}

// Upload handles POST /api/upload
// Expects a multipart form with the CSV in the "file" field.
func (h *RosterHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		default:
			writeError(w, http.StatusBadRequest, "No file uploaded")
		}
		return
	}
	defer file.Close()
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	res, err := h.svc.Ingest(r.Context(), file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrConflict):
			writeError(w, http.StatusConflict, "roster changed during upload, please retry")
		default:
			internalError(w, r, "Failed to process CSV or insert to database.", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, model.UploadResponse{
		Success:      true,
		Count:        len(res.Accepted),
		SkippedCount: len(res.Skipped),
		Participants: res.Accepted,
		Skipped:      res.Skipped,
	})
}
