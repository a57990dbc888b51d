package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/service"
)

// NotifyHandler serves the email and Teams dispatch endpoints.
type NotifyHandler struct {
	svc *service.NotifyService
}

// NewNotifyHandler constructs a NotifyHandler.
func NewNotifyHandler(svc *service.NotifyService) *NotifyHandler {
	return &NotifyHandler{svc: svc}
}

// SendEmails handles POST /api/email/send
func (h *NotifyHandler) SendEmails(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeNotifyRequest(w, r)
	if !ok {
		return
	}
	report, err := h.svc.EmailCodes(r.Context(), req.ParticipantIDs)
	h.writeReport(w, r, report, err, "emails")
}

// TestSMTP handles POST /api/email/test
func (h *NotifyHandler) TestSMTP(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.TestSMTP(r.Context()); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			writeJSON(w, status, model.MessageResponse{Message: "SMTP connection failed: " + err.Error()})
			return
		}
		writeJSON(w, status, model.MessageResponse{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Success: true, Message: "SMTP connection OK"})
}

// SendTeams handles POST /api/teams/send
func (h *NotifyHandler) SendTeams(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeNotifyRequest(w, r)
	if !ok {
		return
	}
	report, err := h.svc.PostToTeams(r.Context(), req.ParticipantIDs)
	h.writeReport(w, r, report, err, "messages")
}

func (h *NotifyHandler) writeReport(w http.ResponseWriter, r *http.Request, report model.DispatchReport, err error, noun string) {
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, model.NotifyResponse{Message: err.Error()})
			return
		}
		internalError(w, r, "notification dispatch failed", err)
		return
	}
	writeJSON(w, http.StatusOK, model.NotifyResponse{
		Success: true,
		Sent:    report.Sent,
		Failed:  report.Failed,
		Total:   report.Total,
		Errors:  report.Errors,
		Message: fmt.Sprintf("sent %d %s, %d failed", report.Sent, noun, report.Failed),
	})
}

// decodeNotifyRequest accepts an empty body as "everyone".
func decodeNotifyRequest(w http.ResponseWriter, r *http.Request) (model.NotifyRequest, bool) {
	var req model.NotifyRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return req, false
	}
	return req, true
}
