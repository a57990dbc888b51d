package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/notify"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository"
)

// MailSender delivers built messages. *notify.Mailer implements it.
type MailSender interface {
	Send(ctx context.Context, msg *mail.Msg) error
	Verify(ctx context.Context) error
}

// WebhookPoster posts one entrant to a webhook. *notify.TeamsClient
// implements it.
type WebhookPoster interface {
	Post(ctx context.Context, payload notify.TeamsPayload) error
}

// NotifyService sends check-in codes to entrants. A nil mailer or webhook
// means that channel is not configured.
type NotifyService struct {
	store     repository.Store
	eventName string
	sender    string
	mailer    MailSender
	webhook   WebhookPoster
}

// NewNotifyService constructs a NotifyService.
func NewNotifyService(store repository.Store, eventName, sender string, mailer MailSender, webhook WebhookPoster) *NotifyService {
	return &NotifyService{
		store:     store,
		eventName: eventName,
		sender:    sender,
		mailer:    mailer,
		webhook:   webhook,
	}
}

// EmailCodes emails each selected entrant their code and QR image. An empty
// ids list selects everyone. A failure for one recipient is recorded in the
// report and does not stop the run.
func (s *NotifyService) EmailCodes(ctx context.Context, ids []string) (model.DispatchReport, error) {
	if s.mailer == nil {
		return model.DispatchReport{}, fmt.Errorf("%w: SMTP is not configured (set SMTP_HOST, SMTP_USER, SMTP_PASS)", ErrInvalidInput)
	}
	return s.dispatch(ctx, "email", ids, func(e model.Entrant) error {
		msg, err := notify.Invitation(s.eventName, s.sender, e)
		if err != nil {
			return err
		}
		return s.mailer.Send(ctx, msg)
	})
}

// TestSMTP checks the relay accepts a connection and the credentials.
func (s *NotifyService) TestSMTP(ctx context.Context) error {
	if s.mailer == nil {
		return fmt.Errorf("%w: SMTP is not configured", ErrInvalidInput)
	}
	return s.mailer.Verify(ctx)
}

// PostToTeams posts each selected entrant to the configured webhook.
func (s *NotifyService) PostToTeams(ctx context.Context, ids []string) (model.DispatchReport, error) {
	if s.webhook == nil {
		return model.DispatchReport{}, fmt.Errorf("%w: TEAMS_WEBHOOK_URL is not configured", ErrInvalidInput)
	}
	return s.dispatch(ctx, "teams", ids, func(e model.Entrant) error {
		return s.webhook.Post(ctx, notify.PayloadFor(e))
	})
}

func (s *NotifyService) dispatch(ctx context.Context, channel string, ids []string, send func(model.Entrant) error) (model.DispatchReport, error) {
	var (
		recipients []model.Entrant
		err        error
	)
	if len(ids) == 0 {
		recipients, err = s.store.List(ctx)
	} else {
		recipients, err = s.store.ListByIDs(ctx, ids)
	}
	if err != nil {
		return model.DispatchReport{}, fmt.Errorf("load recipients: %w", err)
	}

	report := model.DispatchReport{Total: len(recipients)}
	for _, e := range recipients {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := send(e); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, model.DispatchFailure{
				Name:  e.Name,
				Email: e.Email,
				Error: err.Error(),
			})
			slog.WarnContext(ctx, "notification failed", "channel", channel, "email", e.Email, "error", err)
			continue
		}
		report.Sent++
	}

	slog.InfoContext(ctx, "notifications dispatched",
		"channel", channel, "sent", report.Sent, "failed", report.Failed, "total", report.Total)
	return report, nil
}
