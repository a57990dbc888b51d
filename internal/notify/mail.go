// Package notify delivers check-in codes to entrants by email and posts them
// to a Teams (Power Automate) webhook.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/Shivanand-hulikatti/event-checkin/internal/config"
	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/qr"
)

const (
	implicitTLSPort = 465
	dialTimeout     = 15 * time.Second
	qrContentID     = "qrcode"
)

// Mailer sends messages through one SMTP relay.
type Mailer struct {
	cfg config.SMTPConfig
}

// NewMailer constructs a Mailer for cfg.
func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Verify connects, negotiates TLS, authenticates and quits without sending.
func (m *Mailer) Verify(ctx context.Context) error {
	c, err := m.client()
	if err != nil {
		return err
	}
	if err := c.DialWithContext(ctx); err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	return c.Close()
}

// Send delivers msg over a fresh connection.
func (m *Mailer) Send(ctx context.Context, msg *mail.Msg) error {
	c, err := m.client()
	if err != nil {
		return err
	}
	if err := c.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// client uses implicit TLS on port 465 and STARTTLS elsewhere when the relay
// offers it.
func (m *Mailer) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithTimeout(dialTimeout),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.User),
		mail.WithPassword(m.cfg.Password),
	}
	if m.cfg.Port == implicitTLSPort {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	opts = append(opts, mail.WithPort(m.cfg.Port))

	c, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return c, nil
}

var invitationTemplate = template.Must(template.New("invitation").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #646cff; text-align: center;">{{.EventName}}</h2>
  <hr style="border: 1px solid #eee;" />
  <p>Dear <strong>{{.Name}}</strong>,</p>
  <p>Thank you for registering. Here is your check-in information:</p>
  <div style="text-align: center; margin: 30px 0;">
    <img src="cid:{{.ContentID}}" alt="QR Code" style="width: 200px; height: 200px;" />
    <p style="font-size: 24px; font-weight: bold; font-family: monospace;">Check-in code: {{.Code}}</p>
  </div>
  <p style="color: #666;">Show this QR code or tell staff your code at the entrance.</p>
  <hr style="border: 1px solid #eee;" />
  <p style="font-size: 12px; color: #999; text-align: center;">Sent automatically by the event check-in system.</p>
</div>
`))

// Invitation builds the email an entrant receives: an HTML body with the QR
// image embedded inline as cid:qrcode.
func Invitation(eventName, from string, e model.Entrant) (*mail.Msg, error) {
	png, err := qr.DecodeDataURL(e.QRData)
	if err != nil {
		if png, err = qr.PNG(e.CheckinCode); err != nil {
			return nil, err
		}
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(eventName, from); err != nil {
		return nil, fmt.Errorf("invitation from: %w", err)
	}
	if err := msg.To(e.Email); err != nil {
		return nil, fmt.Errorf("invitation to: %w", err)
	}
	msg.Subject(eventName + " - your check-in QR code")
	msg.SetDate()
	msg.SetMessageID()

	err = msg.SetBodyHTMLTemplate(invitationTemplate, struct {
		EventName, Name, Code, ContentID string
	}{eventName, e.Name, e.CheckinCode, qrContentID})
	if err != nil {
		return nil, fmt.Errorf("render invitation: %w", err)
	}

	err = msg.EmbedReader("qrcode-"+e.CheckinCode+".png", bytes.NewReader(png),
		mail.WithFileContentID("<"+qrContentID+">"),
		mail.WithFileContentType(mail.ContentType("image/png")),
	)
	if err != nil {
		return nil, fmt.Errorf("embed qr image: %w", err)
	}
	return msg, nil
}
