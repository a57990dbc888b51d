package notify_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net"
	netmail "net/mail"
	"net/textproto"
	"strings"
	"sync"
	"testing"

	"github.com/Shivanand-hulikatti/event-checkin/internal/config"
	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/notify"
	"github.com/Shivanand-hulikatti/event-checkin/internal/qr"
)

// smtpLog is what the relay saw across all sessions.
type smtpLog struct {
	auth []string
	from string
	rcpt []string
	data string
	quit int
}

// smtpRecorder is a minimal SMTP relay that accepts AUTH PLAIN for one
// account and records what each session did.
type smtpRecorder struct {
	user, pass string

	mu  sync.Mutex
	log smtpLog
}

func startSMTP(t *testing.T) (config.SMTPConfig, *smtpRecorder) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	rec := &smtpRecorder{user: "bot", pass: "secret"}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go rec.serve(conn)
		}
	}()

	cfg := config.SMTPConfig{
		Host:     "127.0.0.1",
		Port:     ln.Addr().(*net.TCPAddr).Port,
		User:     rec.user,
		Password: rec.pass,
		From:     "noreply@x.com",
	}
	return cfg, rec
}

func (r *smtpRecorder) serve(conn net.Conn) {
	defer conn.Close()
	tp := textproto.NewConn(conn)
	_ = tp.PrintfLine("220 relay.test ESMTP")

	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		verb, arg, _ := strings.Cut(line, " ")
		switch strings.ToUpper(verb) {
		case "EHLO":
			_ = tp.PrintfLine("250-relay.test")
			_ = tp.PrintfLine("250 AUTH PLAIN")
		case "AUTH":
			_, payload, _ := strings.Cut(arg, " ")
			decoded, _ := base64.StdEncoding.DecodeString(payload)
			r.mu.Lock()
			r.log.auth = append(r.log.auth, string(decoded))
			r.mu.Unlock()
			if string(decoded) != "\x00"+r.user+"\x00"+r.pass {
				_ = tp.PrintfLine("535 5.7.8 Authentication credentials invalid")
				continue
			}
			_ = tp.PrintfLine("235 2.7.0 Authentication successful")
		case "MAIL":
			r.mu.Lock()
			r.log.from = arg
			r.mu.Unlock()
			_ = tp.PrintfLine("250 2.1.0 Ok")
		case "RCPT":
			r.mu.Lock()
			r.log.rcpt = append(r.log.rcpt, arg)
			r.mu.Unlock()
			_ = tp.PrintfLine("250 2.1.5 Ok")
		case "DATA":
			_ = tp.PrintfLine("354 End data with <CR><LF>.<CR><LF>")
			data, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			r.mu.Lock()
			r.log.data = string(data)
			r.mu.Unlock()
			_ = tp.PrintfLine("250 2.0.0 Queued")
		case "QUIT":
			r.mu.Lock()
			r.log.quit++
			r.mu.Unlock()
			_ = tp.PrintfLine("221 2.0.0 Bye")
			return
		default:
			_ = tp.PrintfLine("250 2.0.0 Ok")
		}
	}
}

func (r *smtpRecorder) snapshot() smtpLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	log := r.log
	log.auth = append([]string(nil), r.log.auth...)
	log.rcpt = append([]string(nil), r.log.rcpt...)
	return log
}

type mimePart struct {
	header textproto.MIMEHeader
	body   []byte
}

// leafParts flattens a (possibly nested) multipart body into its leaf parts.
func leafParts(t *testing.T, contentType string, body io.Reader) []mimePart {
	t.Helper()

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		t.Fatalf("parse content type %q: %v", contentType, err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		b, err := io.ReadAll(body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		return []mimePart{{header: textproto.MIMEHeader{"Content-Type": {contentType}}, body: b}}
	}

	var parts []mimePart
	mr := multipart.NewReader(body, params["boundary"])
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			return parts
		}
		if err != nil {
			t.Fatalf("next part: %v", err)
		}
		if ct := p.Header.Get("Content-Type"); strings.HasPrefix(ct, "multipart/") {
			parts = append(parts, leafParts(t, ct, p)...)
			continue
		}
		// NextPart strips the quoted-printable transfer encoding.
		b, err := io.ReadAll(p)
		if err != nil {
			t.Fatalf("read part: %v", err)
		}
		parts = append(parts, mimePart{header: p.Header, body: b})
	}
}

// checkInvitation parses raw and verifies it carries the HTML body and the
// inline QR image it references.
func checkInvitation(t *testing.T, raw []byte, to, code string) {
	t.Helper()

	msg, err := netmail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("message does not parse: %v", err)
	}
	if got := msg.Header.Get("To"); !strings.Contains(got, to) {
		t.Errorf("To = %q, want %s", got, to)
	}
	if msg.Header.Get("Subject") == "" || msg.Header.Get("Date") == "" {
		t.Error("missing Subject or Date header")
	}

	var html, img *mimePart
	parts := leafParts(t, msg.Header.Get("Content-Type"), msg.Body)
	for i := range parts {
		ct := parts[i].header.Get("Content-Type")
		switch {
		case strings.HasPrefix(ct, "text/html"):
			html = &parts[i]
		case strings.HasPrefix(ct, "image/png"):
			img = &parts[i]
		}
	}
	if html == nil || img == nil {
		t.Fatalf("want an html part and a png part, got %d parts", len(parts))
	}

	for _, want := range []string{"Alice", code, "cid:qrcode", "Demo Day"} {
		if !bytes.Contains(html.body, []byte(want)) {
			t.Errorf("html body missing %q", want)
		}
	}

	if got := img.header.Get("Content-ID"); got != "<qrcode>" {
		t.Errorf("Content-ID = %q, want <qrcode>", got)
	}
	if got := img.header.Get("Content-Disposition"); !strings.HasPrefix(got, "inline") {
		t.Errorf("Content-Disposition = %q, want inline", got)
	}
	png, err := base64.StdEncoding.DecodeString(strings.NewReplacer("\r", "", "\n", "").Replace(string(img.body)))
	if err != nil {
		t.Fatalf("decode image: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("inline image is not a PNG")
	}
}

func newInvitee(t *testing.T) model.Entrant {
	t.Helper()

	qrData, err := qr.DataURL("ABC123")
	if err != nil {
		t.Fatalf("DataURL: %v", err)
	}
	return model.Entrant{Name: "Alice", Email: "a@x.com", CheckinCode: "ABC123", QRData: qrData}
}

func TestInvitation(t *testing.T) {
	msg, err := notify.Invitation("Demo Day", "noreply@x.com", newInvitee(t))
	if err != nil {
		t.Fatalf("Invitation: %v", err)
	}

	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	checkInvitation(t, buf.Bytes(), "a@x.com", "ABC123")
}

func TestInvitationFallsBackToRenderedQR(t *testing.T) {
	e := newInvitee(t)
	e.QRData = ""

	msg, err := notify.Invitation("Demo Day", "noreply@x.com", e)
	if err != nil {
		t.Fatalf("Invitation: %v", err)
	}
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	checkInvitation(t, buf.Bytes(), "a@x.com", "ABC123")
}

func TestInvitationRejectsBadAddress(t *testing.T) {
	e := newInvitee(t)
	e.Email = "not an address"

	if _, err := notify.Invitation("Demo Day", "noreply@x.com", e); err == nil {
		t.Fatal("expected an error for an invalid recipient")
	}
}

func TestMailerVerify(t *testing.T) {
	cfg, relay := startSMTP(t)

	if err := notify.NewMailer(cfg).Verify(context.Background()); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	got := relay.snapshot()
	if len(got.auth) != 1 || got.auth[0] != "\x00bot\x00secret" {
		t.Errorf("auth = %q, want one PLAIN login for bot", got.auth)
	}
	if got.quit != 1 {
		t.Errorf("quit sent %d times, want 1", got.quit)
	}
	if got.from != "" || got.data != "" {
		t.Error("Verify must not send a message")
	}
}

func TestMailerVerifyBadCredentials(t *testing.T) {
	cfg, _ := startSMTP(t)
	cfg.Password = "wrong"

	if err := notify.NewMailer(cfg).Verify(context.Background()); err == nil {
		t.Fatal("expected Verify to fail with rejected credentials")
	}
}

func TestMailerSend(t *testing.T) {
	cfg, relay := startSMTP(t)

	msg, err := notify.Invitation("Demo Day", cfg.Sender(), newInvitee(t))
	if err != nil {
		t.Fatalf("Invitation: %v", err)
	}
	if err := notify.NewMailer(cfg).Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got := relay.snapshot()
	if !strings.Contains(got.from, "noreply@x.com") {
		t.Errorf("MAIL FROM = %q", got.from)
	}
	if len(got.rcpt) != 1 || !strings.Contains(got.rcpt[0], "a@x.com") {
		t.Errorf("RCPT TO = %q", got.rcpt)
	}
	if got.quit != 1 {
		t.Errorf("quit sent %d times, want 1", got.quit)
	}
	checkInvitation(t, []byte(got.data), "a@x.com", "ABC123")
}
