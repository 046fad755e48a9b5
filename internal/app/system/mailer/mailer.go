// internal/app/system/mailer/mailer.go
package mailer

import (
	"errors"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
)

// Email is one outbound message. Both bodies are sent as a
// multipart/alternative payload; clients pick whichever they render.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Config holds SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // e.g. "EquiHub <no-reply@equihub.example>"
}

// Mailer sends email over SMTP.
type Mailer struct {
	cfg Config
}

// New creates a Mailer. Host and From must be set; Username/Password are
// optional for relays that accept unauthenticated mail.
func New(cfg Config) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("mailer: host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("mailer: from address is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &Mailer{cfg: cfg}, nil
}

const boundary = "eqhub-alt-001"

// Send delivers one message. Blocking; callers that must not wait run it
// on a goroutine.
func (m *Mailer) Send(e Email) error {
	if e.To == "" {
		return errors.New("mailer: recipient is required")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", e.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", e.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(e.TextBody)
	b.WriteString("\r\n")

	if e.HTMLBody != "" {
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
		b.WriteString(e.HTMLBody)
		b.WriteString("\r\n")
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	return smtp.SendMail(addr, auth, fromAddress(m.cfg.From), []string{e.To}, []byte(b.String()))
}

// fromAddress extracts the bare address from a "Name <addr>" header value.
func fromAddress(from string) string {
	if i := strings.IndexByte(from, '<'); i >= 0 {
		if j := strings.IndexByte(from[i:], '>'); j > 0 {
			return from[i+1 : i+j]
		}
	}
	return from
}
