package notification

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"

	"golang.org/x/time/rate"
)

// SMTPConfig carries the outgoing mail server settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type sendMailFunc func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender sends multipart emails over SMTP, throttled to protect the relay.
type SMTPSender struct {
	cfg      SMTPConfig
	limiter  *rate.Limiter
	sendMail sendMailFunc
}

func NewSMTPSender(cfg SMTPConfig, perSecond float64) *SMTPSender {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &SMTPSender{
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Limit(perSecond), burst),
		sendMail: sendMailContext,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, html, text string) error {
	if s.cfg.Host == "" || s.cfg.Port == "" {
		return errors.New("incomplete SMTP configuration")
	}
	to = headerValue(to)
	if to == "" {
		return errors.New("missing recipient address")
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("email throttle: %w", err)
	}

	msg, err := buildMessage(s.cfg.From, to, subject, html, text)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)

	if err := s.sendMail(ctx, addr, auth, s.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("SMTP send to %s: %w", to, err)
	}
	return nil
}

// sendMailContext is smtp.SendMail on a connection bound to ctx: the dial honours it, the
// connection deadline follows it and cancellation closes the socket, so nothing outlives
// the call.
func sendMailContext(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return err
		}
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		return contextErr(ctx, err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return contextErr(ctx, err)
		}
	}
	if a != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(a); err != nil {
				return contextErr(ctx, err)
			}
		}
	}
	if err := c.Mail(from); err != nil {
		return contextErr(ctx, err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return contextErr(ctx, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return contextErr(ctx, err)
	}
	if _, err := w.Write(msg); err != nil {
		return contextErr(ctx, err)
	}
	if err := w.Close(); err != nil {
		return contextErr(ctx, err)
	}
	return c.Quit()
}

// contextErr prefers the context error when the connection failed because ctx ended.
func contextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%v: %w", err, ctxErr)
	}
	return err
}

var headerBreaks = strings.NewReplacer("\r", "", "\n", "")

// headerValue removes line breaks so a value cannot start a new header.
func headerValue(s string) string {
	return strings.TrimSpace(headerBreaks.Replace(s))
}

func buildMessage(from, to, subject, html, text string) ([]byte, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	parts := []struct {
		contentType string
		content     string
	}{
		{"text/plain; charset=\"UTF-8\"", text},
		{"text/html; charset=\"UTF-8\"", html},
	}
	for _, p := range parts {
		pw, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {p.contentType}})
		if err != nil {
			return nil, fmt.Errorf("build email: %w", err)
		}
		if _, err := pw.Write([]byte(p.content)); err != nil {
			return nil, fmt.Errorf("build email: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("build email: %w", err)
	}

	var msg strings.Builder
	msg.WriteString("From: " + headerValue(from) + "\r\n")
	msg.WriteString("To: " + headerValue(to) + "\r\n")
	msg.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", headerValue(subject)) + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: multipart/alternative; boundary=\"" + w.Boundary() + "\"\r\n\r\n")
	msg.Write(body.Bytes())
	return []byte(msg.String()), nil
}
