package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/spec-kit/complaint-service/internal/config"
)

// EmailMessage is a plain text email.
type EmailMessage struct {
	To      string
	Subject string
	Body    string
}

// EmailSender delivers one email.
type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

const defaultSMTPTimeout = 10 * time.Second

// SendMailFunc is smtp.SendMail with a context carrying the deadline.
type SendMailFunc func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender relays mail through the configured SMTP server.
type SMTPSender struct {
	addr     string
	host     string
	from     string
	auth     smtp.Auth
	timeout  time.Duration
	sendMail SendMailFunc
}

// NewSMTPSender returns nil when SMTP is not configured.
func NewSMTPSender(cfg config.NotificationConfig) *SMTPSender {
	if !cfg.SMTPEnabled() {
		return nil
	}
	var auth smtp.Auth
	if cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}
	timeout := cfg.SMTPTimeout()
	if timeout <= 0 {
		timeout = defaultSMTPTimeout
	}
	s := &SMTPSender{
		addr:    net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		host:    cfg.SMTPHost,
		from:    cfg.EmailFrom,
		auth:    auth,
		timeout: timeout,
	}
	s.sendMail = s.dialAndSend
	return s
}

// SendEmail implements EmailSender.
func (s *SMTPSender) SendEmail(ctx context.Context, msg EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to := strings.TrimSpace(msg.To)
	if to == "" || strings.ContainsAny(to, "\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidRecipient, msg.To)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.sendMail(ctx, s.addr, s.auth, s.from, []string{to}, buildMIME(s.from, to, msg.Subject, msg.Body))
}

// dialAndSend is smtp.SendMail with the whole conversation bounded by the
// context deadline.
func (s *SMTPSender) dialAndSend(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return fmt.Errorf("set smtp deadline: %w", err)
		}
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if a != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(a); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp rcpt: %w", err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data close: %w", err)
	}
	return client.Quit()
}

func buildMIME(from, to, subject, body string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", strings.NewReplacer("\r", "", "\n", "").Replace(subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return b.Bytes()
}

var complaintRegisteredTmpl = template.Must(template.New("complaint_registered").Parse(
	`Dear {{.CustomerName}},

Your complaint has been registered successfully.

Ticket No: {{.TicketNumber}}

Our service team will contact you shortly.
`))

// ComplaintRegisteredEmail renders the confirmation email for a new complaint.
func ComplaintRegisteredEmail(to, customerName, ticket string) (EmailMessage, error) {
	var body bytes.Buffer
	err := complaintRegisteredTmpl.Execute(&body, struct {
		CustomerName string
		TicketNumber string
	}{customerName, ticket})
	if err != nil {
		return EmailMessage{}, fmt.Errorf("render confirmation email: %w", err)
	}
	return EmailMessage{
		To:      to,
		Subject: "Complaint Registered - Ticket No: " + ticket,
		Body:    body.String(),
	}, nil
}

// PasswordResetEmail renders the forgot-password email.
func PasswordResetEmail(to, username, token string) EmailMessage {
	return EmailMessage{
		To:      to,
		Subject: "Password reset request",
		Body: fmt.Sprintf("Hello %s,\n\nUse this code to reset your password: %s\n\nIf you did not ask for a reset, ignore this email.\n",
			username, token),
	}
}
