package contact

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/pkg/errors"
)

// SMTPSender mails submissions to the site owner.
type SMTPSender struct {
	Host     string
	Port     string
	Username string
	Password string
	To       string

	// send defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func (s *SMTPSender) Send(ctx context.Context, f Fields) error {
	if s.Username == "" || s.Password == "" {
		return errors.New("SMTP credentials not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	to := s.To
	if to == "" {
		to = s.Username
	}

	send := s.send
	if send == nil {
		send = smtp.SendMail
	}
	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
	msg := composeMessage(s.Username, to, f)
	if err := send(net.JoinHostPort(s.Host, s.Port), auth, s.Username, []string{to}, msg); err != nil {
		return errors.Wrap(err, "send mail")
	}
	return nil
}

func composeMessage(from, to string, f Fields) []byte {
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Subject: %s
Message:
%s

---
Sent from your portfolio contact form
`, f.Name, f.Email, f.Subject, f.Message)

	var b strings.Builder
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + headerSafe("Portfolio Contact: "+f.Subject) + "\r\n")
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("Reply-To: " + headerSafe(f.Email) + "\r\n")
	b.WriteString("\r\n")
	b.WriteString(body + "\r\n")
	return []byte(b.String())
}

// headerSafe strips CR/LF so form input cannot inject headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
