package mailer

import (
	"context"
	"net"
	"net/smtp"
	"strconv"

	"github.com/jordan-wright/email"
)

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers a single message. Implementations do not retry.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type smtpMailer struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSMTPMailer(host string, port int, username, password, from string) Mailer {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &smtpMailer{addr: net.JoinHostPort(host, strconv.Itoa(port)), auth: auth, from: from}
}

func (m *smtpMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	em := email.NewEmail()
	em.From = m.from
	em.To = []string{msg.To}
	em.Subject = msg.Subject
	em.Text = []byte(msg.Text)
	if msg.HTML != "" {
		em.HTML = []byte(msg.HTML)
	}
	return em.Send(m.addr, m.auth)
}
