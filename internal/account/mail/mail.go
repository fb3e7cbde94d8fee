// Package mail delivers account emails.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"text/template"
	"time"

	"github.com/aussiebroadwan/accountd/pkg/slogx"
	gomail "github.com/wneessen/go-mail"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a message. Implementations must honour ctx cancellation
// where the underlying transport allows it.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

var activationTemplate = template.Must(template.New("activation").Parse(
	`Hello {{.Email}},

Please confirm your email address by opening the link below within {{.ValidFor}}:

{{.URL}}

If you did not create an account you can ignore this message.
`))

// ActivationMessage renders the activation email for address.
func ActivationMessage(address, url string, validFor time.Duration) (Message, error) {
	var body bytes.Buffer
	err := activationTemplate.Execute(&body, struct {
		Email    string
		URL      string
		ValidFor string
	}{
		Email:    address,
		URL:      url,
		ValidFor: validFor.String(),
	})
	if err != nil {
		return Message{}, fmt.Errorf("render activation email: %w", err)
	}
	return Message{
		To:      address,
		Subject: "Activate your account",
		Body:    body.String(),
	}, nil
}

// SMTPSender sends through an SMTP relay. STARTTLS is used when the relay
// offers it, or required when RequireTLS is set. PLAIN authentication is used
// when a username is configured.
type SMTPSender struct {
	Addr       string // host:port
	Username   string
	Password   string
	From       string
	RequireTLS bool

	// Timeout bounds the dial and every SMTP command. Zero uses the
	// go-mail default.
	Timeout time.Duration
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMsg()
	if err := m.From(s.From); err != nil {
		return fmt.Errorf("invalid sender %q: %w", s.From, err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)

	client, err := s.client()
	if err != nil {
		return err
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

func (s *SMTPSender) client() (*gomail.Client, error) {
	host, rawPort, err := net.SplitHostPort(s.Addr)
	if err != nil {
		return nil, fmt.Errorf("invalid smtp address %q: %w", s.Addr, err)
	}
	port, err := strconv.Atoi(rawPort)
	if err != nil {
		return nil, fmt.Errorf("invalid smtp port %q: %w", rawPort, err)
	}

	policy := gomail.TLSOpportunistic
	if s.RequireTLS {
		policy = gomail.TLSMandatory
	}

	opts := []gomail.Option{
		gomail.WithPort(port),
		gomail.WithTLSPolicy(policy),
	}
	if s.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(s.Timeout))
	}
	if s.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.Username),
			gomail.WithPassword(s.Password),
		)
	}

	client, err := gomail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return client, nil
}

// LogSender writes messages to the request logger instead of sending them.
// Used in development when no SMTP relay is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	slogx.FromContext(ctx).Info("email not sent, no relay configured",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Body),
	)
	return nil
}
