package mail

import (
	"context"
	"fmt"
	"sync"

	"gopkg.in/gomail.v2"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Message is a rendered HTML e-mail.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a message synchronously.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender sends through a plain SMTP relay.
type SMTPSender struct {
	from   string
	dialer dialer
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return fmt.Errorf("recipient is required")
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogSender stands in for SMTP when no relay is configured.
type LogSender struct {
	logg *logger.Logger
}

func NewLogSender(logg *logger.Logger) *LogSender {
	return &LogSender{logg: logg}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{"to": msg.To, "subject": msg.Subject}), "mail.skipped_no_smtp")
	}
	return nil
}

// Dispatcher sends in the background. Failures are logged and never retried.
type Dispatcher struct {
	sender Sender
	logg   *logger.Logger
	wg     sync.WaitGroup
}

func NewDispatcher(sender Sender, logg *logger.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, logg: logg}
}

// Dispatch returns immediately. The request context's values are kept for
// logging but its cancellation is not.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) {
	if d == nil || d.sender == nil {
		return
	}
	bg := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.sender.Send(bg, msg); err != nil && d.logg != nil {
			d.logg.Error(d.logg.WithFields(bg, map[string]any{"to": msg.To, "subject": msg.Subject}), "mail.send_failed", err)
		}
	}()
}

// Wait blocks until in-flight sends finish. Used on shutdown and in tests.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
