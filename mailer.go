package portalauth

import (
	"context"
	"time"
)

// MailMessage carries one OTP email. The engine never renders templates;
// the Mailer owns presentation.
type MailMessage struct {
	To        string
	Code      string
	Purpose   string
	ExpiresAt time.Time
}

// Mailer delivers OTP emails. Send is always called from a background
// goroutine; a slow or failing Mailer never delays an engine response.
type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}

// NoOpMailer discards every message. Useful when delivery is handled
// out of band.
type NoOpMailer struct{}

func (NoOpMailer) Send(context.Context, MailMessage) error { return nil }

// ChannelMailer publishes messages to a channel instead of delivering
// them. Intended for tests and local development.
type ChannelMailer struct {
	messages chan MailMessage
}

func NewChannelMailer(buffer int) *ChannelMailer {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelMailer{
		messages: make(chan MailMessage, buffer),
	}
}

func (m *ChannelMailer) Send(ctx context.Context, msg MailMessage) error {
	select {
	case m.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *ChannelMailer) Messages() <-chan MailMessage {
	return m.messages
}

// dispatchMail fires the mail send on its own goroutine. Delivery
// outcome is recorded in metrics and audit only; callers never block on
// or observe it.
func (e *Engine) dispatchMail(msg MailMessage) {
	if e == nil || e.mailer == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := e.mailer.Send(ctx, msg); err != nil {
			e.metricInc(MetricMailFailed)
			e.emitAudit(ctx, auditEventMailDispatchFailed, false, "", err, func() map[string]string {
				return map[string]string{
					"email":   msg.To,
					"purpose": msg.Purpose,
				}
			})
			return
		}
		e.metricInc(MetricMailDispatched)
	}()
}
