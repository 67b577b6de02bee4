// Package alert emails operators when the pipeline hits a condition
// that needs a human: exhausted update candidates or repeated upstream
// read failures. Messages carry identifiers and reasons only.
package alert

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/KevinSGarrett/RichPanel-sub000/internal/events"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/config"
	"github.com/KevinSGarrett/RichPanel-sub000/platform/logger"
)

// Notifier sends operator alert emails over SMTP.
type Notifier struct {
	cfg config.AlertConfig
	log *logger.Logger
}

// NewNotifier creates a notifier. Sending is a no-op when alerting is
// not configured.
func NewNotifier(cfg config.AlertConfig, log *logger.Logger) *Notifier {
	return &Notifier{cfg: cfg, log: log}
}

// Register subscribes the notifier to the events it alerts on.
func (n *Notifier) Register(bus events.Bus) {
	bus.Subscribe(events.UpdateCandidatesExhausted{}.EventName(), events.HandlerFunc(n.handleCandidatesExhausted))
}

func (n *Notifier) handleCandidatesExhausted(ctx context.Context, event events.Event) error {
	exhausted, ok := event.(events.UpdateCandidatesExhausted)
	if !ok {
		return nil
	}

	subject := fmt.Sprintf("[middleware] update candidates exhausted for conversation %s", exhausted.ConversationID)
	body := fmt.Sprintf(
		"Every ticket-update payload shape was attempted without a confirmed close.\n\n"+
			"Conversation: %s\nAttempts: %d\nComment posted: %t\n\n"+
			"The conversation may carry a posted reply without its loop-prevention tags. "+
			"Please review it manually.\n",
		exhausted.ConversationID, exhausted.Attempts, exhausted.CommentPosted)

	return n.send(ctx, subject, body)
}

func (n *Notifier) send(ctx context.Context, subject, body string) error {
	if !n.cfg.IsAlertEnabled() {
		n.log.Info("alert_suppressed", "subject", subject)
		return nil
	}

	msg := gomail.NewMsg()
	if err := msg.From(n.cfg.GetAlertFromAddress()); err != nil {
		return fmt.Errorf("alert from: %w", err)
	}
	if err := msg.To(n.cfg.GetAlertToAddress()); err != nil {
		return fmt.Errorf("alert to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	client, err := gomail.NewClient(n.cfg.GetAlertSMTPHost(),
		gomail.WithPort(n.cfg.GetAlertSMTPPort()),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(n.cfg.GetAlertSMTPUsername()),
		gomail.WithPassword(n.cfg.GetAlertSMTPPassword()),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("alert client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("alert send: %w", err)
	}
	return nil
}
