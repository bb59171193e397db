package notify

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"gopkg.in/gomail.v2"
)

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       []string
}

// EmailNotifier mails the order summary to the shop inbox and a copy to the
// customer.
type EmailNotifier struct {
	from   string
	to     []string
	sender mailSender
}

func NewEmailNotifier(cfg EmailConfig) *EmailNotifier {
	return &EmailNotifier{
		from:   cfg.From,
		to:     cfg.To,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
	}
}

func (n *EmailNotifier) Name() string { return "email" }

func (n *EmailNotifier) messages(event OrderEvent) []*gomail.Message {
	subject := fmt.Sprintf("New order #%d", event.OrderID)
	body := event.Summary()

	var msgs []*gomail.Message
	if len(n.to) > 0 {
		m := gomail.NewMessage()
		m.SetHeader("From", n.from)
		m.SetHeader("To", n.to...)
		m.SetHeader("Subject", subject)
		m.SetBody("text/plain", body)
		msgs = append(msgs, m)
	}
	if event.CustomerEmail != "" {
		m := gomail.NewMessage()
		m.SetHeader("From", n.from)
		m.SetHeader("To", event.CustomerEmail)
		m.SetHeader("Subject", fmt.Sprintf("Your order #%d", event.OrderID))
		m.SetBody("text/plain", "Thank you for your order.\n\n"+body)
		msgs = append(msgs, m)
	}
	return msgs
}

// Notify sends the messages and gives up when ctx is done. gomail has no
// context support, so an abandoned send may still finish in the background.
func (n *EmailNotifier) Notify(ctx context.Context, event OrderEvent) error {
	msgs := n.messages(event)
	if len(msgs) == 0 {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- n.sender.DialAndSend(msgs...)
	}()

	select {
	case err := <-done:
		if err != nil {
			return errors.Wrap(err, "send order email")
		}
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "send order email")
	}
}
