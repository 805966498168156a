package telegram

import (
	"errors"
	"fmt"
	"time"

	tb "gopkg.in/tucnak/telebot.v2"
)

// Transport selects how updates are received from telegram.
type Transport interface {
	poller() (tb.Poller, error)
	String() string
}

// Polling receives updates with long polling.
type Polling struct {
	Timeout time.Duration
}

func (p Polling) poller() (tb.Poller, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &tb.LongPoller{Timeout: timeout}, nil
}

func (Polling) String() string { return "polling" }

// Webhook listens on Listen and registers PublicURL as the telegram webhook.
type Webhook struct {
	Listen    string
	PublicURL string
}

func (w Webhook) poller() (tb.Poller, error) {
	if w.Listen == "" {
		return nil, errors.New("missing webhook listen address")
	}
	if w.PublicURL == "" {
		return nil, errors.New("missing webhook public url")
	}
	return &tb.Webhook{
		Listen:   w.Listen,
		Endpoint: &tb.WebhookEndpoint{PublicURL: w.PublicURL},
	}, nil
}

func (Webhook) String() string { return "webhook" }

// NewTransport returns the transport for mode ("polling" or "webhook").
func NewTransport(mode, listen, publicURL string) (Transport, error) {
	switch mode {
	case "polling", "dev":
		return Polling{}, nil
	case "webhook", "prod":
		t := Webhook{Listen: listen, PublicURL: publicURL}
		if _, err := t.poller(); err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		return t, nil
	case "":
		return nil, errors.New("telegram: no mode specified")
	default:
		return nil, fmt.Errorf("telegram: unknown mode %q", mode)
	}
}
