package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/igolaizola/emacross/pkg/metrics"
	"github.com/igolaizola/emacross/pkg/signal"
	"github.com/igolaizola/emacross/pkg/subscriber"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var ErrDispatch = errors.New("dispatch failed")

// Sender delivers a text message to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

type Dispatcher struct {
	registry subscriber.Registry
	sender   Sender
	timeout  time.Duration
	log      zerolog.Logger
	metrics  *metrics.Metrics
}

func New(log zerolog.Logger, m *metrics.Metrics, reg subscriber.Registry, sender Sender, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		registry: reg,
		sender:   sender,
		timeout:  timeout,
		log:      log.With().Str("component", "notify").Logger(),
		metrics:  m,
	}
}

// Message formats the notification text of an event.
func Message(ev signal.Event) string {
	return fmt.Sprintf("%s EMA Crossed, Last Price %s", ev.Symbol, decimal.NewFromFloat(ev.Price).String())
}

// Dispatch sends the event to a snapshot of the current subscribers. Sends
// run in parallel and Dispatch returns once all of them have finished.
// Failed sends are logged and dropped, only a registry failure is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, ev signal.Event) error {
	subs, err := d.registry.List(ctx)
	if err != nil {
		return fmt.Errorf("notify: couldn't list subscribers: %w", err)
	}
	d.metrics.Subscribers.Set(float64(len(subs)))
	text := Message(ev)

	var wg sync.WaitGroup
	for _, sub := range subs {
		sub := sub
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.send(ctx, sub.ID, text); err != nil {
				d.metrics.Sends.WithLabelValues("failed").Inc()
				d.log.Warn().Err(err).Str("symbol", ev.Symbol).Int64("chat", sub.ID).Msg("notification not delivered")
				return
			}
			d.metrics.Sends.WithLabelValues("ok").Inc()
		}()
	}
	wg.Wait()
	d.log.Info().Str("symbol", ev.Symbol).Int("subscribers", len(subs)).Msg("crossover dispatched")
	return nil
}

func (d *Dispatcher) send(ctx context.Context, chatID int64, text string) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.sender.Send(ctx, chatID, text); err != nil {
		return fmt.Errorf("notify: %w: chat %d: %v", ErrDispatch, chatID, err)
	}
	return nil
}

// LogSender only logs messages, used in dry mode.
type LogSender struct {
	Log zerolog.Logger
}

func (s LogSender) Send(_ context.Context, chatID int64, text string) error {
	s.Log.Info().Int64("chat", chatID).Str("text", text).Msg("dry send")
	return nil
}
