package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/igolaizola/emacross/pkg/market"
	"github.com/igolaizola/emacross/pkg/metrics"
	"github.com/igolaizola/emacross/pkg/signal"
	"github.com/rs/zerolog"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, ev signal.Event) error
}

// Sink receives every emitted event besides the dispatcher.
type Sink interface {
	Publish(ev signal.Event)
}

// Status is the last known result of a symbol.
type Status struct {
	Symbol  string
	State   signal.State
	Price   float64
	Checked time.Time
	Err     error
}

type Engine struct {
	cfg        Config
	source     market.Source
	dispatcher Dispatcher
	sinks      []Sink
	tracker    *signal.Tracker
	log        zerolog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time

	lock   sync.Mutex
	status map[string]Status
}

func New(log zerolog.Logger, m *metrics.Metrics, cfg Config, src market.Source, d Dispatcher, sinks ...Sink) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// Deduplicate symbols keeping order
	var symbols []string
	seen := make(map[string]struct{})
	for _, s := range cfg.Symbols {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		symbols = append(symbols, s)
	}
	cfg.Symbols = symbols

	status := make(map[string]Status, len(symbols))
	for _, s := range symbols {
		status[s] = Status{Symbol: s, State: signal.Unarmed}
	}
	return &Engine{
		cfg:        cfg,
		source:     src,
		dispatcher: d,
		sinks:      sinks,
		tracker:    signal.NewTracker(symbols...),
		log:        log.With().Str("component", "engine").Logger(),
		metrics:    m,
		now:        time.Now,
		status:     status,
	}, nil
}

func (e *Engine) Symbols() []string {
	return append([]string(nil), e.cfg.Symbols...)
}

// Run waits for the initial delay and then runs a tick every interval until
// ctx is done. Ticks never overlap, ticks due while one is running are
// dropped.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info().Strs("symbols", e.cfg.Symbols).Int("short", e.cfg.Short).Int("long", e.cfg.Long).
		Dur("interval", e.cfg.Interval).Dur("delay", e.cfg.Delay).Msg("engine started")
	defer e.log.Info().Msg("engine stopped")

	delay := time.NewTimer(e.cfg.Delay)
	defer delay.Stop()
	select {
	case <-ctx.Done():
		return nil
	case <-delay.C:
	}

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()
	for {
		e.Tick(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Tick processes every watched symbol in order. A failing symbol is logged
// and skipped, its state is left untouched.
func (e *Engine) Tick(ctx context.Context) {
	start := e.now()
	defer func() {
		e.metrics.Ticks.Inc()
		e.metrics.TickDuration.Observe(time.Since(start).Seconds())
	}()
	for _, symbol := range e.cfg.Symbols {
		if ctx.Err() != nil {
			return
		}
		if err := e.process(ctx, symbol); err != nil {
			cause := Cause(err)
			e.metrics.Skipped.WithLabelValues(symbol, cause).Inc()
			e.log.Warn().Err(err).Str("symbol", symbol).Str("cause", cause).Msg("symbol skipped")
			e.setStatus(symbol, func(s *Status) {
				s.Err = err
				s.Checked = e.now()
			})
		}
	}
}

func (e *Engine) process(ctx context.Context, symbol string) error {
	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	prices, err := e.source.Closes(fetchCtx, symbol, e.cfg.Candle, e.cfg.Lookback)
	cancel()
	if err != nil {
		if !errors.Is(err, market.ErrDataUnavailable) {
			err = fmt.Errorf("engine: %w: %v", market.ErrDataUnavailable, err)
		}
		return err
	}
	crossed, last, err := signal.Check(prices, e.cfg.Short, e.cfg.Long)
	if err != nil {
		return err
	}

	emit := e.tracker.Observe(symbol, crossed)
	now := e.now()
	e.setStatus(symbol, func(s *Status) {
		s.State = e.tracker.State(symbol)
		s.Price = last
		s.Checked = now
		s.Err = nil
	})
	switch {
	case emit:
	case crossed:
		e.metrics.Suppressed.WithLabelValues(symbol).Inc()
		e.log.Info().Str("symbol", symbol).Float64("price", last).Msg("ema crossed but already announced")
		return nil
	default:
		e.log.Debug().Str("symbol", symbol).Float64("price", last).Msg("ema no cross")
		return nil
	}

	ev := signal.Event{Symbol: symbol, Price: last, Time: now}
	e.metrics.Signals.WithLabelValues(symbol).Inc()
	e.log.Info().Str("symbol", symbol).Float64("price", last).Msg("ema crossed")
	for _, s := range e.sinks {
		s.Publish(ev)
	}
	// The state has already moved to armed, a failed dispatch isn't retried.
	if err := e.dispatcher.Dispatch(ctx, ev); err != nil {
		e.log.Error().Err(err).Str("symbol", symbol).Msg("couldn't dispatch crossover")
	}
	return nil
}

func (e *Engine) setStatus(symbol string, update func(*Status)) {
	e.lock.Lock()
	defer e.lock.Unlock()
	s := e.status[symbol]
	update(&s)
	e.status[symbol] = s
}

// Status returns the last result of every watched symbol. It is safe to call
// while the engine is running.
func (e *Engine) Status() []Status {
	e.lock.Lock()
	defer e.lock.Unlock()
	status := make([]Status, 0, len(e.cfg.Symbols))
	for _, s := range e.cfg.Symbols {
		status = append(status, e.status[s])
	}
	return status
}

type Price struct {
	Symbol string
	Price  float64
	Err    error
}

// Prices fetches the last price of every watched symbol.
func (e *Engine) Prices(ctx context.Context) []Price {
	prices := make([]Price, 0, len(e.cfg.Symbols))
	for _, symbol := range e.cfg.Symbols {
		ctx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
		p, err := market.Last(ctx, e.source, symbol, e.cfg.Candle, e.cfg.PriceLookback)
		cancel()
		if err != nil {
			e.log.Warn().Err(err).Str("symbol", symbol).Str("cause", Cause(err)).Msg("couldn't get price")
		}
		prices = append(prices, Price{Symbol: symbol, Price: p, Err: err})
	}
	return prices
}

// Cause classifies a processing error for logs and metrics.
func Cause(err error) string {
	switch {
	case errors.Is(err, signal.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, market.ErrDataUnavailable):
		return "data_unavailable"
	default:
		return "error"
	}
}
