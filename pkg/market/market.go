package market

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Source fetches closing prices, oldest first.
type Source interface {
	Closes(ctx context.Context, symbol, interval string, lookback time.Duration) ([]float64, error)
}

var ErrDataUnavailable = errors.New("data unavailable")

// Last returns the most recent closing price of symbol.
func Last(ctx context.Context, src Source, symbol, interval string, lookback time.Duration) (float64, error) {
	closes, err := src.Closes(ctx, symbol, interval, lookback)
	if err != nil {
		return 0, err
	}
	if len(closes) == 0 {
		return 0, fmt.Errorf("market: %w: no prices for %s", ErrDataUnavailable, symbol)
	}
	return closes[len(closes)-1], nil
}

var intervals = map[string]time.Duration{
	"1m":  time.Minute,
	"3m":  3 * time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"2h":  2 * time.Hour,
	"4h":  4 * time.Hour,
	"6h":  6 * time.Hour,
	"8h":  8 * time.Hour,
	"12h": 12 * time.Hour,
	"1d":  24 * time.Hour,
	"3d":  3 * 24 * time.Hour,
	"1w":  7 * 24 * time.Hour,
}

// Interval validates a candle interval and returns its duration.
func Interval(s string) (time.Duration, error) {
	d, ok := intervals[s]
	if !ok {
		return 0, fmt.Errorf("market: invalid candle interval %q", s)
	}
	return d, nil
}
