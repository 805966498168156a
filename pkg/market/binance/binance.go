package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/igolaizola/emacross/pkg/market"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Binance caps the number of klines returned by a single request.
const maxKlines = 1000

type Source struct {
	client *binance.Client
	log    zerolog.Logger
	debug  bool
	now    func() time.Time
}

func New(log zerolog.Logger, apiKey, apiSecret string, timeout time.Duration, debug bool) *Source {
	cli := binance.NewClient(apiKey, apiSecret)
	cli.HTTPClient = &http.Client{Timeout: timeout}
	return NewWithClient(log, cli, debug)
}

func NewWithClient(log zerolog.Logger, cli *binance.Client, debug bool) *Source {
	return &Source{
		client: cli,
		log:    log.With().Str("source", "binance").Logger(),
		debug:  debug,
		now:    time.Now,
	}
}

// Closes returns the closing prices of the klines opened during the last
// lookback, oldest first.
func (s *Source) Closes(ctx context.Context, symbol, interval string, lookback time.Duration) ([]float64, error) {
	start := s.now().Add(-lookback)
	klines, err := s.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		StartTime(start.UnixNano() / int64(time.Millisecond)).
		Limit(maxKlines).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance: couldn't get klines for %s: %w: %v", symbol, market.ErrDataUnavailable, err)
	}
	if len(klines) == 0 {
		return nil, fmt.Errorf("binance: no klines for %s since %s: %w", symbol, start.UTC().Format(time.RFC3339), market.ErrDataUnavailable)
	}
	// Debug
	if s.debug {
		js, _ := json.Marshal(klines[len(klines)-1])
		s.log.Debug().Str("symbol", symbol).Int("klines", len(klines)).RawJSON("last", js).Msg("klines fetched")
	}
	closes := make([]float64, len(klines))
	for i, k := range klines {
		d, err := decimal.NewFromString(k.Close)
		if err != nil {
			return nil, fmt.Errorf("binance: couldn't parse close price %q for %s: %w: %v", k.Close, symbol, market.ErrDataUnavailable, err)
		}
		closes[i], _ = d.Float64()
	}
	return closes, nil
}
