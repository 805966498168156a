package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/igolaizola/emacross/pkg/market"
)

type Config struct {
	Symbols []string
	Short   int
	Long    int
	// Interval between ticks and Delay before the first one.
	Interval time.Duration
	Delay    time.Duration
	// Candle interval and lookback window for crossover checks.
	Candle   string
	Lookback time.Duration
	// Lookback window for ad-hoc price queries.
	PriceLookback time.Duration
	FetchTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Symbols:       []string{"ETHUSDT", "BNBUSDT"},
		Short:         5,
		Long:          13,
		Interval:      300 * time.Second,
		Delay:         10 * time.Second,
		Candle:        "30m",
		Lookback:      24 * time.Hour,
		PriceLookback: time.Hour,
		FetchTimeout:  30 * time.Second,
	}
}

func (c Config) Validate() error {
	if len(c.Symbols) == 0 {
		return errors.New("engine: no symbols to watch")
	}
	if c.Short < 1 || c.Long < 1 {
		return fmt.Errorf("engine: invalid ema periods %d/%d", c.Short, c.Long)
	}
	if c.Short >= c.Long {
		return fmt.Errorf("engine: short ema period %d must be lower than long period %d", c.Short, c.Long)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("engine: invalid interval %s", c.Interval)
	}
	if c.Delay < 0 {
		return fmt.Errorf("engine: invalid delay %s", c.Delay)
	}
	if c.FetchTimeout <= 0 || c.FetchTimeout >= c.Interval {
		return fmt.Errorf("engine: fetch timeout %s must be positive and lower than interval %s", c.FetchTimeout, c.Interval)
	}
	candle, err := market.Interval(c.Candle)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if c.Lookback < candle*time.Duration(c.Long) {
		return fmt.Errorf("engine: lookback %s holds less than %d %s candles", c.Lookback, c.Long, c.Candle)
	}
	if c.PriceLookback <= 0 {
		return fmt.Errorf("engine: invalid price lookback %s", c.PriceLookback)
	}
	return nil
}
