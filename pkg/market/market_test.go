package market

import (
	"context"
	"errors"
	"testing"
	"time"
)

type staticSource []float64

func (s staticSource) Closes(ctx context.Context, symbol, interval string, lookback time.Duration) ([]float64, error) {
	return s, nil
}

func TestLast(t *testing.T) {
	got, err := Last(context.Background(), staticSource{1, 2, 3.5}, "ETHUSDT", "30m", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if got != 3.5 {
		t.Errorf("want 3.5, got %v", got)
	}
	if _, err := Last(context.Background(), staticSource{}, "ETHUSDT", "30m", time.Hour); !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("want %v, got %v", ErrDataUnavailable, err)
	}
}

func TestInterval(t *testing.T) {
	d, err := Interval("30m")
	if err != nil {
		t.Fatal(err)
	}
	if d != 30*time.Minute {
		t.Errorf("want 30m, got %s", d)
	}
	if _, err := Interval("7m"); err == nil {
		t.Error("expected error for invalid interval")
	}
}
