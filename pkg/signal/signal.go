package signal

import (
	"fmt"
	"time"

	"github.com/igolaizola/emacross/pkg/indicator"
)

var ErrInsufficientData = indicator.ErrInsufficientData

// Event is emitted once per upward crossover of the short average over the
// long one.
type Event struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	Time   time.Time `json:"time"`
}

// Detect reports whether the short average crossed above the long average on
// the last point: short >= long now and short < long on the previous point.
// Downward crosses are not reported.
func Detect(short, long []float64) (bool, error) {
	if len(short) < 2 || len(long) < 2 {
		return false, fmt.Errorf("signal: %w: need 2 points, got %d and %d", ErrInsufficientData, len(short), len(long))
	}
	s, l := len(short)-1, len(long)-1
	return short[s] >= long[l] && short[s-1] < long[l-1], nil
}

// Check computes both averages over prices and detects a crossover. The
// returned price is the last raw price.
func Check(prices []float64, short, long int) (bool, float64, error) {
	s, l, err := indicator.Pair(prices, short, long)
	if err != nil {
		return false, 0, err
	}
	crossed, err := Detect(s, l)
	if err != nil {
		return false, 0, err
	}
	return crossed, prices[len(prices)-1], nil
}
