package indicator

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidPeriod    = errors.New("invalid period")
)

// EMA returns the exponential moving average of series for the given period.
// The average is seeded with the first sample (no simple-average warm up), so
// ema[0] == series[0] and ema[i] = series[i]*k + ema[i-1]*(1-k), k = 2/(period+1).
func EMA(series []float64, period int) ([]float64, error) {
	if period < 1 {
		return nil, fmt.Errorf("indicator: %w: %d", ErrInvalidPeriod, period)
	}
	if len(series) == 0 || len(series) < period {
		return nil, fmt.Errorf("indicator: %w: ema(%d) over %d prices", ErrInsufficientData, period, len(series))
	}
	k := 2.0 / float64(period+1)
	ema := make([]float64, len(series))
	ema[0] = series[0]
	for i := 1; i < len(series); i++ {
		ema[i] = series[i]*k + ema[i-1]*(1-k)
	}
	return ema, nil
}

// Pair computes the short and long averages over the same series.
func Pair(series []float64, short, long int) ([]float64, []float64, error) {
	s, err := EMA(series, short)
	if err != nil {
		return nil, nil, err
	}
	l, err := EMA(series, long)
	if err != nil {
		return nil, nil, err
	}
	return s, l, nil
}
