// Package metrics implements forecast accuracy scoring.
package metrics

import "github.com/pkg/errors"

// ErrNoForecasts is returned when a mean is requested from an empty
// accumulator.
var ErrNoForecasts = errors.New("no forecasts scored")

// BrierScore returns the squared error between a probabilistic
// forecast and a binary outcome. Lower is better.
func BrierScore(forecast, outcome float64) float64 {
	d := forecast - outcome
	return d * d
}

// Accumulator sums squared forecast errors so their mean (the Brier
// score of a strategy) can be reported at the end of a run.
type Accumulator struct {
	sum   float64
	count int
}

func (a *Accumulator) Add(forecast, outcome float64) {
	a.sum += BrierScore(forecast, outcome)
	a.count++
}

func (a *Accumulator) Count() int {
	return a.count
}

// Mean returns the mean squared error over all scored forecasts.
func (a *Accumulator) Mean() (float64, error) {
	if a.count == 0 {
		return 0, ErrNoForecasts
	}
	return a.sum / float64(a.count), nil
}
