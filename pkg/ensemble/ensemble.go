// Package ensemble aggregates individual forecaster probabilities
// into a single point forecast per question.
package ensemble

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// ErrNoPredictions is returned when an aggregation is attempted over
// an empty prediction set.
var ErrNoPredictions = errors.New("no predictions to aggregate")

const outlierWeight = 0.5

// TrimmedMean returns the normalized weighted trimmed mean of the
// given probabilities: the prediction furthest from the median is
// down-weighted by half and the saved weight is spread evenly across
// the remaining predictions. When several predictions tie for the
// maximum distance, all of them are down-weighted together and the
// redistribution share keeps its 1/(n-1) denominator.
//
// The input is never mutated. A single prediction is returned as-is.
func TrimmedMean(preds []float64) (float64, error) {
	n := len(preds)
	if n == 0 {
		return 0, ErrNoPredictions
	}
	if n == 1 {
		return preds[0], nil
	}

	med := median(preds)

	distances := make([]float64, n)
	var maxDist float64
	for i, p := range preds {
		d := math.Abs(p - med)
		distances[i] = d
		if d > maxDist {
			maxDist = d
		}
	}

	weights := make([]float64, n)
	outliers := 0
	for i, d := range distances {
		if d == maxDist {
			weights[i] = outlierWeight
			outliers++
		} else {
			weights[i] = 1
		}
	}

	// No recipients when every prediction ties for the max distance
	// (e.g. all values equal); the equal halved weights cancel out.
	if outliers < n {
		saved := (1 - outlierWeight) / float64(n-1)
		for i, d := range distances {
			if d != maxDist {
				weights[i] += saved
			}
		}
	}

	var sum, total float64
	for i, p := range preds {
		sum += p * weights[i]
		total += weights[i]
	}
	return sum / total, nil
}

// Mean returns the plain arithmetic mean of the given probabilities.
func Mean(preds []float64) (float64, error) {
	if len(preds) == 0 {
		return 0, ErrNoPredictions
	}
	var sum float64
	for _, p := range preds {
		sum += p
	}
	return sum / float64(len(preds)), nil
}

func median(vals []float64) float64 {
	s := make([]float64, len(vals))
	copy(s, vals)
	sort.Float64s(s)

	m := len(s) / 2
	if len(s)%2 == 0 {
		return (s[m-1] + s[m]) / 2
	}
	return s[m]
}
