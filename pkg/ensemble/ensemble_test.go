package ensemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const delta = 1e-9

func TestTrimmedMean(t *testing.T) {
	tests := []struct {
		name  string
		preds []float64
		want  float64
	}{
		{
			name:  "single prediction returned unchanged",
			preds: []float64{0.42},
			want:  0.42,
		},
		{
			name:  "all equal degenerates to the common value",
			preds: []float64{0.6, 0.6, 0.6},
			want:  0.6,
		},
		{
			name: "two-way tie for max distance",
			// median 0.5, both 0.1 and 0.9 are down-weighted to 0.5,
			// 0.5 gets 1 + 0.5/2 = 1.25
			preds: []float64{0.1, 0.5, 0.9},
			want:  0.7 / 2.25,
		},
		{
			name: "single outlier",
			// median 0.3, outlier 0.8 weighted 0.5, others 1.25
			preds: []float64{0.2, 0.3, 0.8},
			want:  1.025 / 3.0,
		},
		{
			name: "length two, both outliers",
			// no redistribution recipients, equal halved weights
			preds: []float64{0.0, 1.0},
			want:  0.5,
		},
		{
			name:  "even length, symmetric outliers cancel",
			preds: []float64{0.1, 0.4, 0.6, 0.9},
			want:  0.5,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := TrimmedMean(tc.preds)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, delta)
		})
	}
}

func TestTrimmedMean_Empty(t *testing.T) {
	_, err := TrimmedMean(nil)
	assert.ErrorIs(t, err, ErrNoPredictions)

	_, err = TrimmedMean([]float64{})
	assert.ErrorIs(t, err, ErrNoPredictions)
}

func TestTrimmedMean_DoesNotMutateInput(t *testing.T) {
	preds := []float64{0.9, 0.1, 0.5}

	first, err := TrimmedMean(preds)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.9, 0.1, 0.5}, preds)

	second, err := TrimmedMean(preds)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTrimmedMean_WithinConvexHull(t *testing.T) {
	preds := []float64{0.05, 0.3, 0.35, 0.4, 0.95}
	got, err := TrimmedMean(preds)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got, 0.05)
	assert.LessOrEqual(t, got, 0.95)
}

func TestMean(t *testing.T) {
	got, err := Mean([]float64{0.2, 0.4, 0.6})
	require.NoError(t, err)
	assert.InDelta(t, 0.4, got, delta)

	got, err = Mean([]float64{0.7})
	require.NoError(t, err)
	assert.InDelta(t, 0.7, got, delta)

	_, err = Mean(nil)
	assert.ErrorIs(t, err, ErrNoPredictions)
}
