package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleStd(t *testing.T) {
	_, ok := sampleStd([]float64{1})
	assert.False(t, ok)

	v, ok := sampleStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.True(t, ok)
	assert.InDelta(t, 2.13809, v, 1e-5)

	v, ok = sampleStd([]float64{0.1, 0.1, 0.1})
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)
}

func TestPearson(t *testing.T) {
	r, ok := pearson([]float64{1, 2, 3}, []float64{3, 2, 1})
	assert.True(t, ok)
	assert.InDelta(t, -1.0, r, 1e-12)

	_, ok = pearson([]float64{1, 2, 3}, []float64{5, 5, 5})
	assert.False(t, ok)

	_, ok = pearson([]float64{1}, []float64{1})
	assert.False(t, ok)
}

func TestMedianAndMinMax(t *testing.T) {
	_, ok := median(nil)
	assert.False(t, ok)

	xs := []float64{9, 1, 4}
	v, ok := median(xs)
	assert.True(t, ok)
	assert.Equal(t, 4.0, v)
	assert.Equal(t, []float64{9, 1, 4}, xs, "input left unsorted")

	v, _ = median([]float64{4, 1, 3, 2})
	assert.Equal(t, 2.5, v)

	lo, hi, ok := minMax([]float64{3, -7, 12})
	assert.True(t, ok)
	assert.Equal(t, -7.0, lo)
	assert.Equal(t, 12.0, hi)
}

func TestMADZ(t *testing.T) {
	assert.Nil(t, madZ(nil))
	assert.Nil(t, madZ([]float64{5, 5, 5, 9}), "zero median absolute deviation")

	got := madZ([]float64{1, 2, 3, 4, 100})
	if assert.Len(t, got, 5) {
		assert.InDelta(t, -1.349, got[0], 1e-9)
		assert.Equal(t, 0.0, got[2])
		assert.InDelta(t, 65.4265, got[4], 1e-9)
	}
}

func TestZScores(t *testing.T) {
	assert.Nil(t, zScores([]float64{3, 3, 3}))

	got := zScores([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if assert.Len(t, got, 8) {
		assert.InDelta(t, -1.5, got[0], 1e-12)
		assert.InDelta(t, 2.0, got[7], 1e-12)
	}
}
