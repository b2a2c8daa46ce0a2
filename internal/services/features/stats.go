package features

import (
	"math"
	"sort"
)

// mean returns the arithmetic mean of xs, or false when xs is empty.
func mean(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs)), true
}

// sampleStd returns the n-1 standard deviation. It needs at least two values
// and is exactly zero for a constant series.
func sampleStd(xs []float64) (float64, bool) {
	if len(xs) < 2 {
		return 0, false
	}
	if constant(xs) {
		return 0, true
	}
	m, _ := mean(xs)
	ss := 0.0
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1)), true
}

// pearson returns the correlation of paired series. It is undefined for
// fewer than two pairs or when either series is constant.
func pearson(xs, ys []float64) (float64, bool) {
	if len(xs) != len(ys) || len(xs) < 2 || constant(xs) || constant(ys) {
		return 0, false
	}
	mx, _ := mean(xs)
	my, _ := mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, false
	}
	r := sxy / math.Sqrt(sxx*syy)
	return math.Max(-1, math.Min(1, r)), true
}

func constant(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}

// median returns the middle value of xs, averaging the two central values
// for an even count. xs is not modified.
func median(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid], true
	}
	return (s[mid-1] + s[mid]) / 2, true
}

func minMax(xs []float64) (lo, hi float64, ok bool) {
	if len(xs) == 0 {
		return 0, 0, false
	}
	lo, hi = xs[0], xs[0]
	for _, x := range xs[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi, true
}

// populationStd is the n standard deviation used by the series z-score.
func populationStd(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	if constant(xs) {
		return 0, true
	}
	m, _ := mean(xs)
	ss := 0.0
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs))), true
}

// madScale makes the MAD score comparable to a z-score for normal data.
const madScale = 0.6745

// madZ scores every value of xs against the median absolute deviation of the
// whole series. It returns nil when the deviation is zero or xs is empty.
func madZ(xs []float64) []float64 {
	med, ok := median(xs)
	if !ok {
		return nil
	}
	dev := make([]float64, len(xs))
	for i, x := range xs {
		dev[i] = math.Abs(x - med)
	}
	mad, _ := median(dev)
	if mad == 0 {
		return nil
	}
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = madScale * (x - med) / mad
	}
	return out
}

// zScores scores every value of xs against the series mean and population
// deviation. It returns nil for a constant or empty series.
func zScores(xs []float64) []float64 {
	sd, ok := populationStd(xs)
	if !ok || sd == 0 {
		return nil
	}
	m, _ := mean(xs)
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = (x - m) / sd
	}
	return out
}
