package processor

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ColumnStats are the descriptive statistics of one numeric column, rounded
// to 3 decimals.
type ColumnStats struct {
	Column   string
	Mean     float64
	Median   float64
	Std      float64
	Min      float64
	Max      float64
	Q1       float64
	Q3       float64
	Skewness float64
	Kurtosis float64
	CV       float64 // std/mean in percent, 0 when mean <= 0
}

// StatNames are the row labels of the statistics table, in column order.
var StatNames = []string{"Media", "Mediana", "Desv_Est", "Min", "Max", "Q1", "Q3", "Skewness", "Kurtosis", "CV_%"}

// Values returns the statistics in StatNames order.
func (s ColumnStats) Values() []float64 {
	return []float64{s.Mean, s.Median, s.Std, s.Min, s.Max, s.Q1, s.Q3, s.Skewness, s.Kurtosis, s.CV}
}

// Describe computes ColumnStats over the non-NaN entries of x.
func Describe(column string, x []float64) ColumnStats {
	valid := dropNaN(x)
	s := ColumnStats{Column: column}
	if len(valid) == 0 {
		nan := math.NaN()
		s.Mean, s.Median, s.Std, s.Min, s.Max, s.Q1, s.Q3, s.Skewness, s.Kurtosis = nan, nan, nan, nan, nan, nan, nan, nan, nan
		return s
	}

	sorted := append([]float64(nil), valid...)
	sort.Float64s(sorted)

	mean := stat.Mean(valid, nil)
	std := math.NaN()
	if len(valid) > 1 {
		std = stat.StdDev(valid, nil)
	}

	s.Mean = mean
	s.Median = percentileSorted(sorted, 0.5)
	s.Std = std
	s.Min = floats.Min(valid)
	s.Max = floats.Max(valid)
	s.Q1 = percentileSorted(sorted, 0.25)
	s.Q3 = percentileSorted(sorted, 0.75)
	constant := s.Min == s.Max
	s.Skewness = skewness(valid, constant)
	s.Kurtosis = kurtosis(valid, constant)
	if mean > 0 {
		s.CV = std / mean * 100
	}
	return s.round(3)
}

func (s ColumnStats) round(places int) ColumnStats {
	s.Mean = Round(s.Mean, places)
	s.Median = Round(s.Median, places)
	s.Std = Round(s.Std, places)
	s.Min = Round(s.Min, places)
	s.Max = Round(s.Max, places)
	s.Q1 = Round(s.Q1, places)
	s.Q3 = Round(s.Q3, places)
	s.Skewness = Round(s.Skewness, places)
	s.Kurtosis = Round(s.Kurtosis, places)
	s.CV = Round(s.CV, places)
	return s
}

// skewness is the sample-adjusted Fisher-Pearson coefficient.
func skewness(x []float64, constant bool) float64 {
	switch {
	case len(x) < 3:
		return math.NaN()
	case constant:
		return 0
	}
	return stat.Skew(x, nil)
}

// kurtosis is the sample-adjusted excess kurtosis.
func kurtosis(x []float64, constant bool) float64 {
	switch {
	case len(x) < 4:
		return math.NaN()
	case constant:
		return 0
	}
	return stat.ExKurtosis(x, nil)
}

// Median of the non-NaN entries of x; NaN when there are none.
func Median(x []float64) float64 {
	return Percentile(x, 0.5)
}

// Percentile interpolates linearly between the closest ranks at position
// (n-1)*p of the sorted non-NaN entries.
func Percentile(x []float64, p float64) float64 {
	sorted := dropNaN(x)
	if len(sorted) == 0 {
		return math.NaN()
	}
	sort.Float64s(sorted)
	return percentileSorted(sorted, p)
}

func percentileSorted(sorted []float64, p float64) float64 {
	pos := float64(len(sorted)-1) * p
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// MeanOf is the mean of the non-NaN entries of x; NaN when there are none.
func MeanOf(x []float64) float64 {
	valid := dropNaN(x)
	if len(valid) == 0 {
		return math.NaN()
	}
	return stat.Mean(valid, nil)
}

// Pearson correlation over the rows where both x and y are present.
func Pearson(x, y []float64) float64 {
	var xs, ys []float64
	for i := range x {
		if i >= len(y) || math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

// Round rounds half away from zero to the given number of decimals.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func dropNaN(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
