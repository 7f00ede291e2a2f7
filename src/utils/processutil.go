package utils

import (
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// HasColumn reports whether the DataFrame has the named column.
func HasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// PresentColumns keeps the names that exist in df, in the given order.
func PresentColumns(df dataframe.DataFrame, names []string) []string {
	var out []string
	for _, name := range names {
		if HasColumn(df, name) {
			out = append(out, name)
		}
	}
	return out
}

// Floats returns the column as float64 values with NaN for missing entries.
func Floats(s series.Series) []float64 {
	out := make([]float64, s.Len())
	for i := range out {
		e := s.Elem(i)
		if e.IsNA() {
			out[i] = math.NaN()
			continue
		}
		out[i] = e.Float()
	}
	return out
}

// Labels returns the column as strings; ok[i] is false for missing entries.
func Labels(s series.Series) (labels []string, ok []bool) {
	labels = make([]string, s.Len())
	ok = make([]bool, s.Len())
	for i := range labels {
		e := s.Elem(i)
		if e.IsNA() {
			continue
		}
		labels[i] = e.String()
		ok[i] = true
	}
	return labels, ok
}

// Distinct returns the non-missing labels of s in first-appearance order.
func Distinct(s series.Series) []string {
	labels, ok := Labels(s)
	seen := make(map[string]bool)
	var out []string
	for i, l := range labels {
		if !ok[i] || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
