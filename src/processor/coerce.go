package processor

import (
	"math"
	"strconv"
	"strings"

	"SurveyInsight/src/sheet"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var upper = cases.Upper(language.Und)

// CoerceUsage converts a raw app-usage cell into hours. Missing results are
// NaN. anomalous is true for values that were present but unusable: dates
// and text that does not parse as a number. A leading "." is read as "0.".
func CoerceUsage(v sheet.Value) (hours float64, anomalous bool) {
	switch v.Kind {
	case sheet.Number:
		return v.Num, false
	case sheet.Date:
		return math.NaN(), true
	case sheet.String:
		s := strings.TrimSpace(v.Str)
		if strings.HasPrefix(s, ".") {
			s = "0" + s
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) {
			return math.NaN(), true
		}
		return f, false
	default:
		return math.NaN(), false
	}
}

// coerceAge converts a raw age cell. Anything that is not a number or a
// numeric string is NaN.
func coerceAge(v sheet.Value) float64 {
	switch v.Kind {
	case sheet.Number:
		return v.Num
	case sheet.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil || math.IsInf(f, 0) {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// normalizeYesNo uppercases and trims s, then maps it through labels
// (e.g. "SI" -> "Si").
func normalizeYesNo(s string, labels map[string]string) string {
	s = strings.TrimSpace(upper.String(s))
	if label, ok := labels[s]; ok {
		return label
	}
	return s
}

func normalizeGender(s string) string {
	return strings.TrimSpace(upper.String(s))
}

// imputeMedian replaces NaN entries with the median of the others. It
// returns the median, how many entries were replaced and whether any valid
// value existed at all.
func imputeMedian(values []float64) (median float64, imputed int, ok bool) {
	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return math.NaN(), 0, false
	}
	median = Median(valid)
	for i, v := range values {
		if math.IsNaN(v) {
			values[i] = median
			imputed++
		}
	}
	return median, imputed, true
}
