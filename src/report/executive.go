// Package report renders the executive summary of a survey analysis.
package report

import (
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"SurveyInsight/src/processor"
	"SurveyInsight/src/utils"

	"github.com/go-gota/gota/dataframe"
)

const (
	width     = 80
	title     = "EXECUTIVE REPORT - SOCIAL MEDIA USAGE ANALYSIS"
	dateStamp = "2006-01-02 15:04"
)

var medals = []string{"🥇", "🥈", "🥉"}

// Executive builds the report text for the clean table df. dataset is the
// name shown in the header.
func Executive(df dataframe.DataFrame, a *processor.Analyzer, columns []string, dataset string, now time.Time) string {
	heavy := strings.Repeat("=", width)
	light := strings.Repeat("─", width)
	schema := a.Schema()

	lines := []string{
		heavy,
		center(title, width),
		heavy,
		"\nAnalysis date: " + now.Format(dateStamp),
		"Dataset: " + dataset,
		fmt.Sprintf("Records analyzed: %d", df.Nrow()),
	}

	lines = append(lines, "\n"+light, "MOST USED APPS RANKING", light)
	for i, u := range a.MeanUsage(columns) {
		medal := "  "
		if i < len(medals) {
			medal = medals[i]
		}
		lines = append(lines, fmt.Sprintf("%s #%d. %s: %.2f hours/day", medal, i+1, u.App, u.Mean))
	}

	if utils.HasColumn(df, schema.StatusField) {
		lines = append(lines, "\n"+light, "USAGE BY ACADEMIC STATUS", light)
		totals := a.StatusTotals(columns)
		for _, t := range totals {
			lines = append(lines, fmt.Sprintf("• %s: %.2f hrs/day (n=%d)", t.Status, t.Mean, t.Count))
		}
		if len(totals) >= 2 {
			lines = append(lines, differenceLine(totals[0].Mean, totals[1].Mean))
		}
	}

	if utils.HasColumn(df, schema.OSField) {
		lines = append(lines, "\n"+light, "LEADING APP BY OPERATING SYSTEM", light)
		for _, l := range a.TopAppByOS(columns) {
			lines = append(lines, fmt.Sprintf("\n%s: %s (%.2fh)", l.OS, l.App, l.MeanHours))
		}
	}

	lines = append(lines, "\n"+heavy)
	return strings.Join(lines, "\n")
}

// differenceLine compares the two leading groups; the percentage is taken
// over the smaller of the two and left out when that is zero.
func differenceLine(first, second float64) string {
	diff := first - second
	if diff < 0 {
		diff = -diff
	}
	smaller := min(first, second)
	if smaller <= 0 {
		return fmt.Sprintf("\n💡 Difference: %.2f hrs", diff)
	}
	return fmt.Sprintf("\n💡 Difference: %.2f hrs (%.1f%%)", diff, diff/smaller*100)
}

func center(s string, w int) string {
	pad := w - utf8.RuneCountInString(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}

// WriteExecutive stores the report as UTF-8 text.
func WriteExecutive(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
