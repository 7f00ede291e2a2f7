package processor

import (
	"fmt"
	"math"
	"sort"

	"SurveyInsight/src/config"
	"SurveyInsight/src/utils"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Analyzer computes aggregate statistics over the clean table. It never
// modifies the table.
type Analyzer struct {
	df     dataframe.DataFrame
	schema config.Schema
}

func NewAnalyzer(df dataframe.DataFrame, schema config.Schema) *Analyzer {
	return &Analyzer{df: df, schema: schema.WithDefaults()}
}

// GroupStats summarizes one column within one group.
type GroupStats struct {
	Mean   float64
	Median float64
	Count  int
}

// OSLeader is the most used app among the users of one operating system.
type OSLeader struct {
	OS        string
	App       string
	MeanHours float64
	Users     int
}

// CorrMatrix is a square Pearson correlation matrix.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64
}

// At returns the correlation between two named columns, NaN if unknown.
func (m CorrMatrix) At(a, b string) float64 {
	i, j := -1, -1
	for k, c := range m.Columns {
		if c == a {
			i = k
		}
		if c == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return math.NaN()
	}
	return m.Values[i][j]
}

// AppUsage is the mean daily hours of one app.
type AppUsage struct {
	App  string
	Mean float64
}

// StatusTotal is the mean total daily hours of one status group.
type StatusTotal struct {
	Status string
	Mean   float64
	Count  int
}

// GroupMeans holds the mean of each app within one group.
type GroupMeans struct {
	Group string
	Means map[string]float64
	Count int
}

func (a *Analyzer) Frame() dataframe.DataFrame { return a.df }

func (a *Analyzer) Schema() config.Schema { return a.schema }

func (a *Analyzer) HasColumn(name string) bool { return utils.HasColumn(a.df, name) }

// ComprehensiveStats describes each present column.
func (a *Analyzer) ComprehensiveStats(columns []string) []ColumnStats {
	var out []ColumnStats
	for _, col := range utils.PresentColumns(a.df, columns) {
		out = append(out, Describe(col, utils.Floats(a.df.Col(col))))
	}
	return out
}

// StatsFrame is ComprehensiveStats as a table: one row per column, the
// first column holding its name.
func (a *Analyzer) StatsFrame(columns []string) dataframe.DataFrame {
	stats := a.ComprehensiveStats(columns)
	names := make([]string, len(stats))
	values := make([][]float64, len(StatNames))
	for k := range values {
		values[k] = make([]float64, len(stats))
	}
	for i, s := range stats {
		names[i] = s.Column
		for k, v := range s.Values() {
			values[k][i] = v
		}
	}

	cols := []series.Series{series.New(names, series.String, "App")}
	for k, name := range StatNames {
		cols = append(cols, series.New(values[k], series.Float, name))
	}
	return dataframe.New(cols...)
}

// CompareByStatus returns mean, median and count of each column per status
// group. Rows with a missing status are ignored; an absent status field
// gives an empty map.
func (a *Analyzer) CompareByStatus(columns []string) (map[string]map[string]GroupStats, error) {
	out := make(map[string]map[string]GroupStats)
	status := a.schema.StatusField
	if !a.HasColumn(status) {
		return out, nil
	}
	cols := utils.PresentColumns(a.df, columns)
	if len(cols) == 0 {
		return out, nil
	}

	known := a.df.Filter(dataframe.F{
		Colname:    status,
		Comparator: series.CompFunc,
		Comparando: func(el series.Element) bool {
			return !el.IsNA()
		},
	})
	if known.Err != nil {
		return nil, fmt.Errorf("filter %s: %w", status, known.Err)
	}
	if known.Nrow() == 0 {
		return out, nil
	}

	groups := known.Select(append([]string{status}, cols...)).GroupBy(status)
	if groups.Err != nil {
		return nil, fmt.Errorf("group by %s: %w", status, groups.Err)
	}

	// Missing cells are excluded from every statistic, Count included.
	for label, group := range groups.GetGroups() {
		for _, col := range cols {
			valid := dropNaN(utils.Floats(group.Col(col)))
			if out[col] == nil {
				out[col] = make(map[string]GroupStats)
			}
			out[col][label] = GroupStats{
				Mean:   MeanOf(valid),
				Median: Median(valid),
				Count:  len(valid),
			}
		}
	}
	return out, nil
}

// GroupMeansBy splits the table on field and returns the mean of every
// present column per group, groups in first-appearance order.
func (a *Analyzer) GroupMeansBy(field string, columns []string) []GroupMeans {
	if !a.HasColumn(field) {
		return nil
	}
	cols := utils.PresentColumns(a.df, columns)

	var out []GroupMeans
	for _, group := range utils.Distinct(a.df.Col(field)) {
		subset := a.subset(field, group)
		g := GroupMeans{Group: group, Means: make(map[string]float64, len(cols)), Count: subset.Nrow()}
		for _, col := range cols {
			g.Means[col] = MeanOf(utils.Floats(subset.Col(col)))
		}
		out = append(out, g)
	}
	return out
}

func (a *Analyzer) subset(field, value string) dataframe.DataFrame {
	return a.df.Filter(dataframe.F{
		Colname:    field,
		Comparator: series.CompFunc,
		Comparando: func(el series.Element) bool {
			return !el.IsNA() && el.String() == value
		},
	})
}

// TopAppByOS finds, for each operating system in first-appearance order,
// the app with the highest mean usage. Ties go to the earlier column.
func (a *Analyzer) TopAppByOS(columns []string) []OSLeader {
	cols := utils.PresentColumns(a.df, columns)
	var out []OSLeader
	for _, g := range a.GroupMeansBy(a.schema.OSField, cols) {
		best, bestApp := math.Inf(-1), ""
		for _, col := range cols {
			if m := g.Means[col]; !math.IsNaN(m) && m > best {
				best, bestApp = m, col
			}
		}
		if bestApp == "" {
			continue
		}
		out = append(out, OSLeader{OS: g.Group, App: bestApp, MeanHours: Round(best, 2), Users: g.Count})
	}
	return out
}

// Correlations returns the pairwise Pearson matrix of the present columns.
func (a *Analyzer) Correlations(columns []string) CorrMatrix {
	cols := utils.PresentColumns(a.df, columns)
	data := make([][]float64, len(cols))
	for i, col := range cols {
		data[i] = utils.Floats(a.df.Col(col))
	}

	m := CorrMatrix{Columns: cols, Values: make([][]float64, len(cols))}
	for i := range cols {
		m.Values[i] = make([]float64, len(cols))
	}
	for i := range cols {
		for j := i; j < len(cols); j++ {
			r := Pearson(data[i], data[j])
			m.Values[i][j], m.Values[j][i] = r, r
		}
	}
	return m
}

// MeanUsage ranks the present columns by mean, highest first. Columns
// without any value sort last.
func (a *Analyzer) MeanUsage(columns []string) []AppUsage {
	var out []AppUsage
	for _, col := range utils.PresentColumns(a.df, columns) {
		out = append(out, AppUsage{App: col, Mean: MeanOf(utils.Floats(a.df.Col(col)))})
	}
	sort.SliceStable(out, func(i, j int) bool {
		mi, mj := out[i].Mean, out[j].Mean
		if math.IsNaN(mj) {
			return !math.IsNaN(mi)
		}
		return mi > mj
	})
	return out
}

// StatusTotals averages the per-row sum of the present columns within each
// status group, highest first. Missing cells count as zero in the sum.
func (a *Analyzer) StatusTotals(columns []string) []StatusTotal {
	status := a.schema.StatusField
	if !a.HasColumn(status) {
		return nil
	}
	cols := utils.PresentColumns(a.df, columns)

	var out []StatusTotal
	for _, group := range utils.Distinct(a.df.Col(status)) {
		subset := a.subset(status, group)
		totals := make([]float64, subset.Nrow())
		for _, col := range cols {
			for r, v := range utils.Floats(subset.Col(col)) {
				if !math.IsNaN(v) {
					totals[r] += v
				}
			}
		}
		out = append(out, StatusTotal{Status: group, Mean: MeanOf(totals), Count: subset.Nrow()})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Mean > out[j].Mean })
	return out
}
