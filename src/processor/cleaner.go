package processor

import (
	"fmt"
	"math"
	"strings"

	"SurveyInsight/src/config"
	"SurveyInsight/src/sheet"
	"SurveyInsight/src/storage"
	"SurveyInsight/src/utils"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"go.uber.org/zap"
)

// Cleaner turns a raw survey sheet into the clean table.
type Cleaner struct {
	schema config.Schema
	logger *storage.Logger
}

// NewCleaner returns a cleaner for schema. logger may be nil.
func NewCleaner(schema config.Schema, logger *storage.Logger) *Cleaner {
	return &Cleaner{schema: schema.WithDefaults(), logger: logger}
}

// work is the column-major working copy the steps operate on.
type work struct {
	names []string
	cols  [][]sheet.Value
	nrows int
}

func newWork(raw sheet.Table) *work {
	w := &work{
		names: append([]string(nil), raw.Headers...),
		cols:  make([][]sheet.Value, len(raw.Headers)),
		nrows: raw.Nrow(),
	}
	for c := range w.cols {
		col := make([]sheet.Value, raw.Nrow())
		for r, row := range raw.Rows {
			if c < len(row) {
				col[r] = row[c]
			}
		}
		w.cols[c] = col
	}
	return w
}

func (w *work) index(name string) int {
	for i, n := range w.names {
		if n == name {
			return i
		}
	}
	return -1
}

// Clean runs the cleaning steps in order and returns the clean table with
// the log of what each step did. The error only reports a failure to
// assemble the DataFrame.
func (c *Cleaner) Clean(raw sheet.Table) (dataframe.DataFrame, Log, error) {
	w := newWork(raw)
	var log Log

	log = append(log, c.dropEmptyColumns(w))
	log = append(log, c.dropEmptyRows(w))
	log = append(log, c.renameColumns(w))
	log = append(log, c.normalizeCategoricals(w)...)

	apps, appLog := c.cleanAppColumns(w)
	log = append(log, appLog...)

	age, ageEntry := c.cleanAge(w)
	log = append(log, ageEntry)

	df, err := c.build(w, apps, age)
	if err != nil {
		return dataframe.DataFrame{}, log, err
	}
	return df, log, nil
}

// dropEmptyColumns removes placeholder columns such as "Unnamed: 3".
func (c *Cleaner) dropEmptyColumns(w *work) LogEntry {
	var (
		names   []string
		cols    [][]sheet.Value
		removed []string
	)
	for i, name := range w.names {
		if strings.Contains(name, c.schema.UnnamedPattern) {
			removed = append(removed, name)
			continue
		}
		names = append(names, name)
		cols = append(cols, w.cols[i])
	}
	w.names, w.cols = names, cols

	e := LogEntry{Step: StepDropColumns, Message: fmt.Sprintf("removed %d empty columns", len(removed))}
	c.info(e, zap.Strings("columns", removed))
	return e
}

// dropEmptyRows removes rows whose identity fields are all missing.
func (c *Cleaner) dropEmptyRows(w *work) LogEntry {
	var idx []int
	for _, field := range c.schema.IdentityFields {
		i := w.index(field)
		if i < 0 {
			i = w.index(c.rawName(field))
		}
		if i >= 0 {
			idx = append(idx, i)
		}
	}

	removed := 0
	if len(idx) > 0 {
		keep := make([]int, 0, w.nrows)
		for r := 0; r < w.nrows; r++ {
			empty := true
			for _, i := range idx {
				if !w.cols[i][r].IsMissing() {
					empty = false
					break
				}
			}
			if !empty {
				keep = append(keep, r)
			}
		}
		removed = w.nrows - len(keep)
		for ci, col := range w.cols {
			kept := make([]sheet.Value, len(keep))
			for k, r := range keep {
				kept[k] = col[r]
			}
			w.cols[ci] = kept
		}
		w.nrows = len(keep)
	}

	e := LogEntry{Step: StepDropRows, Message: fmt.Sprintf("removed %d empty rows", removed)}
	c.info(e, zap.Int("identity_columns", len(idx)), zap.Int("rows", w.nrows))
	return e
}

// rawName finds the raw header that renames to the canonical field.
func (c *Cleaner) rawName(field string) string {
	for raw, canonical := range c.schema.Rename {
		if canonical == field {
			return raw
		}
	}
	return field
}

func (c *Cleaner) renameColumns(w *work) LogEntry {
	renamed := 0
	for i, name := range w.names {
		target := c.schema.Canonical(name)
		if target == name {
			continue
		}
		if w.index(target) >= 0 {
			c.warn("rename target already present, keeping raw header",
				zap.String("column", name), zap.String("target", target))
			continue
		}
		w.names[i] = target
		renamed++
	}

	e := LogEntry{Step: StepRename, Message: fmt.Sprintf("standardized %d column names", renamed)}
	c.info(e)
	return e
}

func (c *Cleaner) categoricalFields() []string {
	fields := append([]string(nil), c.schema.YesNoFields...)
	return append(fields, c.schema.OSField, c.schema.GenderField)
}

func (c *Cleaner) normalizeCategoricals(w *work) Log {
	var log Log
	for _, field := range c.categoricalFields() {
		i := w.index(field)
		if i < 0 {
			continue
		}

		var norm func(string) string
		switch {
		case utils.Contains(c.schema.YesNoFields, field):
			norm = func(s string) string { return normalizeYesNo(s, c.schema.YesNoLabels) }
		case field == c.schema.OSField:
			norm = func(s string) string { return c.schema.OSLabel(strings.TrimSpace(s)) }
		default:
			norm = normalizeGender
		}

		col := w.cols[i]
		for r, v := range col {
			if v.IsMissing() {
				col[r] = sheet.EmptyValue()
				continue
			}
			if s := norm(v.Text()); s != "" {
				col[r] = sheet.StringValue(s)
			} else {
				col[r] = sheet.EmptyValue()
			}
		}

		e := LogEntry{Step: StepCategorical, Column: field, Message: "standardized " + field}
		c.info(e)
		log = append(log, e)
	}

	if len(log) == 0 {
		e := LogEntry{Step: StepCategorical, Message: "no categorical columns present"}
		c.info(e)
		log = append(log, e)
	}
	return log
}

func (c *Cleaner) cleanAppColumns(w *work) (map[string][]float64, Log) {
	apps := make(map[string][]float64)
	var log Log

	for _, app := range c.schema.AppColumns {
		i := w.index(app)
		if i < 0 {
			continue
		}

		values := make([]float64, w.nrows)
		anomalies := 0
		for r, v := range w.cols[i] {
			f, bad := CoerceUsage(v)
			values[r] = f
			if bad {
				anomalies++
			}
		}
		apps[app] = values

		median, imputed, ok := imputeMedian(values)
		e := LogEntry{Step: StepApps, Column: app, Anomalies: anomalies, Imputed: imputed, Median: median}
		if !ok {
			e.Message = fmt.Sprintf("%s: %d anomalous values, no valid values left, column stays missing", app, anomalies)
			c.warn(e.Message, zap.String("column", app), zap.Int("anomalies", anomalies))
		} else {
			e.Message = fmt.Sprintf("%s: %d anomalous values detected, %d imputed with median (%.2f)", app, anomalies, imputed, median)
			c.info(e, zap.Float64("median", median))
		}
		log = append(log, e)
	}

	if len(log) == 0 {
		e := LogEntry{Step: StepApps, Message: "no app columns present"}
		c.warn(e.Message)
		log = append(log, e)
	}
	return apps, log
}

// cleanAge returns nil when the age column is absent.
func (c *Cleaner) cleanAge(w *work) ([]float64, LogEntry) {
	i := w.index(c.schema.AgeField)
	if i < 0 {
		e := LogEntry{Step: StepAge, Column: c.schema.AgeField, Message: "age column absent"}
		c.info(e)
		return nil, e
	}

	ages := make([]float64, w.nrows)
	for r, v := range w.cols[i] {
		ages[r] = coerceAge(v)
	}
	median, imputed, ok := imputeMedian(ages)
	for r, v := range ages {
		if !math.IsNaN(v) {
			ages[r] = math.Trunc(v)
		}
	}

	e := LogEntry{Step: StepAge, Column: c.schema.AgeField, Imputed: imputed, Median: median}
	if !ok {
		e.Message = "age has no valid values, column stays missing"
		c.warn(e.Message)
	} else {
		e.Message = fmt.Sprintf("age cleaned and converted to integer, %d imputed with median (%.1f)", imputed, median)
		c.info(e)
	}
	return ages, e
}

// build assembles the typed DataFrame in the working column order.
func (c *Cleaner) build(w *work, apps map[string][]float64, age []float64) (dataframe.DataFrame, error) {
	if len(w.names) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("no columns left after cleaning")
	}

	cats := c.categoricalFields()
	cols := make([]series.Series, len(w.names))
	for i, name := range w.names {
		switch {
		case apps[name] != nil:
			cols[i] = series.New(apps[name], series.Float, name)
		case name == c.schema.AgeField && age != nil:
			vals := make([]interface{}, len(age))
			for r, v := range age {
				if !math.IsNaN(v) {
					vals[r] = int(v)
				}
			}
			cols[i] = series.New(vals, series.Int, name)
		case utils.Contains(cats, name):
			cols[i] = series.New(textValues(w.cols[i]), series.String, name)
		default:
			cols[i] = passThrough(name, w.cols[i])
		}
	}

	df := dataframe.New(cols...)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("build clean table: %w", df.Err)
	}
	return df, nil
}

// passThrough keeps a column the cleaner does not know: Float when every
// present value is a number, String otherwise.
func passThrough(name string, col []sheet.Value) series.Series {
	numeric := true
	for _, v := range col {
		if !v.IsMissing() && v.Kind != sheet.Number {
			numeric = false
			break
		}
	}
	if !numeric {
		return series.New(textValues(col), series.String, name)
	}
	vals := make([]float64, len(col))
	for r, v := range col {
		if v.IsMissing() {
			vals[r] = math.NaN()
		} else {
			vals[r] = v.Num
		}
	}
	return series.New(vals, series.Float, name)
}

func textValues(col []sheet.Value) []interface{} {
	vals := make([]interface{}, len(col))
	for r, v := range col {
		if !v.IsMissing() {
			vals[r] = v.Text()
		}
	}
	return vals
}

func (c *Cleaner) info(e LogEntry, fields ...zap.Field) {
	if c.logger == nil {
		return
	}
	fields = append(fields, zap.String("step", e.Step))
	if e.Column != "" {
		fields = append(fields, zap.String("column", e.Column))
	}
	if e.Step == StepApps {
		fields = append(fields, zap.Int("anomalies", e.Anomalies), zap.Int("imputed", e.Imputed))
	}
	c.logger.Info(e.Message, fields...)
}

func (c *Cleaner) warn(msg string, fields ...zap.Field) {
	if c.logger == nil {
		return
	}
	c.logger.Warning(msg, fields...)
}
