// data.go
package processor

import (
	"fmt"
	"strings"
	"time"

	"SurveyInsight/src/utils"

	"github.com/go-gota/gota/dataframe"
)

// Cleaning steps, in the order they run.
const (
	StepDropColumns = "drop_empty_columns"
	StepDropRows    = "drop_empty_rows"
	StepRename      = "rename_columns"
	StepCategorical = "normalize_categoricals"
	StepApps        = "clean_app_columns"
	StepAge         = "clean_age"
)

// LogEntry records what one cleaning step did.
type LogEntry struct {
	Step      string
	Column    string
	Message   string
	Anomalies int
	Imputed   int
	Median    float64
}

// Log is the ordered record of a cleaning run.
type Log []LogEntry

// Steps returns the entries of one step.
func (l Log) Steps(step string) Log {
	var out Log
	for _, e := range l {
		if e.Step == step {
			out = append(out, e)
		}
	}
	return out
}

func (l Log) String() string {
	var b strings.Builder
	for _, e := range l {
		fmt.Fprintf(&b, "[%s] %s\n", e.Step, e.Message)
	}
	return b.String()
}

// DataProcess is implemented by everything that reads the clean table.
type DataProcess interface {
	CalculateMetrics() (map[string]interface{}, error)
}

// DataProcessor summarizes a clean table.
type DataProcessor struct {
	df   dataframe.DataFrame
	apps []string
}

func NewDataProcessor(df dataframe.DataFrame, apps []string) *DataProcessor {
	return &DataProcessor{df: df, apps: apps}
}

// CalculateMetrics reports the shape of the table and how many app cells
// are still missing.
func (p *DataProcessor) CalculateMetrics() (map[string]interface{}, error) {
	if p.df.Err != nil {
		return nil, p.df.Err
	}

	missing := 0
	present := 0
	for _, app := range p.apps {
		if !utils.HasColumn(p.df, app) {
			continue
		}
		present++
		col := p.df.Col(app)
		for i := 0; i < col.Len(); i++ {
			if col.Elem(i).IsNA() {
				missing++
			}
		}
	}

	return map[string]interface{}{
		"total_records":     p.df.Nrow(),
		"total_columns":     p.df.Ncol(),
		"app_columns":       present,
		"missing_app_cells": missing,
		"last_updated":      time.Now(),
	}, nil
}
