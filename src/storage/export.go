package storage

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// CSVWriter writes tables as CSV files below a base directory.
type CSVWriter struct {
	baseDir string
	logger  *Logger
}

// NewCSVWriter returns a writer resolving relative paths against baseDir.
// logger may be nil.
func NewCSVWriter(baseDir string, logger *Logger) *CSVWriter {
	return &CSVWriter{baseDir: baseDir, logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	Append    bool
	BOMPrefix bool // UTF-8 BOM so Excel picks the right encoding
}

// WriteCSV writes data to a CSV file with the given options and returns the
// full path written.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) (string, error) {
	fullPath := w.resolvePath(filePath)

	if w.logger != nil {
		w.logger.Debug("writing CSV file",
			zap.String("full_path", fullPath),
			zap.Int("record_count", len(options.Records)))
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if options.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(fullPath, flags, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix && !options.Append {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return "", fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)

	if !options.Append && len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return "", fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("flush %s: %w", fullPath, err)
	}
	return fullPath, nil
}

// WriteDataFrame writes df with its column names as the header row.
func (w *CSVWriter) WriteDataFrame(filePath string, df dataframe.DataFrame) (string, error) {
	headers, records := DataFrameRecords(df)
	return w.WriteCSV(filePath, WriteOptions{Headers: headers, Records: records})
}

func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.baseDir == "" {
		return filePath
	}
	return filepath.Join(w.baseDir, filePath)
}

// DataFrameRecords renders df as CSV rows. Missing values become empty
// fields, floats keep their shortest exact form with at least one decimal.
func DataFrameRecords(df dataframe.DataFrame) ([]string, [][]string) {
	names := df.Names()
	records := make([][]string, df.Nrow())
	for r := range records {
		records[r] = make([]string, len(names))
	}
	for c, name := range names {
		col := df.Col(name)
		for r := 0; r < col.Len(); r++ {
			records[r][c] = FormatElement(col.Elem(r), col.Type())
		}
	}
	return names, records
}

// FormatElement renders one dataframe element for text output.
func FormatElement(e series.Element, t series.Type) string {
	if e.IsNA() {
		return ""
	}
	switch t {
	case series.Float:
		return FormatFloat(e.Float())
	case series.Int:
		return strconv.Itoa(int(e.Float()))
	default:
		return e.String()
	}
}

// FormatFloat renders v like "2.0", "0.125" or "" for NaN.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	if math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// SaveToExcel writes df to the first sheet of a new workbook. Missing values
// are left as empty cells.
func SaveToExcel(df dataframe.DataFrame, filePath string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := f.GetSheetName(0)
	colNames := df.Names()

	header := make([]interface{}, len(colNames))
	for i, name := range colNames {
		header[i] = name
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	cols := make([]series.Series, len(colNames))
	for i, name := range colNames {
		cols[i] = df.Col(name)
	}
	for rowIdx := 0; rowIdx < df.Nrow(); rowIdx++ {
		row := make([]interface{}, len(cols))
		for c, col := range cols {
			e := col.Elem(rowIdx)
			if e.IsNA() {
				row[c] = nil
				continue
			}
			switch col.Type() {
			case series.Float:
				row[c] = e.Float()
			case series.Int:
				row[c] = int(e.Float())
			default:
				row[c] = e.String()
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, rowIdx+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", rowIdx+1, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("save workbook %s: %w", filePath, err)
	}
	return nil
}
