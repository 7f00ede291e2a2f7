// reader.go
package file

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"SurveyInsight/src/config"
	"SurveyInsight/src/sheet"

	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
)

// ErrNoHeader is returned when the first sheet has no header row.
var ErrNoHeader = errors.New("first sheet has no header row")

// LoadError reports a spreadsheet that could not be turned into a table.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads the first sheet of the workbook at filePath with the given
// engine (config.EngineExcelize or config.EngineXLSX).
func Load(filePath, engine string) (sheet.Table, error) {
	var (
		t   sheet.Table
		err error
	)
	switch engine {
	case config.EngineXLSX:
		t, err = ReadXLSX(filePath)
	case config.EngineExcelize, "":
		t, err = ReadExcelize(filePath)
	default:
		err = fmt.Errorf("unknown reader engine %q", engine)
	}
	if err != nil {
		return sheet.Table{}, &LoadError{Path: filePath, Err: err}
	}
	return t, nil
}

// ReadExcelize reads the first sheet with excelize. Cell kinds come from the
// cell type and, for numbers, from the number format of the cell style.
func ReadExcelize(filePath string) (sheet.Table, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return sheet.Table{}, fmt.Errorf("excelize open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return sheet.Table{}, errors.New("workbook has no sheets")
	}
	name := sheets[0]

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return sheet.Table{}, fmt.Errorf("read rows of %s: %w", name, err)
	}
	if len(rows) == 0 {
		return sheet.Table{}, ErrNoHeader
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	dateStyles := make(map[int]bool)
	isDateStyle := func(cell string) bool {
		idx, err := f.GetCellStyle(name, cell)
		if err != nil || idx == 0 {
			return false
		}
		if v, ok := dateStyles[idx]; ok {
			return v
		}
		style, err := f.GetStyle(idx)
		v := err == nil && isDateFormat(style.NumFmt, style.CustomNumFmt)
		dateStyles[idx] = v
		return v
	}

	headers := make([]string, len(rows[0]))
	copy(headers, rows[0])
	headers = normalizeHeaders(headers)

	t := sheet.Table{Headers: headers, Rows: make([][]sheet.Value, 0, len(rows)-1)}
	for r, raw := range rows[1:] {
		row := make([]sheet.Value, len(headers))
		for c := range headers {
			if c >= len(raw) || raw[c] == "" {
				row[c] = sheet.EmptyValue()
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return sheet.Table{}, err
			}
			typ, err := f.GetCellType(name, cell)
			if err != nil {
				return sheet.Table{}, fmt.Errorf("cell %s: %w", cell, err)
			}
			row[c] = excelizeValue(raw[c], typ, date1904, func() bool { return isDateStyle(cell) })
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func excelizeValue(raw string, typ excelize.CellType, date1904 bool, isDate func() bool) sheet.Value {
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeError:
		return sheet.StringValue(raw)
	case excelize.CellTypeBool:
		return sheet.BoolValue(raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeDate:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
			if ts, err := time.Parse(layout, raw); err == nil {
				return sheet.DateValue(ts)
			}
		}
		return sheet.StringValue(raw)
	}

	// number, unset or formula: numeric text is a number unless styled as a date
	num, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return sheet.StringValue(raw)
	}
	if isDate() {
		if ts, err := excelize.ExcelDateToTime(num, date1904); err == nil {
			return sheet.DateValue(ts)
		}
	}
	return sheet.NumberValue(num)
}

// ReadXLSX reads the first sheet with tealeg/xlsx.
func ReadXLSX(filePath string) (sheet.Table, error) {
	xlFile, err := xlsx.OpenFile(filePath)
	if err != nil {
		return sheet.Table{}, fmt.Errorf("xlsx open file: %w", err)
	}
	if len(xlFile.Sheets) == 0 {
		return sheet.Table{}, errors.New("workbook has no sheets")
	}
	return convertSheetToTable(xlFile.Sheets[0], xlFile.Date1904)
}

// convertSheetToTable turns an xlsx.Sheet into a table, first row as header.
func convertSheetToTable(sh *xlsx.Sheet, date1904 bool) (sheet.Table, error) {
	if len(sh.Rows) == 0 || sh.Rows[0] == nil || len(sh.Rows[0].Cells) == 0 {
		return sheet.Table{}, ErrNoHeader
	}

	var headers []string
	for _, cell := range sh.Rows[0].Cells {
		headers = append(headers, cell.Value)
	}
	headers = normalizeHeaders(headers)

	t := sheet.Table{Headers: headers, Rows: make([][]sheet.Value, 0, len(sh.Rows)-1)}
	for _, xr := range sh.Rows[1:] {
		row := make([]sheet.Value, len(headers))
		for c := range row {
			row[c] = sheet.EmptyValue()
		}
		if xr != nil {
			for c, cell := range xr.Cells {
				if c >= len(headers) {
					break
				}
				row[c] = xlsxValue(cell, date1904)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func xlsxValue(cell *xlsx.Cell, date1904 bool) sheet.Value {
	if cell == nil || cell.Value == "" {
		return sheet.EmptyValue()
	}
	switch cell.Type() {
	case xlsx.CellTypeBool:
		return sheet.BoolValue(cell.Bool())
	case xlsx.CellTypeString, xlsx.CellTypeInline, xlsx.CellTypeStringFormula, xlsx.CellTypeError:
		return sheet.StringValue(cell.Value)
	}
	if cell.IsTime() {
		if ts, err := cell.GetTime(date1904); err == nil {
			return sheet.DateValue(ts)
		}
	}
	if f, err := cell.Float(); err == nil {
		return sheet.NumberValue(f)
	}
	return sheet.StringValue(cell.Value)
}

// normalizeHeaders names empty headers "Unnamed: <idx>" and suffixes
// repeated names with ".1", ".2", ... Header text is otherwise kept
// verbatim, surrounding whitespace included.
func normalizeHeaders(headers []string) []string {
	out := make([]string, len(headers))
	used := make(map[string]bool, len(headers))
	next := make(map[string]int)
	for i, h := range headers {
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for used[name] {
			next[h]++
			name = fmt.Sprintf("%s.%d", h, next[h])
		}
		used[name] = true
		out[i] = name
	}
	return out
}

// isDateFormat reports whether a number format renders dates or times.
func isDateFormat(numFmt int, custom *string) bool {
	switch {
	case numFmt >= 14 && numFmt <= 22,
		numFmt >= 27 && numFmt <= 36,
		numFmt >= 45 && numFmt <= 47,
		numFmt >= 50 && numFmt <= 58:
		return true
	}
	if custom == nil {
		return false
	}
	return customFormatHasDate(*custom)
}

// customFormatHasDate looks for y, m, d, h or s outside quoted literals,
// escapes and bracketed sections such as colors.
func customFormatHasDate(format string) bool {
	inQuote, inBracket := false, false
	for i := 0; i < len(format); i++ {
		ch := format[i]
		switch {
		case inQuote:
			if ch == '"' {
				inQuote = false
			}
		case inBracket:
			if ch == ']' {
				inBracket = false
			}
		case ch == '"':
			inQuote = true
		case ch == '[':
			inBracket = true
		case ch == '\\' || ch == '_' || ch == '*':
			i++
		default:
			switch ch | 0x20 {
			case 'y', 'm', 'd', 'h', 's':
				return true
			}
		}
	}
	return false
}
