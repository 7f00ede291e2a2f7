// Package sheet holds the raw, typed form of a spreadsheet before cleaning.
package sheet

import (
	"math"
	"strconv"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// TimeLayout is the layout used whenever a date cell has to be rendered as text.
const TimeLayout = "2006-01-02 15:04:05"

// Kind is the type of a raw cell as reported by the spreadsheet reader.
type Kind int

const (
	Empty Kind = iota
	Number
	String
	Date
	Bool
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Number:
		return "number"
	case String:
		return "string"
	case Date:
		return "date"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is one typed cell.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
	Time time.Time
	Bool bool
}

func EmptyValue() Value           { return Value{Kind: Empty} }
func NumberValue(f float64) Value { return Value{Kind: Number, Num: f} }
func StringValue(s string) Value  { return Value{Kind: String, Str: s} }
func DateValue(t time.Time) Value { return Value{Kind: Date, Time: t} }
func BoolValue(b bool) Value      { return Value{Kind: Bool, Bool: b} }

// IsMissing reports whether the cell carries no value. A NaN number counts as missing.
func (v Value) IsMissing() bool {
	return v.Kind == Empty || (v.Kind == Number && math.IsNaN(v.Num))
}

// Text renders the value the way it is written into string columns.
func (v Value) Text() string {
	switch v.Kind {
	case Number:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case String:
		return v.Str
	case Date:
		return v.Time.Format(TimeLayout)
	case Bool:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}

// Table is a raw record table: header names plus rows of cells, every row
// exactly len(Headers) long.
type Table struct {
	Headers []string
	Rows    [][]Value
}

// Index returns the position of a column or -1.
func (t Table) Index(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the cells of one column.
func (t Table) Column(idx int) []Value {
	out := make([]Value, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[idx]
	}
	return out
}

func (t Table) Nrow() int { return len(t.Rows) }
func (t Table) Ncol() int { return len(t.Headers) }

// FromDataFrame turns a (cleaned) dataframe back into a raw table, so it can
// be fed through the cleaning steps again.
func FromDataFrame(df dataframe.DataFrame) Table {
	names := df.Names()
	t := Table{
		Headers: append([]string(nil), names...),
		Rows:    make([][]Value, df.Nrow()),
	}
	for r := range t.Rows {
		t.Rows[r] = make([]Value, len(names))
	}
	for c, name := range names {
		col := df.Col(name)
		for r := 0; r < col.Len(); r++ {
			e := col.Elem(r)
			if e.IsNA() {
				t.Rows[r][c] = EmptyValue()
				continue
			}
			switch col.Type() {
			case series.Float, series.Int:
				t.Rows[r][c] = NumberValue(e.Float())
			case series.Bool:
				b, _ := e.Bool()
				t.Rows[r][c] = BoolValue(b)
			default:
				t.Rows[r][c] = StringValue(e.String())
			}
		}
	}
	return t
}
