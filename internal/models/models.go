package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ValueKind tags the scalar stored in a cell.
type ValueKind int

const (
	KindAbsent ValueKind = iota
	KindNumber
	KindText
	KindBool
)

// Value is a tagged cell scalar. Coercion rules (string view, float view)
// live here so every consumer applies the same ones.
type Value struct {
	Kind ValueKind
	Num  float64
	Text string
	Bool bool
}

func Number(f float64) Value   { return Value{Kind: KindNumber, Num: f} }
func Text(s string) Value      { return Value{Kind: KindText, Text: s} }
func Boolean(b bool) Value     { return Value{Kind: KindBool, Bool: b} }
func Absent() Value            { return Value{Kind: KindAbsent} }
func (v Value) IsAbsent() bool { return v.Kind == KindAbsent }

// String coerces the value to its string form. Absent coerces to "".
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindText:
		return v.Text
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}

// Float reports the numeric view of the value. Text must parse fully as a
// finite decimal to count.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// FloatOrZero is the lossy-but-predictable coercion used by the chart
// builders: unparseable or missing contributes 0.
func (v Value) FloatOrZero() float64 {
	f, ok := v.Float()
	if !ok {
		return 0
	}
	return f
}

// MarshalJSON renders the value as the native JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		return json.Marshal(v.Num)
	case KindText:
		return json.Marshal(v.Text)
	case KindBool:
		return json.Marshal(v.Bool)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON tags an incoming JSON scalar.
func (v *Value) UnmarshalJSON(data []byte) error {
	if strings.TrimSpace(string(data)) == "null" {
		*v = Absent()
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = Boolean(b)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*v = Number(f)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*v = Text(str)
		return nil
	}
	// Non-scalar cell (nested object/array): keep the raw text.
	*v = Text(string(data))
	return nil
}

// Row maps column name to a cell value. Rows are sparse: a missing key and an
// explicit Absent value behave identically.
type Row map[string]Value

// Get returns the cell value, Absent when the column is missing.
func (r Row) Get(col string) Value {
	if v, ok := r[col]; ok {
		return v
	}
	return Absent()
}

// ColumnType is the inferred semantic type of a column.
type ColumnType string

const (
	TypeNumeric     ColumnType = "numeric"
	TypeCategorical ColumnType = "categorical"
	TypeDatetime    ColumnType = "datetime"
	TypeGeo         ColumnType = "geo"
)

// ColumnDescriptor pairs a column name with its inferred type.
type ColumnDescriptor struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Schema is the ordered column-name -> descriptor mapping for one dataset.
// Order is declaration order from the source file; "first categorical" and
// friends depend on it.
type Schema struct {
	Columns []ColumnDescriptor `json:"columns"`
}

// TypeOf returns the inferred type of a column.
func (s Schema) TypeOf(name string) (ColumnType, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c.Type, true
		}
	}
	return "", false
}

// ColumnsOf returns the column names of the given type, in schema order.
func (s Schema) ColumnsOf(t ColumnType) []string {
	var out []string
	for _, c := range s.Columns {
		if c.Type == t {
			out = append(out, c.Name)
		}
	}
	return out
}

// Names returns all column names in schema order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// Dataset is one fully materialized table plus its provenance.
type Dataset struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Sheet  string   `json:"sheet,omitempty"`
	Sheets []string `json:"sheets,omitempty"`
	Cols   []string `json:"columns"`
	Rows   []Row    `json:"-"`
}

// ChartType names a chart variant. Types without a registered builder degrade
// to ChartTable at build time.
type ChartType string

const (
	ChartBar      ChartType = "bar"
	ChartHBar     ChartType = "horizontalBar"
	ChartStacked  ChartType = "stackedBar"
	ChartLine     ChartType = "line"
	ChartArea     ChartType = "area"
	ChartPie      ChartType = "pie"
	ChartDoughnut ChartType = "doughnut"
	ChartPolar    ChartType = "polarArea"
	ChartScatter  ChartType = "scatter"
	ChartBubble   ChartType = "bubble"
	ChartRadar    ChartType = "radar"
	ChartTable    ChartType = "table"
)

// FieldSelection binds schema columns to chart roles.
type FieldSelection struct {
	X           string   `json:"x,omitempty"`
	Y           string   `json:"y,omitempty"`
	Category    string   `json:"category,omitempty"`
	SubCategory string   `json:"subCategory,omitempty"`
	Size        string   `json:"size,omitempty"`
	Series      []string `json:"series,omitempty"`
}

// ChartSpec is the resolved chart configuration: type, field bindings and
// truncation limit. Fully reconstructible from schema + user selection.
type ChartSpec struct {
	Type   ChartType      `json:"type"`
	Fields FieldSelection `json:"fields"`
	TopN   int            `json:"topN"`
}

// SeriesPoint is one scatter/bubble point.
type SeriesPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	R float64 `json:"r,omitempty"`
}

// SeriesData is one renderable dataset within a chart.
type SeriesData struct {
	Label  string        `json:"label"`
	Values []float64     `json:"values,omitempty"`
	Points []SeriesPoint `json:"points,omitempty"`
}

// ChartData is what the renderer consumes. When Fallback is set the chart
// could not be built and the raw table should be shown instead; Message says
// why.
type ChartData struct {
	Type       ChartType    `json:"type"`
	Labels     []string     `json:"labels,omitempty"`
	Series     []SeriesData `json:"series,omitempty"`
	Horizontal bool         `json:"horizontal,omitempty"`
	Fill       bool         `json:"fill,omitempty"`
	FillColor  string       `json:"fillColor,omitempty"`
	Fallback   bool         `json:"fallback,omitempty"`
	Message    string       `json:"message,omitempty"`
}

// PredicateKind selects the comparison a filter applies.
type PredicateKind string

const (
	PredEquality   PredicateKind = "equality"
	PredRange      PredicateKind = "range"
	PredDateEquals PredicateKind = "dateEquals"
)

// Predicate is one column-value constraint. Active predicates are ANDed.
type Predicate struct {
	Column string        `json:"column"`
	Kind   PredicateKind `json:"kind"`
	Value  string        `json:"value,omitempty"`
	Min    *float64      `json:"min,omitempty"`
	Max    *float64      `json:"max,omitempty"`
	Date   string        `json:"date,omitempty"`
}

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// MapPoint is one plottable marker.
type MapPoint struct {
	Coordinates
	Label string `json:"label,omitempty"`
}

// Preview is the best-effort cached snapshot of the last loaded dataset.
type Preview struct {
	Name  string   `json:"name"`
	Sheet string   `json:"sheet,omitempty"`
	Cols  []string `json:"columns"`
	Rows  []Row    `json:"rows"`
}
