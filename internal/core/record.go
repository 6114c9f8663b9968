package core

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ValueKind discriminates the coerced type of a record field.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
)

// Value is one cell of a normalized transaction record. Uploads define their
// own schema, so cells carry either a string, a number, or nothing at all.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
}

var (
	ErrInvalidJSONValue = errors.New("unsupported JSON value for record field")
)

// Null returns the absent value.
func Null() Value { return Value{Kind: KindNull} }

// String returns a string-typed value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number returns a number-typed value.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// IsNull reports whether the value is absent.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Display renders the value the way it would appear in a cell. Null renders
// as the empty string.
func (v Value) Display() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	default:
		return ""
	}
}

// MarshalJSON serializes the value as a plain JSON scalar (null, string or
// number) so persisted datasets look exactly like the rows that came in.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON restores a value from a plain JSON scalar.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*v = Null()
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return ErrInvalidJSONValue
	}
	*v = Number(f)
	return nil
}

// Record maps original column names to coerced values. The column set is
// whatever the upload's header row declared; records never gain or lose
// fields after construction.
type Record map[string]Value

// Dataset is the full ordered collection of normalized records from the most
// recent successful upload. Columns preserves header order, Records preserves
// row order. A Dataset is immutable once built; stores swap whole values.
type Dataset struct {
	Version int64    `json:"version"`
	Columns []string `json:"columns"`
	Records []Record `json:"records"`
}

// Empty reports whether the dataset holds no records.
func (d Dataset) Empty() bool { return len(d.Records) == 0 }

// numericCell matches the signed decimal shapes that get type-coerced during
// normalization, including bare fractions (".5") and exponent notation.
var numericCell = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// CoerceCell converts one raw cell into a typed value. Trimmed cells that
// look like signed decimal numbers become numbers, blanks become null, and
// everything else stays a string verbatim.
func CoerceCell(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Null()
	}
	if numericCell.MatchString(trimmed) {
		f, err := strconv.ParseFloat(trimmed, 64)
		if err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return Number(f)
		}
	}
	return String(raw)
}

// NormalizeRow builds a record from one parsed row. Headers and cells are
// matched positionally; when the row is shorter than the header the trailing
// columns are recorded as null so the record still covers the full schema.
// Validation of amounts and dates is deferred to aggregation time.
func NormalizeRow(headers []string, cells []string) Record {
	rec := make(Record, len(headers))
	for i, h := range headers {
		if i < len(cells) {
			rec[h] = CoerceCell(cells[i])
		} else {
			rec[h] = Null()
		}
	}
	return rec
}

// Recognized column spellings for the semantic fields, in priority order.
var (
	amountAliases   = []string{"Amount", "amount"}
	dateAliases     = []string{"Date", "date"}
	categoryAliases = []string{"Category", "category"}
)

// resolveField finds the first matching column for a semantic field. Exact
// alias spellings win; otherwise any column that matches case-insensitively
// is accepted, in header order.
func resolveField(rec Record, columns []string, aliases []string) (Value, bool) {
	for _, a := range aliases {
		if v, ok := rec[a]; ok {
			return v, true
		}
	}
	for _, col := range columns {
		for _, a := range aliases {
			if strings.EqualFold(col, a) {
				if v, ok := rec[col]; ok {
					return v, true
				}
			}
		}
	}
	return Value{}, false
}

// AmountOf resolves the record's amount as a finite float64. The second
// return is false when no amount column exists or the value does not parse.
func AmountOf(rec Record, columns []string) (float64, bool) {
	v, ok := resolveField(rec, columns, amountAliases)
	if !ok {
		return 0, false
	}
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// DateOf resolves the record's raw date text. Absent or null dates return
// false; interpretation of the text is the aggregator's job.
func DateOf(rec Record, columns []string) (string, bool) {
	v, ok := resolveField(rec, columns, dateAliases)
	if !ok || v.IsNull() {
		return "", false
	}
	return v.Display(), true
}

// CategoryOf resolves the record's category label. Blank labels count as
// absent.
func CategoryOf(rec Record, columns []string) (string, bool) {
	v, ok := resolveField(rec, columns, categoryAliases)
	if !ok {
		return "", false
	}
	label := strings.TrimSpace(v.Display())
	if label == "" {
		return "", false
	}
	return label, true
}
