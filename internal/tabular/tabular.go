// Package tabular provides header validation and typed cell parsing for CSV tables.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"repeat-purchase-lab/internal/domain"
)

// Reader reads a CSV table by column name.
type Reader struct {
	table  string
	r      *csv.Reader
	header []string
	index  map[string]int
	line   int
	record []string
}

// NewReader reads the header row and checks that every required column is present.
// Returns *domain.SchemaError naming all missing columns.
func NewReader(table string, src io.Reader, required []string) (*Reader, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &domain.SchemaError{Table: table, Missing: append([]string(nil), required...)}
		}
		return nil, fmt.Errorf("read %s header: %w", table, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF"))
		header[i] = name
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	for _, col := range required {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.SchemaError{Table: table, Missing: missing}
	}

	return &Reader{table: table, r: r, header: header, index: index, line: 1}, nil
}

// Next advances to the next record. Returns io.EOF at the end of the table.
// Blank lines are skipped by encoding/csv. A record with fewer fields than the
// header fails with *domain.DataTypeError naming the first absent column.
func (t *Reader) Next() error {
	rec, err := t.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("read %s: %w", t.table, err)
	}
	line, _ := t.r.FieldPos(0)
	t.line = line
	t.record = rec
	if len(rec) < len(t.header) {
		return t.typeErr(t.header[len(rec)], "",
			fmt.Sprintf("row has %d fields, header has %d", len(rec), len(t.header)))
	}
	return nil
}

// String returns the trimmed cell of column col.
func (t *Reader) String(col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(t.record) {
		return ""
	}
	return strings.TrimSpace(t.record[i])
}

// Required returns the cell of column col, failing if it is empty.
func (t *Reader) Required(col string) (string, error) {
	v := t.String(col)
	if v == "" {
		return "", t.typeErr(col, v, "value is required")
	}
	return v, nil
}

// Date parses column col as a YYYY-MM-DD calendar date.
func (t *Reader) Date(col string) (time.Time, error) {
	v := t.String(col)
	d, err := time.Parse(domain.DateLayout, v)
	if err != nil {
		return time.Time{}, t.typeErr(col, v, "expected date YYYY-MM-DD")
	}
	return d, nil
}

// Float parses column col as a finite real number.
func (t *Reader) Float(col string) (float64, error) {
	v := t.String(col)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, t.typeErr(col, v, "expected a finite number")
	}
	return f, nil
}

// FloatOrZero parses column col, treating an empty cell as a missing value of 0.
func (t *Reader) FloatOrZero(col string) (float64, error) {
	if t.String(col) == "" {
		return 0, nil
	}
	return t.Float(col)
}

// Int parses column col as an integer. Integral floats such as "3.0" are accepted.
func (t *Reader) Int(col string) (int, error) {
	v := t.String(col)
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, t.typeErr(col, v, "expected an integer")
	}
	return int(f), nil
}

// IntOrZero parses column col, treating an empty cell as a missing value of 0.
func (t *Reader) IntOrZero(col string) (int, error) {
	if t.String(col) == "" {
		return 0, nil
	}
	return t.Int(col)
}

// Bool parses column col. Accepts true/false, 1/0, t/f, yes/no (case insensitive).
func (t *Reader) Bool(col string) (bool, error) {
	v := t.String(col)
	switch strings.ToLower(v) {
	case "true", "t", "1", "1.0", "yes", "y":
		return true, nil
	case "false", "f", "0", "0.0", "no", "n":
		return false, nil
	}
	return false, t.typeErr(col, v, "expected a boolean")
}

// Invalid builds a DataTypeError for column col at the current line.
func (t *Reader) Invalid(col, reason string) error {
	return t.typeErr(col, t.String(col), reason)
}

func (t *Reader) typeErr(col, value, reason string) error {
	return &domain.DataTypeError{Column: col, Line: t.line, Value: value, Reason: reason}
}

// FormatFloat formats f with the shortest representation that parses back exactly.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
