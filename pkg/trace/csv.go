package trace

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	ColumnX    = "x"
	ColumnY    = "y"
	ColumnYFit = "y_fit"
)

// ParseError reports a cell that could not be parsed as a number.
type ParseError struct {
	Err    error
	Name   string
	Column string
	Line   int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: column %q: %v", e.Name, e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ReadCSV reads a trace from CSV data with a header row. The x and y columns
// are located by name, and any other columns (such as a leading index column)
// are ignored. Blank lines are skipped.
func ReadCSV(name string, r io.Reader) (*Trace, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w: no header row", name, ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", name, err)
	}

	xIdx, yIdx := -1, -1
	for i, col := range header {
		col = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		switch col {
		case ColumnX:
			if xIdx == -1 {
				xIdx = i
			}
		case ColumnY:
			if yIdx == -1 {
				yIdx = i
			}
		}
	}

	if xIdx == -1 {
		return nil, fmt.Errorf("%s: %w: %s", name, ErrMissingColumn, ColumnX)
	}
	if yIdx == -1 {
		return nil, fmt.Errorf("%s: %w: %s", name, ErrMissingColumn, ColumnY)
	}

	x := []float64{}
	y := []float64{}

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: read record: %w", name, err)
		}

		line, _ := cr.FieldPos(0)

		xv, err := parseCell(record[xIdx])
		if err != nil {
			return nil, &ParseError{Name: name, Line: line, Column: ColumnX, Err: err}
		}

		yv, err := parseCell(record[yIdx])
		if err != nil {
			return nil, &ParseError{Name: name, Line: line, Column: ColumnY, Err: err}
		}

		x = append(x, xv)
		y = append(y, yv)
	}

	return New(name, x, y)
}

func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty value")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse number: %w", err)
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNonFinite, s)
	}

	return v, nil
}

// ReadFile reads a trace from a CSV file. The trace is named after the base
// name of the file.
func ReadFile(path string) (*Trace, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Reading user-provided trace files.
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return ReadCSV(filepath.Base(path), bytes.NewReader(data))
}

// WriteCSV writes the trace as CSV with a leading index column. The fitted
// values are included as a y_fit column when present.
func WriteCSV(w io.Writer, t *Trace) error {
	cw := csv.NewWriter(w)

	header := []string{"", ColumnX, ColumnY}
	if t.HasFit() {
		header = append(header, ColumnYFit)
	}

	err := cw.Write(header)
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(header))
	for i := range t.X {
		record[0] = strconv.Itoa(i)
		record[1] = formatFloat(t.X[i])
		record[2] = formatFloat(t.Y[i])

		if t.HasFit() {
			record[3] = formatFloat(t.YFit[i])
		}

		err = cw.Write(record)
		if err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()

	err = cw.Error()
	if err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
