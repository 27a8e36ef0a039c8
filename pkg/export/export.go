// Package export writes traces and their fits in several formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/macropower/tracefit/pkg/fit"
	"github.com/macropower/tracefit/pkg/trace"
	"github.com/macropower/tracefit/pkg/yaml"
)

// ErrUnknownFormat is returned by [ByFormat] for unknown format names.
var ErrUnknownFormat = errors.New("unknown format")

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
)

// Formats lists the names accepted by [ByFormat].
var Formats = []string{FormatJSON, FormatYAML, FormatCSV}

// Serializer writes traces to a writer.
type Serializer interface {
	Serialize(w io.Writer, traces []*trace.Trace) error
	// Ext returns the file extension for the format, including the dot.
	Ext() string
}

// ByFormat returns the [Serializer] for the named format.
//
//nolint:ireturn // Returns one of several formats.
func ByFormat(name string) (Serializer, error) {
	switch strings.ToLower(name) {
	case FormatJSON:
		return JSON{Indent: "  "}, nil
	case FormatYAML, "yml":
		return YAML{}, nil
	case FormatCSV:
		return CSV{}, nil
	}

	return nil, fmt.Errorf("%w: %q, expected one of: %s", ErrUnknownFormat, name, strings.Join(Formats, ", "))
}

// Document is the structure written by [JSON] and [YAML].
type Document struct {
	Traces []*trace.Trace `json:"traces" yaml:"traces"`
	Fits   []*fit.Result  `json:"fits"   yaml:"fits"`
}

// NewDocument collects the traces and the results of those that are fitted.
func NewDocument(traces []*trace.Trace) Document {
	doc := Document{
		Traces: traces,
		Fits:   []*fit.Result{},
	}

	for _, t := range traces {
		if res := fit.NewResult(t); res != nil {
			doc.Fits = append(doc.Fits, res)
		}
	}

	return doc
}

// JSON writes a [Document] as JSON.
type JSON struct {
	Indent string
}

func (j JSON) Serialize(w io.Writer, traces []*trace.Trace) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", j.Indent)

	err := enc.Encode(NewDocument(traces))
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

func (JSON) Ext() string {
	return ".json"
}

// YAML writes a [Document] as YAML.
type YAML struct{}

func (YAML) Serialize(w io.Writer, traces []*trace.Trace) error {
	enc := yaml.NewEncoder(w)

	err := enc.Encode(NewDocument(traces))
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	err = enc.Close()
	if err != nil {
		return fmt.Errorf("close yaml encoder: %w", err)
	}

	return nil
}

func (YAML) Ext() string {
	return ".yaml"
}

// CSV writes every point of every trace as one row, with the columns name, x,
// y and y_fit. y_fit is empty for traces without a fit.
type CSV struct{}

func (CSV) Serialize(w io.Writer, traces []*trace.Trace) error {
	cw := csv.NewWriter(w)

	err := cw.Write([]string{"name", trace.ColumnX, trace.ColumnY, trace.ColumnYFit})
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, 4)
	for _, t := range traces {
		for i := range t.X {
			record[0] = t.Name
			record[1] = formatFloat(t.X[i])
			record[2] = formatFloat(t.Y[i])
			record[3] = ""

			if t.HasFit() {
				record[3] = formatFloat(t.YFit[i])
			}

			err = cw.Write(record)
			if err != nil {
				return fmt.Errorf("write record: %w", err)
			}
		}
	}

	cw.Flush()

	err = cw.Error()
	if err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	return nil
}

func (CSV) Ext() string {
	return ".csv"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Params writes the fit parameters of each fitted trace as tab separated
// lines, suitable for pasting into a spreadsheet.
func Params(w io.Writer, results []*fit.Result) error {
	for _, r := range results {
		fields := []string{r.Name, r.Model}
		for _, p := range r.Params {
			fields = append(fields, p.Name+"="+formatFloat(p.Value))
		}

		fields = append(fields, "r2="+formatFloat(r.RSquared), "rmse="+formatFloat(r.RMSE))

		_, err := fmt.Fprintln(w, strings.Join(fields, "\t"))
		if err != nil {
			return fmt.Errorf("write params: %w", err)
		}
	}

	return nil
}
