package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
)

// Encoder writes YAML documents with two space indentation, indenting
// sequences under their keys.
type Encoder struct {
	enc *yaml.Encoder
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{enc: yaml.NewEncoder(w, yaml.Indent(2), yaml.IndentSequence(true))}
}

// Encode writes v as the next document.
func (e *Encoder) Encode(v any) error {
	return e.enc.Encode(v) //nolint:wrapcheck // Pass through.
}

func (e *Encoder) Close() error {
	return e.enc.Close() //nolint:wrapcheck // Pass through.
}

// Marshal encodes v the way an [Encoder] does.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := NewEncoder(&buf)

	err := enc.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	err = enc.Close()
	if err != nil {
		return nil, fmt.Errorf("close encoder: %w", err)
	}

	return buf.Bytes(), nil
}

// Decoder reads YAML documents. Syntax and type errors are returned as
// [*Error]s that point at the offending token. Duplicate keys are errors.
type Decoder struct {
	dec *yaml.Decoder
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: yaml.NewDecoder(r)}
}

// Decode reads the next document into v.
func (d *Decoder) Decode(v any) error {
	return toError(d.dec.Decode(v))
}

// Unmarshal decodes the first document in data into v.
func Unmarshal(data []byte, v any) error {
	return NewDecoder(bytes.NewReader(data)).Decode(v)
}

func toError(err error) error {
	if err == nil {
		return nil
	}

	var yamlErr yaml.Error
	if !errors.As(err, &yamlErr) {
		return err
	}

	return &Error{
		Err:   errors.New(yamlErr.GetMessage()),
		Token: yamlErr.GetToken(),
	}
}
