package yaml

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Validator checks decoded YAML against a compiled JSON schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the JSON schema in schemaData, registered under url.
func NewValidator(url string, schemaData []byte) (*Validator, error) {
	var doc any

	err := json.Unmarshal(schemaData, &doc)
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	c.DefaultDraft(jsonschema.Draft2020)

	err = c.AddResource(url, doc)
	if err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	schema, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// Validate checks data, as produced by [Unmarshal] into an any. A failure is
// returned as an [*Error] whose Path points at the deepest failing value, so
// the source can be annotated with [Error.Error].
func (v *Validator) Validate(data any) error {
	err := v.schema.Validate(data)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("schema validation: %w", err)
	}

	return &Error{
		Err:  verr,
		Path: instancePath(deepestLocation(verr)),
	}
}

// deepestLocation returns the longest instance location in the cause tree.
func deepestLocation(err *jsonschema.ValidationError) []string {
	loc := err.InstanceLocation
	for _, cause := range err.Causes {
		if l := deepestLocation(cause); len(l) > len(loc) {
			loc = l
		}
	}

	return loc
}

// instancePath converts a JSON pointer, split into tokens, to a [yaml.Path].
// Tokens that are non-negative integers are treated as sequence indexes.
func instancePath(loc []string) *yaml.Path {
	p := NewPathBuilder().Root()
	for _, tok := range loc {
		if i, err := strconv.ParseUint(tok, 10, 0); err == nil {
			p = p.Index(uint(i))

			continue
		}

		p = p.Child(tok)
	}

	return p.Build()
}
