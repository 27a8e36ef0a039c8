package yaml

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaGenerator generates a JSON schema from a Go value.
// Uses [github.com/invopop/jsonschema].
type SchemaGenerator struct {
	v          any
	commentDir string
	moduleBase string
	id         string
}

// SchemaOpt configures a [SchemaGenerator].
type SchemaOpt func(g *SchemaGenerator)

// WithGoComments reads the doc comments of the Go packages under dir, which
// belong to the module base, and uses them as schema descriptions. It needs
// the source tree, so it is meant for code generation.
func WithGoComments(base, dir string) SchemaOpt {
	return func(g *SchemaGenerator) {
		g.moduleBase = base
		g.commentDir = dir
	}
}

// WithSchemaID sets the $id of the generated schema.
func WithSchemaID(id string) SchemaOpt {
	return func(g *SchemaGenerator) {
		g.id = id
	}
}

func NewSchemaGenerator(v any, opts ...SchemaOpt) *SchemaGenerator {
	g := &SchemaGenerator{v: v}
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Generate returns the indented JSON schema.
func (g *SchemaGenerator) Generate() ([]byte, error) {
	r := &jsonschema.Reflector{
		FieldNameTag:               "json",
		RequiredFromJSONSchemaTags: true,
	}

	if g.commentDir != "" {
		err := r.AddGoComments(g.moduleBase, g.commentDir)
		if err != nil {
			return nil, fmt.Errorf("add go comments: %w", err)
		}
	}

	s := r.Reflect(g.v)
	if g.id != "" {
		s.ID = jsonschema.ID(g.id)
	}

	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return b, nil
}
