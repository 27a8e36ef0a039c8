// Package v1beta1 contains the v1beta1 tracefit configuration kinds.
package v1beta1

import (
	"errors"
	"fmt"
	"slices"

	"github.com/invopop/jsonschema"
)

// APIVersion is the API version of every v1beta1 kind.
const APIVersion = "tracefit.macropower.dev/v1beta1"

var (
	// ValidAPIVersions lists the API versions this package reads.
	ValidAPIVersions = []string{APIVersion}

	ErrAPIVersion = errors.New("unsupported apiVersion")
	ErrKind       = errors.New("unsupported kind")
)

// TypeMeta identifies the kind of a configuration document.
type TypeMeta struct {
	// APIVersion specifies the API version for this configuration.
	APIVersion string `json:"apiVersion" jsonschema:"title=API Version"`
	// Kind defines the type of configuration.
	Kind string `json:"kind" jsonschema:"title=Kind"`
}

// NewTypeMeta returns a [TypeMeta] for kind at the current [APIVersion].
func NewTypeMeta(kind string) TypeMeta {
	return TypeMeta{APIVersion: APIVersion, Kind: kind}
}

func (tm TypeMeta) GetAPIVersion() string {
	return tm.APIVersion
}

func (tm TypeMeta) GetKind() string {
	return tm.Kind
}

// Check reports whether the API version and kind are among the valid ones.
func (tm TypeMeta) Check(kinds ...string) error {
	if !slices.Contains(ValidAPIVersions, tm.APIVersion) {
		return fmt.Errorf("%w: %q", ErrAPIVersion, tm.APIVersion)
	}
	if !slices.Contains(kinds, tm.Kind) {
		return fmt.Errorf("%w: %q", ErrKind, tm.Kind)
	}

	return nil
}

// Object is implemented by every configuration kind.
type Object interface {
	GetAPIVersion() string
	GetKind() string
	EnsureDefaults()
}

// ExtendSchemaWithEnums restricts the apiVersion and kind properties of a
// schema to the given values.
func ExtendSchemaWithEnums(jss *jsonschema.Schema, apiVersions, kinds []string) {
	restrict := func(name string, values []string) {
		prop, ok := jss.Properties.Get(name)
		if !ok {
			panic(name + " property not found in schema")
		}

		for _, v := range values {
			prop.Enum = append(prop.Enum, v)
		}

		_, _ = jss.Properties.Set(name, prop)
	}

	restrict("apiVersion", apiVersions)
	restrict("kind", kinds)
}
