// Package configs provides the tracefit Configuration kind.
package configs

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/invopop/jsonschema"

	_ "embed"

	"github.com/macropower/tracefit/api"
	"github.com/macropower/tracefit/api/v1beta1"
	"github.com/macropower/tracefit/pkg/fit"
	"github.com/macropower/tracefit/pkg/loader"
	"github.com/macropower/tracefit/pkg/ui"
	"github.com/macropower/tracefit/pkg/yaml"
)

const (
	Kind = "Configuration"

	// SchemaFile is written next to the config file, where the
	// yaml-language-server comment in the default config points.
	SchemaFile = "configs.v1beta1.json"
)

// The published schema carries the field doc comments, which need the source.
//go:generate go run ../../../internal/schemagen -o configs.v1beta1.json -src ../../..

var (
	//go:embed config.yaml
	defaultConfigYAML []byte

	// ValidKinds contains the valid kind values.
	ValidKinds = []string{Kind}

	// Schema returns the JSON schema of [Config].
	Schema = sync.OnceValues(func() ([]byte, error) {
		return yaml.NewSchemaGenerator(&Config{}).Generate()
	})

	// DefaultValidator returns a validator for [Schema].
	DefaultValidator = sync.OnceValues(func() (*yaml.Validator, error) {
		b, err := Schema()
		if err != nil {
			return nil, err
		}

		return yaml.NewValidator("/"+SchemaFile, b)
	})

	// Compile-time interface checks.
	_ v1beta1.Object = (*Config)(nil)
)

// Config represents the tracefit configuration.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type Config struct {
	// UI configures the terminal UI.
	UI *ui.Config `json:"ui,omitempty" jsonschema:"title=UI"`
	// Fit configures curve fitting.
	Fit *fit.Config `json:"fit,omitempty" jsonschema:"title=Fit"`
	// Load configures which files are loaded, and when they are reloaded.
	Load             *loader.Config `json:"load,omitempty" jsonschema:"title=Load"`
	v1beta1.TypeMeta `json:",inline"`
}

// New creates a new [Config] with default values.
func New() *Config {
	c := &Config{TypeMeta: v1beta1.NewTypeMeta(Kind)}
	c.EnsureDefaults()

	return c
}

// EnsureDefaults initializes nil fields to their default values.
func (c *Config) EnsureDefaults() {
	if c.UI == nil {
		c.UI = ui.NewConfig()
	}
	if c.Fit == nil {
		c.Fit = fit.NewConfig()
	}
	if c.Load == nil {
		c.Load = loader.NewConfig()
	}

	c.UI.EnsureDefaults()
	c.Fit.EnsureDefaults()
	c.Load.EnsureDefaults()
}

// Validate checks the parts of the configuration that the schema cannot.
func (c *Config) Validate() error {
	errs := []error{c.Check(ValidKinds...)}

	if c.UI != nil {
		err := c.UI.Validate()
		if err != nil {
			errs = append(errs, fmt.Errorf("ui: %w", err))
		}
	}

	if c.Fit != nil {
		_, err := c.Fit.GetModel()
		if err != nil {
			errs = append(errs, fmt.Errorf("fit: %w", err))
		}
	}

	if c.Load != nil {
		err := c.Load.Validate()
		if err != nil {
			errs = append(errs, fmt.Errorf("load: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (c Config) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ExtendSchemaWithEnums(jss, v1beta1.ValidAPIVersions, ValidKinds)
}

// MarshalYAML serializes the config to YAML.
func (c Config) MarshalYAML() ([]byte, error) {
	type alias Config

	b, err := api.MarshalYAML(alias(c))
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	return b, nil
}

// Write writes the config to path if no file is there yet.
func (c Config) Write(path string) error {
	b, err := c.MarshalYAML()
	if err != nil {
		return err
	}

	err = api.WriteIfNotExists(path, b)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// WriteDefault writes the default config.yaml to path, and the schema
// next to it. With force, existing files are backed up and replaced.
func WriteDefault(path string, force bool) error {
	err := api.WriteDefaultFile(path, defaultConfigYAML, force, "configuration")
	if err != nil {
		return fmt.Errorf("write default config: %w", err)
	}

	b, err := Schema()
	if err != nil {
		return fmt.Errorf("generate schema: %w", err)
	}

	err = api.WriteDefaultFile(filepath.Join(filepath.Dir(path), SchemaFile), b, force, "schema")
	if err != nil {
		return fmt.Errorf("write schema: %w", err)
	}

	return nil
}

// DefaultYAML returns the default config.yaml.
func DefaultYAML() []byte {
	return defaultConfigYAML
}

// GetPath returns the path to the user's configuration file.
func GetPath() string {
	return api.GetConfigPath("config.yaml")
}
