package config

import (
	"fmt"

	"github.com/macropower/tracefit/api/v1beta1/configs"
)

// ConfigLoader loads the tracefit [configs.Config].
type ConfigLoader = Loader[*configs.Config]

// GetPath returns the default configuration path.
func GetPath() string {
	return configs.GetPath()
}

// WriteDefaultConfig writes the default configuration and its schema.
func WriteDefaultConfig(path string, force bool) error {
	return configs.WriteDefault(path, force) //nolint:wrapcheck // Already wrapped.
}

// NewConfigLoaderFromBytes creates a [ConfigLoader] that validates against
// the configuration schema.
func NewConfigLoaderFromBytes(data []byte, opts ...LoaderOpt) (*ConfigLoader, error) {
	v, err := configs.DefaultValidator()
	if err != nil {
		return nil, fmt.Errorf("create validator: %w", err)
	}

	return NewLoaderFromBytes(data, configs.New, append([]LoaderOpt{WithValidator(v)}, opts...)...), nil
}

// NewConfigLoaderFromFile creates a [ConfigLoader] for the file at path.
func NewConfigLoaderFromFile(path string, opts ...LoaderOpt) (*ConfigLoader, error) {
	v, err := configs.DefaultValidator()
	if err != nil {
		return nil, fmt.Errorf("create validator: %w", err)
	}

	return NewLoaderFromFile(path, configs.New, append([]LoaderOpt{WithValidator(v)}, opts...)...)
}

// Load validates and loads the configuration at path.
func Load(path string, opts ...LoaderOpt) (*configs.Config, *ConfigLoader, error) {
	cl, err := NewConfigLoaderFromFile(path, opts...)
	if err != nil {
		return nil, nil, err
	}

	err = cl.Validate()
	if err != nil {
		return nil, cl, fmt.Errorf("invalid config %q: %w", path, err)
	}

	cfg, err := cl.Load()
	if err != nil {
		return nil, cl, fmt.Errorf("invalid config %q: %w", path, err)
	}

	return cfg, cl, nil
}
