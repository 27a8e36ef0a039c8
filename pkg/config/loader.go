package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/macropower/tracefit/api"
	"github.com/macropower/tracefit/api/v1beta1"
	"github.com/macropower/tracefit/pkg/ui/theme"
	"github.com/macropower/tracefit/pkg/yaml"
)

// Validator validates decoded configuration data against a schema.
type Validator interface {
	Validate(data any) error
}

// Validatable is implemented by configuration kinds that check themselves
// after loading.
type Validatable interface {
	Validate() error
}

// LoaderOpt configures a [Loader].
type LoaderOpt func(*loaderOptions)

type loaderOptions struct {
	validator    Validator
	color        bool
	extractTheme bool
}

// WithValidator sets the schema validator.
func WithValidator(v Validator) LoaderOpt {
	return func(o *loaderOptions) {
		o.validator = v
	}
}

// WithColor colors the source annotations of YAML errors.
func WithColor(color bool) LoaderOpt {
	return func(o *loaderOptions) {
		o.color = color
	}
}

// WithThemeFromData reads the UI theme from the data, so errors can be
// styled to match even when the data is invalid.
func WithThemeFromData() LoaderOpt {
	return func(o *loaderOptions) {
		o.extractTheme = true
	}
}

// Loader decodes, validates and defaults any configuration kind T.
type Loader[T v1beta1.Object] struct {
	validator Validator
	newFunc   func() T
	theme     *theme.Theme
	yamlError *yaml.ErrorWrapper
	data      []byte
}

// NewLoaderFromBytes creates a [Loader] for data. newFunc returns a new T
// with default values, such as [configs.New].
func NewLoaderFromBytes[T v1beta1.Object](data []byte, newFunc func() T, opts ...LoaderOpt) *Loader[T] {
	options := &loaderOptions{}
	for _, opt := range opts {
		opt(options)
	}

	t := theme.Default
	if options.extractTheme {
		t = getTheme(data)
	}

	return &Loader[T]{
		data:      data,
		newFunc:   newFunc,
		validator: options.validator,
		theme:     t,
		yamlError: yaml.NewErrorWrapper(
			yaml.WithSource(data),
			yaml.WithColor(options.color),
		),
	}
}

// NewLoaderFromFile creates a [Loader] for the file at path.
func NewLoaderFromFile[T v1beta1.Object](path string, newFunc func() T, opts ...LoaderOpt) (*Loader[T], error) {
	data, err := api.ReadFile(path)
	if err != nil {
		return nil, err //nolint:wrapcheck // Return the original error.
	}

	return NewLoaderFromBytes(data, newFunc, opts...), nil
}

// Validate validates the data against the schema.
func (l *Loader[T]) Validate() error {
	var anyConfig any

	err := yaml.Unmarshal(l.data, &anyConfig)
	if err != nil {
		return l.yamlError.Wrap(err)
	}

	if l.validator == nil {
		return nil
	}

	err = l.validator.Validate(anyConfig)
	if err != nil {
		return l.yamlError.Wrap(err)
	}

	return nil
}

// Load decodes the data into a new T and fills in defaults. If T is
// [Validatable], it is validated as well.
//
//nolint:ireturn // Returns the type parameter.
func (l *Loader[T]) Load() (T, error) {
	var zero T

	cfg := l.newFunc()

	err := yaml.Unmarshal(l.data, cfg)
	if err != nil {
		return zero, l.yamlError.Wrap(err)
	}

	cfg.EnsureDefaults()

	if v, ok := any(cfg).(Validatable); ok {
		err = v.Validate()
		if err != nil {
			return zero, fmt.Errorf("invalid %s: %w", cfg.GetKind(), err)
		}
	}

	return cfg, nil
}

// GetTheme returns the theme for error formatting.
func (l *Loader[T]) GetTheme() *theme.Theme {
	return l.theme
}

func getTheme(data []byte) *theme.Theme {
	var themeName string

	path := yaml.NewPathBuilder().Root().Child("ui").Child("theme").Build()

	err := path.Read(bytes.NewReader(data), &themeName)
	if err == nil && themeName != "" {
		return theme.New(themeName)
	}

	slog.Debug("could not read theme, config might be invalid")

	themeName = extractThemeWithRegex(data)
	if themeName != "" {
		slog.Debug("extracted theme using regex fallback", slog.String("theme", themeName))

		return theme.New(themeName)
	}

	return theme.Default
}

var (
	// Indented lines following a top level "ui:" key.
	uiSectionRe = regexp.MustCompile(`(?m)^ui:\s*$((?:\n[ \t]+.*)*)`)
	// A "theme:" key in that section, with a quoted or bare value.
	themeKeyRe = regexp.MustCompile(`\n[ \t]+theme:\s*(?:"([^"#\n]+)"|'([^'#\n]+)'|([^\s#\n]+))`)
)

// extractThemeWithRegex finds ui.theme in data that may not be valid YAML,
// so that the error explaining why can still use the theme.
func extractThemeWithRegex(data []byte) string {
	ui := uiSectionRe.FindSubmatch(data)
	if len(ui) < 2 {
		return ""
	}

	m := themeKeyRe.FindSubmatch(ui[1])
	for i := 1; i < len(m); i++ {
		if len(m[i]) > 0 {
			return strings.TrimSpace(string(m[i]))
		}
	}

	return ""
}
