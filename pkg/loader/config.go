package loader

import "github.com/macropower/tracefit/pkg/expr"

// Config contains trace loading configuration.
type Config struct {
	// Watch enables reloading when files change.
	Watch *bool `json:"watch,omitempty" jsonschema:"title=Watch"`
	// Match is a CEL expression that selects the files to load. The file
	// path is available as `file`.
	Match string `json:"match,omitempty" jsonschema:"title=Match"`
	// Reload is a CEL expression that selects the filesystem events that
	// trigger a reload. The file path is available as `file` and the event
	// as `op`.
	Reload string `json:"reload,omitempty" jsonschema:"title=Reload"`
}

// NewConfig returns a [Config] with default values.
func NewConfig() *Config {
	c := &Config{}
	c.EnsureDefaults()

	return c
}

// EnsureDefaults sets empty fields to their default values.
func (c *Config) EnsureDefaults() {
	if c.Watch == nil {
		watch := false
		c.Watch = &watch
	}
}

// Opts returns the [Opt]s described by the config.
func (c *Config) Opts() []Opt {
	opts := []Opt{
		WithMatch(c.Match),
		WithReload(c.Reload),
	}
	if c.Watch != nil {
		opts = append(opts, WithWatch(*c.Watch))
	}

	return opts
}

// Validate compiles the match and reload expressions.
func (c *Config) Validate() error {
	_, err := expr.NewFileMatcher(c.Match)
	if err != nil {
		return err //nolint:wrapcheck // Already names the expression.
	}

	_, err = expr.NewEventMatcher(c.Reload)
	if err != nil {
		return err //nolint:wrapcheck // Already names the expression.
	}

	return nil
}
