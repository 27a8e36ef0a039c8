package fit

// Config contains fitting configuration.
type Config struct {
	// Model is the model fitted when none is chosen.
	Model string `json:"model,omitempty" jsonschema:"title=Model,enum=line,enum=poly2,enum=poly3"`
	// ExportPath is the file written by the export key binding. The format
	// is taken from the file extension.
	ExportPath string `json:"exportPath,omitempty" jsonschema:"title=Export Path"`
}

// NewConfig returns a [Config] with default values.
func NewConfig() *Config {
	c := &Config{}
	c.EnsureDefaults()

	return c
}

// EnsureDefaults sets empty fields to their default values.
func (c *Config) EnsureDefaults() {
	if c.Model == "" {
		c.Model = ModelLine
	}
	if c.ExportPath == "" {
		c.ExportPath = "tracefit-fits.yaml"
	}
}

// GetModel returns the configured [Model].
func (c *Config) GetModel() (Model, error) {
	return ModelByName(c.Model)
}
