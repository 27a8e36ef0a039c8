// Package config loads tracefit configuration files.
//
// A [Loader] validates YAML data against a JSON schema, decodes it into a
// configuration kind and fills in defaults. Errors point at the offending
// lines of the source.
package config
