package theme

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
)

// Config defines a custom theme as chroma style entries keyed by token
// type, for example `Background: "#24292e bg:#ffffff"`.
type Config struct {
	Styles map[string]string `json:"styles" jsonschema:"title=Styles"`
}

// Entries converts the styles to chroma style entries.
func (c *Config) Entries() (chroma.StyleEntries, error) {
	entries := make(chroma.StyleEntries, len(c.Styles))

	names := make([]string, 0, len(c.Styles))
	for name := range c.Styles {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		tt, err := chroma.TokenTypeString(name)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown token type %q", ErrRegisterStyles, name)
		}

		entries[tt] = c.Styles[name]
	}

	return entries, nil
}

// RegisterAll registers every theme in themes.
func RegisterAll(themes map[string]*Config) error {
	for name, tc := range themes {
		if tc == nil {
			continue
		}

		entries, err := tc.Entries()
		if err != nil {
			return fmt.Errorf("theme %q: %w", name, err)
		}

		err = Register(name, entries)
		if err != nil {
			return fmt.Errorf("theme %q: %w", name, err)
		}
	}

	return nil
}

// Highlight writes src highlighted with the theme's chroma style. The lexer
// is a chroma lexer name such as "yaml".
func (t *Theme) Highlight(w io.Writer, lexer, src string) error {
	l := lexers.Get(lexer)
	if l == nil {
		l = lexers.Fallback
	}

	f := formatters.Get("terminal16m")
	if f == nil {
		f = formatters.Fallback
	}

	it, err := chroma.Coalesce(l).Tokenise(nil, strings.TrimRight(src, "\n")+"\n")
	if err != nil {
		return fmt.Errorf("tokenise: %w", err)
	}

	err = f.Format(w, t.ChromaStyle, it)
	if err != nil {
		return fmt.Errorf("format: %w", err)
	}

	return nil
}
