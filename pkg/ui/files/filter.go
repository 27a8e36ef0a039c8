package files

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// match is a row that passed the filter, with the matched rune indexes of its
// name.
type match struct {
	indexes []int
	index   int
}

// filterNames returns the names that fuzzy match term, best match first. An
// empty term matches every name in order.
func filterNames(term string, names []string) []match {
	if term == "" {
		out := make([]match, len(names))
		for i := range names {
			out[i] = match{index: i}
		}

		return out
	}

	targets := make([]string, len(names))
	for i, name := range names {
		n, err := normalize(name)
		if err != nil {
			slog.Error("error normalizing",
				slog.String("name", name),
				slog.Any("error", err),
			)

			n = name
		}

		targets[i] = n
	}

	ranks := fuzzy.Find(term, targets)
	sort.Stable(ranks)

	out := make([]match, len(ranks))
	for i, r := range ranks {
		out[i] = match{index: r.Index, indexes: r.MatchedIndexes}
	}

	return out
}

// highlight renders s with the runes at indexes in the matched style.
func highlight(s string, indexes []int, style, matched lipgloss.Style) string {
	if len(indexes) == 0 {
		return style.Render(s)
	}

	hit := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		hit[i] = true
	}

	var b strings.Builder
	for i, r := range []rune(s) {
		if hit[i] {
			b.WriteString(matched.Render(string(r)))
		} else {
			b.WriteString(style.Render(string(r)))
		}
	}

	return b.String()
}

// normalize removes diacritics, so that "ö" matches "o".
func normalize(in string) (string, error) {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	out, _, err := transform.String(t, in)
	if err != nil {
		return "", fmt.Errorf("error normalizing: %w", err)
	}

	return out, nil
}
