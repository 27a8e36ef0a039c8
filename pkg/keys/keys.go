// Package keys defines configurable key bindings and renders them as help
// columns.
package keys

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/padding"
	"github.com/muesli/reflow/truncate"
)

// Ellipsis is appended to truncated descriptions.
const Ellipsis = "…"

// Help columns are never narrower than this, whatever the terminal width.
const minColumnWidth = 6

// ErrDuplicateKey is returned by [ValidateBinds] when a key is bound twice.
var ErrDuplicateKey = errors.New("duplicate key binding")

// Keys that move between or out of inputs rather than editing them.
var navigationKeys = map[string]bool{
	"esc":       true,
	"enter":     true,
	"up":        true,
	"down":      true,
	"pgup":      true,
	"pgdown":    true,
	"tab":       true,
	"shift+tab": true,
}

// Key is a single key that can trigger a [KeyBind].
type Key struct {
	// Code is the key as reported by the terminal, e.g. "ctrl+f" or "down".
	Code string `json:"code" jsonschema:"title=Code"`
	// Alias replaces the code in help text.
	Alias string `json:"alias,omitempty" jsonschema:"title=Alias"`
	// Hidden keys still trigger the binding but are left out of help text.
	Hidden bool `json:"hidden,omitempty" jsonschema:"title=Hidden"`
}

type KeyOpt func(k *Key)

func New(code string, opts ...KeyOpt) Key {
	k := Key{Code: code}
	for _, opt := range opts {
		opt(&k)
	}

	return k
}

func WithAlias(alias string) KeyOpt {
	return func(k *Key) {
		k.Alias = alias
	}
}

func Hidden() KeyOpt {
	return func(k *Key) {
		k.Hidden = true
	}
}

// String returns the alias if set, otherwise the code.
func (k Key) String() string {
	if k.Alias != "" {
		return k.Alias
	}

	return k.Code
}

// KeyBind is an action and the keys that trigger it.
type KeyBind struct {
	// Description is shown next to the keys in help text.
	Description string `json:"description" jsonschema:"title=Description"`
	// Keys trigger the action.
	Keys []Key `json:"keys" jsonschema:"title=Keys"`
}

func NewBind(description string, keys ...Key) KeyBind {
	return KeyBind{Description: description, Keys: keys}
}

// String joins the visible keys with "/".
func (kb *KeyBind) String() string {
	visible := make([]string, 0, len(kb.Keys))
	for _, k := range kb.Keys {
		if !k.Hidden {
			visible = append(visible, k.String())
		}
	}

	return strings.Join(visible, "/")
}

// StringRow renders the bind as one help row: the keys padded to keyWidth,
// two spaces, then the description fitted into the remaining descWidth-2
// cells. It returns "" when no key is visible.
func (kb *KeyBind) StringRow(keyWidth, descWidth int) string {
	k := kb.String()
	if k == "" {
		return ""
	}

	desc := fit(kb.Description, descWidth-2)

	return pad(k, keyWidth) + "  " + pad(desc, descWidth-2)
}

// Match reports whether key is one of the bind's key codes.
func (kb *KeyBind) Match(key string) bool {
	return slices.ContainsFunc(kb.Keys, func(k Key) bool {
		return k.Code == key
	})
}

// AddKey adds key unless a key with the same code is already bound.
func (kb *KeyBind) AddKey(key Key) {
	if kb == nil || kb.Match(key.Code) {
		return
	}

	kb.Keys = append(kb.Keys, key)
}

// IsTextInputAction reports whether key should be typed into a focused
// input rather than handled as a binding.
func IsTextInputAction(key string) bool {
	return !navigationKeys[key]
}

// Deref returns the non-nil binds as values, in order.
func Deref(kbs ...*KeyBind) []KeyBind {
	out := make([]KeyBind, 0, len(kbs))
	for _, kb := range kbs {
		if kb != nil {
			out = append(out, *kb)
		}
	}

	return out
}

// ValidateBinds returns an error wrapping [ErrDuplicateKey] for every key
// code bound more than once across all groups.
func ValidateBinds(groups ...[]KeyBind) error {
	var errs []error

	owner := map[string]string{}
	for _, group := range groups {
		for _, kb := range group {
			for _, k := range kb.Keys {
				if prev, ok := owner[k.Code]; ok {
					errs = append(errs, fmt.Errorf("%w: %s (%s, %s)", ErrDuplicateKey, k.Code, prev, kb.Description))

					continue
				}

				owner[k.Code] = kb.Description
			}
		}
	}

	return errors.Join(errs...)
}

// SetDefaultBind fills in *kb from def. A nil bind is replaced by a copy of
// def, otherwise only empty keys and an empty description are filled.
func SetDefaultBind(kb **KeyBind, def KeyBind) {
	if *kb == nil {
		*kb = &def

		return
	}

	if len((*kb).Keys) == 0 {
		(*kb).Keys = def.Keys
	}

	if (*kb).Description == "" {
		(*kb).Description = def.Description
	}
}

// KeyBindRenderer lays out groups of binds as side by side help columns.
type KeyBindRenderer struct {
	columns [][]KeyBind
}

// AddColumn adds a column of binds. Empty columns are ignored.
func (kbr *KeyBindRenderer) AddColumn(kbs ...KeyBind) {
	if len(kbs) > 0 {
		kbr.columns = append(kbr.columns, kbs)
	}
}

// Render returns the columns laid out across width cells. Each column gets
// an equal share with one space of margin on either side. Any leftover cells
// pad the end of every line.
func (kbr *KeyBindRenderer) Render(width int) string {
	n := len(kbr.columns)
	if n == 0 {
		return ""
	}

	colWidth, rest := width, 0
	if n > 1 {
		colWidth, rest = width/n, max(0, width%n)
	}

	colWidth = max(minColumnWidth, colWidth-2)

	cells := make([][]string, n)
	height := 0

	for i, col := range kbr.columns {
		cells[i] = column(colWidth, col)
		height = max(height, len(cells[i]))
	}

	blank := strings.Repeat(" ", colWidth)
	tail := strings.Repeat(" ", rest)
	lines := make([]string, height)

	for y := range height {
		var sb strings.Builder

		for _, col := range cells {
			cell := blank
			if y < len(col) {
				cell = col[y]
			}

			sb.WriteString(" " + cell + " ")
		}

		sb.WriteString(tail)
		lines[y] = sb.String()
	}

	return strings.Join(lines, "\n")
}

// column renders the visible binds with their keys aligned.
func column(width int, kbs []KeyBind) []string {
	keyWidth := 0
	for _, kb := range kbs {
		keyWidth = max(keyWidth, ansi.PrintableRuneWidth(kb.String()))
	}

	rows := make([]string, 0, len(kbs))
	for _, kb := range kbs {
		if row := kb.StringRow(keyWidth, width-keyWidth); row != "" {
			rows = append(rows, row)
		}
	}

	return rows
}

// fit shortens s to at most width cells, ending it with [Ellipsis] when cut.
// A non-empty s never fits into less than the ellipsis.
func fit(s string, width int) string {
	if s == "" {
		return ""
	}

	if width > 0 && ansi.PrintableRuneWidth(s) <= width {
		return s
	}

	if width <= ansi.PrintableRuneWidth(Ellipsis) {
		return Ellipsis
	}

	return truncate.StringWithTail(s, uint(width), Ellipsis)
}

func pad(s string, width int) string {
	if width <= 0 {
		return s
	}

	return padding.String(s, uint(width))
}
