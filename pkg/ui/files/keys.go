package files

import (
	"github.com/macropower/tracefit/pkg/keys"
)

type KeyBinds struct {
	Toggle     *keys.KeyBind `json:"toggle,omitempty"`
	SelectAll  *keys.KeyBind `json:"selectAll,omitempty"`
	SelectNone *keys.KeyBind `json:"selectNone,omitempty"`
	Find       *keys.KeyBind `json:"find,omitempty"`
	Select     *keys.KeyBind `json:"select,omitempty"`
	Open       *keys.KeyBind `json:"open,omitempty"`
	Remove     *keys.KeyBind `json:"remove,omitempty"`
	Accept     *keys.KeyBind `json:"accept,omitempty"`
}

func (kb *KeyBinds) EnsureDefaults() {
	keys.SetDefaultBind(&kb.Toggle,
		keys.NewBind("toggle trace",
			keys.New(" ", keys.WithAlias("space")),
			keys.New("x"),
		))
	keys.SetDefaultBind(&kb.SelectAll,
		keys.NewBind("select all",
			keys.New("a"),
		))
	keys.SetDefaultBind(&kb.SelectNone,
		keys.NewBind("select none",
			keys.New("n"),
		))
	keys.SetDefaultBind(&kb.Find,
		keys.NewBind("find",
			keys.New("/"),
		))
	keys.SetDefaultBind(&kb.Select,
		keys.NewBind("select by expression",
			keys.New("s"),
		))
	keys.SetDefaultBind(&kb.Open,
		keys.NewBind("load more files",
			keys.New("o"),
		))
	keys.SetDefaultBind(&kb.Remove,
		keys.NewBind("remove trace",
			keys.New("delete", keys.WithAlias("del")),
			keys.New("D"),
		))
	keys.SetDefaultBind(&kb.Accept,
		keys.NewBind("accept",
			keys.New("enter", keys.WithAlias("↵")),
		))
}

func (kb *KeyBinds) GetKeyBinds() []keys.KeyBind {
	return keys.Deref(
		kb.Toggle,
		kb.SelectAll,
		kb.SelectNone,
		kb.Find,
		kb.Select,
		kb.Open,
		kb.Remove,
		kb.Accept,
	)
}
