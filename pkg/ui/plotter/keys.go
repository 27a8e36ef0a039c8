package plotter

import (
	"github.com/macropower/tracefit/pkg/keys"
)

type KeyBinds struct {
	Home         *keys.KeyBind `json:"home,omitempty"`
	End          *keys.KeyBind `json:"end,omitempty"`
	HalfPageUp   *keys.KeyBind `json:"halfPageUp,omitempty"`
	HalfPageDown *keys.KeyBind `json:"halfPageDown,omitempty"`
}

func (kb *KeyBinds) EnsureDefaults() {
	keys.SetDefaultBind(&kb.Home,
		keys.NewBind("go to top",
			keys.New("home"),
			keys.New("g"),
		))
	keys.SetDefaultBind(&kb.End,
		keys.NewBind("go to bottom",
			keys.New("end"),
			keys.New("G"),
		))
	keys.SetDefaultBind(&kb.HalfPageUp,
		keys.NewBind("half page up",
			keys.New("u"),
			keys.New("ctrl+u", keys.WithAlias("⌃u")),
		))
	keys.SetDefaultBind(&kb.HalfPageDown,
		keys.NewBind("half page down",
			keys.New("d"),
			keys.New("ctrl+d", keys.WithAlias("⌃d")),
		))
}

func (kb *KeyBinds) GetKeyBinds() []keys.KeyBind {
	return keys.Deref(
		kb.Home,
		kb.End,
		kb.HalfPageUp,
		kb.HalfPageDown,
	)
}
