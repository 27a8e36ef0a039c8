package fitter

import (
	"github.com/macropower/tracefit/pkg/keys"
)

type KeyBinds struct {
	PrevTrace *keys.KeyBind `json:"prevTrace,omitempty"`
	NextTrace *keys.KeyBind `json:"nextTrace,omitempty"`
	Fit       *keys.KeyBind `json:"fit,omitempty"`
	FitAll    *keys.KeyBind `json:"fitAll,omitempty"`
	Clear     *keys.KeyBind `json:"clear,omitempty"`
	ClearAll  *keys.KeyBind `json:"clearAll,omitempty"`
	Model     *keys.KeyBind `json:"model,omitempty"`
	Export    *keys.KeyBind `json:"export,omitempty"`
	Copy      *keys.KeyBind `json:"copy,omitempty"`
}

func (kb *KeyBinds) EnsureDefaults() {
	keys.SetDefaultBind(&kb.PrevTrace,
		keys.NewBind("previous trace",
			keys.New("left", keys.WithAlias("←")),
			keys.New("h"),
		))
	keys.SetDefaultBind(&kb.NextTrace,
		keys.NewBind("next trace",
			keys.New("right", keys.WithAlias("→")),
			keys.New("l"),
		))
	keys.SetDefaultBind(&kb.Fit,
		keys.NewBind("fit current trace",
			keys.New("f"),
		))
	keys.SetDefaultBind(&kb.FitAll,
		keys.NewBind("fit all traces",
			keys.New("F"),
		))
	keys.SetDefaultBind(&kb.Clear,
		keys.NewBind("clear current fit",
			keys.New("c"),
		))
	keys.SetDefaultBind(&kb.ClearAll,
		keys.NewBind("clear all fits",
			keys.New("C"),
		))
	keys.SetDefaultBind(&kb.Model,
		keys.NewBind("change model",
			keys.New("m"),
		))
	keys.SetDefaultBind(&kb.Export,
		keys.NewBind("export fits",
			keys.New("e"),
		))
	keys.SetDefaultBind(&kb.Copy,
		keys.NewBind("copy fit parameters",
			keys.New("y"),
		))
}

func (kb *KeyBinds) GetKeyBinds() []keys.KeyBind {
	return keys.Deref(
		kb.PrevTrace,
		kb.NextTrace,
		kb.Fit,
		kb.FitAll,
		kb.Clear,
		kb.ClearAll,
		kb.Model,
		kb.Export,
		kb.Copy,
	)
}
