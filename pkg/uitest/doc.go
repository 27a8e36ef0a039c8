// Package uitest provides testing utilities for the tracefit TUI.
//
// It combines:
//
//   - Fixtures: a [common.CommonModel] backed by a fresh session
//   - Key helpers: build [tea.KeyMsg] values from key strings
//   - Program helpers: run pages and models under teatest
//
// # Testing Pages
//
//	func TestMyPage(t *testing.T) {
//	    t.Parallel()
//
//	    cm := uitest.NewCommonModel(t, uitest.Traces(3)...)
//	    page := mypage.NewModel(mypage.Config{CommonModel: cm})
//
//	    uitest.Run(t, cm, page, uitest.Key("x"))
//	    assert.Contains(t, uitest.Plain(page.View()), "1 of 3 selected")
//	}
//
// # Testing Programs
//
//	tm := uitest.NewPageModel(t, cm, page, uitest.Standard)
//	uitest.WaitFor(t, tm.Output(), func(b []byte) bool {
//	    return bytes.Contains(b, []byte("3 traces loaded"))
//	})
package uitest
