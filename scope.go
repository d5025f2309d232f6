package spa

import (
	"net/http"

	"github.com/coalwatch/spa/router"
	"github.com/coalwatch/spa/view"
)

// pageScope wraps view.BaseScope to carry per-render state shared by every
// component of one page.
type pageScope struct {
	*view.BaseScope
	globals *pageGlobals
}

type pageGlobals struct {
	match  router.Match
	status int
	errs   []error
}

var _ view.Scope = (*pageScope)(nil)

func newPageScope(vars map[string]any, match router.Match) *pageScope {
	status := http.StatusOK
	if !match.Found {
		status = http.StatusNotFound
	}
	return &pageScope{
		BaseScope: view.NewScope(vars),
		globals: &pageGlobals{
			match:  match,
			status: status,
		},
	}
}

func (s *pageScope) Spawn(vars map[string]any) view.Scope {
	return &pageScope{
		BaseScope: s.BaseScope.Spawn(vars).(*view.BaseScope),
		globals:   s.globals,
	}
}

// fail records a render error and switches the page status to 500.
func (s *pageScope) fail(err error) {
	s.globals.status = http.StatusInternalServerError
	s.globals.errs = append(s.globals.errs, err)
}

// pageVars builds the variables available to the root and page templates.
func (a *App) pageVars(m router.Match) map[string]any {
	return map[string]any{
		"app": map[string]any{
			"title":  a.title,
			"anchor": a.anchorID,
			"mode":   a.router.Mode().String(),
		},
		"route": map[string]any{
			"path":      m.Path,
			"component": m.Route.Component,
			"found":     m.Found,
		},
		"links": a.links(m),
		"href":  a.router.Href,
	}
}
