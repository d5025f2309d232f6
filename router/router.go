package router

import (
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/gorilla/mux"
)

// Match is the result of resolving a location against the route table.
type Match struct {
	// Path is the normalized path that was matched.
	Path string

	// Route is the matched route. It is the zero value when Found is false.
	Route Route

	// Found reports whether a declared route matched Path.
	Found bool
}

// Router resolves locations against a route table.
//
// Matching is exact and case-sensitive. A trailing slash is insignificant,
// so "/about/" resolves to "/about". Query strings are ignored.
type Router struct {
	table *Table
	mode  Mode
	mux   *mux.Router
}

// New builds a Router for the table. The table is shared, not copied; tables
// are immutable so this is safe.
func New(t *Table, mode Mode) (*Router, error) {
	if t == nil || t.Len() == 0 {
		return nil, ErrEmptyTable
	}
	if mode != HistoryMode && mode != HashMode {
		return nil, fmt.Errorf("unsupported router mode %v", mode)
	}

	m := mux.NewRouter()
	for _, r := range t.routes {
		route := m.Path(r.Path).Name(r.Path)
		if err := route.GetError(); err != nil {
			return nil, fmt.Errorf("register route %s: %w", r.Path, err)
		}
	}

	return &Router{table: t, mode: mode, mux: m}, nil
}

// MustNew is like New but panics on error.
func MustNew(t *Table, mode Mode) *Router {
	r, err := New(t, mode)
	if err != nil {
		panic(err)
	}
	return r
}

// Table returns the route table.
func (r *Router) Table() *Table { return r.table }

// Mode returns the navigation mode.
func (r *Router) Mode() Mode { return r.mode }

// Resolve matches a location such as "/about", "/about?x=1" or, in hash mode,
// "/#/about".
func (r *Router) Resolve(location string) Match {
	p := r.locationPath(location)

	req := &http.Request{Method: http.MethodGet, URL: &url.URL{Path: p}}
	var rm mux.RouteMatch
	if !r.mux.Match(req, &rm) || rm.Route == nil {
		return Match{Path: p}
	}

	route, ok := r.table.Lookup(rm.Route.GetName())
	if !ok {
		return Match{Path: p}
	}
	return Match{Path: p, Route: route, Found: true}
}

// Href returns the URL that navigates to path in the router's mode.
func (r *Router) Href(p string) string {
	if r.mode == HashMode {
		return "/#" + p
	}
	return p
}

// ShellPath reports whether the server must answer a request for urlPath
// with the app shell.
func (r *Router) ShellPath(urlPath string) bool {
	if r.mode == HashMode {
		return normalize(urlPath) == "/"
	}
	return r.Resolve(urlPath).Found
}

func (r *Router) locationPath(location string) string {
	// Locations are always paths; a leading "//" is not an authority.
	p, frag, _ := strings.Cut(location, "#")
	p, _, _ = strings.Cut(p, "?")
	if r.mode == HashMode && strings.HasPrefix(frag, "/") {
		p, _, _ = strings.Cut(frag, "?")
	}
	if up, err := url.PathUnescape(p); err == nil {
		p = up
	}
	return normalize(p)
}

func normalize(p string) string {
	p = cleanPath(p)
	if p != "/" {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// cleanPath returns the canonical path for p, eliminating . and .. elements.
//
// Copied from net/http/server.go
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	np := path.Clean(p)
	// path.Clean removes trailing slash except for root;
	// put the trailing slash back if necessary.
	if p[len(p)-1] == '/' && np != "/" {
		// Fast path for common case of p being the string we want:
		if len(p) == len(np)+1 && strings.HasPrefix(p, np) {
			np = p
		} else {
			np += "/"
		}
	}
	return np
}
