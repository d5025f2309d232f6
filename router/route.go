// Package router maps URL paths to page components.
//
// A Table is an ordered, immutable list of routes. A Router matches locations
// against a Table in either history mode (/about) or hash mode (/#/about).
package router

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyTable is returned when a route table has no routes.
	ErrEmptyTable = errors.New("route table is empty")

	// ErrDuplicatePath is returned when two routes declare the same path.
	ErrDuplicatePath = errors.New("duplicate route path")

	// ErrInvalidPath is returned for paths that are empty, relative, or contain
	// template characters.
	ErrInvalidPath = errors.New("invalid route path")

	// ErrInvalidComponent is returned for routes without a component name.
	ErrInvalidComponent = errors.New("invalid route component")
)

// Route maps a static URL path to a page component.
type Route struct {
	// Path is an absolute URL path such as "/" or "/about".
	Path string `yaml:"path"`

	// Component is the name of the page component rendered for Path.
	Component string `yaml:"component"`
}

// Table is an ordered list of routes. Paths are unique within a table.
// A Table is never modified after NewTable returns.
type Table struct {
	routes []Route
	byPath map[string]int
}

// NewTable validates routes and builds a Table preserving their order.
func NewTable(routes ...Route) (*Table, error) {
	if len(routes) == 0 {
		return nil, ErrEmptyTable
	}

	t := &Table{
		routes: make([]Route, 0, len(routes)),
		byPath: make(map[string]int, len(routes)),
	}

	var errs []error
	for i, r := range routes {
		if err := validatePath(r.Path); err != nil {
			errs = append(errs, fmt.Errorf("route %d: %w", i, err))
			continue
		}
		if strings.TrimSpace(r.Component) == "" {
			errs = append(errs, fmt.Errorf("route %d (%s): %w", i, r.Path, ErrInvalidComponent))
			continue
		}
		if j, ok := t.byPath[r.Path]; ok {
			errs = append(errs, fmt.Errorf("route %d (%s) conflicts with route %d: %w", i, r.Path, j, ErrDuplicatePath))
			continue
		}
		t.byPath[r.Path] = len(t.routes)
		t.routes = append(t.routes, r)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return t, nil
}

// MustTable is like NewTable but panics on error. It is intended for tables
// declared in source code.
func MustTable(routes ...Route) *Table {
	t, err := NewTable(routes...)
	if err != nil {
		panic(err)
	}
	return t
}

// Routes returns a copy of the routes in declaration order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Len returns the number of routes.
func (t *Table) Len() int { return len(t.routes) }

// Lookup returns the route declared for exactly path.
func (t *Table) Lookup(path string) (Route, bool) {
	i, ok := t.byPath[path]
	if !ok {
		return Route{}, false
	}
	return t.routes[i], true
}

// Components returns the distinct component names in declaration order.
func (t *Table) Components() []string {
	seen := make(map[string]struct{}, len(t.routes))
	names := make([]string, 0, len(t.routes))
	for _, r := range t.routes {
		if _, ok := seen[r.Component]; ok {
			continue
		}
		seen[r.Component] = struct{}{}
		names = append(names, r.Component)
	}
	return names
}

func validatePath(p string) error {
	switch {
	case p == "":
		return fmt.Errorf("%w: empty", ErrInvalidPath)
	case p[0] != '/':
		return fmt.Errorf("%w: %q is not absolute", ErrInvalidPath, p)
	case strings.ContainsAny(p, "{}#?"):
		return fmt.Errorf("%w: %q contains reserved characters", ErrInvalidPath, p)
	case p != "/" && strings.HasSuffix(p, "/"):
		return fmt.Errorf("%w: %q has a trailing slash", ErrInvalidPath, p)
	case cleanPath(p) != p:
		return fmt.Errorf("%w: %q is not canonical", ErrInvalidPath, p)
	}
	return nil
}
