package view

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/fatih/camelcase"
)

// TemplateExt is the file extension of component templates.
const TemplateExt = ".html"

// Importer acts as a factory for components.
type Importer interface {
	Import(name string) (Component, error)
}

// ImporterFunc adapts a function to the Importer interface.
type ImporterFunc func(name string) (Component, error)

func (f ImporterFunc) Import(name string) (Component, error) { return f(name) }

// Builtins is an Importer backed by a fixed map of components.
type Builtins map[string]Component

func (b Builtins) Import(name string) (Component, error) {
	if c, ok := b[name]; ok {
		return c, nil
	}
	return nil, ErrComponentNotFound
}

// Chain tries importers in order and returns the first component found.
// Errors other than ErrComponentNotFound stop the search.
func Chain(importers ...Importer) Importer {
	return ImporterFunc(func(name string) (Component, error) {
		for _, imp := range importers {
			c, err := imp.Import(name)
			if err == nil {
				return c, nil
			}
			if !errors.Is(err, ErrComponentNotFound) {
				return nil, err
			}
		}
		return nil, ErrComponentNotFound
	})
}

// FSImporter loads component templates from a file system. A component named
// MainPageInfo is read from Dir/main_page_info.html. Parsed templates are
// cached.
type FSImporter struct {
	FS  fs.FS
	Dir string

	mu    sync.Mutex
	cache map[string]*Template
}

var _ Importer = (*FSImporter)(nil)

func (i *FSImporter) Import(name string) (Component, error) {
	if name == "" {
		return nil, ErrComponentNotFound
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if t, ok := i.cache[name]; ok {
		return t, nil
	}

	p := path.Join(i.Dir, ComponentFile(name))
	if i.Dir == "" {
		p = ComponentFile(name)
	}

	t, err := ParseFile(i.FS, name, p)
	if err != nil {
		if errors.Is(err, ErrComponentNotFound) {
			return nil, fmt.Errorf("import %s from %s: %w", name, p, err)
		}
		return nil, fmt.Errorf("import %s: %w", name, err)
	}

	if i.cache == nil {
		i.cache = make(map[string]*Template)
	}
	i.cache[name] = t
	return t, nil
}

// ComponentFile returns the template file name for a component name:
// "MainPageInfo" becomes "main_page_info.html" and "Page1" becomes "page1.html".
func ComponentFile(name string) string {
	return toSnakeCase(name) + TemplateExt
}

func toSnakeCase(s string) string {
	s = strings.ReplaceAll(s, "-", "_")

	blocks := strings.Split(s, "_")
	out := make([]string, 0, len(blocks))

	for _, block := range blocks {
		if block == "" {
			out = append(out, "")
			continue
		}

		words := camelcase.Split(block)
		elems := make([]string, 0, len(words))
		for _, w := range words {
			if w == "" {
				continue
			}
			// digits stick to the preceding word: Page1 -> page1
			if isDigits(w) && len(elems) > 0 {
				elems[len(elems)-1] += w
				continue
			}
			elems = append(elems, strings.ToLower(w))
		}
		out = append(out, strings.Join(elems, "_"))
	}

	return strings.Join(out, "_")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
