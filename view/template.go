package view

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// bodyContext is the context element for parsing template fragments.
var bodyContext = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}

// Template is a parsed HTML fragment with ${expr} placeholders. It is
// immutable after parsing and safe for concurrent rendering.
type Template struct {
	name string

	// doc is a document node holding the parsed fragment.
	doc *html.Node

	// texts holds compiled placeholders of text nodes.
	texts map[*html.Node]*interpolation

	// attrs holds compiled placeholders of attribute values, keyed by node and
	// attribute index.
	attrs map[*html.Node]map[int]*interpolation
}

var _ Component = (*Template)(nil)

// ParseTemplate parses the fragment read from r. Placeholder syntax errors
// are reported for all offending nodes at once.
func ParseTemplate(name string, r io.Reader) (*Template, error) {
	nodes, err := html.ParseFragment(r, bodyContext)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}

	t := &Template{
		name:  name,
		doc:   &html.Node{Type: html.DocumentNode},
		texts: make(map[*html.Node]*interpolation),
		attrs: make(map[*html.Node]map[int]*interpolation),
	}
	for _, n := range nodes {
		t.doc.AppendChild(n)
	}

	var errs []error
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if rawText(n.Parent) {
				break
			}
			in, err := parseInterpolation(n.Data)
			if err != nil {
				errs = append(errs, &ComponentError{Component: name, Path: nodePath(n.Parent), Err: err})
			} else if in != nil {
				t.texts[n] = in
			}
		case html.ElementNode:
			for i, a := range n.Attr {
				in, err := parseInterpolation(a.Val)
				if err != nil {
					errs = append(errs, &ComponentError{Component: name, Path: nodePath(n), Attr: a.Key, Err: err})
					continue
				}
				if in == nil {
					continue
				}
				if t.attrs[n] == nil {
					t.attrs[n] = make(map[int]*interpolation)
				}
				t.attrs[n][i] = in
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(t.doc)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return t, nil
}

// ParseFile parses the template stored at path in fsys. A missing file is
// reported as ErrComponentNotFound.
func ParseFile(fsys fs.FS, name, path string) (*Template, error) {
	f, err := fsys.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrComponentNotFound
		}
		return nil, fmt.Errorf("open template %s: %w", path, err)
	}
	defer f.Close()

	return ParseTemplate(name, f)
}

// Name returns the component name the template was parsed for.
func (t *Template) Name() string { return t.name }

// Render evaluates the placeholders against the scope variables and returns a
// new document node. When some placeholders fail, the document is still
// rendered with those values left empty and the errors are returned joined.
func (t *Template) Render(s Scope) (any, error) {
	env := s.Vars()

	var errs []error
	var clone func(n *html.Node) *html.Node
	clone = func(n *html.Node) *html.Node {
		c := &html.Node{
			Type:      n.Type,
			DataAtom:  n.DataAtom,
			Data:      n.Data,
			Namespace: n.Namespace,
		}

		if in, ok := t.texts[n]; ok {
			v, err := in.eval(env)
			if err != nil {
				errs = append(errs, &ComponentError{Component: t.name, Path: nodePath(n.Parent), Err: err})
			}
			c.Data = v
		}

		if len(n.Attr) > 0 {
			c.Attr = make([]html.Attribute, len(n.Attr))
			copy(c.Attr, n.Attr)
			for i, in := range t.attrs[n] {
				v, err := in.eval(env)
				if err != nil {
					errs = append(errs, &ComponentError{Component: t.name, Path: nodePath(n), Attr: n.Attr[i].Key, Err: err})
				}
				c.Attr[i].Val = v
			}
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			c.AppendChild(clone(child))
		}
		return c
	}

	return clone(t.doc), errors.Join(errs...)
}

// rawText reports whether text inside n is left as is.
func rawText(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Script, atom.Style:
		return true
	}
	return strings.EqualFold(n.Data, "script") || strings.EqualFold(n.Data, "style")
}
