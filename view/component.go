// Package view renders page components.
//
// A component turns the variables of a Scope into an HTML document
// (*html.Node) or a plain value. Templates are HTML fragments whose text and
// attribute values may contain ${expr} placeholders; expressions are
// evaluated with expr-lang against the scope variables.
package view

import (
	"errors"

	"golang.org/x/net/html"
)

// ErrComponentNotFound is returned by importers that do not know a component.
var ErrComponentNotFound = errors.New("component not found")

type Component interface {
	// Render transforms the variables of the scope into an HTML document or any
	// other value that can be placed into a page.
	Render(s Scope) (any, error)
}

// ComponentFunc adapts a function to the Component interface.
type ComponentFunc func(s Scope) (any, error)

func (f ComponentFunc) Render(s Scope) (any, error) { return f(s) }

// Static returns a component that always renders a copy of the fragment n.
func Static(n *html.Node) Component {
	return ComponentFunc(func(Scope) (any, error) {
		return CloneTree(n), nil
	})
}

// CloneTree returns a deep copy of n and its descendants. The copy has no
// parent or siblings.
func CloneTree(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(CloneTree(child))
	}
	return c
}

// AsNode converts a render result into an HTML node. Nodes are returned as is,
// nil becomes nil, and any other value becomes a text node.
func AsNode(v any) *html.Node {
	switch v := v.(type) {
	case nil:
		return nil
	case *html.Node:
		return v
	default:
		return &html.Node{Type: html.TextNode, Data: stringify(v)}
	}
}
