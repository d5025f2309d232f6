package view

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// ComponentError reports a failure inside a component template together with
// the location of the offending node.
type ComponentError struct {
	// Component is the name of the template.
	Component string

	// Path locates the node, e.g. "/main/p[2]".
	Path string

	// Attr is the attribute name when the error occurred in an attribute value.
	Attr string

	Err error
}

func (e *ComponentError) Error() string {
	loc := e.Path
	if e.Attr != "" {
		loc += "@" + e.Attr
	}
	return e.Component + ": " + loc + ": " + e.Err.Error()
}

func (e *ComponentError) Unwrap() error {
	return e.Err
}

// nodePath builds an XPath-like location of n within its fragment.
func nodePath(n *html.Node) string {
	var parts []string
	for ; n != nil && n.Type != html.DocumentNode; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		idx, total := 0, 0
		if n.Parent != nil {
			for s := n.Parent.FirstChild; s != nil; s = s.NextSibling {
				if s.Type == html.ElementNode && s.Data == n.Data {
					total++
					if s == n {
						idx = total
					}
				}
			}
		}
		part := n.Data
		if total > 1 {
			part += "[" + strconv.Itoa(idx) + "]"
		}
		parts = append(parts, part)
	}

	var b strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(parts[i])
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}
