package spa

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/coalwatch/spa/router"
	"github.com/coalwatch/spa/view"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	routerViewTag  = "router-view"
	routerLinksTag = "router-links"
)

// page is a rendered router view.
type page struct {
	match  router.Match
	status int
	title  string
	node   *html.Node // <div data-router-view>
	errs   []error
}

// renderView renders the component matched by m into a router view element.
func (a *App) renderView(s *pageScope) (*page, error) {
	m := s.globals.match

	comp := a.notFound
	if m.Found {
		comp = a.pages[m.Route.Component]
	}
	if comp == nil {
		return nil, fmt.Errorf("no component for route %s", m.Route.Path)
	}

	out, err := comp.Render(s)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", componentName(m), err)
	}

	wrapper := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr: []html.Attribute{
			{Key: "data-router-view", Val: ""},
			{Key: "data-route", Val: m.Path},
			{Key: "data-component", Val: componentName(m)},
		},
	}
	appendContent(wrapper, view.AsNode(out))

	return &page{
		match:  m,
		status: s.globals.status,
		title:  a.pageTitle(m),
		node:   wrapper,
		errs:   s.globals.errs,
	}, nil
}

// renderDocument renders a fresh copy of the shell with the root component
// mounted into the anchor.
func (a *App) renderDocument(m router.Match) (*html.Node, *page, error) {
	s := newPageScope(a.pageVars(m), m)

	pg, err := a.renderView(s)
	if err != nil {
		return nil, nil, err
	}

	out, err := a.root.Render(s)
	if err != nil {
		return nil, nil, fmt.Errorf("render root component: %w", err)
	}
	root := view.AsNode(out)
	if root == nil {
		root = &html.Node{Type: html.DocumentNode}
	}

	placed := replaceElements(root, routerViewTag, func() *html.Node { return pg.node })
	if !placed {
		appendContent(root, pg.node)
	}
	replaceElements(root, routerLinksTag, func() *html.Node { return a.renderLinks(m) })

	doc := view.CloneTree(a.shell)
	anchor := findByID(doc, a.anchorID)
	if anchor == nil {
		return nil, nil, fmt.Errorf("%w: #%s", ErrAnchorNotFound, a.anchorID)
	}
	for c := anchor.FirstChild; c != nil; c = anchor.FirstChild {
		anchor.RemoveChild(c)
	}
	appendContent(anchor, root)

	if t := findElement(doc, atom.Title); t != nil {
		for c := t.FirstChild; c != nil; c = t.FirstChild {
			t.RemoveChild(c)
		}
		t.AppendChild(&html.Node{Type: html.TextNode, Data: pg.title})
	}

	return doc, pg, nil
}

// Link is one entry of the "links" template variable.
type Link struct {
	Path      string `expr:"path"`
	Href      string `expr:"href"`
	Component string `expr:"component"`
	Label     string `expr:"label"`
	Active    bool   `expr:"active"`
}

// links lists every declared route in table order.
func (a *App) links(current router.Match) []Link {
	routes := a.router.Table().Routes()
	links := make([]Link, 0, len(routes))
	for _, r := range routes {
		links = append(links, Link{
			Path:      r.Path,
			Href:      a.router.Href(r.Path),
			Component: r.Component,
			Label:     linkLabel(r),
			Active:    current.Found && current.Route.Path == r.Path,
		})
	}
	return links
}

// renderLinks renders navigation links for every declared route.
func (a *App) renderLinks(current router.Match) *html.Node {
	nav := &html.Node{
		Type:     html.ElementNode,
		Data:     "nav",
		DataAtom: atom.Nav,
		Attr:     []html.Attribute{{Key: "data-router-links", Val: ""}},
	}
	for _, l := range a.links(current) {
		link := &html.Node{
			Type:     html.ElementNode,
			Data:     "a",
			DataAtom: atom.A,
			Attr: []html.Attribute{
				{Key: "href", Val: l.Href},
				{Key: "data-link", Val: l.Path},
			},
		}
		if l.Active {
			link.Attr = append(link.Attr, html.Attribute{Key: "aria-current", Val: "page"})
		}
		link.AppendChild(&html.Node{Type: html.TextNode, Data: l.Label})
		nav.AppendChild(link)
	}
	return nav
}

func (a *App) pageTitle(m router.Match) string {
	name := linkLabel(m.Route)
	if !m.Found {
		name = http.StatusText(http.StatusNotFound)
	}
	if a.title == "" {
		return name
	}
	return name + " | " + a.title
}

func linkLabel(r router.Route) string {
	if r.Path == "/" {
		return "Home"
	}
	return r.Component
}

func componentName(m router.Match) string {
	if !m.Found {
		return "NotFound"
	}
	return m.Route.Component
}

// appendContent moves n under dst. Document nodes contribute their children.
func appendContent(dst, n *html.Node) {
	if n == nil {
		return
	}
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
	if n.Type != html.DocumentNode {
		dst.AppendChild(n)
		return
	}
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
		dst.AppendChild(c)
	}
}

// replaceElements replaces every element named tag under n with the node
// returned by build. Only the first occurrence receives the built node; the
// rest are removed. It reports whether a replacement happened.
func replaceElements(n *html.Node, tag string, build func() *html.Node) bool {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && strings.EqualFold(c.Data, tag) {
				found = append(found, c)
				continue
			}
			walk(c)
		}
	}
	walk(n)

	for i, el := range found {
		if i == 0 {
			repl := build()
			if repl.Parent != nil {
				repl.Parent.RemoveChild(repl)
			}
			el.Parent.InsertBefore(repl, el)
		}
		el.Parent.RemoveChild(el)
	}
	return len(found) > 0
}

func renderHTML(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
