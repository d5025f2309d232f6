package view

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func renderString(t *testing.T, v any) string {
	t.Helper()
	n, ok := v.(*html.Node)
	require.True(t, ok, "expected *html.Node, got %T", v)
	var buf bytes.Buffer
	require.NoError(t, html.Render(&buf, n))
	return buf.String()
}

func TestTemplate_Render(t *testing.T) {
	tests := []struct {
		name string
		src  string
		vars map[string]any
		want string
	}{
		{
			name: "plain",
			src:  "<h1>About</h1>",
			want: "<h1>About</h1>",
		},
		{
			name: "text placeholder",
			src:  "<p>You are at ${route.path}</p>",
			vars: map[string]any{"route": map[string]any{"path": "/about"}},
			want: "<p>You are at /about</p>",
		},
		{
			name: "attribute placeholder",
			src:  `<a href="${href}" class="link ${kind}">x</a>`,
			vars: map[string]any{"href": "/page1", "kind": "primary"},
			want: `<a href="/page1" class="link primary">x</a>`,
		},
		{
			name: "expression",
			src:  `<span>${n * 2} ${ok ? "yes" : "no"}</span>`,
			vars: map[string]any{"n": 21, "ok": true},
			want: "<span>42 yes</span>",
		},
		{
			name: "escaping",
			src:  "<p>${title}</p>",
			vars: map[string]any{"title": "<b>coal</b>"},
			want: "<p>&lt;b&gt;coal&lt;/b&gt;</p>",
		},
		{
			name: "nil renders empty",
			src:  "<p>[${missing}]</p>",
			want: "<p>[]</p>",
		},
		{
			name: "script is raw",
			src:  "<script>const s = `${x}`;</script>",
			want: "<script>const s = `${x}`;</script>",
		},
		{
			name: "nested braces",
			src:  `<p>${ {"a": "b"}.a }</p>`,
			want: "<p>b</p>",
		},
		{
			name: "custom element kept",
			src:  "<main><router-view></router-view></main>",
			want: "<main><router-view></router-view></main>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl, err := ParseTemplate(tt.name, strings.NewReader(tt.src))
			require.NoError(t, err)

			out, err := tpl.Render(NewScope(tt.vars))
			require.NoError(t, err)
			require.Equal(t, tt.want, renderString(t, out))
		})
	}
}

func TestTemplate_RenderIsRepeatable(t *testing.T) {
	tpl, err := ParseTemplate("Page", strings.NewReader("<p>${route.path}</p>"))
	require.NoError(t, err)

	for _, p := range []string{"/page1", "/page2"} {
		out, err := tpl.Render(NewScope(map[string]any{"route": map[string]any{"path": p}}))
		require.NoError(t, err)
		require.Equal(t, "<p>"+p+"</p>", renderString(t, out))
	}
}

func TestParseTemplate_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unclosed", "<p>${route.path</p>"},
		{"empty", "<p>${ }</p>"},
		{"syntax", `<a href="${1 +}">x</a>`},
		{"string", `<p>${"abc}</p>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTemplate("Broken", strings.NewReader(tt.src))
			require.Error(t, err)

			var ce *ComponentError
			require.True(t, errors.As(err, &ce))
			require.Equal(t, "Broken", ce.Component)
		})
	}
}

func TestTemplate_RenderErrorLocation(t *testing.T) {
	tpl, err := ParseTemplate("About", strings.NewReader(`<div><p>a</p><p title="${route.path}">b</p></div>`))
	require.NoError(t, err)

	out, err := tpl.Render(NewScope(nil))
	require.Error(t, err)
	require.NotNil(t, out)

	var ce *ComponentError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "/div/p[2]", ce.Path)
	require.Equal(t, "title", ce.Attr)
	require.Contains(t, ce.Error(), "About: /div/p[2]@title: ")
}

func TestFSImporter(t *testing.T) {
	fsys := fstest.MapFS{
		"components/main_page_info.html": {Data: []byte("<h1>Info</h1>")},
		"components/page1.html":          {Data: []byte("<h1>Page 1</h1>")},
		"components/broken.html":         {Data: []byte("<p>${</p>")},
	}
	imp := &FSImporter{FS: fsys, Dir: "components"}

	c, err := imp.Import("MainPageInfo")
	require.NoError(t, err)
	out, err := c.Render(NewScope(nil))
	require.NoError(t, err)
	require.Equal(t, "<h1>Info</h1>", renderString(t, out))

	again, err := imp.Import("MainPageInfo")
	require.NoError(t, err)
	require.Same(t, c, again)

	_, err = imp.Import("Page1")
	require.NoError(t, err)

	_, err = imp.Import("Page9")
	require.ErrorIs(t, err, ErrComponentNotFound)

	_, err = imp.Import("Broken")
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrComponentNotFound))
}

func TestChain(t *testing.T) {
	builtin := Builtins{"NotFound": Static(&html.Node{Type: html.TextNode, Data: "404"})}
	failing := ImporterFunc(func(name string) (Component, error) {
		if name == "Bad" {
			return nil, errors.New("boom")
		}
		return nil, ErrComponentNotFound
	})
	imp := Chain(failing, builtin)

	c, err := imp.Import("NotFound")
	require.NoError(t, err)
	out, err := c.Render(NewScope(nil))
	require.NoError(t, err)
	require.Equal(t, "404", renderString(t, out))

	_, err = imp.Import("Bad")
	require.EqualError(t, err, "boom")

	_, err = imp.Import("Missing")
	require.ErrorIs(t, err, ErrComponentNotFound)
}

func TestComponentFile(t *testing.T) {
	tests := map[string]string{
		"Main":         "main.html",
		"MainPageInfo": "main_page_info.html",
		"Page1":        "page1.html",
		"NotFound":     "not_found.html",
		"app-shell":    "app_shell.html",
	}
	for in, want := range tests {
		require.Equal(t, want, ComponentFile(in), in)
	}
}

func TestScope_Spawn(t *testing.T) {
	root := NewScope(map[string]any{"a": 1, "b": 2})
	child := root.Spawn(map[string]any{"b": 3})

	require.Equal(t, map[string]any{"a": 1, "b": 3}, child.Vars())
	require.Equal(t, map[string]any{"a": 1, "b": 2}, root.Vars())
}

func TestCloneTree(t *testing.T) {
	nodes, err := html.ParseFragment(strings.NewReader(`<div id="x"><p>a</p></div>`), bodyContext)
	require.NoError(t, err)

	c := CloneTree(nodes[0])
	c.Attr[0].Val = "y"
	c.FirstChild.FirstChild.Data = "b"

	require.Equal(t, `<div id="y"><p>b</p></div>`, renderString(t, c))
	require.Equal(t, `<div id="x"><p>a</p></div>`, renderString(t, nodes[0]))
}

func TestAsNode(t *testing.T) {
	require.Nil(t, AsNode(nil))
	require.Equal(t, "42", AsNode(42).Data)

	n := &html.Node{Type: html.ElementNode, Data: "p"}
	require.Same(t, n, AsNode(n))
}
