// Package web holds the coalwatch app shell, page components and stylesheet.
package web

import "embed"

// FS contains index.html (the app shell), assets/ and components/.
//
//go:embed index.html assets components
var FS embed.FS

const (
	// ComponentsDir is the directory of component templates in FS.
	ComponentsDir = "components"

	// Stylesheet is the stylesheet imported at startup.
	Stylesheet = "assets/main.css"
)
