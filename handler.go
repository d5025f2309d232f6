package spa

import (
	_ "embed"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/coalwatch/spa/router"

	"github.com/gorilla/websocket"
	"golang.org/x/net/html"
)

//go:embed navigator.js
var navigatorJS []byte

const sitemapPath = "/sitemap.xml"

// ServeHTTP implements the http.Handler interface.
//
// Requests are resolved in order: asset bundles, the sitemap, declared routes
// (the app shell), static files, and finally the not-found page.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := a.handleRequest(w, r); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		a.logger.Error("Serve HTTP request", "url", r.URL.Redacted(), "error", err)

		if a.onError != nil {
			a.onError(r, err)
		}
	}
}

func (a *App) handleRequest(w http.ResponseWriter, r *http.Request) error {
	if !a.Mounted() {
		return ErrNotMounted
	}

	if handled, err := a.assets.ServeAsset(w, r); handled || err != nil {
		return err
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return nil
	}

	urlPath := cleanPath(r.URL.Path)

	if urlPath == sitemapPath && a.sitemap != nil {
		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		_, err := w.Write(a.sitemap)
		return err
	}

	if a.router.ShellPath(urlPath) {
		return a.servePage(w, r, a.router.Resolve(urlPath))
	}

	if a.static != nil && isFile(a.static, urlPath) {
		return a.serveFile(w, r, urlPath)
	}

	return a.servePage(w, r, router.Match{Path: urlPath})
}

func (a *App) servePage(w http.ResponseWriter, r *http.Request, m router.Match) error {
	if a.live && websocket.IsWebSocketUpgrade(r) {
		a.serveLive(w, r, m)
		return nil
	}

	start := time.Now()
	doc, pg, err := a.renderDocument(m)
	if err != nil {
		return err
	}
	observeRender(transportDocument, pg, time.Since(start))

	for _, e := range pg.errs {
		a.logger.Error("Render page", "path", m.Path, "component", componentName(m), "error", e)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(pg.status)

	if r.Method == http.MethodHead {
		return nil
	}

	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("render HTML: %w", err)
	}
	return nil
}

func (a *App) serveFile(w http.ResponseWriter, r *http.Request, urlPath string) error {
	r2 := r.Clone(r.Context())
	r2.URL.Path = urlPath
	r2.URL.RawPath = ""
	http.FileServerFS(a.static).ServeHTTP(w, r2)
	return nil
}

// isFile reports whether urlPath names a regular, non-hidden file in fsys.
func isFile(fsys fs.FS, urlPath string) bool {
	name := strings.TrimPrefix(urlPath, "/")
	if name == "" || !fs.ValidPath(name) {
		return false
	}
	for _, seg := range strings.Split(name, "/") {
		if strings.HasPrefix(seg, ".") {
			return false
		}
	}
	fi, err := fs.Stat(fsys, name)
	if err != nil {
		return false
	}
	return fi.Mode().IsRegular()
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
