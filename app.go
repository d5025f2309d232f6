// Package spa serves a single-page application: an app shell document whose
// anchor element receives the rendered root component, a route table mapping
// paths to page components, and live history-mode navigation over WebSocket.
//
// The App is an explicitly owned context object:
//
//	app, err := spa.New(spa.Config{Root: "App", Components: imp, Shell: web.FS})
//	err = app.Use(rt)
//	err = app.Mount("#app")
//	http.ListenAndServe(":8080", app)
package spa

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/coalwatch/spa/router"
	"github.com/coalwatch/spa/view"

	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/time/rate"
)

var (
	// ErrNoRouter is returned by Mount when no router has been attached.
	ErrNoRouter = errors.New("no router attached")

	// ErrRouterAttached is returned when Use is called more than once.
	ErrRouterAttached = errors.New("router already attached")

	// ErrAlreadyMounted is returned when Mount is called more than once.
	ErrAlreadyMounted = errors.New("application already mounted")

	// ErrNotMounted is returned when a request arrives before Mount.
	ErrNotMounted = errors.New("application is not mounted")

	// ErrAnchorNotFound is returned by Mount when the shell has no element
	// with the anchor id.
	ErrAnchorNotFound = errors.New("mount anchor not found")
)

const (
	defaultRoot      = "App"
	defaultNotFound  = "NotFound"
	defaultShellFile = "index.html"
	defaultCacheSize = 64

	navigatorScript = "navigator.js"
)

type Config struct {
	// Title is the application title, available to templates as app.title.
	Title string

	// Root is the name of the root component. It must contain a
	// <router-view></router-view> element where pages are rendered.
	// Defaults to "App".
	Root string

	// Components imports the root, page, not-found and error components.
	Components view.Importer

	// Shell is the file system holding the shell document and stylesheets.
	Shell fs.FS

	// ShellFile is the path of the shell document in Shell. Defaults to
	// "index.html".
	ShellFile string

	// Stylesheets are paths in Shell loaded at mount and linked from the
	// shell head.
	Stylesheets []string

	// Static is an optional file system with files served as is, e.g.
	// favicon.ico.
	Static fs.FS

	// NotFound is the component rendered for undeclared paths. Defaults to
	// "NotFound"; when it cannot be imported a plain "Not Found" heading is
	// used.
	NotFound string

	// Error is an optional component rendered when a page fails to render.
	// It receives the "errors" variable, a list of *ErrorView.
	Error string

	// Live enables WebSocket navigation and the navigation script.
	Live bool

	// LiveRate and LiveBurst throttle navigation messages of one session.
	// A zero LiveRate means no limit.
	LiveRate  rate.Limit
	LiveBurst int

	// CacheSize bounds the number of cached live views. Defaults to 64.
	CacheSize int

	// SitemapBaseURL enables /sitemap.xml with absolute locations under this
	// URL.
	SitemapBaseURL string

	// Assets collects stylesheet and script bundles. Created if nil.
	Assets *AssetRegistry

	// OnError is called when an error occurs while serving a request.
	OnError func(*http.Request, error)

	// Logger configures logging for internal events.
	Logger *slog.Logger
}

// App is one running application instance bound to one anchor.
type App struct {
	title      string
	components view.Importer
	shellFS    fs.FS
	shellFile  string
	sheets     []string
	static     fs.FS
	live       bool
	liveRate   rate.Limit
	liveBurst  int
	sitemapURL string
	assets     *AssetRegistry
	onError    func(*http.Request, error)
	logger     *slog.Logger

	root     view.Component
	notFound view.Component
	errComp  view.Component

	mu       sync.RWMutex
	router   *router.Router
	pages    map[string]view.Component
	shell    *html.Node
	anchorID string
	mounted  bool
	sitemap  []byte

	cache    *lru.Cache[string, navResponse]
	upgrader websocket.Upgrader
}

// New creates an application around the root component. The root, not-found
// and error components are imported immediately.
func New(cfg Config) (*App, error) {
	if cfg.Components == nil {
		return nil, errors.New("components importer is required")
	}
	if cfg.Shell == nil {
		return nil, errors.New("shell file system is required")
	}

	a := &App{
		title:      cfg.Title,
		components: cfg.Components,
		shellFS:    cfg.Shell,
		shellFile:  cfg.ShellFile,
		sheets:     cfg.Stylesheets,
		static:     cfg.Static,
		live:       cfg.Live,
		liveRate:   cfg.LiveRate,
		liveBurst:  cfg.LiveBurst,
		sitemapURL: cfg.SitemapBaseURL,
		assets:     cfg.Assets,
		onError:    cfg.OnError,
		logger:     cfg.Logger,
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if a.shellFile == "" {
		a.shellFile = defaultShellFile
	}
	if a.assets == nil {
		a.assets = NewAssetRegistry(a.logger)
	}
	if a.liveRate == 0 {
		a.liveRate = rate.Inf
	}
	if a.liveBurst <= 0 {
		a.liveBurst = 1
	}

	size := cfg.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, navResponse](size)
	if err != nil {
		return nil, fmt.Errorf("create view cache: %w", err)
	}
	a.cache = cache

	rootName := cfg.Root
	if rootName == "" {
		rootName = defaultRoot
	}
	a.root, err = a.components.Import(rootName)
	if err != nil {
		return nil, fmt.Errorf("import root component %s: %w", rootName, err)
	}

	nfName := cfg.NotFound
	if nfName == "" {
		nfName = defaultNotFound
	}
	a.notFound, err = a.components.Import(nfName)
	if errors.Is(err, view.ErrComponentNotFound) {
		a.logger.Debug("Using default not-found component", "component", nfName)
		a.notFound, err = defaultNotFoundComponent(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("import not-found component %s: %w", nfName, err)
	}

	if cfg.Error != "" {
		a.errComp, err = a.components.Import(cfg.Error)
		if err != nil {
			return nil, fmt.Errorf("import error component %s: %w", cfg.Error, err)
		}
	}

	return a, nil
}

// Use attaches the router and imports the component of every route. Only one
// router may be attached.
func (a *App) Use(r *router.Router) error {
	if r == nil {
		return ErrNoRouter
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.router != nil {
		return ErrRouterAttached
	}

	pages := make(map[string]view.Component)
	var errs []error
	for _, name := range r.Table().Components() {
		c, err := a.components.Import(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("import page component %s: %w", name, err))
			continue
		}
		pages[name] = newErrorHandlerComponent(c, a.errComp)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	a.router = r
	a.pages = pages
	return nil
}

// Mount binds the application to the shell element with the given id
// ("#app" or "app"). It may succeed only once.
func (a *App) Mount(selector string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.mounted {
		return ErrAlreadyMounted
	}
	if a.router == nil {
		return ErrNoRouter
	}

	id := strings.TrimPrefix(strings.TrimSpace(selector), "#")
	if id == "" {
		return fmt.Errorf("%w: empty selector", ErrAnchorNotFound)
	}

	f, err := a.shellFS.Open(a.shellFile)
	if err != nil {
		return fmt.Errorf("open shell %s: %w", a.shellFile, err)
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return fmt.Errorf("parse shell %s: %w", a.shellFile, err)
	}

	if findByID(doc, id) == nil {
		return fmt.Errorf("%w: #%s in %s", ErrAnchorNotFound, id, a.shellFile)
	}

	head := findElement(doc, atom.Head)

	for _, p := range a.sheets {
		content, err := fs.ReadFile(a.shellFS, p)
		if err != nil {
			a.logger.Warn("Skip stylesheet", "path", p, "error", err)
			continue
		}
		name := path.Base(p)
		if err := a.assets.AddAsset(name, content); err != nil {
			a.logger.Warn("Skip stylesheet", "path", p, "error", err)
			continue
		}
		if link := a.assets.LinkNode(name); link != nil && head != nil {
			head.AppendChild(link)
		}
	}

	if a.live {
		if err := a.assets.AddAsset(navigatorScript, navigatorJS); err != nil {
			return fmt.Errorf("add navigation script: %w", err)
		}
		if script := a.assets.LinkNode(navigatorScript); script != nil && head != nil {
			script.Attr = append(script.Attr,
				html.Attribute{Key: "data-mode", Val: a.router.Mode().String()},
				html.Attribute{Key: "data-anchor", Val: id},
			)
			head.AppendChild(script)
		}
	}

	if a.sitemapURL != "" {
		sm, err := a.router.Sitemap(a.sitemapURL)
		if err != nil {
			return fmt.Errorf("build sitemap: %w", err)
		}
		a.sitemap = sm
	}

	a.shell = doc
	a.anchorID = id
	a.mounted = true

	a.logger.Info("Mounted application",
		"anchor", "#"+id,
		"routes", a.router.Table().Len(),
		"mode", a.router.Mode().String(),
		"live", a.live)

	return nil
}

// Mounted reports whether Mount has succeeded.
func (a *App) Mounted() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mounted
}

// Router returns the attached router, or nil.
func (a *App) Router() *router.Router {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.router
}

// Assets returns the asset registry.
func (a *App) Assets() *AssetRegistry { return a.assets }

func defaultNotFoundComponent() view.Component {
	h := &html.Node{Type: html.ElementNode, Data: "h1", DataAtom: atom.H1}
	h.AppendChild(&html.Node{Type: html.TextNode, Data: http.StatusText(http.StatusNotFound)})
	return view.Static(h)
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Namespace == "" && a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if m := findByID(c, id); m != nil {
			return m
		}
	}
	return nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if m := findElement(c, a); m != nil {
			return m
		}
	}
	return nil
}
