package spa

import (
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// AssetCollector stores named asset bundles and serves them under versioned
// paths.
type AssetCollector interface {
	// AddAsset appends content to the bundle called name. Adding a chunk that
	// the bundle already contains is a no-op.
	AddAsset(name string, content []byte) error

	// AssetPath returns the versioned path of the bundle, e.g.
	// "/css/main.a1b2c3d4e5f60718.css", or "" if the bundle does not exist.
	AssetPath(name string) string

	// ServeAsset writes the bundle matching the request path. It reports
	// whether the request was handled.
	ServeAsset(w http.ResponseWriter, r *http.Request) (handled bool, err error)
}

// AssetRegistry routes assets to collectors by file extension.
type AssetRegistry struct {
	logger     *slog.Logger
	mu         sync.RWMutex
	collectors map[string]AssetCollector
}

var _ AssetCollector = (*AssetRegistry)(nil)

// NewAssetRegistry returns a registry with stylesheet (.css) and script (.js)
// collectors registered.
func NewAssetRegistry(logger *slog.Logger) *AssetRegistry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &AssetRegistry{
		logger:     logger,
		collectors: make(map[string]AssetCollector),
	}
	r.RegisterCollector(".css", NewStylesheetCollector())
	r.RegisterCollector(".js", NewScriptCollector())
	return r
}

// RegisterCollector associates a collector with a file extension.
func (r *AssetRegistry) RegisterCollector(ext string, c AssetCollector) {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	r.mu.Lock()
	r.collectors[ext] = c
	r.mu.Unlock()
	r.logger.Debug("Registered asset collector", "extension", ext)
}

func (r *AssetRegistry) collector(name string) (AssetCollector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collectors[path.Ext(name)]
	return c, ok
}

func (r *AssetRegistry) AddAsset(name string, content []byte) error {
	c, ok := r.collector(name)
	if !ok {
		return fmt.Errorf("no asset collector registered for %s", name)
	}
	return c.AddAsset(name, content)
}

func (r *AssetRegistry) AssetPath(name string) string {
	c, ok := r.collector(name)
	if !ok {
		return ""
	}
	return c.AssetPath(name)
}

func (r *AssetRegistry) ServeAsset(w http.ResponseWriter, req *http.Request) (bool, error) {
	r.mu.RLock()
	collectors := make([]AssetCollector, 0, len(r.collectors))
	for _, c := range r.collectors {
		collectors = append(collectors, c)
	}
	r.mu.RUnlock()

	for _, c := range collectors {
		handled, err := c.ServeAsset(w, req)
		if err != nil {
			r.logger.ErrorContext(req.Context(), "Serve asset", "path", req.URL.Path, "error", err)
			return true, fmt.Errorf("serve asset %s: %w", req.URL.Path, err)
		}
		if handled {
			return true, nil
		}
	}
	return false, nil
}

// LinkNode returns the <link> or <script> element referencing the bundle, or
// nil if the bundle does not exist.
func (r *AssetRegistry) LinkNode(name string) *html.Node {
	p := r.AssetPath(name)
	if p == "" {
		return nil
	}
	switch path.Ext(p) {
	case ".css":
		return &html.Node{
			Type:     html.ElementNode,
			Data:     "link",
			DataAtom: atom.Link,
			Attr: []html.Attribute{
				{Key: "rel", Val: "stylesheet"},
				{Key: "href", Val: p},
			},
		}
	case ".js":
		return &html.Node{
			Type:     html.ElementNode,
			Data:     "script",
			DataAtom: atom.Script,
			Attr: []html.Attribute{
				{Key: "src", Val: p},
				{Key: "defer", Val: ""},
			},
		}
	}
	return nil
}

// bundle is one named asset, e.g. main.css.
type bundle struct {
	content   strings.Builder
	version   uint64 // FNV-1a of content
	servePath string
}

type chunkKey struct {
	name string
	sum  uint64
}

// bundleCollector keeps bundles of one content type under a path prefix.
type bundleCollector struct {
	prefix      string // "/css"
	contentType string

	mu     sync.RWMutex
	assets map[string]*bundle
	chunks map[chunkKey]struct{} // chunks already added, per bundle
	paths  map[string]string     // serve path -> bundle name
}

func newBundleCollector(prefix, contentType string) *bundleCollector {
	return &bundleCollector{
		prefix:      "/" + strings.Trim(prefix, "/"),
		contentType: contentType,
		assets:      make(map[string]*bundle),
		chunks:      make(map[chunkKey]struct{}),
		paths:       make(map[string]string),
	}
}

// NewStylesheetCollector creates a collector serving CSS under /css.
func NewStylesheetCollector() AssetCollector {
	return newBundleCollector("css", "text/css; charset=utf-8")
}

// NewScriptCollector creates a collector serving JavaScript under /js.
func NewScriptCollector() AssetCollector {
	return newBundleCollector("js", "text/javascript; charset=utf-8")
}

func fnvSum(b []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}

func (c *bundleCollector) AddAsset(name string, content []byte) error {
	if name == "" || path.Base(name) != name {
		return fmt.Errorf("invalid asset name %q", name)
	}
	chunk := chunkKey{name: name, sum: fnvSum(content)}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.chunks[chunk]; ok {
		return nil
	}
	c.chunks[chunk] = struct{}{}

	b, ok := c.assets[name]
	if !ok {
		b = &bundle{}
		c.assets[name] = b
	}
	if b.content.Len() > 0 {
		b.content.WriteByte('\n')
	}
	b.content.Write(content)

	if b.servePath != "" {
		delete(c.paths, b.servePath)
	}
	b.version = fnvSum([]byte(b.content.String()))

	ext := path.Ext(name)
	b.servePath = fmt.Sprintf("%s/%s.%016x%s", c.prefix, strings.TrimSuffix(name, ext), b.version, ext)
	c.paths[b.servePath] = name
	c.paths[c.prefix+"/"+name] = name

	return nil
}

func (c *bundleCollector) AssetPath(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if b, ok := c.assets[name]; ok {
		return b.servePath
	}
	return ""
}

func (c *bundleCollector) ServeAsset(w http.ResponseWriter, r *http.Request) (bool, error) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false, nil
	}

	c.mu.RLock()
	name, ok := c.paths[r.URL.Path]
	var content string
	var version uint64
	if ok {
		b := c.assets[name]
		content, version = b.content.String(), b.version
	}
	c.mu.RUnlock()

	if !ok {
		return false, nil
	}

	etag := fmt.Sprintf(`"%016x"`, version)
	w.Header().Set("Content-Type", c.contentType)
	w.Header().Set("ETag", etag)
	if r.URL.Path == c.prefix+"/"+name {
		w.Header().Set("Cache-Control", "no-cache")
	} else {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	}

	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return true, nil
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return true, nil
	}

	if _, err := io.WriteString(w, content); err != nil {
		return true, fmt.Errorf("write asset %s: %w", name, err)
	}
	return true, nil
}
