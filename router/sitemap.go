package router

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/beevik/etree"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// Sitemap renders a sitemap.xml document listing every declared path under
// baseURL. Hash mode locations are not crawlable, so only history mode is
// supported.
func (r *Router) Sitemap(baseURL string) ([]byte, error) {
	if r.mode != HistoryMode {
		return nil, errors.New("sitemap requires history mode")
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}
	prefix := strings.TrimSuffix(base.String(), "/")

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	urlset := doc.CreateElement("urlset")
	urlset.CreateAttr("xmlns", sitemapNS)

	for _, route := range r.table.routes {
		urlset.CreateElement("url").CreateElement("loc").SetText(prefix + route.Path)
	}

	doc.Indent(2)
	return doc.WriteToBytes()
}
