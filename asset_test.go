package spa

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScriptCollector(t *testing.T) {
	assets := NewScriptCollector()

	require.NoError(t, assets.AddAsset("test.js", []byte("console.log('Hello, world!');")))

	assetPath := assets.AssetPath("test.js")
	require.Equal(t, "/js/test.c02ef03acd9bcafb.js", assetPath)

	assertAssetContent(t, assets, assetPath, "console.log('Hello, world!');")

	// Add more content to the test.js asset
	require.NoError(t, assets.AddAsset("test.js", []byte("console.log('Lorem ipsum dolor sit amet');")))

	assetPath = assets.AssetPath("test.js")
	require.Equal(t, "/js/test.b72d6cb04f0e4286.js", assetPath)

	assertAssetContent(t, assets, assetPath, "console.log('Hello, world!');\nconsole.log('Lorem ipsum dolor sit amet');")

	// There should be no asset anymore with previous hash
	assertAssetNotFound(t, assets, "/js/test.c02ef03acd9bcafb.js")

	// The non-hashed name should work
	assertAssetContent(t, assets, "/js/test.js", "console.log('Hello, world!');\nconsole.log('Lorem ipsum dolor sit amet');")

	// Adding the same chunk again does not change the bundle
	require.NoError(t, assets.AddAsset("test.js", []byte("console.log('Hello, world!');")))
	require.Equal(t, "/js/test.b72d6cb04f0e4286.js", assets.AssetPath("test.js"))
}

func TestStylesheetCollector(t *testing.T) {
	assets := NewStylesheetCollector()

	require.NoError(t, assets.AddAsset("test.css", []byte("body { color: red; }")))

	assetPath := assets.AssetPath("test.css")
	require.Equal(t, "/css/test.4a302240c13eaeb2.css", assetPath)
	assertAssetContent(t, assets, assetPath, "body { color: red; }")

	require.Empty(t, assets.AssetPath("other.css"))
	assertAssetNotFound(t, assets, "/css/other.css")

	require.Error(t, assets.AddAsset("", []byte("x")))
	require.Error(t, assets.AddAsset("dir/test.css", []byte("x")))
}

func TestStylesheetCollector_SameContentDifferentNames(t *testing.T) {
	assets := NewStylesheetCollector()

	require.NoError(t, assets.AddAsset("a.css", []byte("body { color: red; }")))
	require.NoError(t, assets.AddAsset("b.css", []byte("body { color: red; }")))

	require.Equal(t, "/css/a.4a302240c13eaeb2.css", assets.AssetPath("a.css"))
	require.Equal(t, "/css/b.4a302240c13eaeb2.css", assets.AssetPath("b.css"))
	assertAssetContent(t, assets, "/css/b.css", "body { color: red; }")
}

func TestStylesheetCollector_Caching(t *testing.T) {
	assets := NewStylesheetCollector()
	require.NoError(t, assets.AddAsset("test.css", []byte("body { color: red; }")))

	rr := serveAsset(t, assets, http.MethodGet, "/css/test.4a302240c13eaeb2.css", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "public, max-age=31536000, immutable", rr.Header().Get("Cache-Control"))
	etag := rr.Header().Get("ETag")
	require.Equal(t, `"4a302240c13eaeb2"`, etag)

	rr = serveAsset(t, assets, http.MethodGet, "/css/test.css", nil)
	require.Equal(t, "no-cache", rr.Header().Get("Cache-Control"))

	rr = serveAsset(t, assets, http.MethodGet, "/css/test.css", map[string]string{"If-None-Match": etag})
	require.Equal(t, http.StatusNotModified, rr.Code)
	require.Empty(t, rr.Body.String())

	rr = serveAsset(t, assets, http.MethodHead, "/css/test.css", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Empty(t, rr.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/css/test.css", nil)
	handled, err := assets.ServeAsset(httptest.NewRecorder(), req)
	require.NoError(t, err)
	require.False(t, handled)
}

func TestAssetRegistry(t *testing.T) {
	reg := NewAssetRegistry(nil)

	require.NoError(t, reg.AddAsset("main.css", []byte("body { color: red; }")))
	require.NoError(t, reg.AddAsset("app.js", []byte("console.log('Hello, world!');")))
	require.Error(t, reg.AddAsset("logo.png", []byte{0x89}))

	require.Equal(t, "/css/main.4a302240c13eaeb2.css", reg.AssetPath("main.css"))
	require.Equal(t, "/js/app.c02ef03acd9bcafb.js", reg.AssetPath("app.js"))
	require.Empty(t, reg.AssetPath("logo.png"))

	assertAssetContent(t, reg, "/css/main.css", "body { color: red; }")
	assertAssetContent(t, reg, "/js/app.js", "console.log('Hello, world!');")
	assertAssetNotFound(t, reg, "/js/missing.js")

	link := reg.LinkNode("main.css")
	require.NotNil(t, link)
	require.Equal(t, "link", link.Data)

	script := reg.LinkNode("app.js")
	require.NotNil(t, script)
	require.Equal(t, "script", script.Data)

	require.Nil(t, reg.LinkNode("missing.css"))

	// Custom collectors replace the default ones.
	reg.RegisterCollector("svg", newBundleCollector("img", "image/svg+xml"))
	require.NoError(t, reg.AddAsset("logo.svg", []byte("<svg></svg>")))
	require.NotEmpty(t, reg.AssetPath("logo.svg"))
	require.Nil(t, reg.LinkNode("logo.svg"))
	assertAssetContent(t, reg, "/img/logo.svg", "<svg></svg>")
}

func serveAsset(t *testing.T, assets AssetCollector, method, url string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, url, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handled, err := assets.ServeAsset(rr, req)
	require.NoError(t, err)
	require.True(t, handled)
	return rr
}

func assertAssetContent(t *testing.T, assets AssetCollector, path, want string) {
	t.Helper()
	rr := serveAsset(t, assets, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	got, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	require.Equal(t, want, string(got))
}

func assertAssetNotFound(t *testing.T, assets AssetCollector, path string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	handled, err := assets.ServeAsset(httptest.NewRecorder(), req)
	require.NoError(t, err)
	require.False(t, handled)
}
