package spa

import (
	"net/http"
	"testing"

	"github.com/coalwatch/spa/router"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Document(t *testing.T) {
	app := newTestApp(t, router.VariantFull, router.HistoryMode)

	about := navigations.WithLabelValues("About", transportDocument)
	missing := notFound.WithLabelValues(transportDocument)
	beforeAbout := testutil.ToFloat64(about)
	beforeMissing := testutil.ToFloat64(missing)

	serve(t, app, http.MethodGet, "/about")
	serve(t, app, http.MethodGet, "/about/")
	serve(t, app, http.MethodGet, "/nonexistent")

	require.Equal(t, beforeAbout+2, testutil.ToFloat64(about))
	require.Equal(t, beforeMissing+1, testutil.ToFloat64(missing))
}

func TestMetrics_RenderFailures(t *testing.T) {
	shell := testShell()
	app, err := New(Config{
		Components: brokenImporter(shell),
		Shell:      shell,
		Error:      "Error",
	})
	require.NoError(t, err)
	require.NoError(t, app.Use(brokenRouter(t)))
	require.NoError(t, app.Mount("#app"))

	failures := renderFailures.WithLabelValues("Broken")
	before := testutil.ToFloat64(failures)

	serve(t, app, http.MethodGet, "/broken")
	serve(t, app, http.MethodGet, "/")

	require.Equal(t, before+1, testutil.ToFloat64(failures))
}
