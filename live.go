package spa

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coalwatch/spa/router"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// navRequest is sent by the navigation script when the user follows an
// in-app link or moves through the browser history.
type navRequest struct {
	Path string `json:"path"`

	// Replace is set for history traversal (popstate); the server does not
	// record a new history entry.
	Replace bool `json:"replace,omitempty"`
}

// navResponse carries the rendered router view for the requested path.
type navResponse struct {
	Path      string `json:"path"`
	Href      string `json:"href"`
	Status    int    `json:"status"`
	Component string `json:"component"`
	Title     string `json:"title"`
	HTML      string `json:"html"`
}

// serveLive runs a navigation session over a WebSocket connection. Each
// incoming message moves the session to a new route and is answered with the
// rendered router view. The document itself is never reloaded.
func (a *App) serveLive(w http.ResponseWriter, r *http.Request, m router.Match) {
	logger := a.logger.With("session", uuid.NewString(), "remote_addr", r.RemoteAddr)

	ws, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		logger.Warn("Upgrade live session", "error", err)
		return
	}
	defer ws.Close()

	liveSessions.Inc()
	defer liveSessions.Dec()

	nav := a.router.NewNavigator()
	nav.Replace(m.Path)
	limiter := rate.NewLimiter(a.liveRate, a.liveBurst)

	logger.Debug("Live session started", "path", m.Path)

	if err := a.navigationLoop(r, ws, nav, limiter); err != nil {
		logger.Error("Live session", "error", err)
		return
	}
	logger.Debug("Live session closed")
}

func (a *App) navigationLoop(r *http.Request, ws *websocket.Conn, nav *router.Navigator, limiter *rate.Limiter) error {
	for {
		var req navRequest
		if err := ws.ReadJSON(&req); err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("read websocket message: %w", err)
		}

		if err := limiter.Wait(r.Context()); err != nil {
			if errors.Is(err, r.Context().Err()) {
				return nil
			}
			return fmt.Errorf("throttle navigation: %w", err)
		}

		var m router.Match
		if req.Replace {
			m = nav.Replace(req.Path)
		} else {
			m = nav.Push(req.Path)
		}

		resp, err := a.navigate(m)
		if err != nil {
			return err
		}

		if err := ws.WriteJSON(resp); err != nil {
			return fmt.Errorf("write websocket message: %w", err)
		}
	}
}

// navigate renders the router view for m. Successful views of declared routes
// are cached.
func (a *App) navigate(m router.Match) (navResponse, error) {
	if m.Found {
		if resp, ok := a.cache.Get(m.Path); ok {
			navigations.WithLabelValues(componentName(m), transportLive).Inc()
			return resp, nil
		}
	}

	start := time.Now()
	pg, err := a.renderView(newPageScope(a.pageVars(m), m))
	if err != nil {
		return navResponse{}, err
	}
	observeRender(transportLive, pg, time.Since(start))

	for _, e := range pg.errs {
		a.logger.Error("Render page", "path", m.Path, "component", componentName(m), "error", e)
	}

	body, err := renderHTML(pg.node)
	if err != nil {
		return navResponse{}, fmt.Errorf("render HTML: %w", err)
	}

	resp := navResponse{
		Path:      m.Path,
		Href:      a.router.Href(m.Path),
		Status:    pg.status,
		Component: componentName(m),
		Title:     pg.title,
		HTML:      body,
	}
	if m.Found && pg.status == http.StatusOK {
		a.cache.Add(m.Path, resp)
	}
	return resp, nil
}
