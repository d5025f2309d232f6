package router

import "sync"

// Navigator holds the current route of one client session.
// It is safe for concurrent use.
type Navigator struct {
	router *Router

	mu      sync.Mutex
	current Match
	history []Match
}

// NewNavigator returns a Navigator positioned at "/".
func (r *Router) NewNavigator() *Navigator {
	return &Navigator{router: r, current: r.Resolve("/")}
}

// Push resolves location, makes it the current route and returns the match.
// Pushing the current path again does not grow the history.
func (n *Navigator) Push(location string) Match {
	m := n.router.Resolve(location)

	n.mu.Lock()
	defer n.mu.Unlock()

	if m.Path != n.current.Path {
		n.history = append(n.history, n.current)
	}
	n.current = m
	return m
}

// Replace resolves location and makes it the current route without
// recording the previous one.
func (n *Navigator) Replace(location string) Match {
	m := n.router.Resolve(location)

	n.mu.Lock()
	n.current = m
	n.mu.Unlock()

	return m
}

// Back returns to the previous route. It reports false if there is none.
func (n *Navigator) Back() (Match, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.history) == 0 {
		return n.current, false
	}
	n.current = n.history[len(n.history)-1]
	n.history = n.history[:len(n.history)-1]
	return n.current, true
}

// Current returns the current route.
func (n *Navigator) Current() Match {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}
