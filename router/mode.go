package router

import "fmt"

// Mode selects how in-app locations are encoded in the browser URL.
type Mode int

const (
	// HistoryMode uses real paths (/about) and the browser history API.
	// The server must serve the app shell for every declared path.
	HistoryMode Mode = iota

	// HashMode keeps the path in the URL fragment (/#/about). The server only
	// serves the app shell at "/".
	HashMode
)

func (m Mode) String() string {
	switch m {
	case HistoryMode:
		return "history"
	case HashMode:
		return "hash"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "history" or "hash". An empty string means HistoryMode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "history":
		return HistoryMode, nil
	case "hash":
		return HashMode, nil
	default:
		return 0, fmt.Errorf("unknown router mode %q", s)
	}
}
