package analyzer

// Session is the mutable state shared by requests: analysis history and watchlist.
type Session struct {
	History   *History
	Watchlist *Watchlist
}

// NewSession creates a session with a history of historySize records. store may be nil.
func NewSession(historySize int, store HistoryStore) *Session {
	return &Session{
		History:   NewHistory(historySize, store),
		Watchlist: NewWatchlist(),
	}
}
