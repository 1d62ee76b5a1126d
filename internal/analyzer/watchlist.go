package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Vodeneev/goalscout/internal/pkg/oddsmath"
)

// ErrWatchIndex is returned for an out-of-range watchlist index.
var ErrWatchIndex = errors.New("analyzer: watchlist index out of range")

// WatchEntry is a fixture the user follows.
type WatchEntry struct {
	Label         string    `json:"label"`
	HomeTeam      string    `json:"home_team"`
	AwayTeam      string    `json:"away_team"`
	Competition   string    `json:"competition,omitempty"`
	HomeID        int       `json:"home_id,omitempty"`
	AwayID        int       `json:"away_id,omitempty"`
	CompetitionID int       `json:"competition_id,omitempty"`
	AddedAt       time.Time `json:"added_at"`
}

// Request converts the entry into an analysis request.
func (e WatchEntry) Request() AnalysisRequest {
	return AnalysisRequest{
		HomeTeam:      e.HomeTeam,
		AwayTeam:      e.AwayTeam,
		Competition:   e.Competition,
		HomeID:        e.HomeID,
		AwayID:        e.AwayID,
		CompetitionID: e.CompetitionID,
	}
}

// Trackable reports whether the entry carries the ids an analysis needs.
// Entries added from a label alone are display-only.
func (e WatchEntry) Trackable() bool {
	return e.HomeID > 0 && e.AwayID > 0 && e.CompetitionID > 0
}

// Watchlist is an ordered list of followed fixtures.
type Watchlist struct {
	mu      sync.Mutex
	entries []WatchEntry
	now     func() time.Time
}

func NewWatchlist() *Watchlist {
	return &Watchlist{now: time.Now}
}

// Add appends an entry. Team names missing from the entry are parsed from its
// label ("Home vs Away").
func (w *Watchlist) Add(e WatchEntry) (WatchEntry, error) {
	e.HomeTeam = strings.TrimSpace(e.HomeTeam)
	e.AwayTeam = strings.TrimSpace(e.AwayTeam)
	if e.HomeTeam == "" || e.AwayTeam == "" {
		home, away, ok := splitTeamsFromName(e.Label)
		if !ok {
			return WatchEntry{}, fmt.Errorf("%w: cannot parse teams from %q", ErrInvalidRequest, e.Label)
		}
		e.HomeTeam, e.AwayTeam = home, away
	}
	if e.Label == "" {
		e.Label = e.HomeTeam + " vs " + e.AwayTeam
	}
	if e.AddedAt.IsZero() {
		e.AddedAt = w.now().UTC()
	}

	w.mu.Lock()
	w.entries = append(w.entries, e)
	w.mu.Unlock()
	return e, nil
}

// Remove deletes the entry at index.
func (w *Watchlist) Remove(index int) (WatchEntry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if index < 0 || index >= len(w.entries) {
		return WatchEntry{}, ErrWatchIndex
	}
	e := w.entries[index]
	w.entries = append(w.entries[:index], w.entries[index+1:]...)
	return e, nil
}

// List returns a copy of the entries.
func (w *Watchlist) List() []WatchEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]WatchEntry, len(w.entries))
	copy(out, w.entries)
	return out
}

// splitTeamsFromName extracts team names from a match label.
// Supports separators: " vs ", " - ", " — ", " – "
func splitTeamsFromName(name string) (string, string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", false
	}
	separators := []string{" vs ", " - ", " — ", " – "}
	for _, sep := range separators {
		parts := strings.Split(name, sep)
		if len(parts) != 2 {
			continue
		}
		home := strings.TrimSpace(parts[0])
		away := strings.TrimSpace(parts[1])
		if home != "" && away != "" {
			return home, away, true
		}
	}
	return "", "", false
}

// ValueAlert is a market on a watched fixture priced with value at the reference odd.
type ValueAlert struct {
	Entry         WatchEntry `json:"entry"`
	Market        Market     `json:"market"`
	Probability   float64    `json:"probability"`
	ReferenceOdd  float64    `json:"reference_odd"`
	ExpectedValue float64    `json:"expected_value"`
}

// AlertOptions configure value alert selection.
type AlertOptions struct {
	MinEV        float64
	ReferenceOdd float64
}

// ValueAlerts picks the markets of a with EV above opts.MinEV at opts.ReferenceOdd.
func ValueAlerts(entry WatchEntry, a *MatchAnalysis, opts AlertOptions) []ValueAlert {
	var out []ValueAlert
	for _, e := range a.Markets {
		ev, ok := oddsmath.ExpectedValue(e.Probability, opts.ReferenceOdd)
		if !ok || ev <= opts.MinEV {
			continue
		}
		out = append(out, ValueAlert{
			Entry:         entry,
			Market:        e.Market,
			Probability:   e.Probability,
			ReferenceOdd:  opts.ReferenceOdd,
			ExpectedValue: ev,
		})
	}
	return out
}

// WatchlistAlerts analyses every trackable entry and collects value alerts.
// Display-only entries are skipped. Entries that fail analysis are skipped and
// reported in errs.
func WatchlistAlerts(ctx context.Context, engine *Engine, hist *History, entries []WatchEntry, opts AlertOptions) (alerts []ValueAlert, errs []error) {
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if !entry.Trackable() {
			slog.Debug("Watchlist: skipping display-only entry", "label", entry.Label)
			continue
		}
		a, err := engine.Analyze(ctx, hist, entry.Request())
		if err != nil {
			errs = append(errs, fmt.Errorf("watchlist entry %d (%s): %w", i, entry.Label, err))
			continue
		}
		alerts = append(alerts, ValueAlerts(entry, a, opts)...)
	}
	return alerts, errs
}
