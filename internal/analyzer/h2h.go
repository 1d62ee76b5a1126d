package analyzer

import (
	"context"
	"log/slog"
	"time"

	"github.com/Vodeneev/goalscout/internal/pkg/cache"
	"github.com/Vodeneev/goalscout/internal/pkg/models"
)

const (
	DefaultH2HLimit       = 5
	DefaultH2HScanMatches = 20
)

const defaultH2HRate = 50.0

// HeadToHeadStats summarises prior meetings between two teams.
type HeadToHeadStats struct {
	BTTSRate   float64 `json:"btts_rate"`
	Over25Rate float64 `json:"over25_rate"`
	Meetings   int     `json:"meetings"`
}

// DefaultHeadToHead is used when there is no history to scan.
func DefaultHeadToHead() HeadToHeadStats {
	return HeadToHeadStats{BTTSRate: defaultH2HRate, Over25Rate: defaultH2HRate}
}

// ComputeHeadToHead scans homeHistory in the given order for matches involving
// awayID and aggregates up to limit of them. Only the home team's history is
// searched, so meetings missing from it are not counted.
func ComputeHeadToHead(homeHistory []models.MatchResult, awayID, limit int) HeadToHeadStats {
	if limit <= 0 {
		limit = DefaultH2HLimit
	}

	var meetings []models.MatchResult
	for _, m := range homeHistory {
		if m.AwayTeamID == awayID || m.HomeTeamID == awayID {
			meetings = append(meetings, m)
			if len(meetings) >= limit {
				break
			}
		}
	}

	var btts, over25 int
	for _, m := range meetings {
		if m.BothTeamsScored() {
			btts++
		}
		if m.TotalGoals() > 2 {
			over25++
		}
	}

	// No meetings yields the neutral default.
	if len(meetings) == 0 {
		return DefaultHeadToHead()
	}
	n := float64(len(meetings))
	return HeadToHeadStats{
		BTTSRate:   float64(btts) / n * 100,
		Over25Rate: float64(over25) / n * 100,
		Meetings:   len(meetings),
	}
}

// HeadToHeadAnalyzer fetches and aggregates prior meetings. Feed errors yield the default.
type HeadToHeadAnalyzer struct {
	feed  MatchFeed
	cache *cache.Cache
	ttl   time.Duration
	scan  int
}

// NewHeadToHeadAnalyzer creates an analyzer. c may be nil.
func NewHeadToHeadAnalyzer(feed MatchFeed, c *cache.Cache, ttl time.Duration, scan int) *HeadToHeadAnalyzer {
	if scan <= 0 {
		scan = DefaultH2HScanMatches
	}
	return &HeadToHeadAnalyzer{feed: feed, cache: c, ttl: ttl, scan: scan}
}

// Stats returns H2H stats for the pair using at most limit meetings.
func (a *HeadToHeadAnalyzer) Stats(ctx context.Context, homeID, awayID, limit int) HeadToHeadStats {
	if limit <= 0 {
		limit = DefaultH2HLimit
	}
	key := cache.Key("h2h", homeID, awayID, limit)
	stats, err := cache.Load(ctx, a.cache, key, a.ttl, func(ctx context.Context) (HeadToHeadStats, error) {
		history, err := a.feed.RecentMatches(ctx, homeID, a.scan)
		if err != nil {
			return HeadToHeadStats{}, err
		}
		return ComputeHeadToHead(history, awayID, limit), nil
	})
	if err != nil {
		slog.Warn("Head-to-head degraded to defaults",
			"home_id", homeID,
			"away_id", awayID,
			"error", err)
		return DefaultHeadToHead()
	}
	return stats
}
