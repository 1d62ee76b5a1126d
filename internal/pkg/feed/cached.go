package feed

import (
	"context"
	"time"

	"github.com/Vodeneev/goalscout/internal/pkg/cache"
	"github.com/Vodeneev/goalscout/internal/pkg/config"
	"github.com/Vodeneev/goalscout/internal/pkg/models"
)

// Cached wraps a Source and memoises every call for its table TTL.
// Standings and recent matches use the profile TTL since profiles and H2H are derived from them.
type Cached struct {
	next  Source
	cache *cache.Cache
	ttl   config.CacheConfig
}

var _ Source = (*Cached)(nil)

func NewCached(next Source, c *cache.Cache, ttl config.CacheConfig) *Cached {
	return &Cached{next: next, cache: c, ttl: ttl}
}

func (c *Cached) Competitions(ctx context.Context) ([]models.Competition, error) {
	return cache.Load(ctx, c.cache, cache.Key("competitions"), c.ttl.Competitions,
		func(ctx context.Context) ([]models.Competition, error) {
			return c.next.Competitions(ctx)
		})
}

func (c *Cached) UpcomingFixtures(ctx context.Context, competitionID int, from, to time.Time) ([]models.Fixture, error) {
	key := cache.Key("fixtures", competitionID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	return cache.Load(ctx, c.cache, key, c.ttl.Fixtures,
		func(ctx context.Context) ([]models.Fixture, error) {
			return c.next.UpcomingFixtures(ctx, competitionID, from, to)
		})
}

func (c *Cached) Standings(ctx context.Context, competitionID int) ([]models.Standing, error) {
	return cache.Load(ctx, c.cache, cache.Key("standings", competitionID), c.ttl.Profiles,
		func(ctx context.Context) ([]models.Standing, error) {
			return c.next.Standings(ctx, competitionID)
		})
}

func (c *Cached) RecentMatches(ctx context.Context, teamID, limit int) ([]models.MatchResult, error) {
	return cache.Load(ctx, c.cache, cache.Key("matches", teamID, limit), c.ttl.Profiles,
		func(ctx context.Context) ([]models.MatchResult, error) {
			return c.next.RecentMatches(ctx, teamID, limit)
		})
}
