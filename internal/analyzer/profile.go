package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Vodeneev/goalscout/internal/pkg/cache"
	"github.com/Vodeneev/goalscout/internal/pkg/models"
)

// Style is the attacking/defensive classification of a team.
type Style string

const (
	StyleOffensive Style = "offensive"
	StyleDefensive Style = "defensive"
	StyleBalanced  Style = "balanced"
)

// referenceGoals is the per-game goal average a rating of 8 corresponds to.
const referenceGoals = 1.4

// DefaultRecentMatches is how many finished matches feed the market rates.
const DefaultRecentMatches = 10

// TeamProfile is a per (team, competition) snapshot. Rates are percentages in [0,100].
type TeamProfile struct {
	TeamID         int   `json:"team_id"`
	CompetitionID  int   `json:"competition_id"`
	Attack         int   `json:"attack"`
	Defense        int   `json:"defense"`
	Style          Style `json:"style"`
	Over25         int   `json:"over25"`
	BTTS           int   `json:"btts"`
	Over15         int   `json:"over15"`
	Under35        int   `json:"under35"`
	Under25        int   `json:"under25"`
	SecondHalfMore int   `json:"second_half_more"`
}

// DefaultProfile is used whenever the feed cannot provide data.
func DefaultProfile(teamID, competitionID int) TeamProfile {
	return TeamProfile{
		TeamID:         teamID,
		CompetitionID:  competitionID,
		Attack:         5,
		Defense:        5,
		Style:          StyleBalanced,
		Over25:         50,
		BTTS:           50,
		Over15:         70,
		Under35:        70,
		Under25:        50,
		SecondHalfMore: 50,
	}
}

// Rate returns the profile percentage for m.
func (p TeamProfile) Rate(m Market) float64 {
	switch m {
	case MarketBTTS:
		return float64(p.BTTS)
	case MarketOver25:
		return float64(p.Over25)
	case MarketOver15:
		return float64(p.Over15)
	case MarketUnder35:
		return float64(p.Under35)
	case MarketUnder25:
		return float64(p.Under25)
	case MarketSecondHalfMore:
		return float64(p.SecondHalfMore)
	}
	return 0
}

// ClassifyStyle derives the style from ratings.
func ClassifyStyle(attack, defense int) Style {
	switch {
	case attack >= 7 && defense <= 6:
		return StyleOffensive
	case defense >= 7 && attack <= 6:
		return StyleDefensive
	default:
		return StyleBalanced
	}
}

// ApplyStandings sets attack/defense from the team's season averages.
// A missing row or zero played games leaves the ratings untouched.
func (p *TeamProfile) ApplyStandings(table []models.Standing) {
	row, ok := models.FindStanding(table, p.TeamID)
	if !ok || row.PlayedGames <= 0 {
		return
	}
	played := float64(row.PlayedGames)
	avgScored := float64(row.GoalsFor) / played
	avgConceded := float64(row.GoalsAgainst) / played

	p.Attack = rating(avgScored / referenceGoals * 7)
	p.Defense = rating(referenceGoals / math.Max(avgConceded, 0.1) * 7)
}

func rating(scaled float64) int {
	return int(clamp(math.RoundToEven(scaled+1), 1, 10))
}

// ApplyRecent sets market rates from the first DefaultRecentMatches results, in the order given.
// No matches leaves the rates untouched.
func (p *TeamProfile) ApplyRecent(recent []models.MatchResult) {
	if len(recent) > DefaultRecentMatches {
		recent = recent[:DefaultRecentMatches]
	}
	if len(recent) == 0 {
		return
	}

	var over25, btts, over15, under35, under25, secondHalf int
	for _, m := range recent {
		total := m.TotalGoals()
		if total > 2 {
			over25++
		}
		if m.BothTeamsScored() {
			btts++
		}
		if total > 1 {
			over15++
		}
		if total < 4 {
			under35++
		}
		if total < 3 {
			under25++
		}
		if m.SecondHalfGoals() > m.FirstHalfGoals() {
			secondHalf++
		}
	}

	n := len(recent)
	p.Over25 = percent(over25, n)
	p.BTTS = percent(btts, n)
	p.Over15 = percent(over15, n)
	p.Under35 = percent(under35, n)
	p.Under25 = percent(under25, n)
	p.SecondHalfMore = percent(secondHalf, n)
}

func percent(count, n int) int {
	return int(math.RoundToEven(float64(count) / float64(n) * 100))
}

// BuildProfile computes a profile from already fetched data.
// Nil inputs keep the corresponding defaults.
func BuildProfile(teamID, competitionID int, table []models.Standing, recent []models.MatchResult) TeamProfile {
	p := DefaultProfile(teamID, competitionID)
	p.ApplyStandings(table)
	p.ApplyRecent(recent)
	p.Style = ClassifyStyle(p.Attack, p.Defense)
	return p
}

// MatchFeed is the part of the football feed profiles and H2H are built from.
type MatchFeed interface {
	Standings(ctx context.Context, competitionID int) ([]models.Standing, error)
	RecentMatches(ctx context.Context, teamID, limit int) ([]models.MatchResult, error)
}

// ProfileBuilder builds team profiles from the feed. It never fails:
// feed errors degrade to the default values of the affected part.
type ProfileBuilder struct {
	feed   MatchFeed
	cache  *cache.Cache
	ttl    time.Duration
	recent int
}

// NewProfileBuilder creates a builder. c may be nil to disable memoisation.
func NewProfileBuilder(feed MatchFeed, c *cache.Cache, ttl time.Duration) *ProfileBuilder {
	return &ProfileBuilder{feed: feed, cache: c, ttl: ttl, recent: DefaultRecentMatches}
}

// WithRecentMatches sets how many finished matches are fetched per team.
// Only the first DefaultRecentMatches feed the rates.
func (b *ProfileBuilder) WithRecentMatches(n int) *ProfileBuilder {
	if n > 0 {
		b.recent = n
	}
	return b
}

// degradedProfile carries a profile built from partial data; it is returned as an
// error so the cache never stores it.
type degradedProfile struct {
	profile TeamProfile
	err     error
}

func (d *degradedProfile) Error() string { return d.err.Error() }
func (d *degradedProfile) Unwrap() error { return d.err }

// Profile returns the team's profile for the competition.
func (b *ProfileBuilder) Profile(ctx context.Context, teamID, competitionID int) TeamProfile {
	key := cache.Key("profile", teamID, competitionID)
	p, err := cache.Load(ctx, b.cache, key, b.ttl, func(ctx context.Context) (TeamProfile, error) {
		return b.build(ctx, teamID, competitionID)
	})
	if err == nil {
		return p
	}

	slog.Warn("Team profile degraded to defaults",
		"team_id", teamID,
		"competition_id", competitionID,
		"error", err)

	var d *degradedProfile
	if errors.As(err, &d) {
		return d.profile
	}
	return DefaultProfile(teamID, competitionID)
}

func (b *ProfileBuilder) build(ctx context.Context, teamID, competitionID int) (TeamProfile, error) {
	p := DefaultProfile(teamID, competitionID)
	var errs []error

	table, err := b.feed.Standings(ctx, competitionID)
	if err != nil {
		errs = append(errs, fmt.Errorf("standings: %w", err))
	} else {
		p.ApplyStandings(table)
	}

	recent, err := b.feed.RecentMatches(ctx, teamID, b.recent)
	if err != nil {
		errs = append(errs, fmt.Errorf("recent matches: %w", err))
	} else {
		p.ApplyRecent(recent)
	}

	p.Style = ClassifyStyle(p.Attack, p.Defense)
	if len(errs) > 0 {
		return TeamProfile{}, &degradedProfile{profile: p, err: errors.Join(errs...)}
	}
	return p, nil
}
