package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Vodeneev/goalscout/internal/pkg/models"
)

const (
	DefaultWindowDays    = 7
	DefaultMaxCandidates = 12
	DefaultShortlistSize = 6

	minUnder35 = 70.0
	minOver05  = 75.0
)

// FixtureSource lists competitions and their upcoming fixtures.
type FixtureSource interface {
	Competitions(ctx context.Context) ([]models.Competition, error)
	UpcomingFixtures(ctx context.Context, competitionID int, from, to time.Time) ([]models.Fixture, error)
}

// ScreenedFixture is one shortlisted fixture.
type ScreenedFixture struct {
	FixtureID     int       `json:"fixture_id"`
	CompetitionID int       `json:"competition_id"`
	Competition   string    `json:"competition"`
	HomeTeam      string    `json:"home_team"`
	AwayTeam      string    `json:"away_team"`
	HomeID        int       `json:"home_id"`
	AwayID        int       `json:"away_id"`
	Kickoff       time.Time `json:"kickoff"`
	ProbUnder35   float64   `json:"prob_under35"`
	ProbOver05    float64   `json:"prob_over05"`
	HomeStyle     Style     `json:"home_style"`
	AwayStyle     Style     `json:"away_style"`
	HomeAttack    int       `json:"home_attack"`
	HomeDefense   int       `json:"home_defense"`
	AwayAttack    int       `json:"away_attack"`
	AwayDefense   int       `json:"away_defense"`
}

// ScoreFixture computes the Under 3.5 / Over 0.5 composite for a pairing.
// The Over 0.5 figure halves the averaged Under 2.5 rate as a dampener; it is
// a heuristic, not a derived probability.
func ScoreFixture(home, away TeamProfile) (under35, over05 float64) {
	under35 = (float64(home.Under35) + float64(away.Under35)) / 2
	over05 = 100 - (float64(home.Under25)+float64(away.Under25))/2/2

	switch {
	case home.Style == StyleDefensive && away.Style == StyleDefensive:
		under35 += 15
		over05 -= 5
	case home.Style == StyleDefensive || away.Style == StyleDefensive:
		under35 += 8
	}

	return clamp(under35, 50, 95), clamp(over05, 60, 95)
}

// Qualifies reports whether a scored fixture makes the shortlist pool.
func Qualifies(under35, over05 float64) bool {
	return under35 >= minUnder35 && over05 >= minOver05
}

// ScreenOptions tunes the screener.
type ScreenOptions struct {
	WindowDays    int
	MaxCandidates int
	ShortlistSize int
}

// Screener builds a shortlist of low-scoring-but-not-goalless fixtures.
type Screener struct {
	fixtures FixtureSource
	profiles ProfileSource
	opts     ScreenOptions
	now      func() time.Time
}

// NewScreener creates a screener. Zero options take the defaults.
func NewScreener(fixtures FixtureSource, profiles ProfileSource, opts ScreenOptions) *Screener {
	if opts.WindowDays <= 0 {
		opts.WindowDays = DefaultWindowDays
	}
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = DefaultMaxCandidates
	}
	if opts.ShortlistSize <= 0 {
		opts.ShortlistSize = DefaultShortlistSize
	}
	return &Screener{fixtures: fixtures, profiles: profiles, opts: opts, now: time.Now}
}

// Screen walks upcoming fixtures of the given competitions (all feed
// competitions when nil) in order and stops once MaxCandidates fixtures
// qualify. The candidates are sorted by Under 3.5 probability, highest first,
// and cut to ShortlistSize. A competition whose fixtures cannot be fetched is
// skipped.
func (s *Screener) Screen(ctx context.Context, competitions []models.Competition) ([]ScreenedFixture, error) {
	if competitions == nil {
		comps, err := s.fixtures.Competitions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list competitions: %w", err)
		}
		competitions = comps
	}

	from := s.now().UTC()
	to := from.AddDate(0, 0, s.opts.WindowDays)

	var (
		candidates []ScreenedFixture
		scanned    int
	)
scan:
	for _, comp := range competitions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fixtures, err := s.fixtures.UpcomingFixtures(ctx, comp.ID, from, to)
		if err != nil {
			slog.Warn("Screener: skipping competition", "competition", comp.Name, "competition_id", comp.ID, "error", err)
			continue
		}

		for _, f := range fixtures {
			if !f.IsUpcoming() {
				continue
			}
			scanned++
			home := s.profiles.Profile(ctx, f.HomeTeamID, comp.ID)
			away := s.profiles.Profile(ctx, f.AwayTeamID, comp.ID)
			under35, over05 := ScoreFixture(home, away)
			if !Qualifies(under35, over05) {
				continue
			}
			slog.Debug("Screener: fixture qualified", "fixture", f.Name(), "under35", under35, "over05", over05)

			candidates = append(candidates, ScreenedFixture{
				FixtureID:     f.ID,
				CompetitionID: comp.ID,
				Competition:   comp.Name,
				HomeTeam:      f.HomeTeamName,
				AwayTeam:      f.AwayTeamName,
				HomeID:        f.HomeTeamID,
				AwayID:        f.AwayTeamID,
				Kickoff:       f.UTCKickoff,
				ProbUnder35:   under35,
				ProbOver05:    over05,
				HomeStyle:     home.Style,
				AwayStyle:     away.Style,
				HomeAttack:    home.Attack,
				HomeDefense:   home.Defense,
				AwayAttack:    away.Attack,
				AwayDefense:   away.Defense,
			})
			if len(candidates) >= s.opts.MaxCandidates {
				break scan
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ProbUnder35 > candidates[j].ProbUnder35
	})
	if len(candidates) > s.opts.ShortlistSize {
		candidates = candidates[:s.opts.ShortlistSize]
	}

	screenRuns.Inc()
	screenedFixtures.Add(float64(scanned))
	slog.Info("Screening pass finished",
		"competitions", len(competitions),
		"fixtures_scanned", scanned,
		"shortlisted", len(candidates))
	return candidates, nil
}
