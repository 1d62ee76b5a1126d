package analyzer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Vodeneev/goalscout/internal/pkg/models"
)

var errFeedDown = errors.New("feed down")

// fakeFeed serves canned standings, matches and fixtures and counts calls.
type fakeFeed struct {
	mu sync.Mutex

	standings    map[int][]models.Standing
	recent       map[int][]models.MatchResult
	competitions []models.Competition
	fixtures     map[int][]models.Fixture

	standingsErr error
	recentErr    error
	fixturesErr  map[int]error

	standingsCalls int
	recentCalls    int
	recentLimits   []int
}

func (f *fakeFeed) Standings(_ context.Context, competitionID int) ([]models.Standing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.standingsCalls++
	if f.standingsErr != nil {
		return nil, f.standingsErr
	}
	return f.standings[competitionID], nil
}

func (f *fakeFeed) RecentMatches(_ context.Context, teamID, limit int) ([]models.MatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recentCalls++
	f.recentLimits = append(f.recentLimits, limit)
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	return f.recent[teamID], nil
}

func (f *fakeFeed) Competitions(context.Context) ([]models.Competition, error) {
	return f.competitions, nil
}

func (f *fakeFeed) UpcomingFixtures(_ context.Context, competitionID int, _, _ time.Time) ([]models.Fixture, error) {
	if err := f.fixturesErr[competitionID]; err != nil {
		return nil, err
	}
	return f.fixtures[competitionID], nil
}

// staticProfiles returns fixed profiles by team id, defaults otherwise.
type staticProfiles map[int]TeamProfile

func (s staticProfiles) Profile(_ context.Context, teamID, competitionID int) TeamProfile {
	if p, ok := s[teamID]; ok {
		return p
	}
	return DefaultProfile(teamID, competitionID)
}

type staticH2H HeadToHeadStats

func (s staticH2H) Stats(context.Context, int, int, int) HeadToHeadStats {
	return HeadToHeadStats(s)
}

func result(home, away, htHome, htAway int) models.MatchResult {
	return models.MatchResult{
		HomeTeamID:        1,
		AwayTeamID:        2,
		HomeGoalsFullTime: home,
		AwayGoalsFullTime: away,
		HomeGoalsHalfTime: htHome,
		AwayGoalsHalfTime: htAway,
	}
}

func meeting(homeID, awayID, home, away int) models.MatchResult {
	return models.MatchResult{
		HomeTeamID:        homeID,
		AwayTeamID:        awayID,
		HomeGoalsFullTime: home,
		AwayGoalsFullTime: away,
	}
}
