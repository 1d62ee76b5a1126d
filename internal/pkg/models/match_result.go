package models

import "time"

// MatchResult represents one finished fixture as returned by the match feed.
// Missing scores are normalized to 0 by the feed layer.
type MatchResult struct {
	ID           int       `json:"id"`
	UTCDate      time.Time `json:"utc_date"`
	HomeTeamID   int       `json:"home_team_id"`
	HomeTeamName string    `json:"home_team_name"`
	AwayTeamID   int       `json:"away_team_id"`
	AwayTeamName string    `json:"away_team_name"`

	HomeGoalsFullTime int `json:"home_goals_full_time"`
	AwayGoalsFullTime int `json:"away_goals_full_time"`
	HomeGoalsHalfTime int `json:"home_goals_half_time"`
	AwayGoalsHalfTime int `json:"away_goals_half_time"`
}

// HomeGoals returns full-time goals scored by the home side.
func (m MatchResult) HomeGoals() int {
	return m.HomeGoalsFullTime
}

// AwayGoals returns full-time goals scored by the away side.
func (m MatchResult) AwayGoals() int {
	return m.AwayGoalsFullTime
}

// TotalGoals returns full-time goals of both sides.
func (m MatchResult) TotalGoals() int {
	return m.HomeGoalsFullTime + m.AwayGoalsFullTime
}

// FirstHalfGoals returns half-time goals of both sides.
func (m MatchResult) FirstHalfGoals() int {
	return m.HomeGoalsHalfTime + m.AwayGoalsHalfTime
}

// SecondHalfGoals is total minus first-half goals. Never negative as long as
// the feed reports half-time scores not above full-time scores.
func (m MatchResult) SecondHalfGoals() int {
	return m.TotalGoals() - m.FirstHalfGoals()
}

// BothTeamsScored reports whether each side scored at least once.
func (m MatchResult) BothTeamsScored() bool {
	return m.HomeGoalsFullTime > 0 && m.AwayGoalsFullTime > 0
}

// Involves reports whether teamID played in the match on either side.
func (m MatchResult) Involves(teamID int) bool {
	return m.HomeTeamID == teamID || m.AwayTeamID == teamID
}
