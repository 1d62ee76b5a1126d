package models

import "time"

// Fixture statuses reported by the feed.
const (
	StatusScheduled = "SCHEDULED"
	StatusTimed     = "TIMED"
	StatusFinished  = "FINISHED"
)

// Competition is an allow-listed league with its feed id.
type Competition struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

// Fixture represents an upcoming (or finished) match of a competition.
type Fixture struct {
	ID           int       `json:"id"`
	HomeTeamID   int       `json:"home_team_id"`
	HomeTeamName string    `json:"home_team_name"`
	AwayTeamID   int       `json:"away_team_id"`
	AwayTeamName string    `json:"away_team_name"`
	Status       string    `json:"status"`
	UTCKickoff   time.Time `json:"utc_kickoff"`
}

// IsUpcoming reports whether the fixture has not been played yet.
func (f Fixture) IsUpcoming() bool {
	return f.Status == StatusScheduled || f.Status == StatusTimed
}

// Name returns "Home vs Away".
func (f Fixture) Name() string {
	return f.HomeTeamName + " vs " + f.AwayTeamName
}
