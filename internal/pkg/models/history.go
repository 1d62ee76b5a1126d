package models

import "time"

// AnalysisRecord is the lightweight history entry kept for each match analysis.
type AnalysisRecord struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	HomeTeam   string    `json:"home_team"`
	AwayTeam   string    `json:"away_team"`
	ProbBTTS   float64   `json:"prob_btts"`
	ProbOver25 float64   `json:"prob_over25"`
}

// AverageProbability is the mean of the BTTS and Over 2.5 probabilities.
func (r AnalysisRecord) AverageProbability() float64 {
	return (r.ProbBTTS + r.ProbOver25) / 2
}
