package models

// Standing is one row of a competition table.
type Standing struct {
	TeamID       int    `json:"team_id"`
	TeamName     string `json:"team_name"`
	Position     int    `json:"position"`
	PlayedGames  int    `json:"played_games"`
	GoalsFor     int    `json:"goals_for"`
	GoalsAgainst int    `json:"goals_against"`
	Points       int    `json:"points"`
}

// FindStanding returns the row for teamID, if present.
func FindStanding(table []Standing, teamID int) (Standing, bool) {
	for _, row := range table {
		if row.TeamID == teamID {
			return row, true
		}
	}
	return Standing{}, false
}
