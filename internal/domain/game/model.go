package game

import "time"

// Game is one tracked matchup keyed by the upstream event id. A row is
// created the first time a scoreboard poll observes the event and mutated
// only through last-post/score updates.
type Game struct {
	ID             string
	StartTS        time.Time
	HomeTeam       string
	AwayTeam       string
	HomeTeamID     string
	AwayTeamID     string
	HomeWins       int
	HomeLosses     int
	HomeConfWins   int
	HomeConfLosses int
	AwayWins       int
	AwayLosses     int
	AwayConfWins   int
	AwayConfLosses int
	HomeScore      int
	AwayScore      int
	Networks       string
	Trackable      bool
	LastPostID     *int64
	EndTS          *time.Time
}

// HeaderPosted reports whether the kickoff announcement has been published.
// Update posts require it; the per-game state machine never replies before
// a root post exists.
func (g Game) HeaderPosted() bool {
	return g.LastPostID != nil
}

func (g Game) Completed() bool {
	return g.EndTS != nil
}

// TeamName maps an upstream team id to the stored competitor name,
// defaulting to the away side for unknown ids.
func (g Game) TeamName(teamID string) string {
	if teamID == g.HomeTeamID {
		return g.HomeTeam
	}
	return g.AwayTeam
}
