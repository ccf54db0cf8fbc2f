package postgres

import (
	"database/sql"
	"time"

	"github.com/scorethread/scorethread/internal/domain/game"
)

type gameTableModel struct {
	ID             string        `db:"id"`
	StartTS        time.Time     `db:"start_ts"`
	HomeTeam       string        `db:"home_team"`
	AwayTeam       string        `db:"away_team"`
	HomeTeamID     string        `db:"home_team_id"`
	AwayTeamID     string        `db:"away_team_id"`
	HomeWins       int           `db:"home_wins"`
	HomeLosses     int           `db:"home_losses"`
	HomeConfWins   int           `db:"home_conf_wins"`
	HomeConfLosses int           `db:"home_conf_losses"`
	AwayWins       int           `db:"away_wins"`
	AwayLosses     int           `db:"away_losses"`
	AwayConfWins   int           `db:"away_conf_wins"`
	AwayConfLosses int           `db:"away_conf_losses"`
	HomeScore      int           `db:"home_score"`
	AwayScore      int           `db:"away_score"`
	Networks       string        `db:"networks"`
	Trackable      bool          `db:"trackable"`
	LastPostID     sql.NullInt64 `db:"last_post_id"`
	EndTS          *time.Time    `db:"end_ts"`
}

func (m gameTableModel) toDomain() game.Game {
	return game.Game{
		ID:             m.ID,
		StartTS:        m.StartTS,
		HomeTeam:       m.HomeTeam,
		AwayTeam:       m.AwayTeam,
		HomeTeamID:     m.HomeTeamID,
		AwayTeamID:     m.AwayTeamID,
		HomeWins:       m.HomeWins,
		HomeLosses:     m.HomeLosses,
		HomeConfWins:   m.HomeConfWins,
		HomeConfLosses: m.HomeConfLosses,
		AwayWins:       m.AwayWins,
		AwayLosses:     m.AwayLosses,
		AwayConfWins:   m.AwayConfWins,
		AwayConfLosses: m.AwayConfLosses,
		HomeScore:      m.HomeScore,
		AwayScore:      m.AwayScore,
		Networks:       m.Networks,
		Trackable:      m.Trackable,
		LastPostID:     nullInt64Ptr(m.LastPostID),
		EndTS:          m.EndTS,
	}
}
