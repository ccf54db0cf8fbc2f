package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/scorethread/scorethread/internal/domain/game"
	qb "github.com/scorethread/scorethread/internal/platform/querybuilder"
)

var gameColumns = []string{
	"id", "start_ts",
	"home_team", "away_team", "home_team_id", "away_team_id",
	"home_wins", "home_losses", "home_conf_wins", "home_conf_losses",
	"away_wins", "away_losses", "away_conf_wins", "away_conf_losses",
	"home_score", "away_score",
	"networks", "trackable",
}

type GameRepository struct {
	db *sqlx.DB
}

func NewGameRepository(db *sqlx.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) InsertIgnore(ctx context.Context, games []game.Game) (int, error) {
	if len(games) == 0 {
		return 0, nil
	}

	builder := qb.InsertInto("games").Columns(gameColumns...)
	for _, g := range games {
		builder.Values(
			g.ID, g.StartTS,
			g.HomeTeam, g.AwayTeam, g.HomeTeamID, g.AwayTeamID,
			g.HomeWins, g.HomeLosses, g.HomeConfWins, g.HomeConfLosses,
			g.AwayWins, g.AwayLosses, g.AwayConfWins, g.AwayConfLosses,
			g.HomeScore, g.AwayScore,
			g.Networks, g.Trackable,
		)
	}
	query, args, err := builder.Suffix("ON CONFLICT (id) DO NOTHING").ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build insert games query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert games: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count inserted games: %w", err)
	}

	return int(affected), nil
}

func (r *GameRepository) Get(ctx context.Context, id string) (game.Game, bool, error) {
	query, args, err := qb.Select("*").From("games").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return game.Game{}, false, fmt.Errorf("build get game query: %w", err)
	}

	var row gameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, false, nil
		}
		return game.Game{}, false, fmt.Errorf("get game: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *GameRepository) ListUnannounced(ctx context.Context, now time.Time, lookback time.Duration) ([]game.Game, error) {
	query, args, err := qb.Select("*").From("games").
		Where(
			qb.Eq("trackable", true),
			qb.IsNull("last_post_id"),
			qb.Gte("start_ts", now.Add(-lookback)),
			qb.Lte("start_ts", now),
		).
		OrderBy("start_ts", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list unannounced games query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list unannounced games: %w", err)
	}

	return toDomainGames(rows), nil
}

func (r *GameRepository) ListByStartWindow(ctx context.Context, from, to time.Time) ([]game.Game, error) {
	query, args, err := qb.Select("*").From("games").
		Where(
			qb.Gte("start_ts", from),
			qb.Lte("start_ts", to),
		).
		OrderBy("start_ts", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list games by window query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list games by window: %w", err)
	}

	return toDomainGames(rows), nil
}

func (r *GameRepository) SetLastPost(ctx context.Context, id string, postID int64) error {
	query, args, err := qb.Update("games").
		Set("last_post_id", postID).
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set last post query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set last post: %w", err)
	}
	return nil
}

func (r *GameRepository) ApplyScoreUpdate(ctx context.Context, id string, update game.ScoreUpdate) error {
	builder := qb.Update("games").
		Set("last_post_id", update.LastPostID).
		Set("home_score", update.HomeScore).
		Set("away_score", update.AwayScore)
	if update.EndTS != nil {
		builder.Set("end_ts", *update.EndTS)
	}
	query, args, err := builder.Where(qb.Eq("id", id)).ToSQL()
	if err != nil {
		return fmt.Errorf("build apply score update query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("apply score update: %w", err)
	}
	return nil
}

func toDomainGames(rows []gameTableModel) []game.Game {
	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}
