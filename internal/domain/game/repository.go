package game

import (
	"context"
	"time"
)

// ScoreUpdate is the single atomic mutation applied after a successful
// update post: the new thread tail plus the scores that gate idempotent
// re-processing. EndTS stays nil unless the upstream marked the game
// complete.
type ScoreUpdate struct {
	LastPostID int64
	HomeScore  int
	AwayScore  int
	EndTS      *time.Time
}

// Repository exposes game persistence. Inserts are ignore-on-conflict so a
// polling cycle can re-submit the same scoreboard without clobbering rows.
type Repository interface {
	InsertIgnore(ctx context.Context, games []Game) (int, error)
	Get(ctx context.Context, id string) (Game, bool, error)
	// ListUnannounced returns trackable games whose start falls inside
	// [now-lookback, now] and that have no header post yet.
	ListUnannounced(ctx context.Context, now time.Time, lookback time.Duration) ([]Game, error)
	// ListByStartWindow returns games with start_ts inside [from, to].
	ListByStartWindow(ctx context.Context, from, to time.Time) ([]Game, error)
	SetLastPost(ctx context.Context, id string, postID int64) error
	ApplyScoreUpdate(ctx context.Context, id string, update ScoreUpdate) error
}
