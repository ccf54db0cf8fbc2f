package usecase

import (
	"context"
	"time"

	"github.com/scorethread/scorethread/internal/domain/game"
	"github.com/scorethread/scorethread/internal/domain/post"
)

// ScoreDataProvider is the upstream sports-data collaborator. Implementations
// own request construction, retries and payload decoding; callers only see
// normalized rows and events.
type ScoreDataProvider interface {
	FetchScoreboardGames(ctx context.Context, date time.Time, group string) ([]game.Game, error)
	FetchScoringEvents(ctx context.Context, gameID string) ([]ScoringEvent, error)
	FetchTeamStreak(ctx context.Context, teamID string) (string, error)
}

// ScoringEvent is one scoring play extracted from a game summary. It is
// derived per poll and never persisted. TotalScore is the ordering key:
// upstream play clocks are unreliable across quarter and overtime
// boundaries, while the combined score is monotonically non-decreasing.
type ScoringEvent struct {
	GameID           string
	PlayText         string
	HomeScore        int
	AwayScore        int
	TotalScore       int
	DriveDescription *string
	ScoringTeamID    string
	IsComplete       bool
}

// ReplyRefs carries the thread-positioning pair the publisher needs. Parent
// and root are always set together.
type ReplyRefs struct {
	Parent post.Ref
	Root   post.Ref
}

// PostPublisher is the social-publishing collaborator. A nil reply publishes
// a root post.
type PostPublisher interface {
	Publish(ctx context.Context, text string, reply *ReplyRefs) (post.Ref, error)
}
