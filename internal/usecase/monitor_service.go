package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/scorethread/scorethread/internal/domain/game"
	"github.com/scorethread/scorethread/internal/domain/post"
	"github.com/scorethread/scorethread/internal/platform/logging"
)

const defaultHeaderLookback = 6 * time.Hour

// MonitorService drives the per-game lifecycle across one polling cycle:
// ingest the scoreboard, announce games that kicked off, then thread scoring
// updates under each game's header. One writer per cycle; idempotence comes
// from insert-or-ignore on games and the strict score-increase guard on
// updates, not from locking.
type MonitorService struct {
	provider  ScoreDataProvider
	publisher PostPublisher
	games     game.Repository
	posts     post.Repository
	resolver  *ReplyChainResolver
	ingestion *IngestionService
	filter    UpdateFilter
	logger    *logging.Logger

	headerLookback time.Duration
	now            func() time.Time
}

type MonitorConfig struct {
	// HeaderLookback bounds how far back a game's start may be for it to
	// still get a header post (covers missed cycles without announcing
	// yesterday's games).
	HeaderLookback time.Duration
	Filter         UpdateFilter
}

func NewMonitorService(
	provider ScoreDataProvider,
	publisher PostPublisher,
	games game.Repository,
	posts post.Repository,
	resolver *ReplyChainResolver,
	ingestion *IngestionService,
	cfg MonitorConfig,
	logger *logging.Logger,
) *MonitorService {
	if logger == nil {
		logger = logging.Default()
	}
	lookback := cfg.HeaderLookback
	if lookback <= 0 {
		lookback = defaultHeaderLookback
	}
	filter := cfg.Filter
	if filter == nil {
		filter = AllowAllUpdates
	}

	return &MonitorService{
		provider:       provider,
		publisher:      publisher,
		games:          games,
		posts:          posts,
		resolver:       resolver,
		ingestion:      ingestion,
		filter:         filter,
		logger:         logger,
		headerLookback: lookback,
		now:            time.Now,
	}
}

// RunCycle is the unit of work one scheduler invocation performs. Failures
// are contained per stage and per game; a bad game never aborts the cycle.
func (s *MonitorService) RunCycle(ctx context.Context, now time.Time) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.MonitorService.RunCycle")
	defer span.End()

	if _, err := s.ingestion.IngestScoreboard(ctx, now); err != nil {
		s.logger.WarnContext(ctx, "scoreboard ingestion failed, continuing with known games", "error", err)
	}

	if err := s.PostGameHeaders(ctx, now); err != nil {
		s.logger.WarnContext(ctx, "header pass failed", "error", err)
	}

	active, err := s.games.ListByStartWindow(ctx, now.Add(-s.headerLookback), now)
	if err != nil {
		return fmt.Errorf("list active games: %w", err)
	}
	for _, row := range active {
		if !row.Trackable || !row.HeaderPosted() || row.Completed() {
			continue
		}
		if err := s.PostScoringUpdates(ctx, row.ID); err != nil {
			s.logger.ErrorContext(ctx, "scoring update pass failed", "game_id", row.ID, "error", err)
		}
	}

	return nil
}

// PostGameHeaders announces every trackable game whose start falls inside
// the lookback window and that has no post yet. Per-game failures are logged
// and skipped; the stored row stays untouched so the next cycle retries.
func (s *MonitorService) PostGameHeaders(ctx context.Context, now time.Time) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.MonitorService.PostGameHeaders")
	defer span.End()

	rows, err := s.games.ListUnannounced(ctx, now, s.headerLookback)
	if err != nil {
		return fmt.Errorf("list unannounced games: %w", err)
	}

	for _, row := range rows {
		if err := s.postHeader(ctx, row); err != nil {
			s.logger.WarnContext(ctx, "header post failed", "game_id", row.ID, "error", err)
		}
	}
	return nil
}

func (s *MonitorService) postHeader(ctx context.Context, row game.Game) error {
	streaks := make(map[string]string, 2)
	for _, teamID := range []string{row.AwayTeamID, row.HomeTeamID} {
		streak, err := s.provider.FetchTeamStreak(ctx, teamID)
		if err != nil {
			return fmt.Errorf("%w: fetch streak team_id=%s: %v", ErrDependencyUnavailable, teamID, err)
		}
		streaks[teamID] = streak
	}

	text := FormatHeader(row, streaks)
	ref, err := s.publisher.Publish(ctx, text, nil)
	if err != nil {
		return fmt.Errorf("publish header: %w", err)
	}

	now := s.now().UTC()
	postID, err := s.posts.Insert(ctx, post.Post{
		URI:       ref.URI,
		CID:       ref.CID,
		PostText:  text,
		CreatedAt: now,
		UpdatedAt: now,
		PostType:  post.TypeHeader,
	})
	if err != nil {
		// The header is live but unrecorded; the next cycle will publish a
		// duplicate. Accepted at-least-once tradeoff, surfaced loudly.
		s.logger.ErrorContext(ctx, "header published but not recorded", "game_id", row.ID, "uri", ref.URI, "error", err)
		return fmt.Errorf("record header post: %w", err)
	}

	if err := s.games.SetLastPost(ctx, row.ID, postID); err != nil {
		s.logger.ErrorContext(ctx, "header recorded but game row not linked", "game_id", row.ID, "post_id", postID, "error", err)
		return fmt.Errorf("link header post: %w", err)
	}

	s.logger.InfoContext(ctx, "header posted", "game_id", row.ID, "post_id", postID)
	return nil
}

// PostScoringUpdates publishes one threaded reply per scoring event newer
// than the stored score. Re-running against an unchanged summary publishes
// nothing: an event only counts as new while its home or away score strictly
// exceeds the persisted one.
func (s *MonitorService) PostScoringUpdates(ctx context.Context, gameID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.MonitorService.PostScoringUpdates")
	defer span.End()

	current, ok, err := s.games.Get(ctx, gameID)
	if err != nil {
		return fmt.Errorf("get game: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: game id=%s", ErrNotFound, gameID)
	}
	if !current.HeaderPosted() {
		// Updates thread under the header; without one there is nothing to
		// reply to yet. The header pass will repair this next cycle.
		s.logger.WarnContext(ctx, "skip updates for game without header post", "game_id", gameID)
		return nil
	}

	events, err := s.provider.FetchScoringEvents(ctx, gameID)
	if err != nil {
		return fmt.Errorf("%w: fetch scoring events: %v", ErrDependencyUnavailable, err)
	}

	for _, event := range events {
		if event.HomeScore <= current.HomeScore && event.AwayScore <= current.AwayScore {
			continue
		}
		updated, err := s.postUpdate(ctx, current, event)
		if err != nil {
			return err
		}
		current = updated
	}

	return nil
}

func (s *MonitorService) postUpdate(ctx context.Context, current game.Game, event ScoringEvent) (game.Game, error) {
	thread, err := s.resolver.Resolve(ctx, *current.LastPostID)
	if err != nil {
		return current, fmt.Errorf("resolve reply target: %w", err)
	}

	text := FormatScoringUpdate(current, event)
	if !s.filter(text) {
		s.logger.DebugContext(ctx, "update filtered", "game_id", current.ID, "total_score", event.TotalScore)
		return current, nil
	}

	ref, err := s.publisher.Publish(ctx, text, &thread.Refs)
	if err != nil {
		// Nothing persisted: the stored score has not advanced, so the next
		// cycle re-detects this event and retries naturally.
		return current, fmt.Errorf("publish update: %w", err)
	}

	now := s.now().UTC()
	postID, err := s.posts.Insert(ctx, post.Post{
		URI:       ref.URI,
		CID:       ref.CID,
		PostText:  text,
		CreatedAt: now,
		UpdatedAt: now,
		PostType:  post.TypeUpdate,
		RootID:    &thread.RootID,
		ParentID:  &thread.ParentID,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "update published but not recorded", "game_id", current.ID, "uri", ref.URI, "error", err)
		return current, fmt.Errorf("record update post: %w", err)
	}

	update := game.ScoreUpdate{
		LastPostID: postID,
		HomeScore:  event.HomeScore,
		AwayScore:  event.AwayScore,
	}
	if event.IsComplete {
		endTS := now
		update.EndTS = &endTS
	}
	if err := s.games.ApplyScoreUpdate(ctx, current.ID, update); err != nil {
		s.logger.ErrorContext(ctx, "update recorded but game row stale", "game_id", current.ID, "post_id", postID, "error", err)
		return current, fmt.Errorf("apply score update: %w", err)
	}

	s.logger.InfoContext(ctx, "scoring update posted",
		"game_id", current.ID,
		"post_id", postID,
		"away_score", event.AwayScore,
		"home_score", event.HomeScore,
		"complete", event.IsComplete,
	)

	current.LastPostID = &postID
	current.HomeScore = event.HomeScore
	current.AwayScore = event.AwayScore
	current.EndTS = update.EndTS
	return current, nil
}
