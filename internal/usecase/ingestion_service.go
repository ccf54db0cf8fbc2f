package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/scorethread/scorethread/internal/domain/game"
	"github.com/scorethread/scorethread/internal/domain/post"
	"github.com/scorethread/scorethread/internal/platform/logging"
)

// IngestionService pulls a day's scoreboard and persists fresh game rows.
// Ingestion is idempotent: rows insert ignore-on-conflict, so repeated polls
// of the same scoreboard are harmless.
type IngestionService struct {
	provider  ScoreDataProvider
	games     game.Repository
	posts     post.Repository
	publisher PostPublisher
	logger    *logging.Logger

	group         string
	selectedTeams []string
	now           func() time.Time
}

type IngestionConfig struct {
	// Group selects the upstream league grouping polled for scoreboards.
	Group string
	// SelectedTeams restricts ingestion to games involving the named teams.
	// Empty means ingest everything.
	SelectedTeams []string
}

func NewIngestionService(
	provider ScoreDataProvider,
	games game.Repository,
	posts post.Repository,
	publisher PostPublisher,
	cfg IngestionConfig,
	logger *logging.Logger,
) *IngestionService {
	if logger == nil {
		logger = logging.Default()
	}

	selected := make([]string, 0, len(cfg.SelectedTeams))
	for _, team := range cfg.SelectedTeams {
		if team = strings.TrimSpace(team); team != "" {
			selected = append(selected, team)
		}
	}

	return &IngestionService{
		provider:      provider,
		games:         games,
		posts:         posts,
		publisher:     publisher,
		logger:        logger,
		group:         strings.TrimSpace(cfg.Group),
		selectedTeams: selected,
		now:           time.Now,
	}
}

// IngestScoreboard fetches the scoreboard for date and inserts any games not
// yet known. Returns the number of rows actually inserted.
func (s *IngestionService) IngestScoreboard(ctx context.Context, date time.Time) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.IngestScoreboard")
	defer span.End()

	if date.IsZero() {
		return 0, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	rows, err := s.provider.FetchScoreboardGames(ctx, date, s.group)
	if err != nil {
		return 0, fmt.Errorf("%w: fetch scoreboard: %v", ErrDependencyUnavailable, err)
	}

	cleaned := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		row.ID = strings.TrimSpace(row.ID)
		if row.ID == "" || row.StartTS.IsZero() {
			s.logger.WarnContext(ctx, "skip malformed scoreboard game", "game_id", row.ID)
			continue
		}
		if !s.teamSelected(row) {
			continue
		}
		cleaned = append(cleaned, row)
	}
	if len(cleaned) == 0 {
		return 0, nil
	}

	inserted, err := s.games.InsertIgnore(ctx, cleaned)
	if err != nil {
		return 0, fmt.Errorf("insert games: %w", err)
	}

	s.logger.InfoContext(ctx, "scoreboard ingested",
		"date", date.UTC().Format("2006-01-02"),
		"games_seen", len(cleaned),
		"games_inserted", inserted,
	)
	return inserted, nil
}

// PostDailySummary publishes the day's root summary post counting games that
// start within 24 hours of date.
func (s *IngestionService) PostDailySummary(ctx context.Context, date time.Time) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.PostDailySummary")
	defer span.End()

	rows, err := s.games.ListByStartWindow(ctx, date, date.Add(24*time.Hour))
	if err != nil {
		return fmt.Errorf("list day games: %w", err)
	}

	text := FormatDailySummary(len(rows))
	ref, err := s.publisher.Publish(ctx, text, nil)
	if err != nil {
		return fmt.Errorf("publish daily summary: %w", err)
	}

	now := s.now().UTC()
	if _, err := s.posts.Insert(ctx, post.Post{
		URI:       ref.URI,
		CID:       ref.CID,
		PostText:  text,
		CreatedAt: now,
		UpdatedAt: now,
		PostType:  post.TypeDaily,
	}); err != nil {
		// The post is already live; losing the row only costs audit history.
		s.logger.ErrorContext(ctx, "daily summary published but not recorded", "uri", ref.URI, "error", err)
	}
	return nil
}

func (s *IngestionService) teamSelected(row game.Game) bool {
	if len(s.selectedTeams) == 0 {
		return true
	}
	for _, team := range s.selectedTeams {
		if strings.EqualFold(team, row.HomeTeam) || strings.EqualFold(team, row.AwayTeam) {
			return true
		}
	}
	return false
}
