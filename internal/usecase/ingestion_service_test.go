package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/scorethread/scorethread/internal/domain/game"
	"github.com/scorethread/scorethread/internal/domain/post"
	"github.com/scorethread/scorethread/internal/infrastructure/repository/memory"
	"github.com/scorethread/scorethread/internal/platform/logging"
)

func newIngestionFixture(t *testing.T, provider *fakeProvider, cfg IngestionConfig) (*IngestionService, *memory.GameRepository, *memory.PostRepository, *fakePublisher) {
	t.Helper()

	gameRepo := memory.NewGameRepository(nil)
	postRepo := memory.NewPostRepository(nil)
	publisher := &fakePublisher{}
	svc := NewIngestionService(provider, gameRepo, postRepo, publisher, cfg, logging.NewNop())
	return svc, gameRepo, postRepo, publisher
}

func TestIngestionService_IngestScoreboard(t *testing.T) {
	date := time.Date(2022, 11, 5, 0, 0, 0, 0, time.UTC)
	g := monitorTestGame(date.Add(20 * time.Hour))
	provider := &fakeProvider{scoreboard: []game.Game{g}}
	svc, gameRepo, _, _ := newIngestionFixture(t, provider, IngestionConfig{Group: "80"})

	inserted, err := svc.IngestScoreboard(t.Context(), date)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if inserted != 1 {
		t.Fatalf("expected one insert, got %d", inserted)
	}

	stored, ok, err := gameRepo.Get(t.Context(), g.ID)
	if err != nil || !ok {
		t.Fatalf("game lookup failed: ok=%v err=%v", ok, err)
	}
	if stored.HomeTeam != "Clemson" || !stored.Trackable {
		t.Fatalf("unexpected stored game: %+v", stored)
	}
}

func TestIngestionService_IngestScoreboard_RepeatedPollInsertsNothing(t *testing.T) {
	date := time.Date(2022, 11, 5, 0, 0, 0, 0, time.UTC)
	g := monitorTestGame(date.Add(20 * time.Hour))
	provider := &fakeProvider{scoreboard: []game.Game{g}}
	svc, _, _, _ := newIngestionFixture(t, provider, IngestionConfig{})

	if _, err := svc.IngestScoreboard(t.Context(), date); err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}
	inserted, err := svc.IngestScoreboard(t.Context(), date)
	if err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}
	if inserted != 0 {
		t.Fatalf("expected repeat poll to insert nothing, got %d", inserted)
	}
}

func TestIngestionService_IngestScoreboard_SkipsMalformedRows(t *testing.T) {
	date := time.Date(2022, 11, 5, 0, 0, 0, 0, time.UTC)
	good := monitorTestGame(date.Add(20 * time.Hour))
	noID := monitorTestGame(date.Add(21 * time.Hour))
	noID.ID = "  "
	noStart := monitorTestGame(time.Time{})
	noStart.ID = "401520199"
	provider := &fakeProvider{scoreboard: []game.Game{good, noID, noStart}}
	svc, _, _, _ := newIngestionFixture(t, provider, IngestionConfig{})

	inserted, err := svc.IngestScoreboard(t.Context(), date)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if inserted != 1 {
		t.Fatalf("expected only the well-formed row, got %d inserts", inserted)
	}
}

func TestIngestionService_IngestScoreboard_SelectedTeamsFilter(t *testing.T) {
	date := time.Date(2022, 11, 5, 0, 0, 0, 0, time.UTC)
	clemson := monitorTestGame(date.Add(20 * time.Hour))
	other := monitorTestGame(date.Add(21 * time.Hour))
	other.ID = "401520200"
	other.HomeTeam = "Georgia"
	other.AwayTeam = "Tennessee"
	provider := &fakeProvider{scoreboard: []game.Game{clemson, other}}
	svc, gameRepo, _, _ := newIngestionFixture(t, provider, IngestionConfig{SelectedTeams: []string{"clemson"}})

	inserted, err := svc.IngestScoreboard(t.Context(), date)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if inserted != 1 {
		t.Fatalf("expected only the selected matchup, got %d inserts", inserted)
	}
	if _, ok, _ := gameRepo.Get(t.Context(), other.ID); ok {
		t.Fatal("expected unselected game to be dropped")
	}
}

func TestIngestionService_IngestScoreboard_ZeroDate(t *testing.T) {
	svc, _, _, _ := newIngestionFixture(t, &fakeProvider{}, IngestionConfig{})

	_, err := svc.IngestScoreboard(t.Context(), time.Time{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestIngestionService_PostDailySummary(t *testing.T) {
	date := time.Date(2022, 11, 5, 0, 0, 0, 0, time.UTC)
	early := monitorTestGame(date.Add(16 * time.Hour))
	late := monitorTestGame(date.Add(23 * time.Hour))
	late.ID = "401520200"
	tomorrow := monitorTestGame(date.Add(30 * time.Hour))
	tomorrow.ID = "401520201"

	provider := &fakeProvider{}
	svc, gameRepo, postRepo, publisher := newIngestionFixture(t, provider, IngestionConfig{})
	if _, err := gameRepo.InsertIgnore(t.Context(), []game.Game{early, late, tomorrow}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if err := svc.PostDailySummary(t.Context(), date); err != nil {
		t.Fatalf("daily summary failed: %v", err)
	}

	if len(publisher.published) != 1 {
		t.Fatalf("expected one summary post, got %d", len(publisher.published))
	}
	got := publisher.published[0]
	if got.reply != nil {
		t.Fatal("summary must be a root post")
	}
	if got.text != "There are 2 college football games today!" {
		t.Fatalf("unexpected summary text: %q", got.text)
	}

	var sawDaily bool
	for _, row := range postRepo.All() {
		if row.PostType == post.TypeDaily {
			sawDaily = true
		}
	}
	if !sawDaily {
		t.Fatal("expected a daily summary row")
	}
}
