package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/scorethread/scorethread/internal/domain/game"
	"github.com/scorethread/scorethread/internal/domain/post"
	"github.com/scorethread/scorethread/internal/infrastructure/repository/memory"
	"github.com/scorethread/scorethread/internal/platform/logging"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, text string, reply *ReplyRefs) (post.Ref, error) {
	args := m.Called(ctx, text, reply)
	return args.Get(0).(post.Ref), args.Error(1)
}

func TestMonitorService_PostGameHeaders_PublishesExpectedText(t *testing.T) {
	now := time.Date(2022, 11, 5, 20, 0, 0, 0, time.UTC)
	g := monitorTestGame(now.Add(-time.Hour))

	provider := &fakeProvider{streaks: map[string]string{"259": "L1", "228": "W3"}}
	gameRepo := memory.NewGameRepository([]game.Game{g})
	postRepo := memory.NewPostRepository(nil)
	logger := logging.NewNop()

	publisher := &mockPublisher{}
	wantText := "Virginia Tech (4-3, 1-3) L1 @ Clemson (8-2, 4-2) W3 has kicked off on ESPN!"
	publisher.
		On("Publish", mock.Anything, wantText, (*ReplyRefs)(nil)).
		Return(post.Ref{URI: "at://did:plc:bot/app.bsky.feed.post/h", CID: "cid-h"}, nil).
		Once()

	ingestion := NewIngestionService(provider, gameRepo, postRepo, publisher, IngestionConfig{}, logger)
	resolver := NewReplyChainResolver(postRepo)
	svc := NewMonitorService(provider, publisher, gameRepo, postRepo, resolver, ingestion, MonitorConfig{}, logger)

	if err := svc.PostGameHeaders(t.Context(), now); err != nil {
		t.Fatalf("post headers failed: %v", err)
	}

	publisher.AssertExpectations(t)
}
