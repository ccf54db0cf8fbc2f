package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/scorethread/scorethread/internal/domain/game"
)

type GameRepository struct {
	mu     sync.RWMutex
	items  map[string]game.Game
	orders []string
}

func NewGameRepository(games []game.Game) *GameRepository {
	items := make(map[string]game.Game, len(games))
	orders := make([]string, 0, len(games))

	for _, g := range games {
		items[g.ID] = g
		orders = append(orders, g.ID)
	}

	return &GameRepository{
		items:  items,
		orders: orders,
	}
}

func (r *GameRepository) InsertIgnore(_ context.Context, games []game.Game) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := 0
	for _, g := range games {
		if _, ok := r.items[g.ID]; ok {
			continue
		}
		r.items[g.ID] = g
		r.orders = append(r.orders, g.ID)
		inserted++
	}

	return inserted, nil
}

func (r *GameRepository) Get(_ context.Context, id string) (game.Game, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.items[id]
	if !ok {
		return game.Game{}, false, nil
	}

	return g, true, nil
}

func (r *GameRepository) ListUnannounced(_ context.Context, now time.Time, lookback time.Duration) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	earliest := now.Add(-lookback)
	out := make([]game.Game, 0)
	for _, id := range r.orders {
		g := r.items[id]
		if !g.Trackable || g.HeaderPosted() {
			continue
		}
		if g.StartTS.Before(earliest) || g.StartTS.After(now) {
			continue
		}
		out = append(out, g)
	}

	sortByStart(out)
	return out, nil
}

func (r *GameRepository) ListByStartWindow(_ context.Context, from, to time.Time) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]game.Game, 0)
	for _, id := range r.orders {
		g := r.items[id]
		if g.StartTS.Before(from) || g.StartTS.After(to) {
			continue
		}
		out = append(out, g)
	}

	sortByStart(out)
	return out, nil
}

func (r *GameRepository) SetLastPost(_ context.Context, id string, postID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.items[id]
	if !ok {
		return nil
	}
	g.LastPostID = &postID
	r.items[id] = g
	return nil
}

func (r *GameRepository) ApplyScoreUpdate(_ context.Context, id string, update game.ScoreUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.items[id]
	if !ok {
		return nil
	}
	lastPostID := update.LastPostID
	g.LastPostID = &lastPostID
	g.HomeScore = update.HomeScore
	g.AwayScore = update.AwayScore
	if update.EndTS != nil {
		endTS := *update.EndTS
		g.EndTS = &endTS
	}
	r.items[id] = g
	return nil
}

func sortByStart(games []game.Game) {
	sort.SliceStable(games, func(i, j int) bool {
		return games[i].StartTS.Before(games[j].StartTS)
	})
}
