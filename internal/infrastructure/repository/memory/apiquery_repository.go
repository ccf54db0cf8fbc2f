package memory

import (
	"context"
	"sync"

	"github.com/scorethread/scorethread/internal/domain/apiquery"
)

type QueryRepository struct {
	mu    sync.RWMutex
	items []apiquery.Query
}

func NewQueryRepository() *QueryRepository {
	return &QueryRepository{}
}

func (r *QueryRepository) Insert(_ context.Context, q apiquery.Query) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	q.ID = int64(len(r.items) + 1)
	r.items = append(r.items, q)
	return nil
}

// All returns the recorded queries in insertion order. Test helper.
func (r *QueryRepository) All() []apiquery.Query {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]apiquery.Query, len(r.items))
	copy(out, r.items)
	return out
}
