package memory

import (
	"context"
	"sync"

	"github.com/scorethread/scorethread/internal/domain/post"
)

type PostRepository struct {
	mu     sync.RWMutex
	items  map[int64]post.Post
	nextID int64
}

func NewPostRepository(posts []post.Post) *PostRepository {
	items := make(map[int64]post.Post, len(posts))
	var maxID int64
	for _, p := range posts {
		items[p.ID] = p
		if p.ID > maxID {
			maxID = p.ID
		}
	}

	return &PostRepository{
		items:  items,
		nextID: maxID + 1,
	}
}

func (r *PostRepository) Insert(_ context.Context, p post.Post) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p.ID = r.nextID
	r.nextID++
	r.items[p.ID] = p
	return p.ID, nil
}

func (r *PostRepository) Get(_ context.Context, id int64) (post.Post, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return post.Post{}, false, nil
	}

	return p, true, nil
}

// All returns every stored post keyed by id. Test helper.
func (r *PostRepository) All() map[int64]post.Post {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[int64]post.Post, len(r.items))
	for id, p := range r.items {
		out[id] = p
	}
	return out
}
