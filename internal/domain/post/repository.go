package post

import "context"

// Repository exposes post persistence. Rows are written once per successful
// publish and never mutated afterwards.
type Repository interface {
	Insert(ctx context.Context, item Post) (int64, error)
	Get(ctx context.Context, id int64) (Post, bool, error)
}
