package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/scorethread/scorethread/internal/domain/post"
	qb "github.com/scorethread/scorethread/internal/platform/querybuilder"
)

type PostRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Insert(ctx context.Context, p post.Post) (int64, error) {
	query, args, err := qb.InsertInto("posts").
		Columns("uri", "cid", "post_text", "created_at", "updated_at", "post_type", "root_id", "parent_id").
		Values(p.URI, p.CID, p.PostText, p.CreatedAt, p.UpdatedAt, p.PostType, ptrNullInt64(p.RootID), ptrNullInt64(p.ParentID)).
		Suffix("RETURNING id").
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build insert post query: %w", err)
	}

	var id int64
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}
	return id, nil
}

func (r *PostRepository) Get(ctx context.Context, id int64) (post.Post, bool, error) {
	query, args, err := qb.Select("*").From("posts").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return post.Post{}, false, fmt.Errorf("build get post query: %w", err)
	}

	var row postTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return post.Post{}, false, nil
		}
		return post.Post{}, false, fmt.Errorf("get post: %w", err)
	}

	return row.toDomain(), true, nil
}
