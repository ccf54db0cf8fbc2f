package postgres

import (
	"database/sql"
	"time"

	"github.com/scorethread/scorethread/internal/domain/post"
)

type postTableModel struct {
	ID        int64         `db:"id"`
	URI       string        `db:"uri"`
	CID       string        `db:"cid"`
	PostText  string        `db:"post_text"`
	CreatedAt time.Time     `db:"created_at"`
	UpdatedAt time.Time     `db:"updated_at"`
	PostType  string        `db:"post_type"`
	RootID    sql.NullInt64 `db:"root_id"`
	ParentID  sql.NullInt64 `db:"parent_id"`
}

func (m postTableModel) toDomain() post.Post {
	return post.Post{
		ID:        m.ID,
		URI:       m.URI,
		CID:       m.CID,
		PostText:  m.PostText,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		PostType:  m.PostType,
		RootID:    nullInt64Ptr(m.RootID),
		ParentID:  nullInt64Ptr(m.ParentID),
	}
}
