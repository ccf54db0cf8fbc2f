package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/scorethread/scorethread/internal/domain/apiquery"
	qb "github.com/scorethread/scorethread/internal/platform/querybuilder"
)

// QueryRepository audits upstream API calls. Rows are append-only and best
// effort: callers log and drop insert failures rather than failing a poll.
type QueryRepository struct {
	db *sqlx.DB
}

func NewQueryRepository(db *sqlx.DB) *QueryRepository {
	return &QueryRepository{db: db}
}

func (r *QueryRepository) Insert(ctx context.Context, q apiquery.Query) error {
	query, args, err := qb.InsertInto("api_queries").
		Columns("url", "status_code", "date_ts").
		Values(q.URL, q.StatusCode, q.DateTS).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert api query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert api query: %w", err)
	}
	return nil
}
