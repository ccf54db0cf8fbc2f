package apiquery

import "context"

// Repository records upstream calls for diagnostics. Audit failures must
// never fail the call being audited.
type Repository interface {
	Insert(ctx context.Context, item Query) error
}
