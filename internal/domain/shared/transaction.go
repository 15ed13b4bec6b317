package shared

import "context"

// TransactionManager runs a unit of work atomically. Implementations pass a
// context that repositories recognize, so every store call inside fn joins
// the same transaction; an error from fn rolls everything back.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
