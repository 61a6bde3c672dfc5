package reading

import "context"

// Repository persists readings. Implementations return ErrNotFound for
// missing ids and ErrDuplicateTimestamp when the (date, time) pair is taken.
type Repository interface {
	Create(ctx context.Context, r *Reading) error
	GetByID(ctx context.Context, id int64) (*Reading, error)
	GetByClientRef(ctx context.Context, ref int64) (*Reading, error)
	Update(ctx context.Context, r *Reading) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f Filter) ([]*Reading, int, error)
	ExistsAt(ctx context.Context, date, clock string, excludeID int64) (bool, error)
}
