package analysis

import "context"

// Repository port for persisting and querying analyses.
// Get, Update and Delete return an apperr NotFound error when the id is unknown.
type Repository interface {
	Create(ctx context.Context, a *Analysis) error
	Get(ctx context.Context, id ID) (*Analysis, error)
	List(ctx context.Context, f ListFilter) ([]*Analysis, error)
	Update(ctx context.Context, a *Analysis) error
	Delete(ctx context.Context, id ID) error
}
