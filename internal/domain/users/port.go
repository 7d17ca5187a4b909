package users

import "context"

// Repository port for user accounts.
// Create returns an apperr Conflict error when the email is already taken.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	Get(ctx context.Context, id ID) (*User, error)
	// AppendAnalysis adds analysisID to the end of the user's analyses list.
	AppendAnalysis(ctx context.Context, id ID, analysisID string) error
}
