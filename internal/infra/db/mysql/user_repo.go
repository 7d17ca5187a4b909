package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bryanwahyu/vantage/internal/domain/apperr"
	"github.com/bryanwahyu/vantage/internal/domain/users"
)

const userColumns = `id, email, name, password_hash, analyses, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user; the unique email index turns a race into Conflict.
func (r *UserRepository) Create(ctx context.Context, u *users.User) error {
	const q = `
INSERT INTO users (id, email, name, password_hash, analyses, created_at, updated_at)
VALUES (?,?,?,?,?,?,?);
`
	analyses, err := encodeJSON(u.Analyses)
	if err != nil {
		return fmt.Errorf("encode user analyses: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q,
		u.ID, strings.TrimSpace(u.Email), u.Name, u.PasswordHash, analyses, u.CreatedAt, u.UpdatedAt,
	)
	if isDuplicate(err) {
		return apperr.Conflict("User already exists")
	}
	return err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email=? LIMIT 1;`
	return r.one(r.db.QueryRowContext(ctx, q, strings.TrimSpace(email)))
}

func (r *UserRepository) Get(ctx context.Context, id users.ID) (*users.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id=? LIMIT 1;`
	return r.one(r.db.QueryRowContext(ctx, q, id))
}

// AppendAnalysis pushes analysisID onto the end of the analyses JSON array.
func (r *UserRepository) AppendAnalysis(ctx context.Context, id users.ID, analysisID string) error {
	const q = `UPDATE users SET analyses=JSON_ARRAY_APPEND(analyses, '$', ?), updated_at=? WHERE id=?;`
	res, err := r.db.ExecContext(ctx, q, analysisID, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("User not found")
	}
	return nil
}

func (r *UserRepository) one(row *sql.Row) (*users.User, error) {
	var u users.User
	var analyses []byte
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &analyses, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	if err := decodeJSON(analyses, &u.Analyses); err != nil {
		return nil, fmt.Errorf("decode user analyses: %w", err)
	}
	if u.Analyses == nil {
		u.Analyses = []string{}
	}
	return &u, nil
}
