package analyses

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bryanwahyu/vantage/internal/application"
	domain "github.com/bryanwahyu/vantage/internal/domain/analysis"
	"github.com/bryanwahyu/vantage/internal/domain/apperr"
	"github.com/bryanwahyu/vantage/internal/domain/users"
)

// Service implements the CRUD use-cases for stored analyses.
// Repo may be nil when no database is configured; every call then fails
// with a configuration error instead of taking the process down.
type Service struct {
	Repo  domain.Repository
	Users users.Repository
	Clock application.Clock
	Log   zerolog.Logger
}

// CreateCommand is the input of Create.
type CreateCommand struct {
	Text       string
	Fields     domain.Fields
	IsFavorite bool
	Tags       []string
	UserID     string
}

func (s *Service) ready() error {
	if s.Repo == nil {
		return apperr.Configuration("database is not configured")
	}
	return nil
}

// Create persists a new analysis and links it to its owner, if any.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*domain.Analysis, error) {
	if strings.TrimSpace(cmd.Text) == "" {
		return nil, apperr.Validation("Text is required")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	a := &domain.Analysis{
		ID:         domain.ID(uuid.New().String()),
		Text:       cmd.Text,
		Fields:     cmd.Fields,
		UserID:     cmd.UserID,
		IsFavorite: cmd.IsFavorite,
		Tags:       normalizeTags(cmd.Tags),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}

	if a.UserID != "" && s.Users != nil {
		if err := s.Users.AppendAnalysis(ctx, users.ID(a.UserID), string(a.ID)); err != nil {
			// keep user and analysis consistent: undo the insert
			if derr := s.Repo.Delete(ctx, a.ID); derr != nil {
				s.Log.Error().Err(derr).Str("analysis_id", string(a.ID)).Msg("rollback of orphan analysis failed")
			}
			return nil, fmt.Errorf("link analysis to user: %w", err)
		}
	}

	s.Log.Info().Str("analysis_id", string(a.ID)).Str("user_id", a.UserID).Msg("analysis saved")
	return a, nil
}

// Get ambil 1 analysis by id
func (s *Service) Get(ctx context.Context, id domain.ID) (*domain.Analysis, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(id)) == "" {
		return nil, apperr.Validation("id is required")
	}
	return s.Repo.Get(ctx, id)
}

// List returns analyses newest first.
func (s *Service) List(ctx context.Context, f domain.ListFilter) ([]*domain.Analysis, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if f.Limit < 0 {
		f.Limit = 0
	}
	list, err := s.Repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*domain.Analysis{}
	}
	return list, nil
}

// Update merges p into the stored record. Concurrent updates are last-write-wins.
func (s *Service) Update(ctx context.Context, id domain.ID, p domain.Patch) (*domain.Analysis, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if p.Text != nil && strings.TrimSpace(*p.Text) == "" {
		return nil, apperr.Validation("Text cannot be empty")
	}

	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Empty() {
		return a, nil
	}

	p.Apply(a)
	a.Tags = normalizeTags(a.Tags)
	a.UpdatedAt = s.Clock.Now()
	if err := s.Repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes a record; unknown ids yield NotFound.
func (s *Service) Delete(ctx context.Context, id domain.ID) error {
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(string(id)) == "" {
		return apperr.Validation("id is required")
	}
	return s.Repo.Delete(ctx, id)
}

// normalizeTags trims, drops empties and duplicates, keeping first-seen order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
