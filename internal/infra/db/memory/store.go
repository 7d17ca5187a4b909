// Package memory is an in-process store selected with DB_DRIVER=memory.
// Data lives only as long as the process; it backs local runs and tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/bryanwahyu/vantage/internal/domain/analysis"
	"github.com/bryanwahyu/vantage/internal/domain/apperr"
	"github.com/bryanwahyu/vantage/internal/domain/users"
)

type AnalysisRepository struct {
	mu   sync.RWMutex
	rows map[analysis.ID]*analysis.Analysis
}

func NewAnalysisRepository() *AnalysisRepository {
	return &AnalysisRepository{rows: make(map[analysis.ID]*analysis.Analysis)}
}

func cloneAnalysis(a *analysis.Analysis) *analysis.Analysis {
	c := *a
	c.PoeticDevices = slices.Clone(a.PoeticDevices)
	c.Themes = slices.Clone(a.Themes)
	c.Tags = slices.Clone(a.Tags)
	c.WordAnalysis = maps.Clone(a.WordAnalysis)
	return &c
}

func (r *AnalysisRepository) Create(_ context.Context, a *analysis.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[a.ID]; ok {
		return apperr.Conflict("analysis already exists")
	}
	r.rows[a.ID] = cloneAnalysis(a)
	return nil
}

func (r *AnalysisRepository) Get(_ context.Context, id analysis.ID) (*analysis.Analysis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.rows[id]
	if !ok {
		return nil, apperr.NotFound("Analysis not found")
	}
	return cloneAnalysis(a), nil
}

func (r *AnalysisRepository) List(_ context.Context, f analysis.ListFilter) ([]*analysis.Analysis, error) {
	r.mu.RLock()
	out := make([]*analysis.Analysis, 0, len(r.rows))
	for _, a := range r.rows {
		if f.UserID != "" && a.UserID != f.UserID {
			continue
		}
		if f.FavoritesOnly && !a.IsFavorite {
			continue
		}
		out = append(out, cloneAnalysis(a))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *AnalysisRepository) Update(_ context.Context, a *analysis.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[a.ID]; !ok {
		return apperr.NotFound("Analysis not found")
	}
	r.rows[a.ID] = cloneAnalysis(a)
	return nil
}

func (r *AnalysisRepository) Delete(_ context.Context, id analysis.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return apperr.NotFound("Analysis not found")
	}
	delete(r.rows, id)
	return nil
}

type UserRepository struct {
	mu      sync.RWMutex
	byID    map[users.ID]*users.User
	byEmail map[string]users.ID
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[users.ID]*users.User),
		byEmail: make(map[string]users.ID),
	}
}

func cloneUser(u *users.User) *users.User {
	c := *u
	c.Analyses = slices.Clone(u.Analyses)
	return &c
}

func emailKey(email string) string { return strings.TrimSpace(email) }

func (r *UserRepository) Create(_ context.Context, u *users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := emailKey(u.Email)
	if _, ok := r.byEmail[key]; ok {
		return apperr.Conflict("User already exists")
	}
	r.byID[u.ID] = cloneUser(u)
	r.byEmail[key] = u.ID
	return nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[emailKey(email)]
	if !ok {
		return nil, apperr.NotFound("User not found")
	}
	return cloneUser(r.byID[id]), nil
}

func (r *UserRepository) Get(_ context.Context, id users.ID) (*users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, apperr.NotFound("User not found")
	}
	return cloneUser(u), nil
}

func (r *UserRepository) AppendAnalysis(_ context.Context, id users.ID, analysisID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return apperr.NotFound("User not found")
	}
	u.Analyses = append(u.Analyses, analysisID)
	return nil
}
