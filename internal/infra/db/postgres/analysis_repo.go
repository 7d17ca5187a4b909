package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	domain "github.com/bryanwahyu/vantage/internal/domain/analysis"
	"github.com/bryanwahyu/vantage/internal/domain/apperr"
)

const analysisColumns = `id, text, summary, meaning, poetic_devices, themes, emotional_tone,
       historical_context, word_analysis, interpretation, english_translation,
       user_id, is_favorite, tags, created_at, updated_at`

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

func jsonColumns(a *domain.Analysis) (devices, themes, words, tags string, err error) {
	if devices, err = encodeJSON(a.PoeticDevices); err != nil {
		return
	}
	if themes, err = encodeJSON(a.Themes); err != nil {
		return
	}
	if words, err = encodeJSON(a.WordAnalysis); err != nil {
		return
	}
	tags, err = encodeJSON(a.Tags)
	return
}

// Create inserts a new analysis record
func (r *AnalysisRepository) Create(ctx context.Context, a *domain.Analysis) error {
	const q = `
INSERT INTO analyses
  (id, text, summary, meaning, poetic_devices, themes, emotional_tone,
   historical_context, word_analysis, interpretation, english_translation,
   user_id, is_favorite, tags, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16);
`
	devices, themes, words, tags, err := jsonColumns(a)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q,
		a.ID, a.Text, a.Summary, a.Meaning, devices, themes, a.EmotionalTone,
		a.HistoricalContext, words, a.Interpretation, a.EnglishTranslation,
		nullString(a.UserID), a.IsFavorite, tags, a.CreatedAt, a.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return apperr.Conflict("analysis already exists")
	}
	return err
}

func (r *AnalysisRepository) Get(ctx context.Context, id domain.ID) (*domain.Analysis, error) {
	q := `SELECT ` + analysisColumns + ` FROM analyses WHERE id=$1 LIMIT 1;`
	a, err := scanAnalysis(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Analysis not found")
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// List returns analyses ordered by created_at desc, id desc
func (r *AnalysisRepository) List(ctx context.Context, f domain.ListFilter) ([]*domain.Analysis, error) {
	var where []string
	var args []any
	if f.UserID != "" {
		args = append(args, f.UserID)
		where = append(where, "user_id=$"+strconv.Itoa(len(args)))
	}
	if f.FavoritesOnly {
		where = append(where, "is_favorite")
	}

	var b strings.Builder
	b.WriteString("SELECT " + analysisColumns + " FROM analyses")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id DESC")
	if f.Limit > 0 {
		args = append(args, f.Limit)
		b.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AnalysisRepository) Update(ctx context.Context, a *domain.Analysis) error {
	const q = `
UPDATE analyses SET
  text=$1, summary=$2, meaning=$3, poetic_devices=$4, themes=$5, emotional_tone=$6,
  historical_context=$7, word_analysis=$8, interpretation=$9, english_translation=$10,
  is_favorite=$11, tags=$12, updated_at=$13
WHERE id=$14;
`
	devices, themes, words, tags, err := jsonColumns(a)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	res, err := r.db.ExecContext(ctx, q,
		a.Text, a.Summary, a.Meaning, devices, themes, a.EmotionalTone,
		a.HistoricalContext, words, a.Interpretation, a.EnglishTranslation,
		a.IsFavorite, tags, a.UpdatedAt, a.ID,
	)
	if err != nil {
		return err
	}
	return notFoundIfNone(res)
}

func (r *AnalysisRepository) Delete(ctx context.Context, id domain.ID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM analyses WHERE id=$1;`, id)
	if err != nil {
		return err
	}
	return notFoundIfNone(res)
}

func notFoundIfNone(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("Analysis not found")
	}
	return nil
}

func scanAnalysis(s scanner) (*domain.Analysis, error) {
	var a domain.Analysis
	var devices, themes, words, tags []byte
	var userID sql.NullString
	if err := s.Scan(
		&a.ID, &a.Text, &a.Summary, &a.Meaning, &devices, &themes, &a.EmotionalTone,
		&a.HistoricalContext, &words, &a.Interpretation, &a.EnglishTranslation,
		&userID, &a.IsFavorite, &tags, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.UserID = userID.String
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()

	for _, c := range []struct {
		raw []byte
		dst any
	}{
		{devices, &a.PoeticDevices},
		{themes, &a.Themes},
		{words, &a.WordAnalysis},
		{tags, &a.Tags},
	} {
		if err := decodeJSON(c.raw, c.dst); err != nil {
			return nil, fmt.Errorf("decode analysis %s: %w", a.ID, err)
		}
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	return &a, nil
}
