package mysql

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/vantage/internal/domain/analysis"
	"github.com/bryanwahyu/vantage/internal/domain/apperr"
	"github.com/bryanwahyu/vantage/internal/domain/users"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var analysisCols = []string{
	"id", "text", "summary", "meaning", "poetic_devices", "themes", "emotional_tone",
	"historical_context", "word_analysis", "interpretation", "english_translation",
	"user_id", "is_favorite", "tags", "created_at", "updated_at",
}

func TestAnalysisCreateEncodesJSONColumns(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAnalysisRepository(db)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO analyses")).
		WithArgs("a1", "text", "sum", "", `["metaphor"]`, "[]", "", "", `{"dil":"heart"}`, "", "",
			nil, false, "[]", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &domain.Analysis{
		ID:   "a1",
		Text: "text",
		Fields: domain.Fields{
			Summary:       "sum",
			PoeticDevices: []string{"metaphor"},
			WordAnalysis:  map[string]string{"dil": "heart"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisCreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO analyses").
		WillReturnError(&mysqldrv.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := NewAnalysisRepository(db).Create(context.Background(), &domain.Analysis{ID: "a1", Text: "t"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestAnalysisGet(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAnalysisRepository(db)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM analyses WHERE id=?")).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows(analysisCols).AddRow(
			"a1", "text", "sum", "m", []byte(`["simile"]`), []byte(`["love"]`), "sad",
			"hist", []byte(`{"dil":"heart"}`), "interp", "trans",
			"u1", true, []byte(`["ghazal"]`), now, now,
		))

	a, err := repo.Get(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, domain.ID("a1"), a.ID)
	assert.Equal(t, []string{"simile"}, a.PoeticDevices)
	assert.Equal(t, []string{"love"}, a.Themes)
	assert.Equal(t, "heart", a.WordAnalysis["dil"])
	assert.Equal(t, "u1", a.UserID)
	assert.True(t, a.IsFavorite)
	assert.Equal(t, []string{"ghazal"}, a.Tags)
	assert.Equal(t, now, a.CreatedAt)
}

func TestAnalysisGetMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM analyses").WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := NewAnalysisRepository(db).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAnalysisListFilters(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM analyses WHERE user_id=? AND is_favorite=TRUE ORDER BY created_at DESC, id DESC LIMIT ?")).
		WithArgs("u1", 5).
		WillReturnRows(sqlmock.NewRows(analysisCols))

	list, err := NewAnalysisRepository(db).List(context.Background(), domain.ListFilter{UserID: "u1", FavoritesOnly: true, Limit: 5})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisUpdateMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("UPDATE analyses SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM analyses WHERE id=?")).WithArgs("a1").WillReturnError(sql.ErrNoRows)

	err := NewAnalysisRepository(db).Update(context.Background(), &domain.Analysis{ID: "a1", Text: "t"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAnalysisUpdateUnchangedRow(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("UPDATE analyses SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM analyses WHERE id=?")).WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	err := NewAnalysisRepository(db).Update(context.Background(), &domain.Analysis{ID: "a1", Text: "t"})
	assert.NoError(t, err)
}

func TestAnalysisDelete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAnalysisRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM analyses WHERE id=?")).WithArgs("a1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM analyses WHERE id=?")).WithArgs("a1").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "a1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "a1"), apperr.ErrNotFound)
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO users").
		WithArgs("u1", "A@example.com", "A", "hash", "[]", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&mysqldrv.MySQLError{Number: 1062, Message: "Duplicate entry 'A@example.com' for key 'uq_users_email'"})

	err := NewUserRepository(db).Create(context.Background(), &users.User{
		ID: "u1", Email: " A@example.com ", Name: "A", PasswordHash: "hash",
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestUserGetByEmail(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=?")).
		WithArgs("A@Example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "password_hash", "analyses", "created_at", "updated_at"}).
			AddRow("u1", "A@Example.com", "A", "hash", []byte(`["a1","a2"]`), now, now))

	u, err := NewUserRepository(db).GetByEmail(context.Background(), " A@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, users.ID("u1"), u.ID)
	assert.Equal(t, "A@Example.com", u.Email)
	assert.Equal(t, []string{"a1", "a2"}, u.Analyses)
}

func TestUserGetMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM users WHERE id=").WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := NewUserRepository(db).Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUserAppendAnalysis(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("JSON_ARRAY_APPEND(analyses, '$', ?)")).
		WithArgs("a1", sqlmock.AnyArg(), "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users").
		WithArgs("a1", sqlmock.AnyArg(), "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.AppendAnalysis(context.Background(), "u1", "a1"))
	assert.ErrorIs(t, repo.AppendAnalysis(context.Background(), "ghost", "a1"), apperr.ErrNotFound)
}

func TestMigrateRunsEveryStatement(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS analyses").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
