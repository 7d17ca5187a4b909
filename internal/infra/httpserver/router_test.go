package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/vantage/internal/application"
	appai "github.com/bryanwahyu/vantage/internal/application/ai"
	"github.com/bryanwahyu/vantage/internal/application/analyses"
	"github.com/bryanwahyu/vantage/internal/application/auth"
	appspeech "github.com/bryanwahyu/vantage/internal/application/speech"
	"github.com/bryanwahyu/vantage/internal/domain/apperr"
	"github.com/bryanwahyu/vantage/internal/domain/speech"
	"github.com/bryanwahyu/vantage/internal/infra/db/memory"
	"github.com/bryanwahyu/vantage/internal/middleware"
)

type MockAIClient struct {
	mock.Mock
}

func (m *MockAIClient) Analyze(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

type MockSynthesizer struct {
	mock.Mock
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, req speech.Request) (*speech.Audio, error) {
	args := m.Called(ctx, req)
	a, _ := args.Get(0).(*speech.Audio)
	return a, args.Error(1)
}

type testServer struct {
	handler http.Handler
	ai      *MockAIClient
	synth   *MockSynthesizer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithSecret(t, "router-test-secret")
}

func newTestServerWithSecret(t *testing.T, secret string) *testServer {
	t.Helper()
	aiClient := new(MockAIClient)
	synth := new(MockSynthesizer)
	userRepo := memory.NewUserRepository()
	clock := &application.StepClock{T: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Step: time.Second}
	log := zerolog.Nop()

	svc := Services{
		AI: appai.NewService(aiClient, appai.Options{Timeout: time.Second, MaxAttempts: 1}, log),
		Analyses: &analyses.Service{
			Repo:  memory.NewAnalysisRepository(),
			Users: userRepo,
			Clock: clock,
			Log:   log,
		},
		Auth: auth.NewService(userRepo, secret, time.Hour, application.SystemClock{}, log),
		Speech: appspeech.NewService(synth, nil, appspeech.Options{
			Voices: map[speech.Language]speech.Voice{
				speech.LanguageUrdu:    {Name: "ur-PK-AsadNeural", Lang: "ur-PK"},
				speech.LanguageEnglish: {Name: "en-US-AriaNeural", Lang: "en-US"},
			},
		}, log),
	}
	h := NewRouter(svc, Options{
		Logger:         log,
		HealthCheckers: map[string]middleware.HealthChecker{},
	})
	return &testServer{handler: h, ai: aiClient, synth: synth}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestAnalyzeEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.ai.On("Analyze", mock.Anything, "دل").
		Return("Here you go:\n{\"summary\":\"heart\",\"themes\":[\"love\"]}\nThanks", nil).Once()

	rec := s.do(t, http.MethodPost, "/analyze", map[string]string{"text": "دل"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Analysis map[string]any `json:"analysis"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "heart", body.Analysis["summary"])
	assert.Equal(t, []any{"love"}, body.Analysis["themes"])
}

func TestAnalyzeEndpointErrors(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/analyze", map[string]string{"text": "   "}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Text is required"}`, rec.Body.String())
	s.ai.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)

	rec = s.do(t, http.MethodPost, "/analyze", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.ai.On("Analyze", mock.Anything, "text").Return("no json here", nil).Once()
	rec = s.do(t, http.MethodPost, "/analyze", map[string]string{"text": "text"}, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to parse AI response"}`, rec.Body.String())
}

func TestAnalysesCRUD(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/analyses", map[string]any{"text": "first"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/analyses", map[string]any{
		"text":          "X",
		"summary":       "s",
		"poeticDevices": []string{"metaphor"},
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Message  string         `json:"message"`
		Analysis map[string]any `json:"analysis"`
	}
	decode(t, rec, &created)
	assert.Equal(t, "Analysis saved successfully", created.Message)
	id, _ := created.Analysis["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, false, created.Analysis["isFavorite"])
	assert.Equal(t, []any{}, created.Analysis["tags"])

	rec = s.do(t, http.MethodGet, "/analyses", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	decode(t, rec, &list)
	require.Len(t, list, 2)
	assert.Equal(t, id, list[0]["id"], "newest first")

	for _, path := range []string{"/analyses/" + id, "/analyses?id=" + id} {
		rec = s.do(t, http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		var got map[string]any
		decode(t, rec, &got)
		assert.Equal(t, "X", got["text"])
	}

	rec = s.do(t, http.MethodPut, "/analyses/"+id, map[string]any{"isFavorite": true, "tags": []string{"ghazal"}}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var updated map[string]any
	decode(t, rec, &updated)
	assert.Equal(t, true, updated["isFavorite"])
	assert.Equal(t, "s", updated["summary"])

	rec = s.do(t, http.MethodGet, "/analyses?favorite=true", nil, "")
	decode(t, rec, &list)
	require.Len(t, list, 1)

	rec = s.do(t, http.MethodPut, "/analyses/"+id, map[string]any{"text": ""}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, "/analyses/"+id, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Analysis deleted successfully"}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/analyses/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Analysis not found"}`, rec.Body.String())

	rec = s.do(t, http.MethodDelete, "/analyses/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/analyses", map[string]any{"summary": "no text"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Text is required"}`, rec.Body.String())
}

func TestAnalysisTextRoundTripsUnchanged(t *testing.T) {
	s := newTestServer(t)
	raw := "  شعر\u0007\n  "

	rec := s.do(t, http.MethodPost, "/analyses", map[string]any{"text": raw}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Analysis map[string]any `json:"analysis"`
	}
	decode(t, rec, &created)
	assert.Equal(t, raw, created.Analysis["text"])

	id, _ := created.Analysis["id"].(string)
	rec = s.do(t, http.MethodGet, "/analyses/"+id, nil, "")
	var got map[string]any
	decode(t, rec, &got)
	assert.Equal(t, raw, got["text"])
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/auth/signup", map[string]string{"email": "Poet@Example.com", "password": "pw", "name": "Poet"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var signup authResponse
	decode(t, rec, &signup)
	assert.Equal(t, "User created", signup.Message)
	assert.Equal(t, "Poet@Example.com", signup.User.Email)

	var claims auth.Claims
	_, _, err := jwt.NewParser().ParseUnverified(signup.Token, &claims)
	require.NoError(t, err)
	assert.Equal(t, "Poet@Example.com", claims.Email)
	assert.NotEmpty(t, signup.Token)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = s.do(t, http.MethodPost, "/auth/signup", map[string]string{"email": "Poet@Example.com", "password": "other"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"User already exists"}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/auth/signup", map[string]string{"email": "x@example.com"}, "")
	assert.JSONEq(t, `{"error":"Email and password required"}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "Poet@Example.com", "password": "wrong"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid password"}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "nobody@example.com", "password": "pw"}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"User not found"}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "Poet@Example.com", "password": "pw"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var login authResponse
	decode(t, rec, &login)
	assert.Equal(t, "Login successful", login.Message)

	// an analysis saved with a token is linked to its owner
	rec = s.do(t, http.MethodPost, "/analyses", map[string]any{"text": "mine"}, login.Token)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Analysis map[string]any `json:"analysis"`
	}
	decode(t, rec, &created)
	_ = s.do(t, http.MethodPost, "/analyses", map[string]any{"text": "anonymous"}, "")

	rec = s.do(t, http.MethodGet, "/auth/me", nil, login.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	var me map[string]any
	decode(t, rec, &me)
	assert.Equal(t, []any{created.Analysis["id"]}, me["analyses"])

	rec = s.do(t, http.MethodGet, "/analyses?mine=true", nil, login.Token)
	var mine []map[string]any
	decode(t, rec, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, "mine", mine[0]["text"])

	rec = s.do(t, http.MethodGet, "/analyses?mine=true", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/auth/me", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStaleTokenIsIgnoredOnOptionalAuthRoutes(t *testing.T) {
	s := newTestServer(t)
	const stale = "eyJhbGciOiJIUzI1NiJ9.garbage.sig"

	rec := s.do(t, http.MethodPost, "/auth/signup", map[string]string{"email": "a@b.c", "password": "pw"}, stale)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "a@b.c", "password": "pw"}, stale)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login authResponse
	decode(t, rec, &login)
	assert.NotEmpty(t, login.Token)

	rec = s.do(t, http.MethodPost, "/analyze", map[string]string{"text": "  "}, stale)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Text is required"}`, rec.Body.String())

	// saved anonymously, not linked to anyone
	rec = s.do(t, http.MethodPost, "/analyses", map[string]any{"text": "t"}, stale)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Analysis map[string]any `json:"analysis"`
	}
	decode(t, rec, &created)
	assert.Nil(t, created.Analysis["userId"])

	rec = s.do(t, http.MethodGet, "/analyses?mine=true", nil, stale)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/auth/me", nil, stale)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid token"}`, rec.Body.String())
}

func TestMissingSecretOnlyFailsAuthRoutes(t *testing.T) {
	s := newTestServerWithSecret(t, "")
	s.ai.On("Analyze", mock.Anything, "دل").Return(`{"summary":"heart"}`, nil).Once()
	s.synth.On("Synthesize", mock.Anything, mock.Anything).
		Return(&speech.Audio{Data: []byte("mp3"), ContentType: "audio/mpeg"}, nil).Once()

	rec := s.do(t, http.MethodPost, "/analyze", map[string]string{"text": "دل"}, "some-token")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/tts", map[string]string{"text": "hello"}, "some-token")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/auth/signup", map[string]string{"email": "a@b.c", "password": "pw"}, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = s.do(t, http.MethodGet, "/auth/me", nil, "some-token")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTTSEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.synth.On("Synthesize", mock.Anything, mock.MatchedBy(func(r speech.Request) bool {
		return r.Voice.Name == "ur-PK-AsadNeural"
	})).Return(&speech.Audio{Data: []byte("mp3"), ContentType: "audio/mpeg"}, nil).Once()

	rec := s.do(t, http.MethodPost, "/tts", map[string]string{"text": "سلام", "language": "urdu"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"audio":"data:audio/mp3;base64,bXAz","success":true}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/tts", map[string]string{"text": ""}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Text is required"}`, rec.Body.String())

	s.synth.On("Synthesize", mock.Anything, mock.Anything).
		Return(nil, apperr.UpstreamStatus(http.StatusForbidden, "Azure TTS Error: 403 - quota")).Once()
	rec = s.do(t, http.MethodPost, "/tts", map[string]string{"text": "hello", "language": "english"}, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Azure TTS Error: 403 - quota"}`, rec.Body.String())
}

func TestOperationalEndpoints(t *testing.T) {
	s := newTestServer(t)

	for path, want := range map[string]int{
		"/health":  http.StatusOK,
		"/healthz": http.StatusOK,
		"/readyz":  http.StatusOK,
		"/metrics": http.StatusOK,
	} {
		rec := s.do(t, http.MethodGet, path, nil, "")
		assert.Equal(t, want, rec.Code, path)
	}

	rec := s.do(t, http.MethodGet, "/metrics", nil, "")
	assert.True(t, strings.Contains(rec.Body.String(), "vantage_http_requests_total"))
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/analyze", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
