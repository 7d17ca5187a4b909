package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/vantage/internal/application/analyses"
	domain "github.com/bryanwahyu/vantage/internal/domain/analysis"
	"github.com/bryanwahyu/vantage/internal/domain/apperr"
	"github.com/bryanwahyu/vantage/internal/middleware"
)

// POST /analyze
// Body: {"text": "..."}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(w, req, &body); err != nil {
		return err
	}

	fields, err := r.svc.AI.Analyze(req.Context(), middleware.SanitizeString(body.Text))
	if err != nil {
		middleware.AnalyzeRequestsTotal.WithLabelValues(outcome(err)).Inc()
		return err
	}
	middleware.AnalyzeRequestsTotal.WithLabelValues("ok").Inc()
	return WriteJSON(w, http.StatusOK, map[string]any{"analysis": fields})
}

// POST /analyses
// Body: {"text": "...", <analysis fields>, "isFavorite": bool, "tags": [...]}
func (r *Router) handleCreateAnalysis(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Text string `json:"text"`
		domain.Fields
		IsFavorite bool     `json:"isFavorite"`
		Tags       []string `json:"tags"`
	}
	if err := decodeJSON(w, req, &body); err != nil {
		return err
	}

	cmd := analyses.CreateCommand{
		Text:       body.Text,
		Fields:     body.Fields,
		IsFavorite: body.IsFavorite,
		Tags:       middleware.SanitizeTags(body.Tags),
	}
	if c, ok := middleware.ClaimsFromContext(req.Context()); ok {
		cmd.UserID = c.UserID
	}

	a, err := r.svc.Analyses.Create(req.Context(), cmd)
	if err != nil {
		return err
	}
	return WriteJSON(w, http.StatusCreated, map[string]any{
		"message":  "Analysis saved successfully",
		"analysis": a,
	})
}

// GET /analyses?id=
// GET /analyses?favorite=true&mine=true&limit=20
func (r *Router) handleListAnalyses(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	if id := q.Get("id"); id != "" {
		return r.writeAnalysis(w, req, id)
	}

	var f domain.ListFilter
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return apperr.Validation("limit must be a non-negative integer")
		}
		f.Limit = middleware.ValidateLimit(n)
	}
	f.FavoritesOnly = q.Get("favorite") == "true"
	if q.Get("mine") == "true" {
		c, ok := middleware.ClaimsFromContext(req.Context())
		if !ok {
			return apperr.Unauthorized("mine=true requires a bearer token")
		}
		f.UserID = c.UserID
	}

	list, err := r.svc.Analyses.List(req.Context(), f)
	if err != nil {
		return err
	}
	return WriteJSON(w, http.StatusOK, list)
}

// GET /analyses/{id}
func (r *Router) handleGetAnalysis(w http.ResponseWriter, req *http.Request) error {
	return r.writeAnalysis(w, req, chi.URLParam(req, "id"))
}

func (r *Router) writeAnalysis(w http.ResponseWriter, req *http.Request, id string) error {
	if err := middleware.ValidateID(id); err != nil {
		return err
	}
	a, err := r.svc.Analyses.Get(req.Context(), domain.ID(id))
	if err != nil {
		return err
	}
	return WriteJSON(w, http.StatusOK, a)
}

// PUT /analyses/{id}
// Body: any subset of the analysis fields; absent fields are left unchanged.
// Text is stored exactly as sent.
func (r *Router) handleUpdateAnalysis(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateID(id); err != nil {
		return err
	}
	var p domain.Patch
	if err := decodeJSON(w, req, &p); err != nil {
		return err
	}
	if p.Tags != nil {
		tags := middleware.SanitizeTags(*p.Tags)
		p.Tags = &tags
	}

	a, err := r.svc.Analyses.Update(req.Context(), domain.ID(id), p)
	if err != nil {
		return err
	}
	return WriteJSON(w, http.StatusOK, a)
}

// DELETE /analyses/{id}
func (r *Router) handleDeleteAnalysis(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateID(id); err != nil {
		return err
	}
	if err := r.svc.Analyses.Delete(req.Context(), domain.ID(id)); err != nil {
		return err
	}
	return WriteJSON(w, http.StatusOK, map[string]string{"message": "Analysis deleted successfully"})
}

// outcome labels a failure for the domain counters.
func outcome(err error) string {
	if k := apperr.KindOf(err); k != "" {
		return string(k)
	}
	return "error"
}
