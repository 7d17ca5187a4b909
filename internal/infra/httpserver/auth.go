package httpserver

import (
	"net/http"

	"github.com/bryanwahyu/vantage/internal/domain/apperr"
	"github.com/bryanwahyu/vantage/internal/domain/users"
	"github.com/bryanwahyu/vantage/internal/middleware"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type authResponse struct {
	Message string        `json:"message"`
	Token   string        `json:"token"`
	User    users.Profile `json:"user"`
}

// POST /auth/signup
func (r *Router) handleSignup(w http.ResponseWriter, req *http.Request) error {
	var body credentials
	if err := decodeJSON(w, req, &body); err != nil {
		return err
	}
	res, err := r.svc.Auth.Signup(req.Context(), body.Email, body.Password, middleware.SanitizeString(body.Name))
	if err != nil {
		return err
	}
	return WriteJSON(w, http.StatusCreated, authResponse{
		Message: "User created",
		Token:   res.Token,
		User:    res.User.Profile(),
	})
}

// POST /auth/login
func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) error {
	var body credentials
	if err := decodeJSON(w, req, &body); err != nil {
		return err
	}
	res, err := r.svc.Auth.Login(req.Context(), body.Email, body.Password)
	if err != nil {
		return err
	}
	return WriteJSON(w, http.StatusOK, authResponse{
		Message: "Login successful",
		Token:   res.Token,
		User:    res.User.Profile(),
	})
}

// GET /auth/me
func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) error {
	c, ok := middleware.ClaimsFromContext(req.Context())
	if !ok {
		return apperr.Unauthorized("unauthorized")
	}
	u, err := r.svc.Auth.Me(req.Context(), users.ID(c.UserID))
	if err != nil {
		return err
	}
	return WriteJSON(w, http.StatusOK, u)
}
