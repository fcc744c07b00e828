package http

import (
	"net/http"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Currency string `json:"currency"`
	Timezone string `json:"timezone"`
}

type authResponse struct {
	User   *core.User     `json:"user"`
	Tokens auth.TokenPair `json:"tokens"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" || len(req.Password) < 8 {
		s.respondError(w, r, badRequest("name, email and a password of at least 8 characters are required"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	user := &core.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hash,
		Currency: req.Currency,
		Timezone: req.Timezone,
	}
	if err := s.storage.CreateUser(r.Context(), user); err != nil {
		s.respondError(w, r, err)
		return
	}

	tokens, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, "registered", authResponse{User: user, Tokens: tokens})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	user, err := s.storage.GetUserByEmail(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		// Same response for unknown email and wrong password.
		s.respondError(w, r, core.ErrInvalidCredentials)
		return
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		s.respondError(w, r, core.ErrInvalidCredentials)
		return
	}

	tokens, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "logged in", authResponse{User: user, Tokens: tokens})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	tokens, err := s.tokens.Refresh(req.RefreshToken)
	if err != nil {
		s.respondError(w, r, auth.ErrInvalidToken)
		return
	}
	s.respond(w, http.StatusOK, "refreshed", tokens)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.storage.GetUser(r.Context(), userID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "", user)
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	Currency *string `json:"currency"`
	Timezone *string `json:"timezone"`
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	user, err := s.storage.GetUser(r.Context(), userID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Currency != nil {
		user.Currency = *req.Currency
	}
	if req.Timezone != nil {
		user.Timezone = *req.Timezone
	}
	if user.Name == "" {
		s.respondError(w, r, core.ErrEmptyName)
		return
	}
	if err := s.storage.UpdateUser(r.Context(), user); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "updated", user)
}
