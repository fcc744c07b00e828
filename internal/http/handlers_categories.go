package http

import (
	"net/http"

	"fintrack/internal/core"
)

type categoryRequest struct {
	Name  string               `json:"name"`
	Type  core.TransactionType `json:"type"`
	Icon  string               `json:"icon"`
	Color string               `json:"color"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	typ := core.TransactionType(r.URL.Query().Get("type"))
	if typ != "" && !typ.Valid() {
		s.respondError(w, r, core.ErrInvalidType)
		return
	}
	cats, err := s.storage.ListCategories(r.Context(), userID(r), typ)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if cats == nil {
		cats = []core.Category{}
	}
	s.respond(w, http.StatusOK, "", cats)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	cat := &core.Category{
		UserID: userID(r),
		Name:   req.Name,
		Type:   req.Type,
		Icon:   req.Icon,
		Color:  req.Color,
	}
	if err := cat.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.storage.CreateCategory(r.Context(), cat); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, "category created", cat)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	cat, err := s.storage.GetCategory(r.Context(), userID(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "", cat)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	cat, err := s.storage.GetCategory(r.Context(), userID(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if cat.IsDefault || cat.UserID != userID(r) {
		s.respondError(w, r, badRequest("default categories cannot be changed"))
		return
	}

	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Name != "" {
		cat.Name = req.Name
	}
	if req.Type != "" {
		cat.Type = req.Type
	}
	if req.Icon != "" {
		cat.Icon = req.Icon
	}
	if req.Color != "" {
		cat.Color = req.Color
	}
	if err := cat.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.storage.UpdateCategory(r.Context(), cat); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "category updated", cat)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.storage.DeleteCategory(r.Context(), userID(r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "category deleted", nil)
}
