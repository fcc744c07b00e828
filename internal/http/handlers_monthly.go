package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/finance"
)

type monthlyExpenseRequest struct {
	Name        string      `json:"name"`
	Category    string      `json:"category"`
	Amount      *core.Money `json:"amount"`
	DueDay      *int        `json:"dueDate"`
	Description string      `json:"description"`
	AutoDeduct  *bool       `json:"autoDeduct"`
	Tags        []string    `json:"tags"`
}

var monthlyExpenseCategories = map[string]bool{
	"home": true, "mobile": true, "internet": true, "gym": true, "other": true,
}

func (s *Server) handleCreateMonthlyExpense(w http.ResponseWriter, r *http.Request) {
	var req monthlyExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Amount == nil || req.DueDay == nil {
		s.respondError(w, r, badRequest("amount and dueDate are required"))
		return
	}
	if !monthlyExpenseCategories[req.Category] {
		s.respondError(w, r, badRequest("category must be one of home, mobile, internet, gym, other"))
		return
	}

	exp := &core.MonthlyExpense{
		UserID:      userID(r),
		Name:        req.Name,
		Category:    req.Category,
		Amount:      *req.Amount,
		DueDay:      *req.DueDay,
		Description: req.Description,
		IsActive:    true,
		NextDueDate: finance.NextDueDate(*req.DueDay, time.Now().UTC()),
		AutoDeduct:  true,
		Tags:        req.Tags,
	}
	if req.AutoDeduct != nil {
		exp.AutoDeduct = *req.AutoDeduct
	}
	if err := exp.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.storage.CreateMonthlyExpense(r.Context(), exp); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, "monthly expense created", exp)
}

func (s *Server) handleListMonthlyExpenses(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" && !monthlyExpenseCategories[category] {
		s.respondError(w, r, badRequest("unknown category %q", category))
		return
	}
	exps, err := s.storage.ListMonthlyExpenses(r.Context(), userID(r), category)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if exps == nil {
		exps = []core.MonthlyExpense{}
	}
	s.respond(w, http.StatusOK, "", exps)
}

func (s *Server) handleGetMonthlyExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	exp, err := s.storage.GetMonthlyExpense(r.Context(), userID(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "", exp)
}

func (s *Server) handleUpdateMonthlyExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	exp, err := s.storage.GetMonthlyExpense(r.Context(), userID(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req monthlyExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Name != "" {
		exp.Name = req.Name
	}
	if req.Category != "" {
		if !monthlyExpenseCategories[req.Category] {
			s.respondError(w, r, badRequest("unknown category %q", req.Category))
			return
		}
		exp.Category = req.Category
	}
	if req.Amount != nil {
		exp.Amount = *req.Amount
	}
	if req.DueDay != nil {
		exp.DueDay = *req.DueDay
		exp.NextDueDate = finance.NextDueDate(*req.DueDay, time.Now().UTC())
	}
	if req.Description != "" {
		exp.Description = req.Description
	}
	if req.AutoDeduct != nil {
		exp.AutoDeduct = *req.AutoDeduct
	}
	if req.Tags != nil {
		exp.Tags = req.Tags
	}
	if err := exp.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.storage.UpdateMonthlyExpense(r.Context(), exp); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "monthly expense updated", exp)
}

func (s *Server) handleDeleteMonthlyExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.storage.DeactivateMonthlyExpense(r.Context(), userID(r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "monthly expense deactivated", nil)
}

func (s *Server) handlePayMonthlyExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	result, err := s.payer.Pay(r.Context(), userID(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "expense paid", result)
}

func (s *Server) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	exp, err := s.payer.MarkPaid(r.Context(), userID(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "marked paid", exp)
}

func (s *Server) handleMarkUnpaid(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	exp, err := s.payer.MarkUnpaid(r.Context(), userID(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "marked unpaid", exp)
}

func (s *Server) handleMonthlyExpenseStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.storage.GetMonthlyExpenseStats(r.Context(), userID(r), time.Now().UTC())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "", stats)
}
