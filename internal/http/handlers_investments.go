package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
)

type investmentRequest struct {
	Name           string      `json:"name"`
	Type           string      `json:"type"`
	AmountInvested *core.Money `json:"amountInvested"`
	CurrentValue   *core.Money `json:"currentValue"`
	PurchaseDate   string      `json:"purchaseDate"`
	Quantity       *float64    `json:"quantity"`
	Symbol         string      `json:"symbol"`
	Platform       string      `json:"platform"`
}

func (s *Server) handleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	var req investmentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.AmountInvested == nil {
		s.respondError(w, r, badRequest("amountInvested is required"))
		return
	}

	inv := &core.Investment{
		UserID:         userID(r),
		Name:           req.Name,
		Type:           req.Type,
		AmountInvested: *req.AmountInvested,
		CurrentValue:   *req.AmountInvested,
		PurchaseDate:   time.Now().UTC(),
		Symbol:         req.Symbol,
		Platform:       req.Platform,
	}
	if req.CurrentValue != nil {
		inv.CurrentValue = *req.CurrentValue
	}
	if req.Quantity != nil {
		inv.Quantity = *req.Quantity
	}
	if req.PurchaseDate != "" {
		date, err := parseDate(req.PurchaseDate)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		inv.PurchaseDate = date
	}
	if err := inv.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.storage.CreateInvestment(r.Context(), inv); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, "investment created", inv)
}

func (s *Server) handleListInvestments(w http.ResponseWriter, r *http.Request) {
	invs, err := s.storage.ListInvestments(r.Context(), userID(r), r.URL.Query().Get("type"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if invs == nil {
		invs = []core.Investment{}
	}
	s.respond(w, http.StatusOK, "", invs)
}

func (s *Server) handleGetInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	inv, err := s.storage.GetInvestment(r.Context(), userID(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "", inv)
}

func (s *Server) handleUpdateInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	inv, err := s.storage.GetInvestment(r.Context(), userID(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req investmentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Name != "" {
		inv.Name = req.Name
	}
	if req.Type != "" {
		inv.Type = req.Type
	}
	if req.AmountInvested != nil {
		inv.AmountInvested = *req.AmountInvested
	}
	if req.CurrentValue != nil {
		inv.CurrentValue = *req.CurrentValue
	}
	if req.Quantity != nil {
		inv.Quantity = *req.Quantity
	}
	if req.Symbol != "" {
		inv.Symbol = req.Symbol
	}
	if req.Platform != "" {
		inv.Platform = req.Platform
	}
	if req.PurchaseDate != "" {
		if inv.PurchaseDate, err = parseDate(req.PurchaseDate); err != nil {
			s.respondError(w, r, err)
			return
		}
	}
	if err := inv.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.storage.UpdateInvestment(r.Context(), inv); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "investment updated", inv)
}

func (s *Server) handleDeleteInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.storage.DeleteInvestment(r.Context(), userID(r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "investment deleted", nil)
}

func (s *Server) handleInvestmentStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.storage.GetInvestmentStats(r.Context(), userID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "", stats)
}
