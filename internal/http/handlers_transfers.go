package http

import (
	"net/http"

	"fintrack/internal/core"
)

type transferRequest struct {
	RecipientName      string              `json:"recipientName"`
	Amount             *core.Money         `json:"amount"`
	Purpose            string              `json:"purpose"`
	DestinationCountry string              `json:"destinationCountry"`
	TransferMethod     string              `json:"transferMethod"`
	Fees               *core.Money         `json:"fees"`
	ExchangeRate       *float64            `json:"exchangeRate"`
	Status             core.TransferStatus `json:"status"`
}

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Amount == nil {
		s.respondError(w, r, badRequest("amount is required"))
		return
	}

	t := &core.TransferRecord{
		UserID:             userID(r),
		RecipientName:      req.RecipientName,
		Amount:             *req.Amount,
		Purpose:            req.Purpose,
		DestinationCountry: req.DestinationCountry,
		TransferMethod:     req.TransferMethod,
		ExchangeRate:       1,
		Status:             core.TransferPending,
	}
	if req.Fees != nil {
		t.Fees = *req.Fees
	}
	if req.ExchangeRate != nil {
		t.ExchangeRate = *req.ExchangeRate
	}
	if req.Status != "" {
		t.Status = req.Status
	}
	if err := t.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.storage.CreateTransfer(r.Context(), t); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, "transfer created", t)
}

func (s *Server) handleListTransfers(w http.ResponseWriter, r *http.Request) {
	status := core.TransferStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		s.respondError(w, r, core.ErrInvalidStatus)
		return
	}
	transfers, err := s.storage.ListTransfers(r.Context(), userID(r), status)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if transfers == nil {
		transfers = []core.TransferRecord{}
	}
	s.respond(w, http.StatusOK, "", transfers)
}

func (s *Server) handleGetTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	t, err := s.storage.GetTransfer(r.Context(), userID(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "", t)
}

func (s *Server) handleUpdateTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	t, err := s.storage.GetTransfer(r.Context(), userID(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.RecipientName != "" {
		t.RecipientName = req.RecipientName
	}
	if req.Amount != nil {
		t.Amount = *req.Amount
	}
	if req.Purpose != "" {
		t.Purpose = req.Purpose
	}
	if req.DestinationCountry != "" {
		t.DestinationCountry = req.DestinationCountry
	}
	if req.TransferMethod != "" {
		t.TransferMethod = req.TransferMethod
	}
	if req.Fees != nil {
		t.Fees = *req.Fees
	}
	if req.ExchangeRate != nil {
		t.ExchangeRate = *req.ExchangeRate
	}
	if req.Status != "" {
		t.Status = req.Status
	}
	if err := t.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.storage.UpdateTransfer(r.Context(), t); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "transfer updated", t)
}

func (s *Server) handleDeleteTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.storage.DeleteTransfer(r.Context(), userID(r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "transfer deleted", nil)
}
