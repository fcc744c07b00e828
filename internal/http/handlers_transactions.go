package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type transactionRequest struct {
	Amount      core.Money           `json:"amount"`
	Type        core.TransactionType `json:"type"`
	CategoryID  int64                `json:"categoryId"`
	Description string               `json:"description"`
	Date        string               `json:"date"`
	Location    string               `json:"location"`
	Tags        []string             `json:"tags"`
}

func (req *transactionRequest) apply(tx *core.Transaction) error {
	tx.Amount = req.Amount
	tx.Type = req.Type
	tx.CategoryID = req.CategoryID
	tx.Description = req.Description
	tx.Location = req.Location
	tx.Tags = req.Tags
	if req.Date == "" {
		tx.Date = time.Now().UTC()
		return nil
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return err
	}
	tx.Date = date
	return nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.TransactionFilter{
		Type:  core.TransactionType(q.Get("type")),
		Page:  queryInt(r, "page", 1),
		Limit: queryInt(r, "limit", 10),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		s.respondError(w, r, core.ErrInvalidType)
		return
	}
	filter.CategoryID = int64(queryInt(r, "categoryId", 0))

	var err error
	if filter.StartDate, err = queryDate(r, "startDate", time.Time{}); err != nil {
		s.respondError(w, r, err)
		return
	}
	if filter.EndDate, err = queryDate(r, "endDate", time.Time{}); err != nil {
		s.respondError(w, r, err)
		return
	}

	txs, total, err := s.storage.ListTransactions(r.Context(), userID(r), filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	s.respond(w, http.StatusOK, "", map[string]any{
		"transactions": txs,
		"total":        total,
		"page":         filter.Page,
		"limit":        filter.Limit,
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	tx := &core.Transaction{UserID: userID(r)}
	if err := req.apply(tx); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := tx.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}
	// The category must exist and belong to the user (or be a default).
	if _, err := s.storage.GetCategory(r.Context(), tx.UserID, tx.CategoryID); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.storage.CreateTransaction(r.Context(), tx); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, "transaction created", tx)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	tx, err := s.storage.GetTransaction(r.Context(), userID(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "", tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	tx, err := s.storage.GetTransaction(r.Context(), userID(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := req.apply(tx); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := tx.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}
	if _, err := s.storage.GetCategory(r.Context(), tx.UserID, tx.CategoryID); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.storage.UpdateTransaction(r.Context(), tx); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "transaction updated", tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.storage.DeleteTransaction(r.Context(), userID(r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "transaction deleted", nil)
}

func (s *Server) handleTransactionStats(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	start, err := queryDate(r, "startDate", monthStart)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	end, err := queryDate(r, "endDate", monthStart.AddDate(0, 1, 0))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	stats, err := s.storage.GetTransactionStats(r.Context(), userID(r), start, end)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "", stats)
}

func (s *Server) handleExpenseBreakdown(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	start, err := queryDate(r, "startDate", monthStart)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	end, err := queryDate(r, "endDate", monthStart.AddDate(0, 1, 0))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	limit := queryInt(r, "limit", 10)

	breakdown, err := s.storage.GetExpenseBreakdown(r.Context(), userID(r), start, end, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if breakdown == nil {
		breakdown = []storage.CategoryBreakdown{}
	}
	s.respond(w, http.StatusOK, "", breakdown)
}
