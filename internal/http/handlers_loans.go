package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/finance"
)

type loanRequest struct {
	Name            string      `json:"name"`
	PrincipalAmount core.Money  `json:"principalAmount"`
	CurrentBalance  *core.Money `json:"currentBalance"`
	InterestRate    float64     `json:"interestRate"`
	StartDate       string      `json:"startDate"`
	EndDate         string      `json:"endDate"`
	NextDueDate     string      `json:"nextDueDate"`
}

func (s *Server) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	loan := &core.Loan{
		UserID:          userID(r),
		Name:            req.Name,
		PrincipalAmount: req.PrincipalAmount,
		CurrentBalance:  req.PrincipalAmount,
		InterestRate:    req.InterestRate,
		StartDate:       start,
		EndDate:         end,
		Status:          core.LoanActive,
	}
	if req.CurrentBalance != nil {
		loan.CurrentBalance = *req.CurrentBalance
	}
	if req.NextDueDate != "" {
		due, err := parseDate(req.NextDueDate)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		loan.NextDueDate = &due
	} else {
		due := finance.AddMonthsClamped(start, 1)
		loan.NextDueDate = &due
	}
	if err := loan.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.storage.CreateLoan(r.Context(), loan); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, "loan created", loanView(loan))
}

func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := s.storage.ListLoans(r.Context(), userID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	views := make([]map[string]any, 0, len(loans))
	for i := range loans {
		views = append(views, loanView(&loans[i]))
	}
	s.respond(w, http.StatusOK, "", views)
}

func (s *Server) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	loan, err := s.storage.GetLoan(r.Context(), userID(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "", loanView(loan))
}

func (s *Server) handleUpdateLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	loan, err := s.storage.GetLoan(r.Context(), userID(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req loanRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Name != "" {
		loan.Name = req.Name
	}
	if !req.PrincipalAmount.IsZero() {
		loan.PrincipalAmount = req.PrincipalAmount
	}
	if req.CurrentBalance != nil {
		loan.CurrentBalance = *req.CurrentBalance
	}
	if req.InterestRate != 0 {
		loan.InterestRate = req.InterestRate
	}
	if req.StartDate != "" {
		if loan.StartDate, err = parseDate(req.StartDate); err != nil {
			s.respondError(w, r, err)
			return
		}
	}
	if req.EndDate != "" {
		if loan.EndDate, err = parseDate(req.EndDate); err != nil {
			s.respondError(w, r, err)
			return
		}
	}
	if req.NextDueDate != "" {
		due, err := parseDate(req.NextDueDate)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		loan.NextDueDate = &due
	}
	if err := loan.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.storage.UpdateLoan(r.Context(), loan); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "loan updated", loanView(loan))
}

func (s *Server) handleDeleteLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.storage.DeleteLoan(r.Context(), userID(r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "loan deleted", nil)
}

func (s *Server) handleLoanSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	sched, err := s.ledger.Schedule(r.Context(), userID(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "", sched)
}

type loanPaymentRequest struct {
	Amount *core.Money `json:"amount"`
}

func (s *Server) handleLoanPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req loanPaymentRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			s.respondError(w, r, err)
			return
		}
	}
	if req.Amount != nil && req.Amount.IsNegative() {
		s.respondError(w, r, core.ErrInvalidAmount)
		return
	}

	result, err := s.ledger.ApplyPayment(r.Context(), userID(r), id, req.Amount)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "payment applied", map[string]any{
		"loan":        loanView(result.Loan),
		"amountPaid":  result.AmountPaid,
		"transaction": result.Transaction,
	})
}

// loanView decorates a loan with its derived EMI and term.
func loanView(loan *core.Loan) map[string]any {
	months := finance.TermMonths(loan.StartDate, loan.EndDate)
	return map[string]any{
		"loan":   loan,
		"emi":    finance.EMI(loan.PrincipalAmount, loan.InterestRate, months),
		"months": months,
	}
}
