package services

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/finance"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

const (
	loanCategoryName  = "Loan & EMI"
	loanCategoryIcon  = "credit-card"
	loanCategoryColor = "#ef4444"
)

// LoanLedger applies payments to loans and records the matching expense
// transaction. A payment reduces the balance by at most the outstanding
// amount; paying the balance down to zero completes the loan.
type LoanLedger struct {
	storage *storage.Repository
	logger  *log.Logger
	now     func() time.Time
}

func NewLoanLedger(storage *storage.Repository, logger *log.Logger) *LoanLedger {
	return &LoanLedger{
		storage: storage,
		logger:  logger.WithComponent(log.ComponentLedger),
		now:     time.Now,
	}
}

// PaymentResult describes one applied loan payment.
type PaymentResult struct {
	Loan        *core.Loan        `json:"loan"`
	AmountPaid  core.Money        `json:"amountPaid"`
	Transaction *core.Transaction `json:"transaction"`
}

// ApplyPayment pays one installment on a loan. When override is nil the
// amount defaults to the loan's EMI. The paid amount is clamped to the
// outstanding balance, so the final payment never overshoots.
func (s *LoanLedger) ApplyPayment(ctx context.Context, userID, loanID int64, override *core.Money) (*PaymentResult, error) {
	loan, err := s.storage.GetLoan(ctx, userID, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != core.LoanActive {
		return nil, core.ErrLoanNotActive
	}

	amount := s.paymentAmount(loan, override)
	applied := amount.Min(loan.CurrentBalance)

	loan.CurrentBalance = loan.CurrentBalance.Sub(applied)
	if loan.CurrentBalance.IsNegative() || loan.CurrentBalance.IsZero() {
		loan.CurrentBalance = core.MoneyFromCents(0)
		loan.Status = core.LoanCompleted
		loan.NextDueDate = nil
	} else {
		next := s.nextDue(loan)
		loan.NextDueDate = &next
	}
	loan.PaymentsMade++

	if err := s.storage.UpdateLoan(ctx, loan); err != nil {
		return nil, fmt.Errorf("persist payment: %w", err)
	}

	tx, err := s.recordPaymentTransaction(ctx, loan, applied)
	if err != nil {
		// The balance update already landed; surface the bookkeeping
		// failure instead of rolling back the payment.
		s.logger.ErrorContext(ctx, "loan payment transaction failed",
			log.FieldLoanID, loan.ID, log.FieldError, err)
		return nil, fmt.Errorf("record payment transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "loan payment applied",
		log.FieldLoanID, loan.ID,
		log.FieldUserID, loan.UserID,
		log.FieldAmount, applied.String(),
		"balance", loan.CurrentBalance.String(),
		"status", string(loan.Status))

	return &PaymentResult{Loan: loan, AmountPaid: applied, Transaction: tx}, nil
}

func (s *LoanLedger) paymentAmount(loan *core.Loan, override *core.Money) core.Money {
	if override != nil && !override.IsZero() {
		return *override
	}
	months := finance.TermMonths(loan.StartDate, loan.EndDate)
	return finance.EMI(loan.PrincipalAmount, loan.InterestRate, months)
}

func (s *LoanLedger) nextDue(loan *core.Loan) time.Time {
	if loan.NextDueDate != nil {
		return finance.AdvanceDueDate(*loan.NextDueDate, loan.NextDueDate.Day())
	}
	return finance.AddMonthsClamped(s.now().UTC(), 1)
}

func (s *LoanLedger) recordPaymentTransaction(ctx context.Context, loan *core.Loan, amount core.Money) (*core.Transaction, error) {
	cat, err := s.storage.FindOrCreateCategory(ctx, loan.UserID, loanCategoryName, core.Expense, loanCategoryIcon, loanCategoryColor)
	if err != nil {
		return nil, err
	}
	tx := &core.Transaction{
		UserID:      loan.UserID,
		Amount:      amount,
		Type:        core.Expense,
		CategoryID:  cat.ID,
		Description: fmt.Sprintf("EMI Payment - %s", loan.Name),
		Date:        s.now().UTC(),
		Tags:        []string{"loan", "emi", "automatic"},
	}
	if err := s.storage.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// Schedule returns the loan's full amortization table.
func (s *LoanLedger) Schedule(ctx context.Context, userID, loanID int64) (*finance.Schedule, error) {
	loan, err := s.storage.GetLoan(ctx, userID, loanID)
	if err != nil {
		return nil, err
	}
	months := finance.TermMonths(loan.StartDate, loan.EndDate)
	sched := finance.BuildSchedule(loan.PrincipalAmount, loan.InterestRate, months, loan.StartDate)
	return &sched, nil
}
