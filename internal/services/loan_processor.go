package services

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// LoanProcessor walks every active loan whose due date has passed and applies
// the scheduled EMI payment. A loan already paid this calendar month is
// skipped, so rerunning the batch is safe.
type LoanProcessor struct {
	storage *storage.Repository
	ledger  *LoanLedger
	logger  *log.Logger
}

func NewLoanProcessor(storage *storage.Repository, ledger *LoanLedger, logger *log.Logger) *LoanProcessor {
	return &LoanProcessor{
		storage: storage,
		ledger:  ledger,
		logger:  logger.WithComponent(log.ComponentScheduler),
	}
}

// ProcessDuePayments applies one EMI payment to each due loan and returns the
// number of payments made. Failures on one loan do not stop the batch.
func (p *LoanProcessor) ProcessDuePayments(ctx context.Context, now time.Time) (int, error) {
	loans, err := p.storage.ListDueLoans(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list due loans: %w", err)
	}

	p.logger.InfoContext(ctx, "processing due loan payments",
		"due_count", len(loans), "as_of", now.Format("2006-01-02"))

	processed := 0
	for _, loan := range loans {
		paid, err := p.paidThisMonth(ctx, loan.UserID, loan.Name, now)
		if err != nil {
			p.logger.ErrorContext(ctx, "duplicate check failed",
				log.FieldLoanID, loan.ID, log.FieldError, err)
			continue
		}
		if paid {
			p.logger.InfoContext(ctx, "loan already paid this month, skipping",
				log.FieldLoanID, loan.ID)
			continue
		}

		if _, err := p.ledger.ApplyPayment(ctx, loan.UserID, loan.ID, nil); err != nil {
			p.logger.ErrorContext(ctx, "automatic loan payment failed",
				log.FieldLoanID, loan.ID, log.FieldError, err)
			continue
		}
		processed++
	}

	p.logger.InfoContext(ctx, "loan payment batch done",
		"processed", processed, "due_count", len(loans))
	return processed, nil
}

func (p *LoanProcessor) paidThisMonth(ctx context.Context, userID int64, loanName string, now time.Time) (bool, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)
	return p.storage.HasExpenseLike(ctx, userID, fmt.Sprintf("EMI Payment - %s", loanName), monthStart, monthEnd)
}
