package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/finance"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// ExpensePayer settles recurring monthly expenses: it records the expense
// transaction, stamps the payment date and rolls the due date one month
// forward anchored on the configured due day.
type ExpensePayer struct {
	storage *storage.Repository
	logger  *log.Logger
	now     func() time.Time
}

func NewExpensePayer(storage *storage.Repository, logger *log.Logger) *ExpensePayer {
	return &ExpensePayer{
		storage: storage,
		logger:  logger.WithComponent(log.ComponentLedger),
		now:     time.Now,
	}
}

// PayResult describes one settled recurring expense.
type PayResult struct {
	Expense     *core.MonthlyExpense `json:"expense"`
	Transaction *core.Transaction    `json:"transaction"`
}

// Pay settles a recurring expense now: a transaction is written under the
// expense's category and the due date advances to the next month.
func (s *ExpensePayer) Pay(ctx context.Context, userID, expenseID int64) (*PayResult, error) {
	exp, err := s.storage.GetMonthlyExpense(ctx, userID, expenseID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	exp.LastPaidDate = &now
	exp.NextDueDate = finance.AdvanceDueDate(exp.NextDueDate, exp.DueDay)
	if err := s.storage.UpdateMonthlyExpense(ctx, exp); err != nil {
		return nil, fmt.Errorf("persist payment: %w", err)
	}

	tx, err := s.recordExpenseTransaction(ctx, exp, now)
	if err != nil {
		return nil, fmt.Errorf("record expense transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "monthly expense paid",
		log.FieldExpenseID, exp.ID,
		log.FieldUserID, exp.UserID,
		log.FieldAmount, exp.Amount.String(),
		"next_due", exp.NextDueDate.Format("2006-01-02"))

	return &PayResult{Expense: exp, Transaction: tx}, nil
}

// MarkPaid stamps the expense as settled without writing a transaction, for
// payments made outside the tracker.
func (s *ExpensePayer) MarkPaid(ctx context.Context, userID, expenseID int64) (*core.MonthlyExpense, error) {
	exp, err := s.storage.GetMonthlyExpense(ctx, userID, expenseID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	exp.LastPaidDate = &now
	exp.NextDueDate = finance.AdvanceDueDate(exp.NextDueDate, exp.DueDay)
	if err := s.storage.UpdateMonthlyExpense(ctx, exp); err != nil {
		return nil, err
	}
	return exp, nil
}

// MarkUnpaid clears the payment stamp and pulls the due date back to the
// nearest upcoming occurrence of the due day.
func (s *ExpensePayer) MarkUnpaid(ctx context.Context, userID, expenseID int64) (*core.MonthlyExpense, error) {
	exp, err := s.storage.GetMonthlyExpense(ctx, userID, expenseID)
	if err != nil {
		return nil, err
	}
	exp.LastPaidDate = nil
	exp.NextDueDate = finance.NextDueDate(exp.DueDay, s.now().UTC())
	if err := s.storage.UpdateMonthlyExpense(ctx, exp); err != nil {
		return nil, err
	}
	return exp, nil
}

func (s *ExpensePayer) recordExpenseTransaction(ctx context.Context, exp *core.MonthlyExpense, now time.Time) (*core.Transaction, error) {
	cat, err := s.storage.FindOrCreateCategory(ctx, exp.UserID,
		categoryDisplayName(exp.Category), core.Expense,
		categoryIcon(exp.Category), categoryColor(exp.Category))
	if err != nil {
		return nil, err
	}
	tx := &core.Transaction{
		UserID:      exp.UserID,
		Amount:      exp.Amount,
		Type:        core.Expense,
		CategoryID:  cat.ID,
		Description: exp.Name,
		Date:        now,
		Tags:        append(append([]string{}, exp.Tags...), "monthly", "automatic"),
	}
	if err := s.storage.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func categoryDisplayName(category string) string {
	switch category {
	case "home":
		return "Home & Rent"
	case "mobile":
		return "Mobile & Phone"
	case "internet":
		return "Internet & Utilities"
	case "gym":
		return "Gym & Fitness"
	default:
		return "Monthly - " + capitalize(category)
	}
}

func categoryColor(category string) string {
	switch category {
	case "home":
		return "#8b5cf6"
	case "mobile":
		return "#3b82f6"
	case "internet":
		return "#06b6d4"
	case "gym":
		return "#10b981"
	default:
		return "#6b7280"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func categoryIcon(category string) string {
	switch category {
	case "home":
		return "home"
	case "mobile":
		return "smartphone"
	case "internet":
		return "wifi"
	case "gym":
		return "dumbbell"
	default:
		return "calendar"
	}
}

// AutoDeductProcessor settles every due auto-deduct recurring expense.
type AutoDeductProcessor struct {
	storage *storage.Repository
	payer   *ExpensePayer
	logger  *log.Logger
}

func NewAutoDeductProcessor(storage *storage.Repository, payer *ExpensePayer, logger *log.Logger) *AutoDeductProcessor {
	return &AutoDeductProcessor{
		storage: storage,
		payer:   payer,
		logger:  logger.WithComponent(log.ComponentScheduler),
	}
}

// ProcessDueExpenses pays all active auto-deduct expenses that are due and
// returns how many were settled. Failures on one expense do not stop the rest.
func (p *AutoDeductProcessor) ProcessDueExpenses(ctx context.Context, now time.Time) (int, error) {
	due, err := p.storage.ListDueAutoDeduct(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list due auto-deduct: %w", err)
	}

	p.logger.InfoContext(ctx, "processing auto-deduct expenses",
		"due_count", len(due), "as_of", now.Format("2006-01-02"))

	processed := 0
	for _, exp := range due {
		if _, err := p.payer.Pay(ctx, exp.UserID, exp.ID); err != nil {
			p.logger.ErrorContext(ctx, "auto-deduct payment failed",
				log.FieldExpenseID, exp.ID, log.FieldError, err)
			continue
		}
		processed++
	}

	p.logger.InfoContext(ctx, "auto-deduct batch done",
		"processed", processed, "due_count", len(due))
	return processed, nil
}
