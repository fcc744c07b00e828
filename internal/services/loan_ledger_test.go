package services

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

func newTestRepo(t *testing.T) *storage.Repository {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testLogger() *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = slog.LevelError
	return log.New(cfg)
}

func seedUser(t *testing.T, repo *storage.Repository) int64 {
	t.Helper()
	u := &core.User{Name: "Test", Email: "test@example.com", Password: "hash"}
	if err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u.ID
}

func mustMoney(t *testing.T, s string) core.Money {
	t.Helper()
	m, err := core.ParseMoney(s)
	if err != nil {
		t.Fatalf("parse money %q: %v", s, err)
	}
	return m
}

func seedLoan(t *testing.T, repo *storage.Repository, userID int64, principal string, rate float64, months int) *core.Loan {
	t.Helper()
	start := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	due := start.AddDate(0, 1, 0)
	l := &core.Loan{
		UserID:          userID,
		Name:            "Car Loan",
		PrincipalAmount: mustMoney(t, principal),
		CurrentBalance:  mustMoney(t, principal),
		InterestRate:    rate,
		StartDate:       start,
		EndDate:         start.AddDate(0, months, 0),
		Status:          core.LoanActive,
		NextDueDate:     &due,
	}
	if err := repo.CreateLoan(context.Background(), l); err != nil {
		t.Fatalf("seed loan: %v", err)
	}
	return l
}

func TestApplyPaymentDefaultsToEMI(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := seedUser(t, repo)
	loan := seedLoan(t, repo, userID, "1200.00", 0, 12)

	ledger := NewLoanLedger(repo, testLogger())
	res, err := ledger.ApplyPayment(ctx, userID, loan.ID, nil)
	if err != nil {
		t.Fatalf("apply payment: %v", err)
	}

	// 1200 over roughly 12 months at 0% pays down in equal installments.
	if res.AmountPaid.IsZero() || res.Loan.CurrentBalance.Equal(loan.PrincipalAmount) {
		t.Fatalf("payment did not reduce balance: %+v", res)
	}
	if res.Loan.PaymentsMade != 1 {
		t.Fatalf("payments made = %d, want 1", res.Loan.PaymentsMade)
	}
	if res.Loan.NextDueDate == nil || !res.Loan.NextDueDate.After(*loan.NextDueDate) {
		t.Fatalf("next due did not advance: %v", res.Loan.NextDueDate)
	}

	if res.Transaction == nil || res.Transaction.Description != "EMI Payment - Car Loan" {
		t.Fatalf("unexpected transaction: %+v", res.Transaction)
	}
	if res.Transaction.Type != core.Expense || !res.Transaction.Amount.Equal(res.AmountPaid) {
		t.Fatalf("unexpected transaction amount/type: %+v", res.Transaction)
	}
	cat, err := repo.GetCategory(ctx, userID, res.Transaction.CategoryID)
	if err != nil || cat.Name != "Loan & EMI" {
		t.Fatalf("unexpected category: %+v err=%v", cat, err)
	}
}

func TestApplyPaymentSequenceTracksBalance(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := seedUser(t, repo)
	loan := seedLoan(t, repo, userID, "2277.07", 0, 24)

	ledger := NewLoanLedger(repo, testLogger())
	payment := mustMoney(t, "94.89")
	var res *PaymentResult
	for i := 0; i < 6; i++ {
		var err error
		res, err = ledger.ApplyPayment(ctx, userID, loan.ID, &payment)
		if err != nil {
			t.Fatalf("payment %d: %v", i+1, err)
		}
		if !res.AmountPaid.Equal(payment) {
			t.Fatalf("payment %d paid %s, want %s", i+1, res.AmountPaid, payment)
		}
	}

	if got := res.Loan.CurrentBalance.String(); got != "1707.73" {
		t.Fatalf("balance after 6 payments = %s, want 1707.73", got)
	}
	if res.Loan.Status != core.LoanActive {
		t.Fatalf("status = %s, want active", res.Loan.Status)
	}
	if res.Loan.PaymentsMade != 6 {
		t.Fatalf("payments made = %d, want 6", res.Loan.PaymentsMade)
	}

	stored, err := repo.GetLoan(ctx, userID, loan.ID)
	if err != nil {
		t.Fatalf("reload loan: %v", err)
	}
	if got := stored.CurrentBalance.String(); got != "1707.73" {
		t.Fatalf("stored balance = %s, want 1707.73", got)
	}
}

func TestApplyPaymentClampsAndCompletes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := seedUser(t, repo)
	loan := seedLoan(t, repo, userID, "100.00", 0, 12)

	ledger := NewLoanLedger(repo, testLogger())
	over := mustMoney(t, "250.00")
	res, err := ledger.ApplyPayment(ctx, userID, loan.ID, &over)
	if err != nil {
		t.Fatalf("apply payment: %v", err)
	}
	if res.AmountPaid.String() != "100.00" {
		t.Fatalf("paid %s, want clamped 100.00", res.AmountPaid)
	}
	if !res.Loan.CurrentBalance.IsZero() || res.Loan.Status != core.LoanCompleted {
		t.Fatalf("loan not completed: %+v", res.Loan)
	}
	if res.Loan.NextDueDate != nil {
		t.Fatalf("completed loan kept a due date: %v", res.Loan.NextDueDate)
	}

	// Further payments on a completed loan are rejected.
	if _, err := ledger.ApplyPayment(ctx, userID, loan.ID, nil); !errors.Is(err, core.ErrLoanNotActive) {
		t.Fatalf("expected ErrLoanNotActive, got %v", err)
	}
}

func TestApplyPaymentUnknownLoan(t *testing.T) {
	repo := newTestRepo(t)
	userID := seedUser(t, repo)

	ledger := NewLoanLedger(repo, testLogger())
	if _, err := ledger.ApplyPayment(context.Background(), userID, 999, nil); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScheduleMatchesLoanTerm(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := seedUser(t, repo)
	loan := seedLoan(t, repo, userID, "1200.00", 0, 12)

	ledger := NewLoanLedger(repo, testLogger())
	sched, err := ledger.Schedule(ctx, userID, loan.ID)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if sched.Months != len(sched.Entries) || sched.Months == 0 {
		t.Fatalf("inconsistent schedule: months=%d entries=%d", sched.Months, len(sched.Entries))
	}
	last := sched.Entries[len(sched.Entries)-1]
	if !last.Balance.IsZero() {
		t.Fatalf("final balance = %s, want 0.00", last.Balance)
	}
}

func TestProcessDuePayments(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := seedUser(t, repo)
	loan := seedLoan(t, repo, userID, "1200.00", 0, 12)

	now := time.Date(2026, 2, 20, 8, 0, 0, 0, time.UTC)
	ledger := NewLoanLedger(repo, testLogger())
	ledger.now = func() time.Time { return now }
	processor := NewLoanProcessor(repo, ledger, testLogger())

	n, err := processor.ProcessDuePayments(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("first run: n=%d err=%v", n, err)
	}
	got, err := repo.GetLoan(ctx, userID, loan.ID)
	if err != nil || got.PaymentsMade != 1 {
		t.Fatalf("payment not persisted: %+v err=%v", got, err)
	}
	if got.NextDueDate == nil || got.NextDueDate.Month() != time.March {
		t.Fatalf("next due not advanced: %v", got.NextDueDate)
	}
}

func TestProcessDuePaymentsSkipsPaidMonth(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := seedUser(t, repo)
	loan := seedLoan(t, repo, userID, "1200.00", 0, 12)

	now := time.Date(2026, 2, 20, 8, 0, 0, 0, time.UTC)
	ledger := NewLoanLedger(repo, testLogger())
	ledger.now = func() time.Time { return now }
	processor := NewLoanProcessor(repo, ledger, testLogger())

	// A payment was already recorded this month by hand, so the batch must
	// leave the loan alone even though its due date has passed.
	cat, err := repo.FindOrCreateCategory(ctx, userID, "Loan & EMI", core.Expense, "credit-card", "#ef4444")
	if err != nil {
		t.Fatalf("category: %v", err)
	}
	tx := &core.Transaction{
		UserID: userID, Amount: mustMoney(t, "100.00"), Type: core.Expense,
		CategoryID: cat.ID, Description: "EMI Payment - Car Loan",
		Date: time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC),
	}
	if err := repo.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("seed transaction: %v", err)
	}

	n, err := processor.ProcessDuePayments(ctx, now)
	if err != nil || n != 0 {
		t.Fatalf("expected skip: n=%d err=%v", n, err)
	}
	got, err := repo.GetLoan(ctx, userID, loan.ID)
	if err != nil || got.PaymentsMade != 0 {
		t.Fatalf("loan was paid despite guard: %+v err=%v", got, err)
	}
}
