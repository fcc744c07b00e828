package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func seedMonthlyExpense(t *testing.T, repo *storage.Repository, userID int64, dueDay int, nextDue time.Time) *core.MonthlyExpense {
	t.Helper()
	e := &core.MonthlyExpense{
		UserID:      userID,
		Name:        "Gym Membership",
		Category:    "gym",
		Amount:      mustMoney(t, "45.00"),
		DueDay:      dueDay,
		IsActive:    true,
		NextDueDate: nextDue,
		AutoDeduct:  true,
		Tags:        []string{"fitness"},
	}
	if err := repo.CreateMonthlyExpense(context.Background(), e); err != nil {
		t.Fatalf("seed expense: %v", err)
	}
	return e
}

func TestPayRecordsTransactionAndAdvancesDueDate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := seedUser(t, repo)
	exp := seedMonthlyExpense(t, repo, userID, 15, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC))

	now := time.Date(2026, 2, 15, 9, 0, 0, 0, time.UTC)
	payer := NewExpensePayer(repo, testLogger())
	payer.now = func() time.Time { return now }

	res, err := payer.Pay(ctx, userID, exp.ID)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if res.Expense.LastPaidDate == nil || !res.Expense.LastPaidDate.Equal(now) {
		t.Fatalf("last paid not stamped: %v", res.Expense.LastPaidDate)
	}
	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	if !res.Expense.NextDueDate.Equal(want) {
		t.Fatalf("next due = %v, want %v", res.Expense.NextDueDate, want)
	}

	if res.Transaction.Description != "Gym Membership" || !res.Transaction.Amount.Equal(exp.Amount) {
		t.Fatalf("unexpected transaction: %+v", res.Transaction)
	}
	wantTags := []string{"fitness", "monthly", "automatic"}
	if len(res.Transaction.Tags) != len(wantTags) {
		t.Fatalf("tags = %v, want %v", res.Transaction.Tags, wantTags)
	}
	for i, tag := range wantTags {
		if res.Transaction.Tags[i] != tag {
			t.Fatalf("tags = %v, want %v", res.Transaction.Tags, wantTags)
		}
	}
	cat, err := repo.GetCategory(ctx, userID, res.Transaction.CategoryID)
	if err != nil || cat.Name != "Gym & Fitness" {
		t.Fatalf("unexpected category: %+v err=%v", cat, err)
	}
}

func TestPayFailureWritesNothing(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := seedUser(t, repo)
	exp := seedMonthlyExpense(t, repo, userID, 15, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC))

	payer := NewExpensePayer(repo, testLogger())
	if _, err := payer.Pay(ctx, userID, exp.ID+1); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("pay unknown expense: err = %v, want not found", err)
	}

	// A failed settlement leaves no transaction and no expense mutation.
	_, total, err := repo.ListTransactions(ctx, userID, storage.TransactionFilter{})
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if total != 0 {
		t.Fatalf("transactions = %d, want 0", total)
	}
	stored, err := repo.GetMonthlyExpense(ctx, userID, exp.ID)
	if err != nil {
		t.Fatalf("reload expense: %v", err)
	}
	if stored.LastPaidDate != nil || !stored.NextDueDate.Equal(exp.NextDueDate) {
		t.Fatalf("expense mutated on failed pay: %+v", stored)
	}
}

func TestPayClampsDueDayAtMonthEnd(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := seedUser(t, repo)
	// Due day 31 lands on Jan 31; the next occurrence clamps to Feb 28.
	exp := seedMonthlyExpense(t, repo, userID, 31, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC))

	payer := NewExpensePayer(repo, testLogger())
	payer.now = func() time.Time { return time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC) }

	res, err := payer.Pay(ctx, userID, exp.ID)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	want := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	if !res.Expense.NextDueDate.Equal(want) {
		t.Fatalf("next due = %v, want %v", res.Expense.NextDueDate, want)
	}
}

func TestMarkPaidAndUnpaid(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := seedUser(t, repo)
	exp := seedMonthlyExpense(t, repo, userID, 15, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC))

	now := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)
	payer := NewExpensePayer(repo, testLogger())
	payer.now = func() time.Time { return now }

	paid, err := payer.MarkPaid(ctx, userID, exp.ID)
	if err != nil || paid.LastPaidDate == nil {
		t.Fatalf("mark paid: %+v err=%v", paid, err)
	}
	if paid.NextDueDate.Month() != time.March {
		t.Fatalf("next due not advanced: %v", paid.NextDueDate)
	}
	// No transaction is written for an out-of-band payment.
	txs, total, err := repo.ListTransactions(ctx, userID, storage.TransactionFilter{})
	if err != nil || total != 0 || len(txs) != 0 {
		t.Fatalf("unexpected transactions: %v total=%d err=%v", txs, total, err)
	}

	unpaid, err := payer.MarkUnpaid(ctx, userID, exp.ID)
	if err != nil || unpaid.LastPaidDate != nil {
		t.Fatalf("mark unpaid: %+v err=%v", unpaid, err)
	}
	// Feb 16 is past the 15th, so the nearest occurrence is March 15.
	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	if !unpaid.NextDueDate.Equal(want) {
		t.Fatalf("next due = %v, want %v", unpaid.NextDueDate, want)
	}
}

func TestAutoDeductProcessor(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := seedUser(t, repo)

	now := time.Date(2026, 2, 16, 2, 0, 0, 0, time.UTC)
	due := seedMonthlyExpense(t, repo, userID, 15, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC))
	notDue := seedMonthlyExpense(t, repo, userID, 25, time.Date(2026, 2, 25, 0, 0, 0, 0, time.UTC))

	payer := NewExpensePayer(repo, testLogger())
	payer.now = func() time.Time { return now }
	processor := NewAutoDeductProcessor(repo, payer, testLogger())

	n, err := processor.ProcessDueExpenses(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("process: n=%d err=%v", n, err)
	}

	paid, _ := repo.GetMonthlyExpense(ctx, userID, due.ID)
	if paid.LastPaidDate == nil || paid.NextDueDate.Month() != time.March {
		t.Fatalf("due expense not settled: %+v", paid)
	}
	untouched, _ := repo.GetMonthlyExpense(ctx, userID, notDue.ID)
	if untouched.LastPaidDate != nil {
		t.Fatalf("not-due expense was settled: %+v", untouched)
	}

	// Settled expenses roll forward, so an immediate rerun does nothing.
	n, err = processor.ProcessDueExpenses(ctx, now)
	if err != nil || n != 0 {
		t.Fatalf("rerun: n=%d err=%v", n, err)
	}
}
