package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

func (r *Repository) CreateLoan(ctx context.Context, l *core.Loan) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO loans (user_id, name, principal_cents, balance_cents, interest_rate, start_date, end_date, status, next_due_date, payments_made)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.UserID, l.Name, l.PrincipalAmount.Cents(), l.CurrentBalance.Cents(), l.InterestRate,
		formatTime(l.StartDate), formatTime(l.EndDate), string(l.Status), formatNullTime(l.NextDueDate), l.PaymentsMade)
	if err != nil {
		return fmt.Errorf("insert loan: %w", err)
	}
	l.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("loan id: %w", err)
	}
	return nil
}

func (r *Repository) GetLoan(ctx context.Context, userID, id int64) (*core.Loan, error) {
	row := r.db.QueryRowContext(ctx, loanSelect+` WHERE id = ? AND user_id = ?`, id, userID)
	l, err := scanLoan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	return l, err
}

func (r *Repository) ListLoans(ctx context.Context, userID int64) ([]core.Loan, error) {
	rows, err := r.db.QueryContext(ctx, loanSelect+` WHERE user_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	var loans []core.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, *l)
	}
	return loans, rows.Err()
}

// ListDueLoans returns every active loan whose next due date is on or before
// the given moment, across all users. Used by the daily batch processor.
func (r *Repository) ListDueLoans(ctx context.Context, now time.Time) ([]core.Loan, error) {
	rows, err := r.db.QueryContext(ctx,
		loanSelect+` WHERE status = 'active' AND next_due_date IS NOT NULL AND next_due_date <= ?`,
		formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("list due loans: %w", err)
	}
	defer rows.Close()

	var loans []core.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, *l)
	}
	return loans, rows.Err()
}

func (r *Repository) UpdateLoan(ctx context.Context, l *core.Loan) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE loans SET name = ?, principal_cents = ?, balance_cents = ?, interest_rate = ?,
		        start_date = ?, end_date = ?, status = ?, next_due_date = ?, payments_made = ?
		 WHERE id = ? AND user_id = ?`,
		l.Name, l.PrincipalAmount.Cents(), l.CurrentBalance.Cents(), l.InterestRate,
		formatTime(l.StartDate), formatTime(l.EndDate), string(l.Status), formatNullTime(l.NextDueDate), l.PaymentsMade,
		l.ID, l.UserID)
	if err != nil {
		return fmt.Errorf("update loan: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteLoan(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM loans WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}
	return requireRow(res)
}

const loanSelect = `SELECT id, user_id, name, principal_cents, balance_cents, interest_rate,
       start_date, end_date, status, next_due_date, payments_made FROM loans`

func scanLoan(row rowScanner) (*core.Loan, error) {
	var l core.Loan
	var principalCents, balanceCents int64
	var start, end string
	var nextDue sql.NullString
	err := row.Scan(&l.ID, &l.UserID, &l.Name, &principalCents, &balanceCents, &l.InterestRate,
		&start, &end, &l.Status, &nextDue, &l.PaymentsMade)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan loan: %w", err)
	}
	l.PrincipalAmount = core.MoneyFromCents(principalCents)
	l.CurrentBalance = core.MoneyFromCents(balanceCents)
	if l.StartDate, err = parseTime(start); err != nil {
		return nil, err
	}
	if l.EndDate, err = parseTime(end); err != nil {
		return nil, err
	}
	if l.NextDueDate, err = parseNullTime(nextDue); err != nil {
		return nil, err
	}
	return &l, nil
}
