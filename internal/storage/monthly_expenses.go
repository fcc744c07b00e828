package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

func (r *Repository) CreateMonthlyExpense(ctx context.Context, e *core.MonthlyExpense) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO monthly_expenses (user_id, name, category, amount_cents, due_day, description,
		        is_active, last_paid_date, next_due_date, auto_deduct, tags)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Name, e.Category, e.Amount.Cents(), e.DueDay, e.Description,
		e.IsActive, formatNullTime(e.LastPaidDate), formatTime(e.NextDueDate), e.AutoDeduct, joinTags(e.Tags))
	if err != nil {
		return fmt.Errorf("insert monthly expense: %w", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("monthly expense id: %w", err)
	}
	return nil
}

func (r *Repository) GetMonthlyExpense(ctx context.Context, userID, id int64) (*core.MonthlyExpense, error) {
	row := r.db.QueryRowContext(ctx, monthlyExpenseSelect+` WHERE id = ? AND user_id = ?`, id, userID)
	e, err := scanMonthlyExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	return e, err
}

// ListMonthlyExpenses returns the user's active recurring expenses, optionally
// filtered by category, ordered by upcoming due date.
func (r *Repository) ListMonthlyExpenses(ctx context.Context, userID int64, category string) ([]core.MonthlyExpense, error) {
	query := monthlyExpenseSelect + ` WHERE user_id = ? AND is_active = 1`
	args := []any{userID}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY next_due_date ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list monthly expenses: %w", err)
	}
	defer rows.Close()
	return collectMonthlyExpenses(rows)
}

// ListDueAutoDeduct returns active auto-deduct expenses due on or before the
// given moment, across all users.
func (r *Repository) ListDueAutoDeduct(ctx context.Context, now time.Time) ([]core.MonthlyExpense, error) {
	rows, err := r.db.QueryContext(ctx,
		monthlyExpenseSelect+` WHERE is_active = 1 AND auto_deduct = 1 AND next_due_date <= ?`,
		formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("list due auto-deduct: %w", err)
	}
	defer rows.Close()
	return collectMonthlyExpenses(rows)
}

func (r *Repository) UpdateMonthlyExpense(ctx context.Context, e *core.MonthlyExpense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE monthly_expenses SET name = ?, category = ?, amount_cents = ?, due_day = ?, description = ?,
		        is_active = ?, last_paid_date = ?, next_due_date = ?, auto_deduct = ?, tags = ?
		 WHERE id = ? AND user_id = ?`,
		e.Name, e.Category, e.Amount.Cents(), e.DueDay, e.Description,
		e.IsActive, formatNullTime(e.LastPaidDate), formatTime(e.NextDueDate), e.AutoDeduct, joinTags(e.Tags),
		e.ID, e.UserID)
	if err != nil {
		return fmt.Errorf("update monthly expense: %w", err)
	}
	return requireRow(res)
}

// DeactivateMonthlyExpense is a soft delete: the row is kept for history but
// excluded from listings and from the auto-deduct processor.
func (r *Repository) DeactivateMonthlyExpense(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE monthly_expenses SET is_active = 0 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deactivate monthly expense: %w", err)
	}
	return requireRow(res)
}

// MonthlyExpenseStats summarizes a user's active recurring expenses.
type MonthlyExpenseStats struct {
	TotalMonthly core.Money         `json:"totalMonthly"`
	Count        int                `json:"count"`
	ByCategory   []CategoryMonthly  `json:"byCategory"`
	UpcomingWeek []core.MonthlyExpense `json:"upcomingWeek"`
}

type CategoryMonthly struct {
	Category string     `json:"category"`
	Total    core.Money `json:"total"`
	Count    int        `json:"count"`
}

func (r *Repository) GetMonthlyExpenseStats(ctx context.Context, userID int64, now time.Time) (*MonthlyExpenseStats, error) {
	stats := &MonthlyExpenseStats{}

	rows, err := r.db.QueryContext(ctx,
		`SELECT category, SUM(amount_cents), COUNT(*) FROM monthly_expenses
		 WHERE user_id = ? AND is_active = 1 GROUP BY category ORDER BY SUM(amount_cents) DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("monthly expense stats: %w", err)
	}
	defer rows.Close()

	stats.ByCategory = []CategoryMonthly{}
	for rows.Next() {
		var c CategoryMonthly
		var cents int64
		if err := rows.Scan(&c.Category, &cents, &c.Count); err != nil {
			return nil, fmt.Errorf("scan monthly stats: %w", err)
		}
		c.Total = core.MoneyFromCents(cents)
		stats.TotalMonthly = stats.TotalMonthly.Add(c.Total)
		stats.Count += c.Count
		stats.ByCategory = append(stats.ByCategory, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	weekAhead := now.AddDate(0, 0, 7)
	upRows, err := r.db.QueryContext(ctx,
		monthlyExpenseSelect+` WHERE user_id = ? AND is_active = 1 AND next_due_date <= ? ORDER BY next_due_date ASC`,
		userID, formatTime(weekAhead))
	if err != nil {
		return nil, fmt.Errorf("upcoming expenses: %w", err)
	}
	defer upRows.Close()
	if stats.UpcomingWeek, err = collectMonthlyExpenses(upRows); err != nil {
		return nil, err
	}
	if stats.UpcomingWeek == nil {
		stats.UpcomingWeek = []core.MonthlyExpense{}
	}
	return stats, nil
}

const monthlyExpenseSelect = `SELECT id, user_id, name, category, amount_cents, due_day, description,
       is_active, last_paid_date, next_due_date, auto_deduct, tags FROM monthly_expenses`

func collectMonthlyExpenses(rows *sql.Rows) ([]core.MonthlyExpense, error) {
	var out []core.MonthlyExpense
	for rows.Next() {
		e, err := scanMonthlyExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func scanMonthlyExpense(row rowScanner) (*core.MonthlyExpense, error) {
	var e core.MonthlyExpense
	var cents int64
	var lastPaid sql.NullString
	var nextDue, tags string
	err := row.Scan(&e.ID, &e.UserID, &e.Name, &e.Category, &cents, &e.DueDay, &e.Description,
		&e.IsActive, &lastPaid, &nextDue, &e.AutoDeduct, &tags)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan monthly expense: %w", err)
	}
	e.Amount = core.MoneyFromCents(cents)
	if e.LastPaidDate, err = parseNullTime(lastPaid); err != nil {
		return nil, err
	}
	if e.NextDueDate, err = parseTime(nextDue); err != nil {
		return nil, err
	}
	e.Tags = splitTags(tags)
	return &e, nil
}
