package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// TransactionFilter narrows ListTransactions. Zero values mean "no filter".
type TransactionFilter struct {
	Type       core.TransactionType
	CategoryID int64
	StartDate  time.Time
	EndDate    time.Time
	Page       int
	Limit      int
}

// TransactionStats aggregates totals by type over a date range.
type TransactionStats struct {
	TotalIncome      core.Money `json:"totalIncome"`
	TotalExpenses    core.Money `json:"totalExpenses"`
	TotalSavings     core.Money `json:"totalSavings"`
	TransactionCount int        `json:"transactionCount"`
	IncomeCount      int        `json:"incomeCount"`
	ExpenseCount     int        `json:"expenseCount"`
}

// CategoryBreakdown is one slice of the expense-by-category aggregation.
type CategoryBreakdown struct {
	CategoryID   int64      `json:"categoryId"`
	CategoryName string     `json:"categoryName"`
	Total        core.Money `json:"total"`
	Count        int        `json:"count"`
}

func (r *Repository) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	t.CreatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, amount_cents, type, category_id, description, date, location, tags, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.Amount.Cents(), string(t.Type), t.CategoryID, t.Description,
		formatTime(t.Date), t.Location, joinTags(t.Tags), formatTime(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("transaction id: %w", err)
	}
	return nil
}

func (r *Repository) GetTransaction(ctx context.Context, userID, id int64) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, amount_cents, type, category_id, description, date, location, tags, created_at
		 FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	return scanTransaction(row)
}

func (r *Repository) ListTransactions(ctx context.Context, userID int64, f TransactionFilter) ([]core.Transaction, int, error) {
	where := `WHERE user_id = ?`
	args := []any{userID}
	if f.Type != "" {
		where += ` AND type = ?`
		args = append(args, string(f.Type))
	}
	if f.CategoryID != 0 {
		where += ` AND category_id = ?`
		args = append(args, f.CategoryID)
	}
	if !f.StartDate.IsZero() {
		where += ` AND date >= ?`
		args = append(args, formatTime(f.StartDate))
	}
	if !f.EndDate.IsZero() {
		where += ` AND date <= ?`
		args = append(args, formatTime(f.EndDate))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	query := `SELECT id, user_id, amount_cents, type, category_id, description, date, location, tags, created_at
	          FROM transactions ` + where + ` ORDER BY date DESC, created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransactionRows(rows)
		if err != nil {
			return nil, 0, err
		}
		txs = append(txs, *t)
	}
	return txs, total, rows.Err()
}

func (r *Repository) UpdateTransaction(ctx context.Context, t *core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET amount_cents = ?, type = ?, category_id = ?, description = ?, date = ?, location = ?, tags = ?
		 WHERE id = ? AND user_id = ?`,
		t.Amount.Cents(), string(t.Type), t.CategoryID, t.Description,
		formatTime(t.Date), t.Location, joinTags(t.Tags), t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteTransaction(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res)
}

// GetTransactionStats sums amounts and counts per type over an optional date
// range.
func (r *Repository) GetTransactionStats(ctx context.Context, userID int64, start, end time.Time) (TransactionStats, error) {
	query := `SELECT type, COALESCE(SUM(amount_cents), 0), COUNT(*)
	          FROM transactions WHERE user_id = ?`
	args := []any{userID}
	if !start.IsZero() {
		query += ` AND date >= ?`
		args = append(args, formatTime(start))
	}
	if !end.IsZero() {
		query += ` AND date <= ?`
		args = append(args, formatTime(end))
	}
	query += ` GROUP BY type`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return TransactionStats{}, fmt.Errorf("transaction stats: %w", err)
	}
	defer rows.Close()

	var stats TransactionStats
	for rows.Next() {
		var typ string
		var cents int64
		var count int
		if err := rows.Scan(&typ, &cents, &count); err != nil {
			return TransactionStats{}, fmt.Errorf("scan stats: %w", err)
		}
		switch core.TransactionType(typ) {
		case core.Income:
			stats.TotalIncome = core.MoneyFromCents(cents)
			stats.IncomeCount = count
		case core.Expense:
			stats.TotalExpenses = core.MoneyFromCents(cents)
			stats.ExpenseCount = count
		}
	}
	if err := rows.Err(); err != nil {
		return TransactionStats{}, err
	}
	stats.TotalSavings = stats.TotalIncome.Sub(stats.TotalExpenses)
	stats.TransactionCount = stats.IncomeCount + stats.ExpenseCount
	return stats, nil
}

// GetExpenseBreakdown groups expenses by category, largest first.
func (r *Repository) GetExpenseBreakdown(ctx context.Context, userID int64, start, end time.Time, limit int) ([]CategoryBreakdown, error) {
	query := `SELECT t.category_id, c.name, COALESCE(SUM(t.amount_cents), 0), COUNT(*)
	          FROM transactions t
	          JOIN categories c ON c.id = t.category_id
	          WHERE t.user_id = ? AND t.type = 'expense'`
	args := []any{userID}
	if !start.IsZero() {
		query += ` AND t.date >= ?`
		args = append(args, formatTime(start))
	}
	if !end.IsZero() {
		query += ` AND t.date <= ?`
		args = append(args, formatTime(end))
	}
	if limit <= 0 {
		limit = 10
	}
	query += ` GROUP BY t.category_id, c.name ORDER BY SUM(t.amount_cents) DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("expense breakdown: %w", err)
	}
	defer rows.Close()

	var out []CategoryBreakdown
	for rows.Next() {
		var b CategoryBreakdown
		var cents int64
		if err := rows.Scan(&b.CategoryID, &b.CategoryName, &cents, &b.Count); err != nil {
			return nil, fmt.Errorf("scan breakdown: %w", err)
		}
		b.Total = core.MoneyFromCents(cents)
		out = append(out, b)
	}
	return out, rows.Err()
}

// HasExpenseLike reports whether an expense mentioning needle in its
// description exists in the given date window. The loan processor uses it as
// a duplicate-payment guard.
func (r *Repository) HasExpenseLike(ctx context.Context, userID int64, needle string, start, end time.Time) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions
		 WHERE user_id = ? AND type = 'expense' AND description LIKE '%' || ? || '%'
		   AND date >= ? AND date <= ?`,
		userID, needle, formatTime(start), formatTime(end)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("expense existence check: %w", err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row *sql.Row) (*core.Transaction, error) {
	t, err := scanTransactionRows(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	return t, err
}

func scanTransactionRows(row rowScanner) (*core.Transaction, error) {
	var t core.Transaction
	var cents int64
	var date, tags, createdAt string
	err := row.Scan(&t.ID, &t.UserID, &cents, &t.Type, &t.CategoryID, &t.Description, &date, &t.Location, &tags, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	t.Amount = core.MoneyFromCents(cents)
	t.Tags = splitTags(tags)
	if t.Date, err = parseTime(date); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &t, nil
}
