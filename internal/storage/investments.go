package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

func (r *Repository) CreateInvestment(ctx context.Context, inv *core.Investment) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO investments (user_id, name, type, invested_cents, current_cents, purchase_date, quantity, symbol, platform)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.UserID, inv.Name, inv.Type, inv.AmountInvested.Cents(), inv.CurrentValue.Cents(),
		formatTime(inv.PurchaseDate), inv.Quantity, inv.Symbol, inv.Platform)
	if err != nil {
		return fmt.Errorf("insert investment: %w", err)
	}
	inv.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("investment id: %w", err)
	}
	return nil
}

func (r *Repository) GetInvestment(ctx context.Context, userID, id int64) (*core.Investment, error) {
	row := r.db.QueryRowContext(ctx, investmentSelect+` WHERE id = ? AND user_id = ?`, id, userID)
	inv, err := scanInvestment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	return inv, err
}

func (r *Repository) ListInvestments(ctx context.Context, userID int64, typ string) ([]core.Investment, error) {
	query := investmentSelect + ` WHERE user_id = ?`
	args := []any{userID}
	if typ != "" {
		query += ` AND type = ?`
		args = append(args, typ)
	}
	query += ` ORDER BY purchase_date DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	defer rows.Close()

	var out []core.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateInvestment(ctx context.Context, inv *core.Investment) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE investments SET name = ?, type = ?, invested_cents = ?, current_cents = ?,
		        purchase_date = ?, quantity = ?, symbol = ?, platform = ?
		 WHERE id = ? AND user_id = ?`,
		inv.Name, inv.Type, inv.AmountInvested.Cents(), inv.CurrentValue.Cents(),
		formatTime(inv.PurchaseDate), inv.Quantity, inv.Symbol, inv.Platform,
		inv.ID, inv.UserID)
	if err != nil {
		return fmt.Errorf("update investment: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteInvestment(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM investments WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete investment: %w", err)
	}
	return requireRow(res)
}

// InvestmentStats aggregates a user's portfolio.
type InvestmentStats struct {
	TotalInvested core.Money       `json:"totalInvested"`
	CurrentValue  core.Money       `json:"currentValue"`
	TotalGainLoss core.Money       `json:"totalGainLoss"`
	Count         int              `json:"count"`
	ByType        []InvestmentType `json:"byType"`
}

type InvestmentType struct {
	Type     string     `json:"type"`
	Invested core.Money `json:"invested"`
	Current  core.Money `json:"current"`
	Count    int        `json:"count"`
}

func (r *Repository) GetInvestmentStats(ctx context.Context, userID int64) (*InvestmentStats, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT type, SUM(invested_cents), SUM(current_cents), COUNT(*) FROM investments
		 WHERE user_id = ? GROUP BY type ORDER BY SUM(current_cents) DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("investment stats: %w", err)
	}
	defer rows.Close()

	stats := &InvestmentStats{ByType: []InvestmentType{}}
	for rows.Next() {
		var t InvestmentType
		var invested, current int64
		if err := rows.Scan(&t.Type, &invested, &current, &t.Count); err != nil {
			return nil, fmt.Errorf("scan investment stats: %w", err)
		}
		t.Invested = core.MoneyFromCents(invested)
		t.Current = core.MoneyFromCents(current)
		stats.TotalInvested = stats.TotalInvested.Add(t.Invested)
		stats.CurrentValue = stats.CurrentValue.Add(t.Current)
		stats.Count += t.Count
		stats.ByType = append(stats.ByType, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	stats.TotalGainLoss = stats.CurrentValue.Sub(stats.TotalInvested)
	return stats, nil
}

const investmentSelect = `SELECT id, user_id, name, type, invested_cents, current_cents,
       purchase_date, quantity, symbol, platform FROM investments`

func scanInvestment(row rowScanner) (*core.Investment, error) {
	var inv core.Investment
	var invested, current int64
	var purchase string
	err := row.Scan(&inv.ID, &inv.UserID, &inv.Name, &inv.Type, &invested, &current,
		&purchase, &inv.Quantity, &inv.Symbol, &inv.Platform)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan investment: %w", err)
	}
	inv.AmountInvested = core.MoneyFromCents(invested)
	inv.CurrentValue = core.MoneyFromCents(current)
	if inv.PurchaseDate, err = parseTime(purchase); err != nil {
		return nil, err
	}
	return &inv, nil
}
