package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

func (r *Repository) CreateTransfer(ctx context.Context, t *core.TransferRecord) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transfers (user_id, recipient_name, amount_cents, purpose, destination_country,
		        transfer_method, fees_cents, exchange_rate, status, transaction_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.RecipientName, t.Amount.Cents(), t.Purpose, t.DestinationCountry,
		t.TransferMethod, t.Fees.Cents(), t.ExchangeRate, string(t.Status), nullableInt(t.TransactionID), formatTime(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("transfer id: %w", err)
	}
	return nil
}

func (r *Repository) GetTransfer(ctx context.Context, userID, id int64) (*core.TransferRecord, error) {
	row := r.db.QueryRowContext(ctx, transferSelect+` WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTransfer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	return t, err
}

func (r *Repository) ListTransfers(ctx context.Context, userID int64, status core.TransferStatus) ([]core.TransferRecord, error) {
	query := transferSelect + ` WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var out []core.TransferRecord
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateTransfer(ctx context.Context, t *core.TransferRecord) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transfers SET recipient_name = ?, amount_cents = ?, purpose = ?, destination_country = ?,
		        transfer_method = ?, fees_cents = ?, exchange_rate = ?, status = ?, transaction_id = ?
		 WHERE id = ? AND user_id = ?`,
		t.RecipientName, t.Amount.Cents(), t.Purpose, t.DestinationCountry,
		t.TransferMethod, t.Fees.Cents(), t.ExchangeRate, string(t.Status), nullableInt(t.TransactionID),
		t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteTransfer(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transfers WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transfer: %w", err)
	}
	return requireRow(res)
}

const transferSelect = `SELECT id, user_id, recipient_name, amount_cents, purpose, destination_country,
       transfer_method, fees_cents, exchange_rate, status, transaction_id, created_at FROM transfers`

func scanTransfer(row rowScanner) (*core.TransferRecord, error) {
	var t core.TransferRecord
	var amountCents, feesCents int64
	var txID sql.NullInt64
	var created string
	err := row.Scan(&t.ID, &t.UserID, &t.RecipientName, &amountCents, &t.Purpose, &t.DestinationCountry,
		&t.TransferMethod, &feesCents, &t.ExchangeRate, &t.Status, &txID, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan transfer: %w", err)
	}
	t.Amount = core.MoneyFromCents(amountCents)
	t.Fees = core.MoneyFromCents(feesCents)
	if txID.Valid {
		t.TransactionID = &txID.Int64
	}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &t, nil
}

func nullableInt(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
