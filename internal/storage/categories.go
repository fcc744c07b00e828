package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

func (r *Repository) CreateCategory(ctx context.Context, c *core.Category) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, name, type, icon, color, is_default)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		nullableID(c.UserID), c.Name, string(c.Type), c.Icon, c.Color, c.IsDefault)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("category id: %w", err)
	}
	return nil
}

// GetCategory returns a category visible to the user: their own or a default.
func (r *Repository) GetCategory(ctx context.Context, userID, id int64) (*core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, COALESCE(user_id, 0), name, type, icon, color, is_default
		 FROM categories WHERE id = ? AND (user_id = ? OR is_default = 1)`, id, userID)
	return scanCategory(row)
}

func (r *Repository) ListCategories(ctx context.Context, userID int64, typ core.TransactionType) ([]core.Category, error) {
	query := `SELECT id, COALESCE(user_id, 0), name, type, icon, color, is_default
	          FROM categories WHERE (user_id = ? OR is_default = 1)`
	args := []any{userID}
	if typ != "" {
		query += ` AND type = ?`
		args = append(args, string(typ))
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.Icon, &c.Color, &c.IsDefault); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// FindOrCreateCategory looks a category up by name (case-insensitive) for the
// user and creates it with the given defaults when missing. Used by the loan
// ledger and the monthly-expense payer for their side-effect transactions.
func (r *Repository) FindOrCreateCategory(ctx context.Context, userID int64, name string, typ core.TransactionType, icon, color string) (*core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, COALESCE(user_id, 0), name, type, icon, color, is_default
		 FROM categories WHERE user_id = ? AND name = ? COLLATE NOCASE`, userID, name)
	c, err := scanCategory(row)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	created := &core.Category{UserID: userID, Name: name, Type: typ, Icon: icon, Color: color}
	if err := r.CreateCategory(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, c *core.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, type = ?, icon = ?, color = ?
		 WHERE id = ? AND user_id = ?`,
		c.Name, string(c.Type), c.Icon, c.Color, c.ID, c.UserID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteCategory(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireRow(res)
}

func scanCategory(row *sql.Row) (*core.Category, error) {
	var c core.Category
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.Icon, &c.Color, &c.IsDefault)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan category: %w", err)
	}
	return &c, nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
