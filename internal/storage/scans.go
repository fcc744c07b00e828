package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

func (r *Repository) CreateScan(ctx context.Context, s *core.Scan) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO scans (user_id, status, image_url, image_base64, result_json, error, created_at)
		 VALUES (?, ?, ?, ?, '', '', ?)`,
		s.UserID, string(s.Status), s.ImageURL, s.ImageBase64, formatTime(s.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}
	s.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("scan id: %w", err)
	}
	return nil
}

func (r *Repository) GetScan(ctx context.Context, userID, id int64) (*core.Scan, error) {
	row := r.db.QueryRowContext(ctx, scanSelect+` WHERE id = ? AND user_id = ?`, id, userID)
	s, err := scanScan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	return s, err
}

// GetScanByID looks a scan up without an owner filter. The background worker
// uses it when it only carries a scan id from the queue.
func (r *Repository) GetScanByID(ctx context.Context, id int64) (*core.Scan, error) {
	row := r.db.QueryRowContext(ctx, scanSelect+` WHERE id = ?`, id)
	s, err := scanScan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	return s, err
}

func (r *Repository) CompleteScan(ctx context.Context, id int64, result *core.ScanResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal scan result: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE scans SET status = 'completed', result_json = ?, error = '' WHERE id = ?`,
		string(payload), id)
	if err != nil {
		return fmt.Errorf("complete scan: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) FailScan(ctx context.Context, id int64, cause string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE scans SET status = 'failed', error = ? WHERE id = ?`, cause, id)
	if err != nil {
		return fmt.Errorf("fail scan: %w", err)
	}
	return requireRow(res)
}

const scanSelect = `SELECT id, user_id, status, image_url, image_base64, result_json, error, created_at FROM scans`

func scanScan(row rowScanner) (*core.Scan, error) {
	var s core.Scan
	var resultJSON sql.NullString
	var created string
	err := row.Scan(&s.ID, &s.UserID, &s.Status, &s.ImageURL, &s.ImageBase64, &resultJSON, &s.Error, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan row: %w", err)
	}
	if resultJSON.Valid && resultJSON.String != "" {
		var result core.ScanResult
		if err := json.Unmarshal([]byte(resultJSON.String), &result); err != nil {
			return nil, fmt.Errorf("unmarshal scan result: %w", err)
		}
		s.Result = &result
	}
	if s.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &s, nil
}
