package services

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

var ErrNoImage = errors.New("scan requires an image url or base64 payload")

// BillExtractor pulls structured fields out of a receipt image and suggests
// categories for free-text descriptions.
type BillExtractor interface {
	ExtractBill(ctx context.Context, imageURL, imageBase64 string) (*core.ScanResult, error)
	SuggestCategory(ctx context.Context, description, merchant string, categories []string) (string, error)
}

// ScanPublisher hands a scan job to the background worker queue.
type ScanPublisher interface {
	PublishScanJob(ctx context.Context, scanID, userID int64) error
}

// ScanService accepts bill-scan requests. With a publisher configured jobs go
// to the queue and a worker picks them up; without one the extraction runs
// inline before the request returns.
type ScanService struct {
	storage   *storage.Repository
	extractor BillExtractor
	publisher ScanPublisher
	logger    *log.Logger
}

func NewScanService(storage *storage.Repository, extractor BillExtractor, publisher ScanPublisher, logger *log.Logger) *ScanService {
	return &ScanService{
		storage:   storage,
		extractor: extractor,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentScan),
	}
}

// ScanBill registers a scan and either queues it or processes it inline.
func (s *ScanService) ScanBill(ctx context.Context, userID int64, imageURL, imageBase64 string) (*core.Scan, error) {
	if imageURL == "" && imageBase64 == "" {
		return nil, ErrNoImage
	}

	scan := &core.Scan{
		UserID:      userID,
		Status:      core.ScanPending,
		ImageURL:    imageURL,
		ImageBase64: imageBase64,
	}
	if err := s.storage.CreateScan(ctx, scan); err != nil {
		return nil, fmt.Errorf("create scan: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishScanJob(ctx, scan.ID, userID); err != nil {
			s.logger.ErrorContext(ctx, "scan job publish failed, processing inline",
				log.FieldScanID, scan.ID, log.FieldError, err)
			return s.processInline(ctx, scan)
		}
		s.logger.InfoContext(ctx, "scan job queued", log.FieldScanID, scan.ID, log.FieldUserID, userID)
		return scan, nil
	}
	return s.processInline(ctx, scan)
}

func (s *ScanService) processInline(ctx context.Context, scan *core.Scan) (*core.Scan, error) {
	if err := s.Process(ctx, scan.ID); err != nil {
		return nil, err
	}
	return s.storage.GetScan(ctx, scan.UserID, scan.ID)
}

// Process runs the extraction for a stored scan and records the outcome. The
// background worker calls this for each queued job.
func (s *ScanService) Process(ctx context.Context, scanID int64) error {
	scan, err := s.storage.GetScanByID(ctx, scanID)
	if err != nil {
		return err
	}
	if scan.Status != core.ScanPending {
		s.logger.InfoContext(ctx, "scan already processed, skipping",
			log.FieldScanID, scanID, "status", string(scan.Status))
		return nil
	}
	if s.extractor == nil {
		return s.storage.FailScan(ctx, scanID, "no extractor configured")
	}

	result, err := s.extractor.ExtractBill(ctx, scan.ImageURL, scan.ImageBase64)
	if err != nil {
		s.logger.ErrorContext(ctx, "bill extraction failed",
			log.FieldScanID, scanID, log.FieldError, err)
		return s.storage.FailScan(ctx, scanID, err.Error())
	}

	if err := s.storage.CompleteScan(ctx, scanID, result); err != nil {
		return fmt.Errorf("complete scan: %w", err)
	}
	s.logger.InfoContext(ctx, "scan completed", log.FieldScanID, scanID)
	return nil
}

// GetScan returns a user's scan with its result when available.
func (s *ScanService) GetScan(ctx context.Context, userID, scanID int64) (*core.Scan, error) {
	return s.storage.GetScan(ctx, userID, scanID)
}

// AutoCategorize suggests one of the user's expense categories for a
// free-text description. The suggestion is constrained to existing category
// names so the caller can match it back to an id.
func (s *ScanService) AutoCategorize(ctx context.Context, userID int64, description, merchant string) (string, error) {
	if s.extractor == nil {
		return "", errors.New("no extractor configured")
	}
	cats, err := s.storage.ListCategories(ctx, userID, core.Expense)
	if err != nil {
		return "", fmt.Errorf("list categories: %w", err)
	}
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	return s.extractor.SuggestCategory(ctx, description, merchant, names)
}
