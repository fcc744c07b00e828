package services

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
)

type fakeExtractor struct {
	result     *core.ScanResult
	err        error
	suggestion string
	gotURL     string
	gotBase64  string
	gotNames   []string
}

func (f *fakeExtractor) ExtractBill(_ context.Context, imageURL, imageBase64 string) (*core.ScanResult, error) {
	f.gotURL = imageURL
	f.gotBase64 = imageBase64
	return f.result, f.err
}

func (f *fakeExtractor) SuggestCategory(_ context.Context, _, _ string, names []string) (string, error) {
	f.gotNames = names
	return f.suggestion, f.err
}

type fakePublisher struct {
	published []int64
	err       error
}

func (f *fakePublisher) PublishScanJob(_ context.Context, scanID, _ int64) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, scanID)
	return nil
}

func TestScanBillInlineCompletes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := seedUser(t, repo)

	amount := mustMoney(t, "23.45")
	extractor := &fakeExtractor{result: &core.ScanResult{
		Amount: &amount, Currency: "EUR", Merchant: "Coop", TransactionType: "expense",
	}}
	svc := NewScanService(repo, extractor, nil, testLogger())

	scan, err := svc.ScanBill(ctx, userID, "https://example.com/r.jpg", "")
	if err != nil {
		t.Fatalf("scan bill: %v", err)
	}
	if scan.Status != core.ScanCompleted || scan.Result == nil || scan.Result.Merchant != "Coop" {
		t.Fatalf("unexpected scan: %+v", scan)
	}
	if extractor.gotURL != "https://example.com/r.jpg" {
		t.Fatalf("extractor got url %q", extractor.gotURL)
	}
}

func TestScanBillInlineFailureIsRecorded(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := seedUser(t, repo)

	extractor := &fakeExtractor{err: errors.New("model unavailable")}
	svc := NewScanService(repo, extractor, nil, testLogger())

	scan, err := svc.ScanBill(ctx, userID, "", "aGVsbG8=")
	if err != nil {
		t.Fatalf("scan bill: %v", err)
	}
	if scan.Status != core.ScanFailed || scan.Error != "model unavailable" {
		t.Fatalf("unexpected scan: %+v", scan)
	}
}

func TestScanBillQueuesWhenPublisherConfigured(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := seedUser(t, repo)

	pub := &fakePublisher{}
	svc := NewScanService(repo, &fakeExtractor{}, pub, testLogger())

	scan, err := svc.ScanBill(ctx, userID, "https://example.com/r.jpg", "")
	if err != nil {
		t.Fatalf("scan bill: %v", err)
	}
	if scan.Status != core.ScanPending {
		t.Fatalf("queued scan should stay pending: %+v", scan)
	}
	if len(pub.published) != 1 || pub.published[0] != scan.ID {
		t.Fatalf("job not published: %v", pub.published)
	}
}

func TestScanBillFallsBackInlineOnPublishError(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := seedUser(t, repo)

	amount := mustMoney(t, "10.00")
	extractor := &fakeExtractor{result: &core.ScanResult{Amount: &amount, TransactionType: "expense"}}
	svc := NewScanService(repo, extractor, &fakePublisher{err: errors.New("broker down")}, testLogger())

	scan, err := svc.ScanBill(ctx, userID, "https://example.com/r.jpg", "")
	if err != nil {
		t.Fatalf("scan bill: %v", err)
	}
	if scan.Status != core.ScanCompleted {
		t.Fatalf("expected inline completion, got %+v", scan)
	}
}

func TestScanBillRequiresImage(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewScanService(repo, &fakeExtractor{}, nil, testLogger())
	if _, err := svc.ScanBill(context.Background(), 1, "", ""); !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
}

func TestProcessSkipsNonPendingScan(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := seedUser(t, repo)

	scan := &core.Scan{UserID: userID, Status: core.ScanPending, ImageURL: "https://example.com/r.jpg"}
	if err := repo.CreateScan(ctx, scan); err != nil {
		t.Fatalf("create scan: %v", err)
	}
	if err := repo.FailScan(ctx, scan.ID, "earlier failure"); err != nil {
		t.Fatalf("fail scan: %v", err)
	}

	extractor := &fakeExtractor{result: &core.ScanResult{TransactionType: "expense"}}
	svc := NewScanService(repo, extractor, nil, testLogger())
	if err := svc.Process(ctx, scan.ID); err != nil {
		t.Fatalf("process: %v", err)
	}
	got, _ := repo.GetScanByID(ctx, scan.ID)
	if got.Status != core.ScanFailed {
		t.Fatalf("terminal scan was reprocessed: %+v", got)
	}
}

func TestAutoCategorizeUsesUserCategories(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := seedUser(t, repo)
	if _, err := repo.FindOrCreateCategory(ctx, userID, "Groceries", core.Expense, "cart", "#22c55e"); err != nil {
		t.Fatalf("category: %v", err)
	}

	extractor := &fakeExtractor{suggestion: "Groceries"}
	svc := NewScanService(repo, extractor, nil, testLogger())

	got, err := svc.AutoCategorize(ctx, userID, "weekly shop", "Esselunga")
	if err != nil || got != "Groceries" {
		t.Fatalf("auto categorize: got=%q err=%v", got, err)
	}
	if len(extractor.gotNames) != 1 || extractor.gotNames[0] != "Groceries" {
		t.Fatalf("extractor got names %v", extractor.gotNames)
	}
}
