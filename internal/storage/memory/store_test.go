package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"repeat-purchase-lab/internal/domain"
	"repeat-purchase-lab/internal/storage"
)

func day(d int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func TestTransactionStore_InsertAndGet(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	txs := []domain.Transaction{
		{CustomerID: "B", OrderID: "o1", OrderDate: day(0), Quantity: 1, UnitPrice: 10},
		{CustomerID: "A", OrderID: "o2", OrderDate: day(3), Quantity: 2, UnitPrice: 5},
		{CustomerID: "B", OrderID: "o3", OrderDate: day(9), Quantity: 1, UnitPrice: 7, IsReturn: true},
	}

	if err := store.InsertBulk(ctx, "v1", txs); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByVersion(ctx, "v1")
	if err != nil {
		t.Fatalf("GetByVersion failed: %v", err)
	}
	if len(got) != 3 || got[0].OrderID != "o1" || got[2].OrderID != "o3" {
		t.Errorf("unexpected order: %+v", got)
	}

	byCustomer, err := store.GetByCustomer(ctx, "v1", "B")
	if err != nil {
		t.Fatalf("GetByCustomer failed: %v", err)
	}
	if len(byCustomer) != 2 {
		t.Errorf("expected 2 lines for B, got %d", len(byCustomer))
	}

	// Mutating the input must not affect stored data
	txs[0].CustomerID = "Z"
	got, _ = store.GetByVersion(ctx, "v1")
	if got[0].CustomerID != "B" {
		t.Error("store shares memory with caller")
	}
}

func TestTransactionStore_Errors(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()
	txs := []domain.Transaction{{CustomerID: "A", OrderID: "o1", OrderDate: day(0), Quantity: 1}}

	if err := store.InsertBulk(ctx, "", txs); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty version, got %v", err)
	}
	if err := store.InsertBulk(ctx, "v1", txs); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	if err := store.InsertBulk(ctx, "v1", txs); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	if _, err := store.GetByVersion(ctx, "v2"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFeatureStore_InsertAndGet(t *testing.T) {
	store := NewFeatureStore()
	ctx := context.Background()

	feats := []domain.CustomerFeatures{
		{CustomerID: "B", OrderCount: 2, LastOrderDate: day(9), FirstOrderDate: day(0), TenureDays: 9},
		{CustomerID: "A", OrderCount: 1, LastOrderDate: day(3), FirstOrderDate: day(3), RecencyDays: 6},
	}
	if err := store.InsertBulk(ctx, "run-1", feats); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetByRun failed: %v", err)
	}
	if len(got) != 2 || got[0].CustomerID != "A" || got[1].CustomerID != "B" {
		t.Errorf("expected customer_id order, got %+v", got)
	}

	b, err := store.GetByCustomer(ctx, "run-1", "B")
	if err != nil {
		t.Fatalf("GetByCustomer failed: %v", err)
	}
	if b.TenureDays != 9 {
		t.Errorf("TenureDays = %d, want 9", b.TenureDays)
	}

	if _, err := store.GetByCustomer(ctx, "run-1", "C"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFeatureStore_DuplicateFailsWholeBatch(t *testing.T) {
	store := NewFeatureStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, "run-1", []domain.CustomerFeatures{{CustomerID: "A"}, {CustomerID: "A"}})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	got, _ := store.GetByRun(ctx, "run-1")
	if len(got) != 0 {
		t.Errorf("expected nothing inserted, got %d rows", len(got))
	}
}

func TestLabelStore_InsertAndGet(t *testing.T) {
	store := NewLabelStore()
	ctx := context.Background()

	labels := []domain.LabelRecord{{CustomerID: "B", Label: 0}, {CustomerID: "A", Label: 1}}
	if err := store.InsertBulk(ctx, "run-1", labels); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetByRun failed: %v", err)
	}
	want := []domain.LabelRecord{{CustomerID: "A", Label: 1}, {CustomerID: "B", Label: 0}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d: got %+v, want %+v", i, got[i], want[i])
		}
	}

	if err := store.InsertBulk(ctx, "run-1", []domain.LabelRecord{{CustomerID: "A", Label: 0}}); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	if err := store.InsertBulk(ctx, "run-2", []domain.LabelRecord{{CustomerID: "A", Label: 2}}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestScoreStore_RankOrderAndDecile(t *testing.T) {
	store := NewScoreStore()
	ctx := context.Background()

	scored := []domain.ScoredCustomer{
		{CustomerID: "A", Probability: 0.9, Decile: 10, Rank: 3},
		{CustomerID: "B", Probability: 0.1, Decile: 1, Rank: 1},
		{CustomerID: "C", Probability: 0.5, Decile: 5, Rank: 2},
	}
	if err := store.InsertBulk(ctx, "run-1", scored); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetByRun failed: %v", err)
	}
	for i, id := range []string{"B", "C", "A"} {
		if got[i].CustomerID != id {
			t.Errorf("rank %d: got %s, want %s", i+1, got[i].CustomerID, id)
		}
	}

	top, err := store.GetByDecile(ctx, "run-1", 10)
	if err != nil {
		t.Fatalf("GetByDecile failed: %v", err)
	}
	if len(top) != 1 || top[0].CustomerID != "A" {
		t.Errorf("unexpected decile 10: %+v", top)
	}

	if err := store.InsertBulk(ctx, "run-1", scored); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	bad := []domain.ScoredCustomer{{CustomerID: "A", Decile: 11}}
	if err := store.InsertBulk(ctx, "run-2", bad); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFeatureStore_ConcurrentAccess(t *testing.T) {
	store := NewFeatureStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			runID := string(rune('a' + i))
			if err := store.InsertBulk(ctx, runID, []domain.CustomerFeatures{{CustomerID: "A"}}); err != nil {
				t.Errorf("InsertBulk(%s) failed: %v", runID, err)
			}
			if _, err := store.GetByRun(ctx, runID); err != nil {
				t.Errorf("GetByRun(%s) failed: %v", runID, err)
			}
		}(i)
	}
	wg.Wait()
}
