package services

import (
	"context"
	"testing"

	"github.com/pzhukov/medminder/internal/apperrors"
	"github.com/pzhukov/medminder/internal/domain"
)

func newTestInventory(t *testing.T) *InventoryService {
	t.Helper()
	s, err := NewInventoryService(newTestStore(t))
	if err != nil {
		t.Fatalf("Failed to create inventory service: %v", err)
	}
	return s
}

func TestInventoryService_Add(t *testing.T) {
	ctx := context.Background()
	s := newTestInventory(t)

	created, err := s.Add(ctx, domain.MedicineStockItem{
		Name:     "Ibuprofen",
		Dosages:  []string{"200mg", "", "400mg"},
		Quantity: 10,
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if created.ID == "" {
		t.Error("Expected an id to be assigned")
	}
	if len(created.Dosages) != 2 {
		t.Errorf("Expected empty dosages to be dropped, got %v", created.Dosages)
	}
	if created.Quantity != 10 {
		t.Errorf("Expected quantity 10, got %d", created.Quantity)
	}
}

func TestInventoryService_AddCoercesNegativeQuantity(t *testing.T) {
	ctx := context.Background()
	s := newTestInventory(t)

	created, err := s.Add(ctx, domain.MedicineStockItem{
		Name:     "Aspirin",
		Dosages:  []string{"100mg"},
		Quantity: -5,
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if created.Quantity != 0 {
		t.Errorf("Expected negative quantity coerced to 0, got %d", created.Quantity)
	}
}

func TestInventoryService_AddValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestInventory(t)

	tests := []struct {
		name string
		item domain.MedicineStockItem
	}{
		{"missing name", domain.MedicineStockItem{Dosages: []string{"200mg"}, Quantity: 1}},
		{"no dosages", domain.MedicineStockItem{Name: "X", Quantity: 1}},
		{"only empty dosages", domain.MedicineStockItem{Name: "X", Dosages: []string{"", ""}, Quantity: 1}},
	}
	for _, tt := range tests {
		if _, err := s.Add(ctx, tt.item); !apperrors.IsKind(err, apperrors.KindValidation) {
			t.Errorf("%s: expected validation error, got %v", tt.name, err)
		}
	}
}

func TestInventoryService_AdjustQuantityNeverNegative(t *testing.T) {
	ctx := context.Background()
	s := newTestInventory(t)

	created, err := s.Add(ctx, domain.MedicineStockItem{
		Name: "Ibuprofen", Dosages: []string{"200mg"}, Quantity: 4,
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	deltas := []struct {
		delta int
		want  int
	}{
		{-5, 0},
		{-10, 0},
		{+3, 3},
		{-100, 0},
		{+7, 7},
		{-7, 0},
	}
	for _, tt := range deltas {
		updated, err := s.AdjustQuantity(ctx, created.ID, tt.delta)
		if err != nil {
			t.Fatalf("AdjustQuantity(%d) failed: %v", tt.delta, err)
		}
		if updated.Quantity != tt.want {
			t.Errorf("AdjustQuantity(%d): quantity = %d, want %d", tt.delta, updated.Quantity, tt.want)
		}
		if updated.Quantity < 0 {
			t.Fatalf("Invariant violated: quantity %d < 0", updated.Quantity)
		}
	}
}

func TestInventoryService_ChangeListener(t *testing.T) {
	ctx := context.Background()
	s := newTestInventory(t)

	var calls int
	var lastSnapshot []domain.MedicineStockItem
	s.SetChangeListener(func(items []domain.MedicineStockItem) {
		calls++
		lastSnapshot = items
	})

	created, err := s.Add(ctx, domain.MedicineStockItem{
		Name: "Aspirin", Dosages: []string{"100mg"}, Quantity: 5,
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := s.AdjustQuantity(ctx, created.ID, -2); err != nil {
		t.Fatalf("AdjustQuantity failed: %v", err)
	}

	if calls != 2 {
		t.Errorf("Expected listener invoked on every mutation, got %d calls", calls)
	}
	if len(lastSnapshot) != 1 || lastSnapshot[0].Quantity != 3 {
		t.Errorf("Unexpected snapshot: %+v", lastSnapshot)
	}
}

func TestInventoryService_EditAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestInventory(t)

	created, err := s.Add(ctx, domain.MedicineStockItem{
		Name: "Ibuprofen", Dosages: []string{"200mg"}, Quantity: 10,
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	err = s.Edit(ctx, created.ID, domain.MedicineStockItem{
		Name: "Ibuprofen Forte", Dosages: []string{"400mg"}, Quantity: 20,
	})
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	got, err := s.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "Ibuprofen Forte" || got.Quantity != 20 {
		t.Errorf("Edit did not replace the record: %+v", got)
	}

	if err := s.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, created.ID); !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Errorf("Expected not found after delete, got %v", err)
	}
}

func TestInventoryService_PersistsAcrossReload(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	s1, err := NewInventoryService(store)
	if err != nil {
		t.Fatalf("Failed to create inventory service: %v", err)
	}
	created, err := s1.Add(ctx, domain.MedicineStockItem{
		Name: "Ibuprofen", Dosages: []string{"200mg"}, Quantity: 10,
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	s2, err := NewInventoryService(store)
	if err != nil {
		t.Fatalf("Failed to reload inventory service: %v", err)
	}
	got, err := s2.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get after reload failed: %v", err)
	}
	if got.Name != "Ibuprofen" || got.Quantity != 10 {
		t.Errorf("Record not persisted: %+v", got)
	}
}
