package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pzhukov/medminder/internal/apperrors"
	"github.com/pzhukov/medminder/internal/domain"
	"github.com/pzhukov/medminder/internal/storage"
)

// InventoryService is the sole authority for medicine stock. The in-memory
// slice is authoritative; every successful mutation rewrites the whole
// collection under a single writer lock, so coordinator operations on the
// inventory are serialized.
type InventoryService struct {
	store    *storage.Store
	mu       sync.Mutex
	items    []domain.MedicineStockItem
	onChange func([]domain.MedicineStockItem)
}

func NewInventoryService(store *storage.Store) (*InventoryService, error) {
	s := &InventoryService{store: store}
	if err := store.Read(storage.KeyMedicines, &s.items); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return s, nil
}

// SetChangeListener registers the callback invoked with a snapshot of the
// full inventory after every successful mutation. The coordinator wires this
// to low-stock evaluation.
func (s *InventoryService) SetChangeListener(fn func([]domain.MedicineStockItem)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

func (s *InventoryService) Add(ctx context.Context, item domain.MedicineStockItem) (*domain.MedicineStockItem, error) {
	if item.Name == "" {
		return nil, apperrors.NewValidationError("medicine name is required")
	}
	dosages := make([]string, 0, len(item.Dosages))
	for _, d := range item.Dosages {
		if d != "" {
			dosages = append(dosages, d)
		}
	}
	if len(dosages) == 0 {
		return nil, apperrors.NewValidationError("at least one dosage is required")
	}

	item.ID = uuid.NewString()
	item.Dosages = dosages
	if item.Quantity < 0 {
		item.Quantity = 0
	}

	s.mu.Lock()
	s.items = append(s.items, item)
	err := s.persistLocked()
	snapshot, notify := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if notify != nil {
		notify(snapshot)
	}
	return &item, nil
}

// Edit replaces the record matching id wholesale; the caller must supply the
// full new quantity.
func (s *InventoryService) Edit(ctx context.Context, id string, replacement domain.MedicineStockItem) error {
	if replacement.Name == "" {
		return apperrors.NewValidationError("medicine name is required")
	}
	if replacement.Quantity < 0 {
		replacement.Quantity = 0
	}
	replacement.ID = id

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return apperrors.NewNotFoundError("medicine not found")
	}
	s.items[idx] = replacement
	err := s.persistLocked()
	snapshot, notify := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		return err
	}
	if notify != nil {
		notify(snapshot)
	}
	return nil
}

// Delete removes the record. It does not cascade to scheduled medications
// that reference it; those keep a dangling weak reference.
func (s *InventoryService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return apperrors.NewNotFoundError("medicine not found")
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	err := s.persistLocked()
	snapshot, notify := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		return err
	}
	if notify != nil {
		notify(snapshot)
	}
	return nil
}

// AdjustQuantity applies newQuantity = max(0, quantity + delta). This is the
// only sanctioned way to change stock without a full edit.
func (s *InventoryService) AdjustQuantity(ctx context.Context, id string, delta int) (*domain.MedicineStockItem, error) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil, apperrors.NewNotFoundError("medicine not found")
	}
	newQuantity := s.items[idx].Quantity + delta
	if newQuantity < 0 {
		newQuantity = 0
	}
	s.items[idx].Quantity = newQuantity
	updated := s.items[idx]
	err := s.persistLocked()
	snapshot, notify := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if notify != nil {
		notify(snapshot)
	}
	return &updated, nil
}

func (s *InventoryService) Get(ctx context.Context, id string) (*domain.MedicineStockItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, apperrors.NewNotFoundError("medicine not found")
	}
	item := s.items[idx]
	return &item, nil
}

func (s *InventoryService) List(ctx context.Context) ([]domain.MedicineStockItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.MedicineStockItem, len(s.items))
	copy(out, s.items)
	return out, nil
}

func (s *InventoryService) indexLocked(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *InventoryService) persistLocked() error {
	if err := s.store.Write(storage.KeyMedicines, s.items); err != nil {
		// In-memory state is not rolled back; memory and storage can desync
		// until the next successful write.
		return apperrors.NewPersistenceError(err)
	}
	return nil
}

func (s *InventoryService) snapshotLocked() ([]domain.MedicineStockItem, func([]domain.MedicineStockItem)) {
	out := make([]domain.MedicineStockItem, len(s.items))
	copy(out, s.items)
	return out, s.onChange
}
