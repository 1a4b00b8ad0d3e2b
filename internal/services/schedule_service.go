package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pzhukov/medminder/internal/apperrors"
	"github.com/pzhukov/medminder/internal/domain"
	"github.com/pzhukov/medminder/internal/storage"
)

// ScheduleService owns the scheduled-medication records. It performs no
// stock validation or reconciliation of its own; the coordinator sequences
// inventory deltas before calling in here.
type ScheduleService struct {
	store   *storage.Store
	mu      sync.Mutex
	entries []domain.ScheduledMedication
}

func NewScheduleService(store *storage.Store) (*ScheduleService, error) {
	s := &ScheduleService{store: store}
	if err := store.Read(storage.KeyMedications, &s.entries); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return s, nil
}

func (s *ScheduleService) Create(ctx context.Context, entry domain.ScheduledMedication) (*domain.ScheduledMedication, error) {
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now()
	entry.IsTaken = false
	entry.NeedsAction = true
	entry.NotificationID = ""
	entry.NotificationState = domain.NotificationUnscheduled
	if entry.Frequency == "" {
		entry.Frequency = "Once"
	}
	if entry.Duration == "" {
		entry.Duration = "1"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Update merges changed fields into the existing record. If dosage, quantity
// or medicine change, the caller must have reconciled inventory first.
func (s *ScheduleService) Update(ctx context.Context, id string, fields domain.ScheduledMedication) (*domain.ScheduledMedication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, apperrors.NewNotFoundError("scheduled medication not found")
	}

	entry := &s.entries[idx]
	if fields.MedicineID != "" {
		entry.MedicineID = fields.MedicineID
	}
	if fields.MedicineName != "" {
		entry.MedicineName = fields.MedicineName
	}
	if fields.Dosage != "" {
		entry.Dosage = fields.Dosage
	}
	if fields.QuantityUsed > 0 {
		entry.QuantityUsed = fields.QuantityUsed
	}
	if fields.Time != "" {
		entry.Time = fields.Time
	}
	if !fields.StartDate.IsZero() {
		entry.StartDate = fields.StartDate
	}
	if fields.Duration != "" {
		entry.Duration = fields.Duration
	}
	if fields.Frequency != "" {
		entry.Frequency = fields.Frequency
	}
	entry.LastUpdated = time.Now()

	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	updated := *entry
	return &updated, nil
}

// MarkAction is a pure state transition on the record; inventory and the
// ledger are the coordinator's business.
func (s *ScheduleService) MarkAction(ctx context.Context, id string, outcome domain.MedicationOutcome) (*domain.ScheduledMedication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, apperrors.NewNotFoundError("scheduled medication not found")
	}

	entry := &s.entries[idx]
	entry.IsTaken = outcome == domain.OutcomeTake
	entry.NeedsAction = false
	entry.LastUpdated = time.Now()

	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	updated := *entry
	return &updated, nil
}

// Delete removes the record and returns it so the caller can cancel its
// reminder. The committed quantity is not credited back to inventory.
func (s *ScheduleService) Delete(ctx context.Context, id string) (*domain.ScheduledMedication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, apperrors.NewNotFoundError("scheduled medication not found")
	}

	removed := s.entries[idx]
	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	return &removed, nil
}

// SetNotification records the trigger handle and lifecycle state for an
// entry. The state is stored explicitly rather than inferred from the handle.
func (s *ScheduleService) SetNotification(ctx context.Context, id, handle string, state domain.NotificationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return apperrors.NewNotFoundError("scheduled medication not found")
	}
	s.entries[idx].NotificationID = handle
	s.entries[idx].NotificationState = state
	return s.persistLocked()
}

func (s *ScheduleService) Get(ctx context.Context, id string) (*domain.ScheduledMedication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, apperrors.NewNotFoundError("scheduled medication not found")
	}
	entry := s.entries[idx]
	return &entry, nil
}

func (s *ScheduleService) List(ctx context.Context) ([]domain.ScheduledMedication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ScheduledMedication, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (s *ScheduleService) indexLocked(id string) int {
	for i := range s.entries {
		if s.entries[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *ScheduleService) persistLocked() error {
	if err := s.store.Write(storage.KeyMedications, s.entries); err != nil {
		return apperrors.NewPersistenceError(err)
	}
	return nil
}
