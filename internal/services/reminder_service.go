package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pzhukov/medminder/internal/domain"
	"github.com/pzhukov/medminder/internal/logger"
	"github.com/pzhukov/medminder/internal/utils"
)

// ActionHandler is invoked when the user acts on a delivered reminder.
type ActionHandler func(ctx context.Context, medicationID string, outcome domain.MedicationOutcome) error

type trigger struct {
	entryID string
	timer   *time.Timer
	fired   bool
}

// ReminderService maps each scheduled medication to at most one future-dated
// trigger, and low-stock conditions to immediate alerts. It holds no business
// state beyond the cancel/reschedule bookkeeping; actions are delegated to
// the configured handler.
type ReminderService struct {
	notifier domain.Notifier

	mu            sync.Mutex
	configured    bool
	actionHandler ActionHandler
	onFire        func(entryID, handle string)
	threshold     int
	triggers      map[string]*trigger // by handle
	byEntry       map[string]string   // entry id -> live handle
	lowStock      map[string]string   // medicine id -> alert handle

	now func() time.Time
}

func NewReminderService(notifier domain.Notifier) *ReminderService {
	return &ReminderService{
		notifier: notifier,
		triggers: make(map[string]*trigger),
		byEntry:  make(map[string]string),
		lowStock: make(map[string]string),
		now:      time.Now,
	}
}

// Configure sets the action handler and low-stock threshold once at startup.
// Re-configuration is a logged no-op; the first caller wins.
func (s *ReminderService) Configure(handler ActionHandler, lowStockThreshold int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.configured {
		logger.Warn("Reminder service already configured, ignoring reconfiguration")
		return
	}
	s.actionHandler = handler
	s.threshold = lowStockThreshold
	s.configured = true
}

// SetFireListener registers a callback invoked whenever a trigger fires, so
// the owner can record the delivery on the schedule record.
func (s *ReminderService) SetFireListener(fn func(entryID, handle string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFire = fn
}

// Schedule registers a trigger for the entry's start date and clock time.
// An instant that is not strictly in the future is silently skipped and the
// returned handle is empty. An existing live trigger for the same entry is
// canceled first, so there are never two live triggers per entry.
func (s *ReminderService) Schedule(ctx context.Context, entry *domain.ScheduledMedication) (string, error) {
	instant, err := utils.TriggerInstant(entry.StartDate, entry.Time)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.byEntry[entry.ID]; ok {
		s.cancelLocked(prev)
	}

	delay := instant.Sub(s.now())
	if delay <= 0 {
		logger.Info("Skipping reminder in the past",
			"medication", entry.MedicineName, "instant", instant)
		return "", nil
	}

	handle := uuid.NewString()
	entryID := entry.ID
	name := entry.MedicineName
	dosage := entry.Dosage

	t := &trigger{entryID: entryID}
	t.timer = time.AfterFunc(delay, func() {
		s.fire(handle, entryID, name, dosage)
	})
	s.triggers[handle] = t
	s.byEntry[entryID] = handle

	logger.Info("Reminder scheduled", "medication", name, "instant", instant, "handle", handle)
	return handle, nil
}

func (s *ReminderService) fire(handle, entryID, name, dosage string) {
	s.mu.Lock()
	t, ok := s.triggers[handle]
	if !ok {
		s.mu.Unlock()
		return
	}
	t.fired = true
	onFire := s.onFire
	s.mu.Unlock()

	if onFire != nil {
		onFire(entryID, handle)
	}

	n := domain.Notification{
		Title:        fmt.Sprintf("💊 Time for %s", name),
		Body:         fmt.Sprintf("Dosage: %s", dosage),
		MedicationID: entryID,
		WithActions:  true,
	}
	if err := s.notifier.Notify(context.Background(), n); err != nil {
		logger.Error("Failed to deliver reminder", "medication", name, "error", err)
	}
}

// Cancel is best-effort: unknown handles are logged, not raised, since live
// timers are the source of truth for trigger existence.
func (s *ReminderService) Cancel(handle string) {
	if handle == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.triggers[handle]; !ok {
		logger.Debug("Cancel of unknown reminder handle", "handle", handle)
		return
	}
	s.cancelLocked(handle)
}

func (s *ReminderService) cancelLocked(handle string) {
	t, ok := s.triggers[handle]
	if !ok {
		return
	}
	t.timer.Stop()
	delete(s.triggers, handle)
	if s.byEntry[t.entryID] == handle {
		delete(s.byEntry, t.entryID)
	}
}

// OnFired handles the user's choice on a delivered reminder. A handle whose
// entry was deleted in the meantime is a graceful no-op.
func (s *ReminderService) OnFired(ctx context.Context, handle string, outcome domain.MedicationOutcome) error {
	s.mu.Lock()
	t, ok := s.triggers[handle]
	var entryID string
	if ok {
		entryID = t.entryID
		s.cancelLocked(handle)
	}
	handler := s.actionHandler
	s.mu.Unlock()

	if !ok {
		logger.Warn("Reminder response for unknown trigger", "handle", handle)
		return nil
	}
	if handler == nil {
		logger.Warn("No action handler configured for reminder response")
		return nil
	}
	return handler(ctx, entryID, outcome)
}

// LiveTriggerFor reports the live handle for an entry, if any.
func (s *ReminderService) LiveTriggerFor(entryID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle, ok := s.byEntry[entryID]
	return handle, ok
}

// EvaluateLowStock clears all previous low-stock alerts and emits one
// immediate alert per medicine at or below the threshold. It is invoked on
// every inventory change.
func (s *ReminderService) EvaluateLowStock(ctx context.Context, items []domain.MedicineStockItem) {
	s.mu.Lock()
	s.lowStock = make(map[string]string)
	threshold := s.threshold
	if threshold <= 0 {
		threshold = 3
	}
	var alerts []domain.MedicineStockItem
	for _, item := range items {
		if item.Quantity <= threshold {
			handle := uuid.NewString()
			s.lowStock[item.ID] = handle
			alerts = append(alerts, item)
		}
	}
	s.mu.Unlock()

	for _, item := range alerts {
		n := domain.Notification{
			Title:        "🟠 Low Stock Alert",
			Body:         fmt.Sprintf("You're running out of %s! Only %d left.", item.Name, item.Quantity),
			MedicationID: item.ID,
		}
		if err := s.notifier.Notify(ctx, n); err != nil {
			logger.Error("Failed to deliver low-stock alert", "medicine", item.Name, "error", err)
		}
	}
}

// LowStockAlerts returns the medicine ids currently flagged as low stock.
func (s *ReminderService) LowStockAlerts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.lowStock))
	for id := range s.lowStock {
		ids = append(ids, id)
	}
	return ids
}
