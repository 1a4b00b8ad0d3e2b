package domain

import (
	"context"
)

// MedicationRef is the minimal reference the ledger needs to record an event.
type MedicationRef struct {
	ID     string
	Name   string
	Dosage string
}

// ActivityOptions carries optional fields for a ledger entry.
type ActivityOptions struct {
	CustomMessage string
	DosageTaken   string
	Reason        string
}

// ActivityFilter narrows ledger queries. Zero values match everything.
type ActivityFilter struct {
	MedicationID string
	Date         string // "2006-01-02"
	Type         ActivityType
}

// Notification is a delivery request handed to a Notifier.
type Notification struct {
	Title        string
	Body         string
	MedicationID string
	WithActions  bool // offer "Taken"/"Missed" choices on delivery
}

// Notifier delivers notifications to the user. Implementations must be
// best-effort: a failed delivery is logged, never fatal.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// CalendarSink receives calendar-event side effects for new schedules.
// Failures are non-critical by contract.
type CalendarSink interface {
	CreateEvent(ctx context.Context, entry *ScheduledMedication) error
}

// InventoryService is the sole authority for medicine stock quantities.
type InventoryService interface {
	Add(ctx context.Context, item MedicineStockItem) (*MedicineStockItem, error)
	Edit(ctx context.Context, id string, replacement MedicineStockItem) error
	Delete(ctx context.Context, id string) error
	AdjustQuantity(ctx context.Context, id string, delta int) (*MedicineStockItem, error)
	Get(ctx context.Context, id string) (*MedicineStockItem, error)
	List(ctx context.Context) ([]MedicineStockItem, error)
}

// ScheduleService owns the scheduled-medication records.
type ScheduleService interface {
	Create(ctx context.Context, entry ScheduledMedication) (*ScheduledMedication, error)
	Update(ctx context.Context, id string, fields ScheduledMedication) (*ScheduledMedication, error)
	MarkAction(ctx context.Context, id string, outcome MedicationOutcome) (*ScheduledMedication, error)
	Delete(ctx context.Context, id string) (*ScheduledMedication, error)
	SetNotification(ctx context.Context, id, handle string, state NotificationState) error
	Get(ctx context.Context, id string) (*ScheduledMedication, error)
	List(ctx context.Context) ([]ScheduledMedication, error)
}

// ActivityService is the bounded append-only adherence ledger.
type ActivityService interface {
	Append(ctx context.Context, med MedicationRef, kind ActivityType, opts ActivityOptions) (*ActivityEntry, error)
	Query(ctx context.Context, filter ActivityFilter) ([]ActivityEntry, error)
	GroupedByDate(ctx context.Context) (map[string][]ActivityEntry, error)
	Clear(ctx context.Context) error
	AdherenceStats(ctx context.Context, medicationID string) (AdherenceStats, error)
}

// ContactService handles emergency contacts.
type ContactService interface {
	Save(ctx context.Context, contact EmergencyContact) (*EmergencyContact, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]EmergencyContact, error)
}
