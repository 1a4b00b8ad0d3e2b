package domain

import (
	"time"
)

// MedicineStockItem is a medicine in the user's inventory. Quantity never
// goes negative; decrements are clamped at zero.
type MedicineStockItem struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Dosages  []string `json:"dosages"`
	Quantity int      `json:"quantity"`
}

// NotificationState is the explicit reminder lifecycle tag stored on a
// scheduled medication instead of being inferred from the trigger handle.
type NotificationState string

const (
	NotificationUnscheduled NotificationState = "unscheduled"
	NotificationScheduled   NotificationState = "scheduled"
	NotificationFired       NotificationState = "fired"
	NotificationCanceled    NotificationState = "canceled"
)

// ScheduledMedication is a committed course of a medicine. MedicineID is a
// weak reference into the inventory; MedicineName is a display snapshot taken
// at creation time and is never re-synced when the inventory record changes.
type ScheduledMedication struct {
	ID                string            `json:"id"`
	MedicineID        string            `json:"medicineId"`
	MedicineName      string            `json:"medicineName"`
	Dosage            string            `json:"dosage"`
	QuantityUsed      int               `json:"quantityUsed"`
	Time              string            `json:"time"` // "H:MM AM/PM"
	StartDate         time.Time         `json:"startDate"`
	Duration          string            `json:"duration"`
	Frequency         string            `json:"frequency"`
	IsTaken           bool              `json:"isTaken"`
	NeedsAction       bool              `json:"needsAction"`
	NotificationID    string            `json:"notificationId,omitempty"`
	NotificationState NotificationState `json:"notificationState"`
	LastUpdated       time.Time         `json:"lastUpdated,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
}

// ActivityType classifies ledger entries.
type ActivityType string

const (
	ActivitySuccess ActivityType = "success"
	ActivityWarning ActivityType = "warning"
	ActivityPending ActivityType = "pending"
	ActivitySkipped ActivityType = "skipped"
	ActivityUpdated ActivityType = "updated"
)

// ActivityEntry is one adherence event in the bounded ledger.
type ActivityEntry struct {
	ID             string       `json:"id"`
	Text           string       `json:"text"`
	Type           ActivityType `json:"type"`
	Timestamp      time.Time    `json:"timestamp"`
	Date           string       `json:"date"` // "2006-01-02", for day filters
	Time           string       `json:"time"` // "15:04"
	MedicationID   string       `json:"medicationId"`
	MedicationName string       `json:"medicationName"`
	Dosage         string       `json:"dosage"`
	DosageTaken    string       `json:"dosageTaken,omitempty"`
	Reason         string       `json:"reason,omitempty"`
}

// AdherenceStats summarizes taken vs missed events. Rate is a rounded
// percentage, defined as 100 when there are no events at all.
type AdherenceStats struct {
	Taken         int `json:"taken"`
	Missed        int `json:"missed"`
	AdherenceRate int `json:"adherenceRate"`
}

// MedicationOutcome is the action a user takes on a delivered reminder.
type MedicationOutcome string

const (
	OutcomeTake MedicationOutcome = "take"
	OutcomeMiss MedicationOutcome = "miss"
)

// EmergencyContact is a peripheral record with no cross-entity invariants.
type EmergencyContact struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Relation string `json:"relation"`
}

// HealthTip is a stored one-line health tip.
type HealthTip struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}
