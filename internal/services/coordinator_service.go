package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pzhukov/medminder/internal/apperrors"
	"github.com/pzhukov/medminder/internal/domain"
	"github.com/pzhukov/medminder/internal/logger"
)

// ScheduleRequest is what the UI submits when committing a new course.
type ScheduleRequest struct {
	MedicineID string
	Dosage     string
	Quantity   int
	Time       string // "H:MM AM/PM"
	StartDate  time.Time
	Duration   string
	Frequency  string
}

// ScheduleResult is a successful compound operation plus any non-critical
// warnings (reminder or calendar failures) the user should see.
type ScheduleResult struct {
	Medication *domain.ScheduledMedication
	Warnings   []string
}

// Coordinator sequences the stores, the reminder scheduler and the ledger
// into the compound operations the UI invokes. The underlying storage has no
// transactions; validation and stock checks run before any write, and
// failures after the first write are deliberately not rolled back.
type Coordinator struct {
	inventory  *InventoryService
	schedules  *ScheduleService
	activities *ActivityService
	reminders  *ReminderService
	calendar   domain.CalendarSink
}

func NewCoordinator(
	inventory *InventoryService,
	schedules *ScheduleService,
	activities *ActivityService,
	reminders *ReminderService,
	calendar domain.CalendarSink,
	lowStockThreshold int,
) *Coordinator {
	c := &Coordinator{
		inventory:  inventory,
		schedules:  schedules,
		activities: activities,
		reminders:  reminders,
		calendar:   calendar,
	}

	reminders.Configure(c.MarkAction, lowStockThreshold)
	reminders.SetFireListener(func(entryID, handle string) {
		if err := schedules.SetNotification(context.Background(), entryID, handle, domain.NotificationFired); err != nil {
			logger.Warn("Failed to record fired reminder", "error", err)
		}
	})
	inventory.SetChangeListener(func(items []domain.MedicineStockItem) {
		reminders.EvaluateLowStock(context.Background(), items)
	})

	return c
}

// CreateSchedule validates the request, debits inventory, creates the
// schedule record, and then attempts the non-critical side effects. The
// debit strictly precedes record creation: a crash between the two leaves
// stock under-counted rather than over-promised.
func (c *Coordinator) CreateSchedule(ctx context.Context, req ScheduleRequest) (*ScheduleResult, error) {
	med, err := c.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	if _, err := c.inventory.AdjustQuantity(ctx, med.ID, -req.Quantity); err != nil {
		return nil, err
	}

	entry, err := c.schedules.Create(ctx, domain.ScheduledMedication{
		MedicineID:   med.ID,
		MedicineName: med.Name,
		Dosage:       req.Dosage,
		QuantityUsed: req.Quantity,
		Time:         req.Time,
		StartDate:    req.StartDate,
		Duration:     req.Duration,
		Frequency:    req.Frequency,
	})
	if err != nil {
		// Stock is already debited; not rolled back.
		return nil, err
	}

	result := &ScheduleResult{Medication: entry}
	c.attachSideEffects(ctx, entry, result)

	if _, err := c.activities.Append(ctx, medicationRef(entry), domain.ActivityPending, domain.ActivityOptions{}); err != nil {
		logger.Warn("Failed to record schedule activity", "error", err)
	}

	return result, nil
}

// UpdateSchedule re-validates against current stock and debits the newly
// requested quantity. The previous commitment is not credited back, matching
// the original behavior; repeated edits therefore drift stock downward.
func (c *Coordinator) UpdateSchedule(ctx context.Context, id string, req ScheduleRequest) (*ScheduleResult, error) {
	if _, err := c.schedules.Get(ctx, id); err != nil {
		return nil, err
	}
	med, err := c.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	if _, err := c.inventory.AdjustQuantity(ctx, med.ID, -req.Quantity); err != nil {
		return nil, err
	}

	entry, err := c.schedules.Update(ctx, id, domain.ScheduledMedication{
		MedicineID:   med.ID,
		MedicineName: med.Name,
		Dosage:       req.Dosage,
		QuantityUsed: req.Quantity,
		Time:         req.Time,
		StartDate:    req.StartDate,
		Duration:     req.Duration,
		Frequency:    req.Frequency,
	})
	if err != nil {
		return nil, err
	}

	result := &ScheduleResult{Medication: entry}
	c.attachSideEffects(ctx, entry, result)

	if _, err := c.activities.Append(ctx, medicationRef(entry), domain.ActivityUpdated, domain.ActivityOptions{}); err != nil {
		logger.Warn("Failed to record schedule activity", "error", err)
	}

	return result, nil
}

func (c *Coordinator) validate(ctx context.Context, req ScheduleRequest) (*domain.MedicineStockItem, error) {
	if req.MedicineID == "" {
		return nil, apperrors.NewValidationError("please select a medicine from your inventory")
	}
	if req.Quantity <= 0 {
		return nil, apperrors.NewValidationError("quantity must be greater than 0")
	}
	if req.Dosage == "" {
		return nil, apperrors.NewValidationError("please select a dosage for this medication")
	}

	med, err := c.inventory.Get(ctx, req.MedicineID)
	if err != nil {
		return nil, err
	}

	valid := false
	for _, d := range med.Dosages {
		if d == req.Dosage {
			valid = true
			break
		}
	}
	if !valid {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("dosage %q is not available for %s", req.Dosage, med.Name))
	}

	if req.Quantity > med.Quantity {
		return nil, apperrors.NewInsufficientStockError(
			fmt.Sprintf("you only have %d %s available", med.Quantity, med.Name))
	}
	return med, nil
}

// attachSideEffects runs the reminder and calendar steps. Both are
// non-critical: the schedule record persists either way and failures become
// user-visible warnings on the result.
func (c *Coordinator) attachSideEffects(ctx context.Context, entry *domain.ScheduledMedication, result *ScheduleResult) {
	handle, err := c.reminders.Schedule(ctx, entry)
	switch {
	case err != nil:
		logger.Warn("Reminder setup failed", "medication", entry.MedicineName,
			"error", apperrors.NewSideEffectError(err, "reminder scheduling"))
		result.Warnings = append(result.Warnings,
			"Medication saved, but reminder setup failed.")
	case handle != "":
		if err := c.schedules.SetNotification(ctx, entry.ID, handle, domain.NotificationScheduled); err != nil {
			logger.Warn("Failed to persist reminder handle", "error", err)
		} else {
			entry.NotificationID = handle
			entry.NotificationState = domain.NotificationScheduled
		}
	}

	if c.calendar != nil {
		if err := c.calendar.CreateEvent(ctx, entry); err != nil {
			logger.Warn("Calendar sync failed", "medication", entry.MedicineName,
				"error", apperrors.NewSideEffectError(err, "calendar event creation"))
			result.Warnings = append(result.Warnings,
				"Medication saved, but the calendar event could not be created.")
		}
	}
}

// MarkAction records the user's take/miss choice. Stock was debited once at
// creation and is not touched again; only the schedule record transitions
// and the ledger gains an entry.
func (c *Coordinator) MarkAction(ctx context.Context, medicationID string, outcome domain.MedicationOutcome) error {
	return c.markResolved(ctx, medicationID, outcome, "")
}

// MarkMissed records a miss together with the user's stated reason, which
// ends up in the ledger entry text.
func (c *Coordinator) MarkMissed(ctx context.Context, medicationID, reason string) error {
	return c.markResolved(ctx, medicationID, domain.OutcomeMiss, reason)
}

func (c *Coordinator) markResolved(ctx context.Context, medicationID string, outcome domain.MedicationOutcome, reason string) error {
	entry, err := c.schedules.MarkAction(ctx, medicationID, outcome)
	if err != nil {
		return err
	}

	if entry.NotificationID != "" {
		c.reminders.Cancel(entry.NotificationID)
		// A delivered reminder is consumed; an undelivered one is canceled.
		state := domain.NotificationCanceled
		if entry.NotificationState == domain.NotificationFired {
			state = domain.NotificationUnscheduled
		}
		if err := c.schedules.SetNotification(ctx, entry.ID, "", state); err != nil {
			logger.Warn("Failed to clear reminder handle", "error", err)
		}
	}

	kind := domain.ActivitySuccess
	opts := domain.ActivityOptions{
		CustomMessage: fmt.Sprintf("%s (%s) marked as taken", entry.MedicineName, entry.Dosage),
	}
	if outcome == domain.OutcomeMiss {
		kind = domain.ActivityWarning
		if reason != "" {
			opts = domain.ActivityOptions{Reason: reason}
		} else {
			opts = domain.ActivityOptions{
				CustomMessage: fmt.Sprintf("%s (%s) marked as missed", entry.MedicineName, entry.Dosage),
			}
		}
	}
	if _, err := c.activities.Append(ctx, medicationRef(entry), kind, opts); err != nil {
		logger.Warn("Failed to record adherence activity", "error", err)
	}
	return nil
}

// DeleteSchedule removes the record and cancels its reminder. The committed
// quantity is not credited back to inventory.
func (c *Coordinator) DeleteSchedule(ctx context.Context, id string) error {
	removed, err := c.schedules.Delete(ctx, id)
	if err != nil {
		return err
	}
	if removed.NotificationID != "" {
		c.reminders.Cancel(removed.NotificationID)
	}
	return nil
}

// Restore re-registers reminders for all persisted schedules. Entries whose
// trigger instant has passed stay unscheduled.
func (c *Coordinator) Restore(ctx context.Context) error {
	entries, err := c.schedules.List(ctx)
	if err != nil {
		return err
	}
	for i := range entries {
		entry := entries[i]
		handle, err := c.reminders.Schedule(ctx, &entry)
		if err != nil {
			logger.Warn("Failed to restore reminder", "medication", entry.MedicineName, "error", err)
			continue
		}
		state := domain.NotificationUnscheduled
		if handle != "" {
			state = domain.NotificationScheduled
		}
		if err := c.schedules.SetNotification(ctx, entry.ID, handle, state); err != nil {
			logger.Warn("Failed to persist restored reminder handle", "error", err)
		}
	}
	return nil
}

func medicationRef(entry *domain.ScheduledMedication) domain.MedicationRef {
	return domain.MedicationRef{
		ID:     entry.ID,
		Name:   entry.MedicineName,
		Dosage: entry.Dosage,
	}
}
