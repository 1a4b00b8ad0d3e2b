package services

import (
	"context"

	"github.com/pzhukov/medminder/internal/domain"
	"github.com/pzhukov/medminder/internal/logger"
)

// LogNotifier is the delivery channel of last resort, used when no Telegram
// token is configured. Reminders still run; they just end up in the log with
// a warning instead of in front of the user.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, n domain.Notification) error {
	logger.Warn("No delivery channel configured, logging notification instead",
		"title", n.Title, "body", n.Body, "medication_id", n.MedicationID)
	return nil
}

// LogCalendar stands in for a device calendar. Event creation is a logged
// no-op; the coordinator treats calendar failures as non-critical anyway.
type LogCalendar struct{}

func (LogCalendar) CreateEvent(ctx context.Context, entry *domain.ScheduledMedication) error {
	logger.Info("Calendar event recorded",
		"medication", entry.MedicineName, "time", entry.Time,
		"start_date", entry.StartDate.Format("2006-01-02"))
	return nil
}
