package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pzhukov/medminder/internal/apperrors"
	"github.com/pzhukov/medminder/internal/domain"
	"github.com/pzhukov/medminder/internal/storage"
)

// ActivityService is the bounded adherence ledger. Entries are stored newest
// first; once the cap is reached the oldest entries are evicted.
type ActivityService struct {
	store      *storage.Store
	maxEntries int
	mu         sync.Mutex
	entries    []domain.ActivityEntry
}

func NewActivityService(store *storage.Store, maxEntries int) (*ActivityService, error) {
	if maxEntries <= 0 {
		maxEntries = 50
	}
	s := &ActivityService{store: store, maxEntries: maxEntries}
	if err := store.Read(storage.KeyActivities, &s.entries); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return s, nil
}

func (s *ActivityService) Append(ctx context.Context, med domain.MedicationRef, kind domain.ActivityType, opts domain.ActivityOptions) (*domain.ActivityEntry, error) {
	if med.ID == "" || med.Name == "" {
		return nil, apperrors.NewValidationError("activity requires a medication id and name")
	}

	now := time.Now()
	entry := domain.ActivityEntry{
		ID:             uuid.NewString(),
		Type:           kind,
		Timestamp:      now,
		Date:           now.Format("2006-01-02"),
		Time:           now.Format("15:04"),
		MedicationID:   med.ID,
		MedicationName: med.Name,
		Dosage:         med.Dosage,
		DosageTaken:    opts.DosageTaken,
		Reason:         opts.Reason,
	}
	if opts.CustomMessage != "" {
		entry.Text = opts.CustomMessage
	} else {
		entry.Text = activityMessage(med, kind, opts)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]domain.ActivityEntry{entry}, s.entries...)
	if len(s.entries) > s.maxEntries {
		s.entries = s.entries[:s.maxEntries]
	}
	if err := s.store.Write(storage.KeyActivities, s.entries); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return &entry, nil
}

func activityMessage(med domain.MedicationRef, kind domain.ActivityType, opts domain.ActivityOptions) string {
	base := fmt.Sprintf("%s (%s)", med.Name, med.Dosage)

	switch kind {
	case domain.ActivitySuccess:
		if opts.DosageTaken != "" {
			return fmt.Sprintf("Took %s of %s", opts.DosageTaken, base)
		}
		return "Took " + base
	case domain.ActivityWarning:
		if opts.Reason != "" {
			return fmt.Sprintf("Missed %s - %s", base, opts.Reason)
		}
		return "Missed " + base
	case domain.ActivitySkipped:
		if opts.Reason != "" {
			return fmt.Sprintf("Skipped %s - %s", base, opts.Reason)
		}
		return "Skipped " + base
	case domain.ActivityUpdated:
		return "Updated " + base
	default:
		return "Added " + base
	}
}

// Query returns the matching entries sorted newest-timestamp-first. The
// stored sequence is not modified.
func (s *ActivityService) Query(ctx context.Context, filter domain.ActivityFilter) ([]domain.ActivityEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.ActivityEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if filter.MedicationID != "" && e.MedicationID != filter.MedicationID {
			continue
		}
		if filter.Date != "" && e.Date != filter.Date {
			continue
		}
		if filter.Type != "" && e.Type != filter.Type {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (s *ActivityService) GroupedByDate(ctx context.Context) (map[string][]domain.ActivityEntry, error) {
	entries, err := s.Query(ctx, domain.ActivityFilter{})
	if err != nil {
		return nil, err
	}
	groups := make(map[string][]domain.ActivityEntry)
	for _, e := range entries {
		groups[e.Date] = append(groups[e.Date], e)
	}
	return groups, nil
}

func (s *ActivityService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	if err := s.store.Delete(storage.KeyActivities); err != nil {
		return apperrors.NewPersistenceError(err)
	}
	return nil
}

// AdherenceStats counts success entries as taken and warning/skipped entries
// as missed. With no events at all the rate is 100.
func (s *ActivityService) AdherenceStats(ctx context.Context, medicationID string) (domain.AdherenceStats, error) {
	entries, err := s.Query(ctx, domain.ActivityFilter{MedicationID: medicationID})
	if err != nil {
		return domain.AdherenceStats{}, err
	}

	stats := domain.AdherenceStats{AdherenceRate: 100}
	for _, e := range entries {
		switch e.Type {
		case domain.ActivitySuccess:
			stats.Taken++
		case domain.ActivityWarning, domain.ActivitySkipped:
			stats.Missed++
		}
	}
	if total := stats.Taken + stats.Missed; total > 0 {
		stats.AdherenceRate = int(math.Round(float64(stats.Taken) / float64(total) * 100))
	}
	return stats, nil
}
