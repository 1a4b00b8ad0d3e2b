package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/pzhukov/medminder/internal/apperrors"
	"github.com/pzhukov/medminder/internal/domain"
)

func newTestLedger(t *testing.T, max int) *ActivityService {
	t.Helper()
	s, err := NewActivityService(newTestStore(t), max)
	if err != nil {
		t.Fatalf("Failed to create activity service: %v", err)
	}
	return s
}

var testMed = domain.MedicationRef{ID: "med-1", Name: "Ibuprofen", Dosage: "200mg"}

func TestActivityService_AppendRequiresIDAndName(t *testing.T) {
	ctx := context.Background()
	s := newTestLedger(t, 50)

	_, err := s.Append(ctx, domain.MedicationRef{Name: "X"}, domain.ActivitySuccess, domain.ActivityOptions{})
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Errorf("Expected validation error without id, got %v", err)
	}
	_, err = s.Append(ctx, domain.MedicationRef{ID: "1"}, domain.ActivitySuccess, domain.ActivityOptions{})
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Errorf("Expected validation error without name, got %v", err)
	}
}

func TestActivityService_MessageGeneration(t *testing.T) {
	tests := []struct {
		kind domain.ActivityType
		opts domain.ActivityOptions
		want string
	}{
		{domain.ActivitySuccess, domain.ActivityOptions{}, "Took Ibuprofen (200mg)"},
		{domain.ActivitySuccess, domain.ActivityOptions{DosageTaken: "400mg"}, "Took 400mg of Ibuprofen (200mg)"},
		{domain.ActivityWarning, domain.ActivityOptions{}, "Missed Ibuprofen (200mg)"},
		{domain.ActivityWarning, domain.ActivityOptions{Reason: "asleep"}, "Missed Ibuprofen (200mg) - asleep"},
		{domain.ActivitySkipped, domain.ActivityOptions{}, "Skipped Ibuprofen (200mg)"},
		{domain.ActivityUpdated, domain.ActivityOptions{}, "Updated Ibuprofen (200mg)"},
		{domain.ActivityPending, domain.ActivityOptions{}, "Added Ibuprofen (200mg)"},
		{domain.ActivitySuccess, domain.ActivityOptions{CustomMessage: "custom"}, "custom"},
	}

	ctx := context.Background()
	s := newTestLedger(t, 50)
	for _, tt := range tests {
		entry, err := s.Append(ctx, testMed, tt.kind, tt.opts)
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if entry.Text != tt.want {
			t.Errorf("Append(%s): text = %q, want %q", tt.kind, entry.Text, tt.want)
		}
	}
}

func TestActivityService_CapEvictsOldestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestLedger(t, 5)

	for i := 1; i <= 8; i++ {
		_, err := s.Append(ctx, testMed, domain.ActivitySuccess, domain.ActivityOptions{
			CustomMessage: fmt.Sprintf("entry %d", i),
		})
		if err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	entries, err := s.Query(ctx, domain.ActivityFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("Expected ledger capped at 5, got %d", len(entries))
	}
	if entries[0].Text != "entry 8" {
		t.Errorf("Expected newest entry first, got %q", entries[0].Text)
	}
	if entries[4].Text != "entry 4" {
		t.Errorf("Expected oldest surviving entry to be 4, got %q", entries[4].Text)
	}
}

func TestActivityService_QueryFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestLedger(t, 50)

	otherMed := domain.MedicationRef{ID: "med-2", Name: "Aspirin", Dosage: "100mg"}
	if _, err := s.Append(ctx, testMed, domain.ActivitySuccess, domain.ActivityOptions{}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if _, err := s.Append(ctx, otherMed, domain.ActivityWarning, domain.ActivityOptions{}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if _, err := s.Append(ctx, testMed, domain.ActivityWarning, domain.ActivityOptions{}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	byMed, err := s.Query(ctx, domain.ActivityFilter{MedicationID: "med-1"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(byMed) != 2 {
		t.Errorf("Expected 2 entries for med-1, got %d", len(byMed))
	}

	byType, err := s.Query(ctx, domain.ActivityFilter{Type: domain.ActivityWarning})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(byType) != 2 {
		t.Errorf("Expected 2 warning entries, got %d", len(byType))
	}

	both, err := s.Query(ctx, domain.ActivityFilter{MedicationID: "med-2", Type: domain.ActivityWarning})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(both) != 1 || both[0].MedicationName != "Aspirin" {
		t.Errorf("Unexpected combined filter result: %+v", both)
	}
}

func TestActivityService_GroupedByDate(t *testing.T) {
	ctx := context.Background()
	s := newTestLedger(t, 50)

	for i := 0; i < 3; i++ {
		if _, err := s.Append(ctx, testMed, domain.ActivitySuccess, domain.ActivityOptions{}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	groups, err := s.GroupedByDate(ctx)
	if err != nil {
		t.Fatalf("GroupedByDate failed: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("Expected one group for today, got %d", len(groups))
	}
	for date, entries := range groups {
		if len(entries) != 3 {
			t.Errorf("Expected 3 entries under %s, got %d", date, len(entries))
		}
	}
}

func TestActivityService_AdherenceStatsEmptyLedger(t *testing.T) {
	ctx := context.Background()
	s := newTestLedger(t, 50)

	stats, err := s.AdherenceStats(ctx, "")
	if err != nil {
		t.Fatalf("AdherenceStats failed: %v", err)
	}
	if stats.Taken != 0 || stats.Missed != 0 || stats.AdherenceRate != 100 {
		t.Errorf("Expected {0 0 100} on empty ledger, got %+v", stats)
	}
}

func TestActivityService_AdherenceStats(t *testing.T) {
	ctx := context.Background()
	s := newTestLedger(t, 50)

	kinds := []domain.ActivityType{
		domain.ActivitySuccess,
		domain.ActivitySuccess,
		domain.ActivityWarning,
		domain.ActivitySkipped,
		domain.ActivityPending, // not counted either way
		domain.ActivityUpdated, // not counted either way
	}
	for _, kind := range kinds {
		if _, err := s.Append(ctx, testMed, kind, domain.ActivityOptions{}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	stats, err := s.AdherenceStats(ctx, "")
	if err != nil {
		t.Fatalf("AdherenceStats failed: %v", err)
	}
	if stats.Taken != 2 || stats.Missed != 2 {
		t.Errorf("Expected 2 taken / 2 missed, got %+v", stats)
	}
	if stats.AdherenceRate != 50 {
		t.Errorf("Expected rate 50, got %d", stats.AdherenceRate)
	}
}

func TestActivityService_Clear(t *testing.T) {
	ctx := context.Background()
	s := newTestLedger(t, 50)

	if _, err := s.Append(ctx, testMed, domain.ActivitySuccess, domain.ActivityOptions{}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	entries, err := s.Query(ctx, domain.ActivityFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty ledger after clear, got %d entries", len(entries))
	}
}
