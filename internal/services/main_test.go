package services

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pzhukov/medminder/internal/domain"
	"github.com/pzhukov/medminder/internal/logger"
	"github.com/pzhukov/medminder/internal/storage"
)

func TestMain(m *testing.M) {
	if err := logger.InitWithConfig(logger.Config{
		Level:      logger.LevelError,
		OutputPath: "stdout",
		Format:     "text",
	}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// captureNotifier records delivered notifications and signals each delivery
// on a channel so tests can wait for timer-driven reminders.
type captureNotifier struct {
	mu        sync.Mutex
	delivered []domain.Notification
	ch        chan domain.Notification
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{ch: make(chan domain.Notification, 16)}
}

func (n *captureNotifier) Notify(ctx context.Context, notification domain.Notification) error {
	n.mu.Lock()
	n.delivered = append(n.delivered, notification)
	n.mu.Unlock()
	n.ch <- notification
	return nil
}

func (n *captureNotifier) all() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]domain.Notification, len(n.delivered))
	copy(out, n.delivered)
	return out
}
