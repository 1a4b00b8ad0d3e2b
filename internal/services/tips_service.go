package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pzhukov/medminder/internal/apperrors"
	"github.com/pzhukov/medminder/internal/domain"
	"github.com/pzhukov/medminder/internal/logger"
	"github.com/pzhukov/medminder/internal/storage"
)

var defaultTips = []string{
	"Drink at least 8 glasses of water daily to stay hydrated.",
	"Get at least 7-8 hours of sleep each night for optimal health.",
	"Wash your hands frequently to prevent the spread of germs.",
	"Exercise for at least 30 minutes most days of the week.",
	"Eat a balanced diet with plenty of fruits and vegetables.",
}

// TipsService serves stored health tips and, when an AI provider is
// configured, a generated tip of the day. AI failures degrade to the stored
// rotation, never to an error.
type TipsService struct {
	store *storage.Store
	ai    *AIService
	mu    sync.Mutex
	tips  []domain.HealthTip
}

func NewTipsService(store *storage.Store, ai *AIService) (*TipsService, error) {
	s := &TipsService{store: store, ai: ai}
	if err := store.Read(storage.KeyHealthTips, &s.tips); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	if len(s.tips) == 0 {
		for _, text := range defaultTips {
			s.tips = append(s.tips, domain.HealthTip{ID: uuid.NewString(), Text: text})
		}
		if err := store.Write(storage.KeyHealthTips, s.tips); err != nil {
			return nil, apperrors.NewPersistenceError(err)
		}
	}
	return s, nil
}

func (s *TipsService) List(ctx context.Context) ([]domain.HealthTip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.HealthTip, len(s.tips))
	copy(out, s.tips)
	return out, nil
}

func (s *TipsService) Add(ctx context.Context, text string) (*domain.HealthTip, error) {
	if text == "" {
		return nil, apperrors.NewValidationError("tip text is required")
	}
	tip := domain.HealthTip{ID: uuid.NewString(), Text: text}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tips = append(s.tips, tip)
	if err := s.store.Write(storage.KeyHealthTips, s.tips); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return &tip, nil
}

// TipOfTheDay returns an AI-generated tip when possible, otherwise the
// stored tip for today's position in the rotation.
func (s *TipsService) TipOfTheDay(ctx context.Context) (string, error) {
	if s.ai != nil {
		tip, err := s.ai.GenerateTip(ctx)
		if err == nil {
			return tip, nil
		}
		logger.Warn("AI tip generation failed, using stored rotation", "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tips) == 0 {
		return "", apperrors.NewNotFoundError("no health tips available")
	}
	return s.tips[time.Now().YearDay()%len(s.tips)].Text, nil
}
