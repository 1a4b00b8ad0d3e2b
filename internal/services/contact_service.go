package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pzhukov/medminder/internal/apperrors"
	"github.com/pzhukov/medminder/internal/domain"
	"github.com/pzhukov/medminder/internal/storage"
)

// ContactService handles emergency contacts. These records have no
// cross-entity invariants; only the persistence pattern is shared.
type ContactService struct {
	store    *storage.Store
	mu       sync.Mutex
	contacts []domain.EmergencyContact
}

func NewContactService(store *storage.Store) (*ContactService, error) {
	s := &ContactService{store: store}
	if err := store.Read(storage.KeyContacts, &s.contacts); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return s, nil
}

// Save creates the contact when its ID is empty and updates it otherwise.
func (s *ContactService) Save(ctx context.Context, contact domain.EmergencyContact) (*domain.EmergencyContact, error) {
	if contact.Name == "" || contact.Phone == "" {
		return nil, apperrors.NewValidationError("contact name and phone are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if contact.ID == "" {
		contact.ID = uuid.NewString()
		s.contacts = append(s.contacts, contact)
	} else {
		found := false
		for i := range s.contacts {
			if s.contacts[i].ID == contact.ID {
				s.contacts[i] = contact
				found = true
				break
			}
		}
		if !found {
			return nil, apperrors.NewNotFoundError("contact not found")
		}
	}

	if err := s.store.Write(storage.KeyContacts, s.contacts); err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return &contact, nil
}

func (s *ContactService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.contacts {
		if s.contacts[i].ID == id {
			s.contacts = append(s.contacts[:i], s.contacts[i+1:]...)
			if err := s.store.Write(storage.KeyContacts, s.contacts); err != nil {
				return apperrors.NewPersistenceError(err)
			}
			return nil
		}
	}
	return apperrors.NewNotFoundError("contact not found")
}

func (s *ContactService) List(ctx context.Context) ([]domain.EmergencyContact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.EmergencyContact, len(s.contacts))
	copy(out, s.contacts)
	return out, nil
}
