package tracker

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmynk/tabsettle/internal/models"
)

// Register adds a participant and returns its ordinal.
// Ordinals start at 1 and are never reused.
func (l *Ledger) Register(ctx context.Context, identity, displayName string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if strings.TrimSpace(identity) == "" {
		return 0, ErrInvalidIdentity
	}
	if _, exists := l.byIdentity[identity]; exists {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateParticipant, identity)
	}

	p := models.Participant{
		Ordinal:      len(l.participants) + 1,
		Identity:     identity,
		DisplayName:  displayName,
		RegisteredAt: l.now().Unix(),
	}

	if l.store != nil {
		if err := l.store.CreateParticipant(ctx, &p); err != nil {
			return 0, fmt.Errorf("failed to persist participant: %w", err)
		}
	}

	l.byIdentity[identity] = len(l.participants)
	l.participants = append(l.participants, p)
	return p.Ordinal, nil
}

// Lookup returns the participant registered under identity.
func (l *Ledger) Lookup(identity string) (models.Participant, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.byIdentity[identity]
	if !ok {
		return models.Participant{}, false
	}
	return l.participants[i], true
}

// Count returns the number of registered participants.
func (l *Ledger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.participants)
}

// Participants returns all participants in ordinal order.
func (l *Ledger) Participants() []models.Participant {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]models.Participant(nil), l.participants...)
}
