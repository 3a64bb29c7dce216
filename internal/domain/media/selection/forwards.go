package selection

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/media-fetch-bot/internal/domain/media/dto"
)

// ForwardRegistry holds pending relay forward tickets. A ticket is registered
// before a relay upload starts and consumed exactly once when the marked file
// arrives in the bot's private chat.
type ForwardRegistry struct {
	mu   sync.Mutex
	data map[string]forwardSlot
	ttl  time.Duration
}

type forwardSlot struct {
	ticket    dto.ForwardTicket
	expiresAt time.Time
}

// NewForwardRegistry creates a registry with the given ticket TTL.
func NewForwardRegistry(ttl time.Duration) *ForwardRegistry {
	return &ForwardRegistry{
		data: make(map[string]forwardSlot),
		ttl:  ttl,
	}
}

// Register stores a ticket and returns its marker token.
func (r *ForwardRegistry) Register(ticket dto.ForwardTicket) string {
	token := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	r.data[token] = forwardSlot{ticket: ticket, expiresAt: time.Now().Add(r.ttl)}
	return token
}

// Consume removes and returns the ticket for a token.
func (r *ForwardRegistry) Consume(token string) (dto.ForwardTicket, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.data[token]
	if !ok || time.Now().After(slot.expiresAt) {
		delete(r.data, token)
		return dto.ForwardTicket{}, false
	}
	delete(r.data, token)
	return slot.ticket, true
}

func (r *ForwardRegistry) sweepLocked() {
	now := time.Now()
	for token, slot := range r.data {
		if now.After(slot.expiresAt) {
			delete(r.data, token)
		}
	}
}
