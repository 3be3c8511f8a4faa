package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

// KeyTicketSequence holds the highest ticket number ever issued.
const KeyTicketSequence = "ticketSequence"

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	LoadAll(ctx context.Context) ([]domain.Ticket, bool, error)
	ReplaceAll(ctx context.Context, tickets []domain.Ticket) error
	LoadSequence(ctx context.Context) (int, error)
	SaveSequence(ctx context.Context, n int) error
}

type ticketRepository struct {
	collection[domain.Ticket]
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(kv persistence.KVStore) TicketRepository {
	return &ticketRepository{newCollection[domain.Ticket](kv, KeyTickets)}
}

// LoadSequence returns 0 when no number was ever issued.
func (r *ticketRepository) LoadSequence(ctx context.Context) (int, error) {
	raw, err := r.kv.Get(ctx, KeyTicketSequence)
	if errors.Is(err, persistence.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", KeyTicketSequence, err)
	}
	return n, nil
}

func (r *ticketRepository) SaveSequence(ctx context.Context, n int) error {
	return r.kv.Put(ctx, KeyTicketSequence, []byte(strconv.Itoa(n)))
}
