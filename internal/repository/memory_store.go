package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/triage-desk/ticket-router/internal/domain"
)

// MemoryStore keeps everything in process. It backs tests and runs
// without POSTGRES_DSN. Transactions are serialised and rolled back by
// discarding a working copy, so repositories from Repos() must not be
// used inside WithinTx.
type MemoryStore struct {
	mu   sync.Mutex
	data *memoryData
	now  func() time.Time
}

type memoryData struct {
	users    map[string]domain.User
	tickets  map[string]domain.Ticket
	order    []string
	messages []domain.Message
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: &memoryData{
			users:   make(map[string]domain.User),
			tickets: make(map[string]domain.Ticket),
		},
		now: time.Now,
	}
}

func (d *memoryData) clone() *memoryData {
	users := make(map[string]domain.User, len(d.users))
	for k, v := range d.users {
		users[k] = v
	}
	tickets := make(map[string]domain.Ticket, len(d.tickets))
	for k, v := range d.tickets {
		tickets[k] = v
	}
	return &memoryData{
		users:    users,
		tickets:  tickets,
		order:    slices.Clone(d.order),
		messages: slices.Clone(d.messages),
	}
}

// Repos returns repositories that lock the store per call.
func (s *MemoryStore) Repos() Repositories {
	return s.bind(nil)
}

// WithinTx runs fn against a private copy and publishes it only on success.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(ctx, s.bind(work)); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (s *MemoryStore) bind(tx *memoryData) Repositories {
	h := &memoryHandle{store: s, tx: tx}
	return Repositories{
		Users:    memoryUsers{h},
		Tickets:  memoryTickets{h},
		Messages: memoryMessages{h},
	}
}

// memoryHandle gives repositories access to either the committed data
// (locking per call) or a transaction's working copy (already locked).
type memoryHandle struct {
	store *MemoryStore
	tx    *memoryData
}

func (h *memoryHandle) with(fn func(d *memoryData) error) error {
	if h.tx != nil {
		return fn(h.tx)
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return fn(h.store.data)
}

func notFound() error {
	return errors.WithStack(pgx.ErrNoRows)
}

type memoryUsers struct{ h *memoryHandle }

func (r memoryUsers) Create(_ context.Context, user *domain.User) error {
	return r.h.with(func(d *memoryData) error {
		for _, existing := range d.users {
			if existing.Username == user.Username {
				return errors.Errorf("username %q already exists", user.Username)
			}
		}
		if user.ID == "" {
			user.ID = uuid.NewString()
		}
		user.CreatedAt = r.h.store.now()
		d.users[user.ID] = *user
		return nil
	})
}

func (r memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := r.h.with(func(d *memoryData) error {
		user, ok := d.users[id]
		if !ok {
			return notFound()
		}
		out = &user
		return nil
	})
	return out, err
}

func (r memoryUsers) List(_ context.Context) ([]domain.User, error) {
	return r.filter(func(domain.User) bool { return true })
}

func (r memoryUsers) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	return r.filter(func(u domain.User) bool { return u.Role == role })
}

func (r memoryUsers) Count(_ context.Context) (int, error) {
	var n int
	err := r.h.with(func(d *memoryData) error {
		n = len(d.users)
		return nil
	})
	return n, err
}

func (r memoryUsers) filter(keep func(domain.User) bool) ([]domain.User, error) {
	var out []domain.User
	err := r.h.with(func(d *memoryData) error {
		for _, u := range d.users {
			if keep(u) {
				out = append(out, u)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Username < out[j].Username
	})
	return out, err
}

type memoryTickets struct{ h *memoryHandle }

func (r memoryTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	return r.h.with(func(d *memoryData) error {
		if _, ok := d.users[ticket.CustomerID]; !ok {
			return errors.Errorf("customer %s does not exist", ticket.CustomerID)
		}
		ticket.ID = uuid.NewString()
		now := r.h.store.now()
		ticket.CreatedAt, ticket.UpdatedAt = now, now
		d.tickets[ticket.ID] = *ticket
		d.order = append(d.order, ticket.ID)
		return nil
	})
}

func (r memoryTickets) Update(_ context.Context, ticket *domain.Ticket) error {
	return r.h.with(func(d *memoryData) error {
		current, ok := d.tickets[ticket.ID]
		if !ok {
			return notFound()
		}
		current.Status = ticket.Status
		current.BusinessID = ticket.BusinessID
		current.VendorID = ticket.VendorID
		current.UpdatedAt = r.h.store.now()
		ticket.UpdatedAt = current.UpdatedAt
		d.tickets[ticket.ID] = current
		return nil
	})
}

func (r memoryTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	var out *domain.Ticket
	err := r.h.with(func(d *memoryData) error {
		ticket, ok := d.tickets[id]
		if !ok {
			return notFound()
		}
		out = &ticket
		return nil
	})
	return out, err
}

// GetForUpdate needs no row lock: transactions hold the store mutex.
func (r memoryTickets) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r memoryTickets) List(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	var out []domain.Ticket
	err := r.h.with(func(d *memoryData) error {
		for _, id := range d.order {
			ticket := d.tickets[id]
			if matches(ticket, filter) {
				out = append(out, ticket)
			}
		}
		return nil
	})
	return out, err
}

func matches(t domain.Ticket, f TicketFilter) bool {
	if f.CustomerID != nil && t.CustomerID != *f.CustomerID {
		return false
	}
	if f.BusinessID != nil && (t.BusinessID == nil || *t.BusinessID != *f.BusinessID) {
		return false
	}
	if f.VendorID != nil && (t.VendorID == nil || *t.VendorID != *f.VendorID) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.Status) {
		return false
	}
	return true
}

type memoryMessages struct{ h *memoryHandle }

func (r memoryMessages) Append(_ context.Context, msg *domain.Message) error {
	return r.h.with(func(d *memoryData) error {
		if _, ok := d.tickets[msg.TicketID]; !ok {
			return errors.Errorf("ticket %s does not exist", msg.TicketID)
		}
		msg.ID = uuid.NewString()
		msg.CreatedAt = r.h.store.now()
		d.messages = append(d.messages, *msg)
		return nil
	})
}

func (r memoryMessages) ListByTicket(_ context.Context, ticketID string) ([]domain.Message, error) {
	var out []domain.Message
	err := r.h.with(func(d *memoryData) error {
		for _, m := range d.messages {
			if m.TicketID == ticketID {
				out = append(out, m)
			}
		}
		return nil
	})
	return out, err
}
