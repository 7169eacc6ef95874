package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hray3182/ClassSync/internal/models"
)

// MemoryStore keeps events, deleted occurrences and users in process. It is
// used when no DATABASE_URI is configured and by tests. Records are cloned on
// the way in and out.
type MemoryStore struct {
	mu      sync.RWMutex
	events  map[string]*models.ScheduledEvent
	order   []string
	deleted map[string][]models.Date
	users   map[string]*models.User
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:  make(map[string]*models.ScheduledEvent),
		deleted: make(map[string][]models.Date),
		users:   make(map[string]*models.User),
		now:     time.Now,
	}
}

func (m *MemoryStore) Put(_ context.Context, event *models.ScheduledEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[event.EventID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, event.EventID)
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = m.now()
	}
	m.events[event.EventID] = event.Clone()
	m.order = append(m.order, event.EventID)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, eventID string) (*models.ScheduledEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	event, ok := m.events[eventID]
	if !ok {
		return nil, fmt.Errorf("event %s: %w", eventID, ErrNotFound)
	}
	return event.Clone(), nil
}

// GetAll returns matching events in insertion order.
func (m *MemoryStore) GetAll(_ context.Context, filter Filter) ([]*models.ScheduledEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var events []*models.ScheduledEvent
	for _, id := range m.order {
		if event := m.events[id]; filter.matches(event) {
			events = append(events, event.Clone())
		}
	}
	return events, nil
}

func (m *MemoryStore) Update(_ context.Context, eventID string, patch models.EventPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	event, ok := m.events[eventID]
	if !ok {
		return fmt.Errorf("event %s: %w", eventID, ErrNotFound)
	}
	if patch.Days != nil {
		days := patch.Days.Normalize()
		patch.Days = &days
	}
	patch.Apply(event)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[eventID]; !ok {
		return nil
	}
	delete(m.events, eventID)
	delete(m.deleted, eventID)
	for i, id := range m.order {
		if id == eventID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events), nil
}

func (m *MemoryStore) RecordDeleted(_ context.Context, eventID string, date models.Date) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[eventID]; !ok {
		return false, fmt.Errorf("event %s: %w", eventID, ErrNotFound)
	}
	for _, d := range m.deleted[eventID] {
		if d.Equal(date) {
			return false, nil
		}
	}
	dates := append(m.deleted[eventID], date)
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	m.deleted[eventID] = dates
	return true, nil
}

func (m *MemoryStore) ListDeleted(_ context.Context, eventID string) ([]models.Date, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Date(nil), m.deleted[eventID]...), nil
}

func (m *MemoryStore) Upsert(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(user.Email)
	now := m.now()
	if existing, ok := m.users[key]; ok {
		existing.Name = user.Name
		existing.LastLogin = &now
		*user = *existing
		return nil
	}
	stored := *user
	stored.CreatedAt = now
	stored.LastLogin = &now
	m.users[key] = &stored
	*user = stored
	return nil
}

func (m *MemoryStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	u := *user
	return &u, nil
}

func (m *MemoryStore) UpdateName(_ context.Context, email, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[strings.ToLower(email)]
	if !ok {
		return fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	user.Name = name
	return nil
}

var (
	_ EventStore      = (*MemoryStore)(nil)
	_ OccurrenceStore = (*MemoryStore)(nil)
	_ UserStore       = (*MemoryStore)(nil)
	_ EventStore      = (*EventRepository)(nil)
	_ OccurrenceStore = (*OccurrenceRepository)(nil)
	_ UserStore       = (*UserRepository)(nil)
)
