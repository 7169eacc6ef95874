package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/hray3182/ClassSync/internal/calendar"
	"github.com/hray3182/ClassSync/internal/models"
	"github.com/hray3182/ClassSync/internal/rrule"
)

// fakeProvider records calls and keeps events in memory.
type fakeProvider struct {
	mu        sync.Mutex
	name      string
	next      int
	events    map[string]calendar.EventSpec
	deleted   []string
	instances []string
	failOn    map[string]error
}

func newFakeProvider(name string) *fakeProvider {
	return &fakeProvider{name: name, events: map[string]calendar.EventSpec{}, failOn: map[string]error{}}
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) RecurrenceShape() rrule.Shape { return rrule.ShapeRFC5545 }

func (f *fakeProvider) fail(op, key string) error {
	if err, ok := f.failOn[op+":"+key]; ok {
		return err
	}
	return f.failOn[op]
}

func (f *fakeProvider) Create(_ context.Context, spec calendar.EventSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("create", spec.Summary); err != nil {
		return "", err
	}
	f.next++
	id := fmt.Sprintf("%s-%d", f.name, f.next)
	f.events[id] = spec
	return id, nil
}

func (f *fakeProvider) Update(_ context.Context, id string, spec calendar.EventSpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("update", id); err != nil {
		return err
	}
	if _, ok := f.events[id]; !ok {
		return calendar.ErrNotFound
	}
	f.events[id] = spec
	return nil
}

func (f *fakeProvider) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("delete", id); err != nil {
		return err
	}
	if _, ok := f.events[id]; !ok {
		return calendar.ErrNotFound
	}
	delete(f.events, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeProvider) Get(_ context.Context, id string) (*calendar.EventSpec, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("get", id); err != nil {
		return nil, err
	}
	spec, ok := f.events[id]
	if !ok {
		return nil, calendar.ErrNotFound
	}
	return &spec, nil
}

func (f *fakeProvider) ListInstances(context.Context, string, time.Time, time.Time) ([]calendar.Instance, error) {
	return nil, nil
}

func (f *fakeProvider) DeleteInstance(_ context.Context, id string, date models.Date, _ *time.Location) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("instance", date.String()); err != nil {
		return err
	}
	f.instances = append(f.instances, id+"@"+date.String())
	return nil
}

func (f *fakeProvider) Whoami(context.Context) (calendar.Identity, error) {
	return calendar.Identity{Email: "Ana@School.edu", Name: "Ana"}, nil
}

// fakeSource hands out providers only to sessions holding a token.
type fakeSource struct {
	providers map[string]*fakeProvider
}

func (s fakeSource) Provider(_ context.Context, name string, tok *oauth2.Token) (calendar.Provider, error) {
	p, ok := s.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", name)
	}
	if tok == nil {
		return nil, calendar.ErrAuthExpired
	}
	return p, nil
}

type recordingNotifier struct {
	summaries []PushSummary
}

func (n *recordingNotifier) NotifyPush(_ context.Context, s PushSummary) error {
	n.summaries = append(n.summaries, s)
	return nil
}
