package web

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/hray3182/ClassSync/internal/ai"
	"github.com/hray3182/ClassSync/internal/calendar"
	"github.com/hray3182/ClassSync/internal/models"
	"github.com/hray3182/ClassSync/internal/rrule"
)

type memProvider struct {
	mu        sync.Mutex
	next      int
	events    map[string]calendar.EventSpec
	instances []string
	failOn    map[string]error
}

func newMemProvider() *memProvider {
	return &memProvider{events: map[string]calendar.EventSpec{}, failOn: map[string]error{}}
}

func (p *memProvider) Name() string                 { return calendar.ProviderGoogle }
func (p *memProvider) RecurrenceShape() rrule.Shape { return rrule.ShapeRFC5545 }

func (p *memProvider) Create(_ context.Context, spec calendar.EventSpec) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failOn["create:"+spec.Summary]; err != nil {
		return "", err
	}
	if err := p.failOn["create"]; err != nil {
		return "", err
	}
	p.next++
	id := fmt.Sprintf("evt%d", p.next)
	p.events[id] = spec
	return id, nil
}

func (p *memProvider) Update(_ context.Context, id string, spec calendar.EventSpec) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.events[id]; !ok {
		return calendar.ErrNotFound
	}
	p.events[id] = spec
	return nil
}

func (p *memProvider) Delete(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failOn["delete"]; err != nil {
		return err
	}
	delete(p.events, id)
	return nil
}

func (p *memProvider) Get(_ context.Context, id string) (*calendar.EventSpec, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	spec, ok := p.events[id]
	if !ok {
		return nil, calendar.ErrNotFound
	}
	return &spec, nil
}

func (p *memProvider) ListInstances(context.Context, string, time.Time, time.Time) ([]calendar.Instance, error) {
	return nil, nil
}

func (p *memProvider) DeleteInstance(_ context.Context, id string, date models.Date, _ *time.Location) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failOn["instance:"+date.String()]; err != nil {
		return err
	}
	p.instances = append(p.instances, id+"@"+date.String())
	return nil
}

func (p *memProvider) Whoami(context.Context) (calendar.Identity, error) {
	return calendar.Identity{Email: "sam@school.edu", Name: "Sam"}, nil
}

// memSource serves the provider only to sessions that hold a token.
type memSource struct{ p *memProvider }

func (s memSource) Provider(_ context.Context, name string, tok *oauth2.Token) (calendar.Provider, error) {
	if name != calendar.ProviderGoogle {
		return nil, fmt.Errorf("unknown provider %q", name)
	}
	if tok == nil {
		return nil, calendar.ErrAuthExpired
	}
	return s.p, nil
}

type stubAuth struct{}

func (stubAuth) AuthURL(provider, state string) (string, error) {
	return "https://accounts.example/auth?provider=" + provider + "&state=" + state, nil
}

func (stubAuth) Exchange(_ context.Context, _ string, code string) (*oauth2.Token, error) {
	if code != "good" {
		return nil, fmt.Errorf("bad code %q", code)
	}
	return &oauth2.Token{AccessToken: "at", RefreshToken: "rt", Expiry: time.Now().Add(time.Hour)}, nil
}

func (stubAuth) Names() []string { return []string{calendar.ProviderGoogle} }

type stubParser struct{}

func (stubParser) ParseClasses(_ context.Context, text string, hints ai.Hints) (*ai.ParseResult, error) {
	return &ai.ParseResult{
		Semester: "Fall",
		Classes: []ai.ParsedClass{{
			ClassName: text,
			Days:      []string{"Tuesday", "Thursday"},
			TimeSlot:  hints.TimeSlots[0],
		}},
	}, nil
}
