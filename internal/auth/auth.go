// Package auth runs the OAuth authorization-code flows and hands out
// calendar providers bound to a user's token.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"
	gcal "google.golang.org/api/calendar/v3"
	goauth2 "google.golang.org/api/oauth2/v2"

	"github.com/hray3182/ClassSync/internal/calendar"
	"github.com/hray3182/ClassSync/internal/config"
	"github.com/hray3182/ClassSync/internal/errkind"
)

var ErrUnknownProvider = fmt.Errorf("%w: unknown or unconfigured provider", errkind.ErrInvalid)

var outlookScopes = []string{"offline_access", "User.Read", "Calendars.ReadWrite"}

// Flow is one provider's OAuth client plus what is needed to build its
// calendar.Provider.
type Flow struct {
	Name   string
	OAuth  *oauth2.Config
	Google calendar.GoogleOptions
	// GraphURL overrides the Microsoft Graph base URL.
	GraphURL string
	Timeout  time.Duration

	logger *zap.Logger
}

func NewGoogleFlow(c config.OAuthClient, timeout time.Duration, logger *zap.Logger) *Flow {
	return &Flow{
		Name: calendar.ProviderGoogle,
		OAuth: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{gcal.CalendarScope, goauth2.UserinfoEmailScope, goauth2.UserinfoProfileScope},
		},
		Google:  calendar.GoogleOptions{Timeout: timeout},
		Timeout: timeout,
		logger:  logger,
	}
}

func NewOutlookFlow(c config.OAuthClient, timeout time.Duration, logger *zap.Logger) *Flow {
	return &Flow{
		Name: calendar.ProviderOutlook,
		OAuth: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Endpoint:     microsoft.AzureADEndpoint(c.TenantID),
			Scopes:       outlookScopes,
		},
		GraphURL: calendar.DefaultGraphURL,
		Timeout:  timeout,
		logger:   logger,
	}
}

// AuthURL is where the browser is sent to grant access. Offline access is
// requested so the token can be refreshed.
func (f *Flow) AuthURL(state string) string {
	if f.Name == calendar.ProviderGoogle {
		return f.OAuth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	}
	return f.OAuth.AuthCodeURL(state)
}

func (f *Flow) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	tok, err := f.OAuth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange %s code: %w", f.Name, err)
	}
	return tok, nil
}

// Client returns an http client that signs requests with tok. A token that
// is missing, or expired without a refresh token, is ErrAuthExpired.
func (f *Flow) Client(ctx context.Context, tok *oauth2.Token) (*http.Client, error) {
	if tok == nil || (!tok.Valid() && tok.RefreshToken == "") {
		return nil, fmt.Errorf("%s: %w", f.Name, calendar.ErrAuthExpired)
	}
	return oauth2.NewClient(ctx, f.OAuth.TokenSource(ctx, tok)), nil
}

// Provider builds the calendar provider for tok.
func (f *Flow) Provider(ctx context.Context, tok *oauth2.Token) (calendar.Provider, error) {
	client, err := f.Client(ctx, tok)
	if err != nil {
		return nil, err
	}
	switch f.Name {
	case calendar.ProviderGoogle:
		return calendar.NewGoogle(ctx, client, f.Google, f.logger)
	case calendar.ProviderOutlook:
		return calendar.NewOutlook(client, f.GraphURL, f.Timeout, f.logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, f.Name)
	}
}

// Registry holds the configured flows by provider name.
type Registry struct {
	flows map[string]*Flow
}

// NewRegistry enables each provider whose client id and secret are set.
func NewRegistry(cfg *config.Config, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{flows: make(map[string]*Flow)}
	if cfg.Google.Enabled() {
		r.Add(NewGoogleFlow(cfg.Google, cfg.RemoteTimeout, logger))
	}
	if cfg.Outlook.Enabled() {
		r.Add(NewOutlookFlow(cfg.Outlook, cfg.RemoteTimeout, logger))
	}
	return r
}

func (r *Registry) Add(f *Flow) {
	if f.logger == nil {
		f.logger = zap.NewNop()
	}
	if f.Timeout <= 0 {
		f.Timeout = calendar.DefaultTimeout
	}
	r.flows[f.Name] = f
}

func (r *Registry) Flow(name string) (*Flow, error) {
	f, ok := r.flows[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return f, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.flows))
	for _, n := range []string{calendar.ProviderGoogle, calendar.ProviderOutlook} {
		if _, ok := r.flows[n]; ok {
			names = append(names, n)
		}
	}
	return names
}

// Provider returns the calendar provider called name, authorized by tok.
func (r *Registry) Provider(ctx context.Context, name string, tok *oauth2.Token) (calendar.Provider, error) {
	f, err := r.Flow(name)
	if err != nil {
		return nil, err
	}
	return f.Provider(ctx, tok)
}

// AuthURL is Flow.AuthURL for the named provider.
func (r *Registry) AuthURL(name, state string) (string, error) {
	f, err := r.Flow(name)
	if err != nil {
		return "", err
	}
	return f.AuthURL(state), nil
}

// Exchange is Flow.Exchange for the named provider.
func (r *Registry) Exchange(ctx context.Context, name, code string) (*oauth2.Token, error) {
	f, err := r.Flow(name)
	if err != nil {
		return nil, err
	}
	return f.Exchange(ctx, code)
}
