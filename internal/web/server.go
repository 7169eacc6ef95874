// Package web exposes the schedule service over HTTP.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/hray3182/ClassSync/internal/ai"
	"github.com/hray3182/ClassSync/internal/calendar"
	"github.com/hray3182/ClassSync/internal/errkind"
	"github.com/hray3182/ClassSync/internal/schedule"
	"github.com/hray3182/ClassSync/internal/session"
)

const (
	sessionCookie = "classsync_session"
	sessionKey    = "session"
)

// Authenticator runs the OAuth redirect and code exchange for a provider.
type Authenticator interface {
	AuthURL(provider, state string) (string, error)
	Exchange(ctx context.Context, provider, code string) (*oauth2.Token, error)
	Names() []string
}

// ClassParser turns free text into form rows.
type ClassParser interface {
	ParseClasses(ctx context.Context, text string, hints ai.Hints) (*ai.ParseResult, error)
}

type Options struct {
	Service  *schedule.Service
	Sessions *session.Manager
	Auth     Authenticator
	// Parser is optional; without it /api/classes/parse answers 503.
	Parser       ClassParser
	CookieSecure bool
	Logger       *zap.Logger
}

type Server struct {
	svc          *schedule.Service
	sessions     *session.Manager
	auth         Authenticator
	parser       ClassParser
	cookieSecure bool
	logger       *zap.Logger
	router       *gin.Engine
	started      time.Time
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewManager()
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		svc:          opts.Service,
		sessions:     opts.Sessions,
		auth:         opts.Auth,
		parser:       opts.Parser,
		cookieSecure: opts.CookieSecure,
		logger:       opts.Logger,
		router:       gin.New(),
		started:      time.Now(),
	}
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	authGroup := s.router.Group("/auth/:provider", s.withSession())
	{
		authGroup.GET("/login", s.handleLogin)
		authGroup.GET("/callback", s.handleCallback)
	}
	s.router.POST("/auth/logout", s.withSession(), s.handleLogout)

	api := s.router.Group("/api", s.withSession())
	{
		api.GET("/catalog", s.handleCatalog)
		api.POST("/schedule", s.handlePush)
		api.GET("/events", s.handleListEvents)
		api.GET("/events.ics", s.handleExportICS)
		api.GET("/events/:id", s.handleGetEvent)
		api.PUT("/events/:id", s.handleUpdateEvent)
		api.DELETE("/events/:id", s.handleDeleteEvent)
		api.GET("/events/:id/occurrences", s.handleListOccurrences)
		api.POST("/events/:id/occurrences/delete", s.handleDeleteOccurrences)
		api.GET("/sync", s.handleSync)
		api.GET("/stats", s.handleStats)
		api.POST("/classes/parse", s.handleParseClasses)
		api.GET("/users/me", s.handleGetProfile)
		api.PUT("/users/me", s.handleUpdateProfile)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// withSession attaches the caller's session, starting one when the cookie is
// missing or stale.
func (s *Server) withSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(sessionCookie)
		sess, created := s.sessions.GetOrCreate(id)
		if created {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sessionCookie, sess.ID, 0, "/", "", s.cookieSecure, true)
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func sessionOf(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

type errorBody struct {
	Error    string             `json:"error"`
	Kind     errkind.Kind       `json:"kind"`
	Attempts []calendar.Attempt `json:"attempts"`
	// Results holds the work finished before a request was cut short.
	Results any `json:"results,omitempty"`
}

func statusFor(kind errkind.Kind) int {
	switch kind {
	case errkind.Invalid, errkind.NoMatchingDate, errkind.UnsupportedFrequency:
		return http.StatusBadRequest
	case errkind.AuthExpired:
		return http.StatusUnauthorized
	case errkind.NotFound:
		return http.StatusNotFound
	case errkind.DuplicateKey:
		return http.StatusConflict
	case errkind.RemoteCallFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail renders err as {error, kind, attempts}.
func (s *Server) fail(c *gin.Context, err error) {
	s.failWithResults(c, err, nil)
}

// failWithResults is fail plus the per-item results completed before err.
func (s *Server) failWithResults(c *gin.Context, err error, results any) {
	kind := errkind.Of(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}

	attempts := errkind.Attempts(err)
	if attempts == nil {
		attempts = []calendar.Attempt{}
	}
	c.AbortWithStatusJSON(status, errorBody{Error: err.Error(), Kind: kind, Attempts: attempts, Results: results})
}
