package web

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hray3182/ClassSync/internal/calendar"
	"github.com/hray3182/ClassSync/internal/errkind"
)

func (s *Server) handleLogin(c *gin.Context) {
	if s.auth == nil {
		s.fail(c, fmt.Errorf("%w: sign-in is not configured", errkind.ErrInvalid))
		return
	}
	provider := c.Param("provider")
	url, err := s.auth.AuthURL(provider, sessionOf(c).NewState(provider))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

// handleCallback finishes the code exchange and binds the token to the
// session.
func (s *Server) handleCallback(c *gin.Context) {
	if s.auth == nil {
		s.fail(c, fmt.Errorf("%w: sign-in is not configured", errkind.ErrInvalid))
		return
	}
	provider := c.Param("provider")
	sess := sessionOf(c)

	if denied := c.Query("error"); denied != "" {
		s.fail(c, fmt.Errorf("%w: %s", calendar.ErrAuthExpired, denied))
		return
	}
	if !sess.CheckState(provider, c.Query("state")) {
		s.fail(c, fmt.Errorf("%w: oauth state mismatch", errkind.ErrInvalid))
		return
	}

	tok, err := s.auth.Exchange(c.Request.Context(), provider, c.Query("code"))
	if err != nil {
		if errkind.Of(err) != errkind.Invalid {
			err = fmt.Errorf("%w: %v", calendar.ErrAuthExpired, err)
		}
		s.fail(c, err)
		return
	}
	user, err := s.svc.SignIn(c.Request.Context(), sess, provider, tok)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"provider": provider, "user": user})
}

// handleLogout drops the session with its tokens and ephemeral events, and
// expires the cookie.
func (s *Server) handleLogout(c *gin.Context) {
	sess := sessionOf(c)
	s.sessions.Delete(sess.ID)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", s.cookieSecure, true)
	s.logger.Info("signed out", zap.String("user_id", sess.UserID()))
	c.JSON(http.StatusOK, gin.H{"signed_out": true})
}

func (s *Server) handleGetProfile(c *gin.Context) {
	user, err := s.svc.Profile(c.Request.Context(), sessionOf(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

type profileRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) handleUpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errkind.ErrInvalid, err))
		return
	}
	user, err := s.svc.Rename(c.Request.Context(), sessionOf(c), req.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
