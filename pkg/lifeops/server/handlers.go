package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jr0d/lifeops/pkg/lifeops"
	"github.com/jr0d/lifeops/pkg/lifeops/google"
	"github.com/jr0d/lifeops/pkg/lifeops/server/credential"
	"github.com/jr0d/lifeops/pkg/lifeops/server/storage"
)

const notAuthenticated = "Not authenticated"

// CredentialManager is the part of credential.Manager the handlers depend on.
type CredentialManager interface {
	GetCredential(ctx context.Context) credential.Result
	CompleteAuthorization(ctx context.Context, code, redirectURI string) error
	ClearCredential() error
	InitiateAuthorization(state, redirectURI string) string
}

type LifeOpsServer struct {
	// Quiet when true, request and error logging is suppressed
	Quiet bool
	Log   logrus.FieldLogger

	Credentials CredentialManager
	Google      *google.Factory

	// FrontendURL receives the browser after the consent callback.
	FrontendURL string
	// RedirectURL is the registered callback URL. When empty it is derived from the request.
	RedirectURL string
	CORSOrigins []string

	HmacTTL    int64
	HmacSecret []byte

	// Now is overridden in tests.
	Now func() time.Time
}

func (s *LifeOpsServer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *LifeOpsServer) log(c *gin.Context) logrus.FieldLogger {
	logger := s.Log
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if id := c.GetString(requestIDKey); id != "" {
		return logger.WithField("request_id", id)
	}
	return logger
}

func (s *LifeOpsServer) logRequest(c *gin.Context, latency time.Duration) {
	s.log(c).WithFields(logrus.Fields{
		"remote":  c.ClientIP(),
		"method":  c.Request.Method,
		"uri":     c.Request.RequestURI,
		"status":  c.Writer.Status(),
		"bytes":   c.Writer.Size(),
		"latency": latency.String(),
	}).Info("request")
}

func (s *LifeOpsServer) logError(err error, c *gin.Context, msg string) {
	s.log(c).WithError(err).WithField("uri", c.Request.RequestURI).Error(msg)
}

func (s *LifeOpsServer) handleError(err error, c *gin.Context, msg string, code int) {
	c.AbortWithStatusJSON(code, lifeops.ErrorResponse{Detail: msg})
	if !s.Quiet && err != nil {
		s.logError(err, c, msg)
	}
}

func (s *LifeOpsServer) Health(c *gin.Context) {
	c.JSON(http.StatusOK, lifeops.HealthResponse{
		Status:    "ok",
		Timestamp: storage.FormatTime(s.now()),
	})
}

func (s *LifeOpsServer) AuthStatus(c *gin.Context) {
	res := s.Credentials.GetCredential(c.Request.Context())
	if !res.Authenticated() {
		c.JSON(http.StatusOK, lifeops.AuthStatusResponse{Authenticated: false})
		return
	}
	response := lifeops.AuthStatusResponse{
		Authenticated: true,
		Email:         res.Email,
		AccessToken:   res.Token.AccessToken,
	}
	if !res.Expiry.IsZero() {
		response.Expiry = storage.FormatTime(res.Expiry)
	}
	c.JSON(http.StatusOK, response)
}

func (s *LifeOpsServer) Login(c *gin.Context) {
	redirectURI := s.redirectURI(c.Request)
	state := s.GenerateHMAC(redirectURI, s.now().Unix())
	c.JSON(http.StatusOK, lifeops.LoginResponse{
		AuthURL: s.Credentials.InitiateAuthorization(state, redirectURI),
	})
}

func (s *LifeOpsServer) AuthCallback(c *gin.Context) {
	if providerErr := c.Query("error"); providerErr != "" {
		s.log(c).WithField("error", providerErr).Warn("consent was not granted")
		s.redirectToFrontend(c, "auth_error", providerErr)
		return
	}

	code := c.Query("code")
	if code == "" {
		s.log(c).Warn("auth code is missing from request")
		s.redirectToFrontend(c, "auth_error", "no_code")
		return
	}

	redirectURI := s.redirectURI(c.Request)
	if !s.CheckHMAC(redirectURI, c.Query("state")) {
		s.log(c).Warn("state failed validation")
		s.redirectToFrontend(c, "auth_error", "invalid_state")
		return
	}

	if err := s.Credentials.CompleteAuthorization(c.Request.Context(), code, redirectURI); err != nil {
		if !s.Quiet {
			if errors.Is(err, credential.ErrAuthorizationFailed) {
				s.log(c).WithError(err).Warn("authorization failed")
			} else {
				s.logError(err, c, "could not store credential")
			}
		}
		s.redirectToFrontend(c, "auth_error", err.Error())
		return
	}

	s.redirectToFrontend(c, "auth_success", "true")
}

func (s *LifeOpsServer) Logout(c *gin.Context) {
	if err := s.Credentials.ClearCredential(); err != nil {
		s.handleError(err, c, err.Error(), http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, lifeops.SuccessResponse{Success: true})
}

func (s *LifeOpsServer) redirectToFrontend(c *gin.Context, key, value string) {
	target, err := url.Parse(s.FrontendURL)
	if err != nil {
		s.handleError(err, c, "invalid frontend url", http.StatusInternalServerError)
		return
	}
	q := target.Query()
	q.Set(key, value)
	target.RawQuery = q.Encode()
	c.Redirect(http.StatusTemporaryRedirect, target.String())
}

// redirectURI is the callback URL the provider sends the browser back to. The same value
// must be used when starting the flow and when exchanging the code.
func (s *LifeOpsServer) redirectURI(req *http.Request) string {
	if s.RedirectURL != "" {
		return s.RedirectURL
	}
	scheme := "http"
	if req.TLS != nil {
		scheme = "https"
	}
	if proto := req.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + req.Host + lifeops.CallbackEndpoint
}
