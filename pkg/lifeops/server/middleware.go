package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jr0d/lifeops/pkg/lifeops/server/credential"
)

const (
	RequestIDHeader = "X-Request-ID"

	requestIDKey  = "request_id"
	credentialKey = "credential"

	allowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	allowHeaders = "Content-Type, Authorization, X-Request-ID"
)

// DefaultCORSOrigins are the local frontend dev servers.
var DefaultCORSOrigins = []string{"http://localhost:5173", "http://localhost:5174"}

func (s *LifeOpsServer) requestID(c *gin.Context) {
	id := c.GetHeader(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(requestIDKey, id)
	c.Header(RequestIDHeader, id)
	c.Next()
}

func (s *LifeOpsServer) accessLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	if !s.Quiet {
		s.logRequest(c, time.Since(start))
	}
}

func (s *LifeOpsServer) allowedOrigins() map[string]bool {
	origins := map[string]bool{}
	for _, origin := range DefaultCORSOrigins {
		origins[origin] = true
	}
	if s.FrontendURL != "" {
		origins[strings.TrimSuffix(s.FrontendURL, "/")] = true
	}
	for _, origin := range s.CORSOrigins {
		origins[strings.TrimSuffix(origin, "/")] = true
	}
	return origins
}

func (s *LifeOpsServer) cors() gin.HandlerFunc {
	allowed := s.allowedOrigins()
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowed[origin] || allowed["*"]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
			if c.Request.Method == http.MethodOptions {
				c.Header("Access-Control-Allow-Methods", allowMethods)
				if requested := c.GetHeader("Access-Control-Request-Headers"); requested != "" {
					c.Header("Access-Control-Allow-Headers", requested)
				} else {
					c.Header("Access-Control-Allow-Headers", allowHeaders)
				}
			}
		}
		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requireCredential rejects the request before any downstream call unless a fresh
// credential is available.
func (s *LifeOpsServer) requireCredential(c *gin.Context) {
	res := s.Credentials.GetCredential(c.Request.Context())
	if !res.Authenticated() {
		s.handleError(nil, c, notAuthenticated, http.StatusUnauthorized)
		return
	}
	c.Set(credentialKey, res)
	c.Next()
}

func credentialFrom(c *gin.Context) credential.Result {
	res, _ := c.MustGet(credentialKey).(credential.Result)
	return res
}
