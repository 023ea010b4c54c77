package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"drivegate/acl"
)

const (
	principalKey  = "drivegate.principal"
	requestIDKey  = "drivegate.requestID"
	requestIDName = "X-Request-ID"
)

// requestID tags every request with a UUID, honoring one supplied by an
// upstream proxy.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDName)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDName, id)
		c.Next()
	}
}

// authenticate resolves the request to a principal. A valid session cookie
// wins; otherwise Basic credentials go through the engine's resolver, which
// collapses every failure to anonymous. A fresh cookie is minted whenever
// Basic credentials verify.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := s.resolvePrincipal(c)
		c.Set(principalKey, principal)
		c.Next()
	}
}

func (s *Server) resolvePrincipal(c *gin.Context) acl.Principal {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		if username, err := s.sessions.verify(cookie); err == nil {
			// Sessions outlive policy reloads only while the user
			// still exists in the current snapshot.
			if user, ok := s.engine.ACL().User(username); ok {
				return user
			}
		}
		s.clearSession(c)
	}

	username, secret, ok := c.Request.BasicAuth()
	if !ok {
		return s.engine.Anonymous()
	}
	principal := s.engine.Resolve(c.Request.Context(), username+":"+secret, c.ClientIP())
	if user, isUser := principal.(*acl.User); isUser {
		s.setSession(c, user.Name())
	}
	return principal
}

func (s *Server) setSession(c *gin.Context, username string) {
	token, err := s.sessions.issue(username)
	if err != nil {
		s.logger.Warn("session issue failed", "error", err)
		return
	}
	c.SetCookie(SessionCookie, token, int(s.sessions.ttl.Seconds()), "/", "", false, true)
}

func (s *Server) clearSession(c *gin.Context) {
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
}

func currentPrincipal(c *gin.Context) acl.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(acl.Principal); ok {
			return p
		}
	}
	return nil
}

// challenge asks the browser for credentials when an anonymous request hits
// a protected path; an authenticated but unauthorized request gets a plain
// forbidden page instead.
func (s *Server) challenge(c *gin.Context, principal acl.Principal) {
	if acl.Identity(principal) == acl.Identity(s.engine.Anonymous()) {
		c.Header("WWW-Authenticate", `Basic realm="`+s.realm+`"`)
		s.renderError(c, http.StatusUnauthorized, "Sign in to view this path.")
		return
	}
	s.renderError(c, http.StatusForbidden, "You do not have access to this path.")
}
