package web

import (
	"crypto/rand"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookie is the cookie carrying the signed browser session.
const SessionCookie = "drivegate_session"

// DefaultSessionTTL bounds how long a browser can reuse a verified
// credential without paying another argon2 verification.
const DefaultSessionTTL = 15 * time.Minute

var errInvalidSession = errors.New("invalid session token")

type sessionClaims struct {
	jwt.RegisteredClaims
}

// sessions issues and verifies the short-lived HS256 cookie minted after a
// successful Basic credential check.
type sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newSessions(secret []byte, ttl time.Duration) (*sessions, error) {
	if len(secret) == 0 {
		// No configured secret: sessions are scoped to this process.
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &sessions{secret: secret, ttl: ttl, now: time.Now}, nil
}

// issue signs a session token for a verified username.
func (s *sessions) issue(username string) (string, error) {
	now := s.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    "drivegate",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// verify returns the username carried by a valid session token.
func (s *sessions) verify(tokenStr string) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer("drivegate"),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	claims := &sessionClaims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", errInvalidSession
	}
	return claims.Subject, nil
}
