package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	"roster/internal/domain/membership"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const identityKey contextKey = "identity"

// TokenCookie carries the identity token for browser form posts. Requests
// authenticated this way are subject to CSRF checks.
const TokenCookie = "roster_token"

// Token failure reasons reported to the failure callback.
const (
	ReasonMalformed = "malformed"
	ReasonExpired   = "expired"
	ReasonInvalid   = "invalid"
)

var ErrNoSubject = errors.New("token has no subject")

// Claims is the identity token payload. The subject is the user's uid.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Identity converts the claims to a membership identity.
func (c *Claims) Identity() membership.Identity {
	return membership.Identity{UID: c.Subject, Email: c.Email, DisplayName: c.Name}
}

// Tokens issues and verifies HMAC-signed identity tokens.
type Tokens struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens creates a token codec.
// PRE: len(key) >= 32, ttl > 0
func NewTokens(key []byte, issuer string, ttl time.Duration) *Tokens {
	return &Tokens{key: key, issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue signs a token for id.
// PRE: id is not anonymous
func (t *Tokens) Issue(id membership.Identity) (string, error) {
	if id.IsAnonymous() {
		return "", ErrNoSubject
	}
	now := t.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Email: id.Email,
		Name:  id.DisplayName,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
}

// Parse verifies a token and returns its claims.
// POST: returned claims have a subject, a matching issuer and are unexpired
func (t *Tokens) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (any, error) {
		return t.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrNoSubject
	}
	return claims, nil
}

// Identity resolves the bearer token or token cookie, when present, into
// the request's identity. Requests without a token continue anonymously;
// requests with a bad token are refused with 401. Websocket upgrades may
// pass the token in the access_token query parameter because browsers
// cannot set headers on them. onFailure may be nil.
func Identity(tokens *Tokens, onFailure func(reason string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				if c, err := r.Cookie(TokenCookie); err == nil {
					raw = c.Value
				}
			}
			if raw == "" && websocket.IsWebSocketUpgrade(r) {
				raw = r.URL.Query().Get("access_token")
			}
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := tokens.Parse(raw)
			if err != nil {
				reason := failureReason(err)
				slog.Warn("identity_rejected", "reason", reason, "path", r.URL.Path)
				if onFailure != nil {
					onFailure(reason)
				}
				http.Error(w, "invalid identity token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), claims.Identity())))
		})
	}
}

// RequireIdentity refuses anonymous requests with 401.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IdentityFrom(r.Context()).IsAnonymous() {
			w.Header().Set("WWW-Authenticate", `Bearer realm="roster"`)
			http.Error(w, "sign in required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUIDs lets only the listed uids through; everyone else gets 403.
func RequireUIDs(uids []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(uids))
	for _, u := range uids {
		allowed[u] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowed[IdentityFrom(r.Context()).UID] {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id membership.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the request identity, or the anonymous identity.
func IdentityFrom(ctx context.Context) membership.Identity {
	id, _ := ctx.Value(identityKey).(membership.Identity)
	return id
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ReasonMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return ReasonExpired
	default:
		return ReasonInvalid
	}
}
