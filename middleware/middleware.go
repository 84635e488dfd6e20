// Package middleware carries the request plumbing shared by every
// endpoint: panic recovery, request logging, body limits, per-client
// rate limiting and the session gate.
package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"pc-inventory/auth"
	"pc-inventory/types"
)

type contextKey int

const (
	identityKey contextKey = iota
	sessionIDKey
)

// SessionCookieName carries the session token for browser clients; API
// clients send it as a bearer token instead.
const SessionCookieName = "inventory_session"

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// PanicRecovery converts handler panics into 500 responses.
func PanicRecovery(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			defer func() {
				if recovered := recover(); recovered != nil {
					log.Error().
						Interface("panic", recovered).
						Str("path", req.URL.Path).
						Bytes("stack", debug.Stack()).
						Msg("panic recovered")
					writeJSONError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, req)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger logs one line per request with client, method, path,
// status and duration.
func RequestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, req)
			log.Info().
				Str("ip", clientIP(req)).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", rec.status).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

// LimitBody caps the request body size before any handler reads it.
func LimitBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.ContentLength > maxBytes {
				writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			req.Body = http.MaxBytesReader(w, req.Body, maxBytes)
			next.ServeHTTP(w, req)
		})
	}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP. Stale entries are
// evicted passively whenever the map is touched.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	rps     rate.Limit
	burst   int
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, c := range rl.clients {
		if now.Sub(c.lastSeen) > 3*time.Minute {
			delete(rl.clients, key)
		}
	}

	c, ok := rl.clients[ip]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter.Allow()
}

// Limit rejects clients that exceed their per-IP budget.
func (rl *RateLimiter) Limit(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ip := clientIP(req)
			if !rl.allow(ip) {
				log.Warn().Str("ip", ip).Str("path", req.URL.Path).Msg("rate limited")
				writeJSONError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

// RequireSession validates the session token and stores the resolved
// identity in the request context. Expired and unknown sessions get the
// same 401: both just mean "authenticate again".
func RequireSession(sessions *auth.Manager, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			token := TokenFromRequest(req)
			if token == "" {
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			ident, err := sessions.Validate(req.Context(), token)
			if err != nil {
				switch err {
				case auth.ErrSessionNotFound, auth.ErrSessionExpired:
					writeJSONError(w, http.StatusUnauthorized, "authentication required")
				default:
					log.Error().Err(err).Msg("session validation failed")
					writeJSONError(w, http.StatusInternalServerError, "internal server error")
				}
				return
			}
			if !ident.IsActive {
				writeJSONError(w, http.StatusForbidden, "account disabled")
				return
			}
			ctx := context.WithValue(req.Context(), identityKey, ident)
			ctx = context.WithValue(ctx, sessionIDKey, token)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

// TokenFromRequest extracts the session token from the Authorization
// header or, failing that, the session cookie. The auth scheme is
// case-insensitive per RFC 9110.
func TokenFromRequest(req *http.Request) string {
	const prefix = "Bearer "
	if h := req.Header.Get("Authorization"); len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return h[len(prefix):]
	}
	if cookie, err := req.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// IdentityFromContext returns the identity stored by RequireSession.
func IdentityFromContext(ctx context.Context) (*types.Identity, bool) {
	ident, ok := ctx.Value(identityKey).(*types.Identity)
	return ident, ok
}

func clientIP(req *http.Request) string {
	ip, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return ip
}

// Chain applies middlewares left to right: the first listed is the
// outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
