package http

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/apperr"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/auth"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/observability"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/ratelimit"
)

type rateLimitResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	RetryAfter int    `json:"retryAfter"`
}

// requestContext copies chi's request id into the observability context.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := middleware.GetReqID(ctx); id != "" {
			ctx = observability.WithRequestID(ctx, id)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		observability.LoggerFromContext(r.Context()).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (a *API) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		w.Header().Add("Vary", "Origin")
		if origin != "" {
			switch a.matchOrigin(origin) {
			case originListed:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			case originWildcard:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			}
		}
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type originMatch int

const (
	originDenied originMatch = iota
	originListed
	originWildcard
)

// matchOrigin falls back to the local dev frontend when no origins are
// configured. A "*" entry admits any origin, but never with credentials.
func (a *API) matchOrigin(origin string) originMatch {
	if len(a.Origins) == 0 {
		if origin == "http://localhost:3000" {
			return originListed
		}
		return originDenied
	}
	wildcard := false
	for _, allowed := range a.Origins {
		allowed = strings.TrimSpace(allowed)
		if allowed == "*" {
			wildcard = true
			continue
		}
		if strings.EqualFold(allowed, origin) {
			return originListed
		}
	}
	if wildcard {
		return originWildcard
	}
	return originDenied
}

func (a *API) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := auth.TokenFromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "TOKEN_MISSING", "Access token required")
			return
		}
		user, err := a.Service.Authenticate(r.Context(), token)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
	})
}

// optionalAuthMiddleware attaches the user when a valid token is present and
// otherwise proceeds anonymously.
func (a *API) optionalAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := auth.TokenFromRequest(r); ok {
			if user, err := a.Service.Authenticate(r.Context(), token); err == nil {
				r = r.WithContext(auth.WithUser(r.Context(), user))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimit gates a route by client IP. It expects middleware.RealIP to have
// run first.
func rateLimit(l *ratelimit.Limiter, message string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			retryAfter, ok := l.Allow(clientIP(r))
			if !ok {
				seconds := int(math.Ceil(retryAfter.Seconds()))
				ae := apperr.RateLimited(message)
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				writeJSON(w, ae.Kind.Status(), rateLimitResponse{
					Error:      ae.Message,
					Code:       ae.Code,
					RetryAfter: seconds,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
