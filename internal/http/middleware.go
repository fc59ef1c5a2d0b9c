package http

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/inkdesk/storefront/internal/logger"
	"github.com/inkdesk/storefront/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Middleware struct {
	resp     *Responder
	verifier *TokenVerifier
	redis    *redis.Client
	log      zerolog.Logger
}

func NewMiddleware(resp *Responder, verifier *TokenVerifier, redisClient *redis.Client, log zerolog.Logger) *Middleware {
	return &Middleware{resp: resp, verifier: verifier, redis: redisClient, log: log}
}

// RequestID propagates X-Request-ID, generating one when absent.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := logger.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// AccessLog writes one line per request.
func (m *Middleware) AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		l := logger.FromContext(r.Context(), m.log)
		l.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Msg("request completed")
	})
}

// Recoverer turns a panic into a 500 response.
func (m *Middleware) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				l := logger.FromContext(r.Context(), m.log)
				l.Error().
					Str("panic", fmt.Sprint(rec)).
					Bytes("stack", debug.Stack()).
					Msg("recovered from panic")
				m.resp.Error(w, r, fmt.Errorf("panic: %v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Authenticate requires a valid token and stores the principal in the context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := tokenFromRequest(r)
		if err != nil {
			m.resp.Error(w, r, err)
			return
		}
		principal, err := m.verifier.Verify(raw)
		if err != nil {
			m.resp.Error(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), principal)))
	})
}

// RequireAdmin must run after Authenticate.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalFrom(r.Context())
		if !ok {
			m.resp.Error(w, r, fmt.Errorf("%w: %v", service.ErrUnauthorized, errNoPrincipal))
			return
		}
		if !principal.IsAdmin() {
			m.resp.Error(w, r, fmt.Errorf("%w: admin role required", service.ErrForbidden))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit allows limit requests per window per caller, keyed by user id
// when authenticated and by remote address otherwise. Redis failures let the
// request through.
func (m *Middleware) RateLimit(name string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.redis == nil || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			caller := r.RemoteAddr
			if p, ok := principalFrom(r.Context()); ok {
				caller = p.UserID.Hex()
			}
			key := fmt.Sprintf("rate_limit:%s:%s", name, caller)

			ctx := r.Context()
			// EXPIRE NX in the same transaction so a counter never outlives its window.
			var incr *redis.IntCmd
			_, err := m.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				incr = pipe.Incr(ctx, key)
				pipe.ExpireNX(ctx, key, window)
				return nil
			})
			if err != nil {
				l := logger.FromContext(ctx, m.log)
				l.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if incr.Val() > int64(limit) {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
				respondJSON(w, http.StatusTooManyRequests, ErrorResponse{
					Success: false,
					Message: "too many requests",
					Code:    "rate_limited",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
