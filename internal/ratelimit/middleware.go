package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"

	"github.com/wovenshop/storefront/internal/common"
	"github.com/wovenshop/storefront/internal/store"
)

// Middleware throttles brute-force promotion code guessing. Keys combine the
// resolved store with the caller's session (or IP, for clients without one) so
// one hot store cannot starve another.
type Middleware struct {
	Limiter       *limiter.Limiter
	SessionCookie string
	Logger        *zerolog.Logger
}

// New builds the middleware on the given store and rate.
func New(s limiter.Store, rate limiter.Rate, sessionCookie string) *Middleware {
	return &Middleware{Limiter: limiter.New(s, rate), SessionCookie: sessionCookie}
}

// Handler enforces the limit. Limiter backend failures are logged and the
// request is allowed through; throttling is protection, not correctness.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lctx, err := m.Limiter.Get(r.Context(), m.key(r))
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn().Err(err).Msg("rate limiter unavailable")
			}
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))
		if lctx.Reached {
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many attempts, slow down", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) key(r *http.Request) string {
	storeID, _ := store.ID(r.Context())

	if id := strings.TrimSpace(r.Header.Get("X-Session-ID")); id != "" {
		return storeID + ":" + id
	}
	if m.SessionCookie != "" {
		if cookie, err := r.Cookie(m.SessionCookie); err == nil && cookie.Value != "" {
			return storeID + ":" + cookie.Value
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return storeID + ":" + host
}
