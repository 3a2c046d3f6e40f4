package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/baharkarakas/library-backend/internal/api/httpx"
)

type clientLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimit allows rps requests per second per client address, with a burst
// of the same size. Idle clients are forgotten after idleTTL.
func RateLimit(rps int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	const idleTTL = 5 * time.Minute
	var (
		mu      sync.Mutex
		clients = map[string]*clientLimiter{}
		sweep   = time.Now()
	)
	get := func(key string, now time.Time) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		if now.Sub(sweep) > idleTTL {
			for k, c := range clients {
				if now.Sub(c.lastSeen) > idleTTL {
					delete(clients, k)
				}
			}
			sweep = now
		}
		c, ok := clients[key]
		if !ok {
			c = &clientLimiter{lim: rate.NewLimiter(rate.Limit(rps), rps)}
			clients[key] = c
		}
		c.lastSeen = now
		return c.lim
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !get(clientKey(r), time.Now()).Allow() {
				httpx.WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
