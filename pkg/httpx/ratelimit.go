package httpx

import (
	"math"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/devasign/devasign/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig is a token bucket: Burst tokens up front, refilled at
// RequestsPerWindow per Window.
type RateLimitConfig struct {
	Name              string
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

// Profiles used by the router. Each can be tuned through
// RATELIMIT_<NAME>_REQUESTS, RATELIMIT_<NAME>_WINDOW_SEC and
// RATELIMIT_<NAME>_BURST, read once at startup.
var (
	// StrictLimit guards the OAuth callback.
	StrictLimit = ParseRateLimitFromEnv("STRICT", profile("strict", 5))

	// ModerateLimit covers refresh, logout and resource writes.
	ModerateLimit = ParseRateLimitFromEnv("MODERATE", profile("moderate", 20))

	// LenientLimit covers authenticated reads and the login redirect.
	LenientLimit = ParseRateLimitFromEnv("LENIENT", profile("lenient", 100))

	// PublicLimit covers health probes and the JWKS document.
	PublicLimit = ParseRateLimitFromEnv("PUBLIC", profile("public", 1000))
)

func profile(name string, perMinute int) RateLimitConfig {
	return RateLimitConfig{Name: name, RequestsPerWindow: perMinute, Window: time.Minute, Burst: perMinute}
}

// ParseRateLimitFromEnv overlays RATELIMIT_<prefix>_* variables on def.
// Missing, malformed and non-positive values keep the default.
func ParseRateLimitFromEnv(prefix string, def RateLimitConfig) RateLimitConfig {
	cfg := def
	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_REQUESTS"); ok {
		cfg.RequestsPerWindow = n
	}
	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_WINDOW_SEC"); ok {
		cfg.Window = time.Duration(n) * time.Second
	}
	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_BURST"); ok {
		cfg.Burst = n
	}
	if cfg.Name == "" {
		cfg.Name = strings.ToLower(prefix)
	}
	return cfg
}

func positiveEnv(key string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ClientIP returns the caller's address. The first X-Forwarded-For hop wins,
// then X-Real-IP, then the socket peer.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitByIP throttles per client address.
func RateLimitByIP(cfg RateLimitConfig) Middleware {
	return RateLimit(cfg, func(r *http.Request) string {
		return "ip:" + ClientIP(r)
	})
}

// RateLimitByUser throttles per authenticated user, falling back to the
// client address when no identity is on the context. It must run after
// AuthnMiddleware to see the user.
func RateLimitByUser(cfg RateLimitConfig) Middleware {
	return RateLimit(cfg, func(r *http.Request) string {
		if id, ok := IdentityFromContext(r.Context()); ok && id.ID != "" {
			return "user:" + id.ID
		}
		return "ip:" + ClientIP(r)
	})
}

// RateLimit throttles requests sharing the key returned by keyFn. Requests
// with an empty key are let through.
func RateLimit(cfg RateLimitConfig, keyFn func(*http.Request) string) Middleware {
	store := newLimiterStore(cfg)
	limit := strconv.Itoa(cfg.RequestsPerWindow)
	window := strconv.Itoa(int(cfg.Window.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			wait := store.take(key, time.Now())
			if wait == 0 {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := int(math.Ceil(wait.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Window", window)

			slogx.FromContext(r.Context()).Warn("rate limited",
				"profile", cfg.Name,
				"key", key,
				"path", r.URL.Path,
				"retry_after", retryAfter,
			)
			WriteError(w, ErrTooManyRequests)
		})
	}
}

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// limiterStore holds one bucket per key. A bucket untouched for idleTTL is
// full again, so dropping it loses nothing.
type limiterStore struct {
	every   rate.Limit
	burst   int
	idleTTL time.Duration

	mu        sync.Mutex
	entries   map[string]*limiterEntry
	lastSweep time.Time
}

func newLimiterStore(cfg RateLimitConfig) *limiterStore {
	every := rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds())
	burst := max(cfg.Burst, 1)
	refill := time.Duration(float64(burst) / float64(every) * float64(time.Second))

	return &limiterStore{
		every:   every,
		burst:   burst,
		idleTTL: max(refill, time.Minute),
		entries: make(map[string]*limiterEntry),
	}
}

// take consumes a token for key at now. It returns zero when the request may
// proceed, otherwise how long until a token frees up.
func (s *limiterStore) take(key string, now time.Time) time.Duration {
	s.mu.Lock()
	if now.Sub(s.lastSweep) >= s.idleTTL {
		s.sweep(now)
	}
	e, ok := s.entries[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(s.every, s.burst)}
		s.entries[key] = e
	}
	e.seen = now
	s.mu.Unlock()

	res := e.lim.ReserveN(now, 1)
	if !res.OK() {
		return s.idleTTL
	}
	if d := res.DelayFrom(now); d > 0 {
		res.CancelAt(now)
		return d
	}
	return 0
}

// sweep drops idle buckets. Callers hold s.mu.
func (s *limiterStore) sweep(now time.Time) {
	for k, e := range s.entries {
		if now.Sub(e.seen) >= s.idleTTL {
			delete(s.entries, k)
		}
	}
	s.lastSweep = now
}

func (s *limiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
