package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// visitorTTL is how long a quiet visitor keeps its limiter.
	visitorTTL = time.Hour

	// sweepEvery spaces out scans for quiet visitors.
	sweepEvery = time.Minute
)

// A Visitor is one client address and its limiter.
type Visitor struct {
	LastSeen time.Time
	Limiter  *rate.Limiter
}

// Visitors holds a Visitor per client address.
type Visitors struct {
	burst     int
	limit     rate.Limit
	mu        sync.Mutex
	lastSweep time.Time
	val       map[string]Visitor
}

// NewVisitors constructs a *Visitors allowing each client limit requests a second,
// with bursts of up to burst.
func NewVisitors(limit rate.Limit, burst int) *Visitors {
	return &Visitors{burst: burst, limit: limit, lastSweep: time.Now(), val: make(map[string]Visitor)}
}

// Fetch returns the Visitor for ip, first seeing it if need be.
func (vs *Visitors) Fetch(ip string) Visitor {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	now := time.Now().UTC()
	v, ok := vs.val[ip]
	if !ok {
		v = Visitor{Limiter: rate.NewLimiter(vs.limit, vs.burst)}
	}
	v.LastSeen = now
	vs.val[ip] = v

	if now.Sub(vs.lastSweep) > sweepEvery {
		vs.sweep(now)
	}

	return v
}

// Len reports how many visitors are tracked.
func (vs *Visitors) Len() int {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	return len(vs.val)
}

// sweep forgets visitors quiet for longer than visitorTTL.
// The caller holds mu.
func (vs *Visitors) sweep(now time.Time) {
	for ip, v := range vs.val {
		if now.Sub(v.LastSeen) > visitorTTL {
			delete(vs.val, ip)
		}
	}
	vs.lastSweep = now
}

// RateLimit answers 429 Too Many Requests to clients over their limit,
// with Retry-After when the limiter can say when a request would pass.
// Clients are told apart by GetIPAddress.
//
// If visitors is nil, RateLimit is a NoopAdapter.
func RateLimit(visitors *Visitors) Adapter {
	if visitors == nil {
		return NoopAdapter
	}

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := visitors.Fetch(GetIPAddress(r.Header)).Limiter.Reserve()
			if !res.OK() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			if wait := res.Delay(); wait > 0 {
				res.Cancel()
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			h.ServeHTTP(w, r)
		})
	}
}
