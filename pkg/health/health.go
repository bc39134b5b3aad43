// Package health provides Kubernetes-style liveness and readiness probes.
//
// Checks run periodically in the background. A check flips unhealthy only
// after failing consecutively failureThreshold times, so a single slow
// database ping does not take the service out of rotation.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one component. It returns nil when the component is
// healthy.
type CheckFunc func(ctx context.Context) error

const (
	failureThreshold = 3
	successThreshold = 1
)

// check holds configuration and state for a single probe. State is guarded
// by mu; the runner goroutine writes, HTTP handlers read.
type check struct {
	name    string
	timeout time.Duration
	probe   CheckFunc

	mu      sync.Mutex
	healthy bool
	lastErr error
	fails   int
	oks     int
}

func newCheck(name string, timeout time.Duration, probe CheckFunc) *check {
	return &check{
		name:    name,
		timeout: timeout,
		probe:   probe,
		healthy: true, // assume healthy until proven otherwise
	}
}

// run executes the probe once and updates the thresholds.
func (c *check) run(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	err := c.probe(probeCtx)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
	if err != nil {
		c.oks = 0
		if c.fails++; c.fails >= failureThreshold {
			c.healthy = false
		}
		return
	}
	c.fails = 0
	if c.oks++; c.oks >= successThreshold {
		c.healthy = true
	}
}

// state returns the current health flag and last error.
func (c *check) state() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.healthy, c.lastErr
}

// Health manages liveness and readiness checks for a service.
type Health struct {
	ready  atomic.Bool
	mu     sync.Mutex
	live   []*check
	readyc []*check
	cancel context.CancelFunc
}

// New creates a Health instance. The service starts not-ready; call
// SetReady(true) once initialization finishes.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a liveness probe: is the process alive at all
// (goroutine leaks, deadlocks).
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, probe CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.live = append(h.live, newCheck(name, timeout, probe))
}

// AddReadinessCheck registers a readiness probe: can the service take
// traffic (database connectivity, dependencies).
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, probe CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readyc = append(h.readyc, newCheck(name, timeout, probe))
}

// Start launches one goroutine per registered check, probing at interval
// until Stop is called or ctx is cancelled.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	checks := append(append([]*check{}, h.live...), h.readyc...)
	h.mu.Unlock()

	for _, c := range checks {
		go func(c *check) {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			c.run(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					c.run(ctx)
				}
			}
		}(c)
	}
}

// Stop cancels the background probe goroutines. Safe to call repeatedly.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady flips the manual readiness gate. Set false during graceful
// shutdown to drain traffic before the listener closes.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez: 200 while all liveness checks pass, 503 with
// per-check failures otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	checks := append([]*check{}, h.live...)
	h.mu.Unlock()

	writeStatus(w, failures(checks))
}

// ReadyEndpoint serves /readyz: 200 only when the service is marked ready
// and every readiness check passes.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	checks := append([]*check{}, h.readyc...)
	h.mu.Unlock()

	fs := failures(checks)
	if !h.ready.Load() {
		fs["_readiness"] = "service is not ready"
	}
	writeStatus(w, fs)
}

func failures(checks []*check) map[string]string {
	fs := make(map[string]string)
	for _, c := range checks {
		if healthy, err := c.state(); !healthy {
			if err != nil {
				fs[c.name] = err.Error()
			} else {
				fs[c.name] = "check is unhealthy"
			}
		}
	}
	return fs
}

func writeStatus(w http.ResponseWriter, fs map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := statusResponse{Status: "ok"}
	code := http.StatusOK
	if len(fs) > 0 {
		resp.Status = "unhealthy"
		resp.Checks = fs
		code = http.StatusServiceUnavailable
	}

	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
