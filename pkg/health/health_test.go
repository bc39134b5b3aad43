package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probeStatus(handler http.HandlerFunc) int {
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w.Code
}

func TestReadyEndpointGatedOnSetReady(t *testing.T) {
	t.Parallel()

	h := New()

	// Not ready until initialization says so.
	assert.Equal(t, http.StatusServiceUnavailable, probeStatus(h.ReadyEndpoint))

	h.SetReady(true)
	assert.Equal(t, http.StatusOK, probeStatus(h.ReadyEndpoint))

	// Shutdown drains by flipping the gate back.
	h.SetReady(false)
	assert.Equal(t, http.StatusServiceUnavailable, probeStatus(h.ReadyEndpoint))
}

func TestLiveEndpointDefaultsHealthy(t *testing.T) {
	t.Parallel()

	h := New()
	h.AddLivenessCheck("never-ran", time.Second, func(context.Context) error {
		return errors.New("boom")
	})

	// Checks start healthy; they only flip after enough observed failures.
	assert.Equal(t, http.StatusOK, probeStatus(h.LiveEndpoint))
}

func TestCheckFailureThreshold(t *testing.T) {
	t.Parallel()

	probeErr := errors.New("db down")
	c := newCheck("db", time.Second, func(context.Context) error { return probeErr })

	for i := range failureThreshold - 1 {
		c.run(t.Context())
		healthy, _ := c.state()
		assert.Truef(t, healthy, "still healthy after %d failures", i+1)
	}

	c.run(t.Context())
	healthy, err := c.state()
	assert.False(t, healthy)
	assert.ErrorIs(t, err, probeErr)
}

func TestCheckRecovers(t *testing.T) {
	t.Parallel()

	var fail bool
	c := newCheck("db", time.Second, func(context.Context) error {
		if fail {
			return errors.New("db down")
		}
		return nil
	})

	fail = true
	for range failureThreshold {
		c.run(t.Context())
	}
	healthy, _ := c.state()
	require.False(t, healthy)

	fail = false
	c.run(t.Context())
	healthy, _ = c.state()
	assert.True(t, healthy)
}

func TestReadyEndpointReportsFailedCheck(t *testing.T) {
	t.Parallel()

	h := New()
	h.SetReady(true)
	h.AddReadinessCheck("db", time.Second, func(context.Context) error {
		return errors.New("connection refused")
	})

	h.Start(t.Context(), 10*time.Millisecond)
	defer h.Stop()

	require.Eventually(t, func() bool {
		return probeStatus(h.ReadyEndpoint) == http.StatusServiceUnavailable
	}, time.Second, 10*time.Millisecond)

	w := httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, w.Body.String(), "connection refused")
}
