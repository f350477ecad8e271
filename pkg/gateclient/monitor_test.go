package gateclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForVerdict(t *testing.T, m *Monitor) *CheckResult {
	t.Helper()
	select {
	case result := <-m.Updates():
		return result
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a verdict")
		return nil
	}
}

func TestMonitorEmitsVerdicts(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"status":    "force_update",
			"store_url": "https://play.example",
		})
	}))
	defer ts.Close()

	m := NewMonitor(New(ts.URL), "android", "0.9.0", time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	verdict := waitForVerdict(t, m)
	assert.Equal(t, StatusForceUpdate, verdict.Status)
	assert.False(t, verdict.Unavailable)
	assert.True(t, verdict.UpdateRequired())

	require.NotNil(t, m.Last())
	assert.Equal(t, StatusForceUpdate, m.Last().Status)
}

func TestMonitorFailsOpenWithCachedVerdict(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			json.NewEncoder(w).Encode(map[string]string{"status": "soft_update"})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Version check unavailable"})
	}))
	defer ts.Close()

	m := NewMonitor(New(ts.URL), "android", "1.0.0", 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	first := waitForVerdict(t, m)
	assert.Equal(t, StatusSoftUpdate, first.Status)
	assert.False(t, first.Unavailable)

	second := waitForVerdict(t, m)
	assert.Equal(t, StatusSoftUpdate, second.Status, "the cached verdict is reused")
	assert.True(t, second.Unavailable)

	// The cached copy stays pristine for the next fallback.
	assert.False(t, m.Last().Unavailable)
}

func TestMonitorFailsOpenWithoutHistory(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	m := NewMonitor(New(ts.URL), "android", "1.0.0", time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	verdict := waitForVerdict(t, m)
	assert.Equal(t, StatusUpToDate, verdict.Status, "an unreachable gate never blocks a launch")
	assert.True(t, verdict.Unavailable)
	assert.Nil(t, m.Last())
}

func TestMonitorResume(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]string{"status": "up_to_date"})
	}))
	defer ts.Close()

	// The interval is an hour; only Resume can trigger the second check.
	m := NewMonitor(New(ts.URL), "ios", "2.0.0", time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	waitForVerdict(t, m)
	m.Resume()
	waitForVerdict(t, m)

	assert.Equal(t, int32(2), calls.Load())
}

func TestMonitorKeepsNewestVerdict(t *testing.T) {
	m := NewMonitor(New("http://localhost:0"), "android", "1.0.0", time.Hour)

	m.emit(&CheckResult{Status: StatusUpToDate})
	m.emit(&CheckResult{Status: StatusForceUpdate})

	verdict := waitForVerdict(t, m)
	assert.Equal(t, StatusForceUpdate, verdict.Status, "an undrained slot holds the newest verdict")
}
