package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evn/appgate/internal/models"
)

func newTestNotifier(t *testing.T) (*TelegramNotifier, *[]string) {
	t.Helper()

	var sent []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "-100123", body["chat_id"])
		sent = append(sent, body["text"])

		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	n := NewTelegramNotifier("test-token", "-100123")
	n.apiBase = srv.URL
	return n, &sent
}

func gate(platform string, maintenance bool, force string) *models.VersionGate {
	return &models.VersionGate{
		Platform:            platform,
		LatestVersion:       "2.0.0",
		MinimumVersion:      "1.5.0",
		ForceMinimumVersion: force,
		MaintenanceMode:     maintenance,
		MaintenanceMessage:  "back at noon",
	}
}

func TestGateUpdatedAlertsOnMaintenanceFlip(t *testing.T) {
	n, sent := newTestNotifier(t)

	n.GateUpdated(gate("ios", false, "1.0.0"), gate("ios", true, "1.0.0"))

	require.Len(t, *sent, 1)
	assert.Contains(t, (*sent)[0], "maintenance mode")
	assert.Contains(t, (*sent)[0], "back at noon")
}

func TestGateUpdatedAlertsOnForceFloorMove(t *testing.T) {
	n, sent := newTestNotifier(t)

	n.GateUpdated(gate("android", false, "1.0.0"), gate("android", false, "1.2.0"))

	require.Len(t, *sent, 1)
	assert.Contains(t, (*sent)[0], "force minimum moved from 1.0.0 to 1.2.0")
}

func TestGateUpdatedSkipsRoutineEdits(t *testing.T) {
	n, sent := newTestNotifier(t)

	before := gate("android", false, "1.0.0")
	after := gate("android", false, "1.0.0")
	after.LatestVersion = "2.1.0"

	n.GateUpdated(before, after)
	assert.Empty(t, *sent)
}

func TestGateUpdatedAnnouncesNewGates(t *testing.T) {
	n, sent := newTestNotifier(t)

	n.GateUpdated(nil, gate("web", false, "1.0.0"))

	require.Len(t, *sent, 1)
	assert.Contains(t, (*sent)[0], "New version gate for web")
}

func TestGateDeleted(t *testing.T) {
	n, sent := newTestNotifier(t)

	n.GateDeleted("ios")

	require.Len(t, *sent, 1)
	assert.Contains(t, (*sent)[0], "ios")
}

func TestNotifierDisabledWithoutToken(t *testing.T) {
	n := NewTelegramNotifier("", "")
	assert.False(t, n.Enabled())

	// Must not attempt any network call.
	n.GateUpdated(nil, gate("ios", false, "1.0.0"))
	n.GateDeleted("ios")
}
