package hub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evn/appgate/internal/models"
)

// Run only touches Send and Platform, so tests drive the hub with bare
// clients and no real connections.
func newTestClient(platform string) *Client {
	return &Client{Send: make(chan []byte, 4), Platform: platform}
}

func event(platform string) models.GateEvent {
	return models.GateEvent{
		Type:      models.EventGateUpdated,
		Platform:  platform,
		Timestamp: time.Now(),
	}
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	h := NewHub()
	a, b := newTestClient(""), newTestClient("")
	h.Register(a)
	h.Register(b)

	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	h.Broadcast(event("android"))

	for _, c := range []*Client{a, b} {
		select {
		case data := <-c.Send:
			var got models.GateEvent
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, "android", got.Platform)
			assert.Equal(t, models.EventGateUpdated, got.Type)
		case <-time.After(time.Second):
			t.Fatal("client did not receive the event")
		}
	}
}

func TestHubFiltersByPlatform(t *testing.T) {
	h := NewHub()
	iosClient := newTestClient("ios")
	androidClient := newTestClient("android")
	h.Register(iosClient)
	h.Register(androidClient)

	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	h.Broadcast(event("ios"))

	select {
	case <-iosClient.Send:
	case <-time.After(time.Second):
		t.Fatal("ios client did not receive the event")
	}

	select {
	case <-androidClient.Send:
		t.Fatal("android client received an ios event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	h := NewHub()
	c := newTestClient("")
	h.Register(c)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	h.Unregister(c)
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 10*time.Millisecond)

	_, open := <-c.Send
	assert.False(t, open)
}

func TestHubDropsSlowConsumers(t *testing.T) {
	h := NewHub()
	slow := &Client{Send: make(chan []byte)} // unbuffered, nobody reading
	h.Register(slow)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	h.Broadcast(event("android"))

	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
	_, open := <-slow.Send
	assert.False(t, open)
}
