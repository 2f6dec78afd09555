package fanout

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AntoDono/suscart/internal/domain"
	"github.com/AntoDono/suscart/internal/registry"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConn(t *testing.T) (server *websocket.Conn, client *websocket.Conn) {
	t.Helper()

	connCh := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		connCh <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	select {
	case server = <-connCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server-side connection")
	}
	return server, client
}

func readEvent(t *testing.T, conn *websocket.Conn) domain.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event domain.Event
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func setup(t *testing.T) (*registry.Registry, *Broadcaster) {
	t.Helper()
	reg := registry.New(clockwork.NewRealClock(), 0)
	t.Cleanup(reg.Stop)
	return reg, New(reg, clockwork.NewRealClock())
}

func TestBroadcastAdminReachesAllAdmins(t *testing.T) {
	reg, b := setup(t)

	serverA, clientA := newTestConn(t)
	serverB, clientB := newTestConn(t)
	require.NoError(t, reg.Register(serverA, registry.RoleAdmin, uuid.Nil))
	require.NoError(t, reg.Register(serverB, registry.RoleAdmin, uuid.Nil))

	b.BroadcastAdmin(domain.EventItemUpdated, map[string]any{"id": "abc"})

	for _, client := range []*websocket.Conn{clientA, clientB} {
		event := readEvent(t, client)
		assert.Equal(t, domain.EventItemUpdated, event.Type)
		assert.False(t, event.EmittedAt.IsZero())
	}
}

func TestBroadcastAdminDeliversExactlyOncePerConnection(t *testing.T) {
	reg, b := setup(t)

	serverConn, clientConn := newTestConn(t)
	require.NoError(t, reg.Register(serverConn, registry.RoleAdmin, uuid.Nil))

	b.BroadcastAdmin(domain.EventItemAdded, nil)

	event := readEvent(t, clientConn)
	assert.Equal(t, domain.EventItemAdded, event.Type)

	// No second copy of the frame follows.
	require.NoError(t, clientConn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := clientConn.ReadMessage()
	assert.Error(t, err)
}

func TestNotifyCustomerIsTargeted(t *testing.T) {
	reg, b := setup(t)

	targetID, otherID := uuid.New(), uuid.New()
	targetServer, targetClient := newTestConn(t)
	otherServer, otherClient := newTestConn(t)
	require.NoError(t, reg.Register(targetServer, registry.RoleCustomer, targetID))
	require.NoError(t, reg.Register(otherServer, registry.RoleCustomer, otherID))

	b.NotifyCustomer(targetID, domain.EventNewRecommendation, map[string]any{"discount": 25})

	event := readEvent(t, targetClient)
	assert.Equal(t, domain.EventNewRecommendation, event.Type)

	require.NoError(t, otherClient.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := otherClient.ReadMessage()
	assert.Error(t, err, "unrelated customer must receive nothing")
}

func TestNotifyOfflineCustomerDeliversNothing(t *testing.T) {
	_, b := setup(t)

	// No connections registered for this customer; must not panic or queue.
	b.NotifyCustomer(uuid.New(), domain.EventNewRecommendation, nil)
}

func TestFailedConnectionDoesNotBlockSiblings(t *testing.T) {
	reg, b := setup(t)

	deadServer, deadClient := newTestConn(t)
	liveServer, liveClient := newTestConn(t)
	require.NoError(t, reg.Register(deadServer, registry.RoleAdmin, uuid.Nil))
	require.NoError(t, reg.Register(liveServer, registry.RoleAdmin, uuid.Nil))

	// Kill one connection under the registry's feet. Its writer dies on the
	// next write; once its send buffer fills, sends fail and it is evicted.
	_ = deadClient.Close()
	_ = deadServer.Close()

	const rounds = 40
	for i := 0; i < rounds; i++ {
		b.BroadcastAdmin(domain.EventItemUpdated, map[string]any{"round": i})
	}

	// The live sibling got every frame its buffer could carry, in order.
	received := 0
	for {
		require.NoError(t, liveClient.SetReadDeadline(time.Now().Add(500*time.Millisecond)))
		_, data, err := liveClient.ReadMessage()
		if err != nil {
			break
		}
		var event domain.Event
		require.NoError(t, json.Unmarshal(data, &event))
		payload := event.Payload.(map[string]any)
		assert.Equal(t, float64(received), payload["round"], "frames must arrive in publish order")
		received++
	}
	assert.Greater(t, received, 0)

	// The dead connection was lazily unregistered.
	assert.Eventually(t, func() bool {
		return reg.ConnectionCounts().Admins == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPerCustomerOrderingFollowsPublishOrder(t *testing.T) {
	reg, b := setup(t)

	customerID := uuid.New()
	serverConn, clientConn := newTestConn(t)
	require.NoError(t, reg.Register(serverConn, registry.RoleCustomer, customerID))

	for i := 0; i < 5; i++ {
		b.NotifyCustomer(customerID, domain.EventNewRecommendation, map[string]any{"seq": fmt.Sprintf("%d", i)})
	}

	for i := 0; i < 5; i++ {
		event := readEvent(t, clientConn)
		payload := event.Payload.(map[string]any)
		assert.Equal(t, fmt.Sprintf("%d", i), payload["seq"])
	}
}
