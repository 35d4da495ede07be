package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHub sets up a Hub behind a test HTTP server that mirrors the real
// handler: upgrade, register, then serve join requests until close.
func testHub(t *testing.T) (*Hub, func() *gws.Conn) {
	t.Helper()

	hub := NewHub(clockwork.NewRealClock())
	t.Cleanup(func() { hub.Stop() })

	upgrader := gws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		client, err := hub.Register(conn)
		if err != nil {
			conn.Close()
			return
		}

		go func() {
			defer hub.Unregister(client)
			for {
				_, message, err := conn.ReadMessage()
				if err != nil {
					break
				}
				var req JoinRequest
				if err := json.Unmarshal(message, &req); err != nil {
					continue
				}
				if len(req.Join) > 0 {
					hub.Join(client, req.Join)
				}
			}
		}()
	}))
	t.Cleanup(func() { server.Close() })

	dial := func() *gws.Conn {
		t.Helper()
		url := "ws" + strings.TrimPrefix(server.URL, "http")
		conn, _, err := gws.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		return conn
	}

	return hub, dial
}

func join(t *testing.T, conn *gws.Conn, rooms ...string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(JoinRequest{Join: rooms}))
}

func waitForMembers(h *Hub, room Room, expected int) bool {
	for i := 0; i < 100; i++ {
		if h.MemberCount(room) == expected {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

func waitForConnections(h *Hub, expected int64) bool {
	for i := 0; i < 100; i++ {
		if h.ConnectionCount() == expected {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

func readEnvelope(t *testing.T, conn *gws.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

func TestHub_JoinAndReceive(t *testing.T) {
	hub, dial := testHub(t)
	conn := dial()

	join(t, conn, "thread_1")
	require.True(t, waitForMembers(hub, ThreadRoom(1), 1))

	hub.Publish(ThreadRoom(1), ActionCreate, DataTypeSection, map[string]any{"id": 5, "name": "Updates"})

	env := readEnvelope(t, conn)
	assert.Equal(t, "thread_1", env.Room)
	assert.Equal(t, ActionCreate, env.Action)
	assert.Equal(t, DataTypeSection, env.DataType)

	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, float64(5), data["id"])
	assert.Equal(t, "Updates", data["name"])
}

func TestHub_ClientsStartInNoRooms(t *testing.T) {
	hub, dial := testHub(t)
	dial()

	require.True(t, waitForConnections(hub, 1))
	assert.Equal(t, 0, hub.RoomCount())
}

func TestHub_UnknownRoomNamesIgnored(t *testing.T) {
	hub, dial := testHub(t)
	conn := dial()
	require.True(t, waitForConnections(hub, 1))

	join(t, conn, "bogus", "thread_abc", "")
	// Give the join time to be processed if it were going to be.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, hub.RoomCount())

	// A mix of bogus and valid names joins only the valid ones.
	join(t, conn, "bogus", "thread_2")
	require.True(t, waitForMembers(hub, ThreadRoom(2), 1))
	assert.Equal(t, 1, hub.RoomCount())
}

func TestHub_RoomIsolation(t *testing.T) {
	hub, dial := testHub(t)
	conn1 := dial()
	conn2 := dial()

	join(t, conn1, "thread_1")
	join(t, conn2, "thread_2")
	require.True(t, waitForMembers(hub, ThreadRoom(1), 1))
	require.True(t, waitForMembers(hub, ThreadRoom(2), 1))

	hub.Publish(ThreadRoom(1), ActionUpdate, DataTypeThread, map[string]any{"id": 1})

	env := readEnvelope(t, conn1)
	assert.Equal(t, "thread_1", env.Room)

	// conn2 must not see it.
	conn2.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := conn2.ReadMessage()
	assert.Error(t, err)
}

func TestHub_MultipleMembersAllReceive(t *testing.T) {
	hub, dial := testHub(t)
	conn1 := dial()
	conn2 := dial()

	join(t, conn1, "user")
	join(t, conn2, "user")
	require.True(t, waitForMembers(hub, UserRoom(), 2))

	hub.PublishDelete(UserRoom(), DataTypeUser, 3)

	for _, conn := range []*gws.Conn{conn1, conn2} {
		env := readEnvelope(t, conn)
		assert.Equal(t, ActionDelete, env.Action)
		assert.JSONEq(t, `{"id":3}`, string(env.Data))
	}
}

func TestHub_DuplicateJoinDeliversOnce(t *testing.T) {
	hub, dial := testHub(t)
	conn := dial()

	join(t, conn, "thread_1", "thread_1")
	join(t, conn, "thread_1")
	require.True(t, waitForMembers(hub, ThreadRoom(1), 1))

	hub.PublishDelete(ThreadRoom(1), DataTypeEvent, 9)
	readEnvelope(t, conn)

	// No second copy.
	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestHub_PublishToEmptyRoomIsNoOp(t *testing.T) {
	hub, _ := testHub(t)

	hub.Publish(ThreadRoom(99), ActionCreate, DataTypeThread, map[string]any{"id": 99})
	assert.Equal(t, 0, hub.MemberCount(ThreadRoom(99)))
}

func TestHub_DisconnectCleansRooms(t *testing.T) {
	hub, dial := testHub(t)
	conn := dial()
	observer := dial()

	join(t, conn, "thread_1", "thread_2", "user")
	join(t, observer, "thread_1")
	require.True(t, waitForMembers(hub, UserRoom(), 1))
	require.True(t, waitForMembers(hub, ThreadRoom(1), 2))
	assert.Equal(t, 3, hub.RoomCount())

	conn.Close()

	require.True(t, waitForConnections(hub, 1))
	require.True(t, waitForMembers(hub, ThreadRoom(1), 1))
	require.True(t, waitForMembers(hub, ThreadRoom(2), 0))
	assert.Equal(t, 1, hub.RoomCount())

	// Publishing after the disconnect reaches only the surviving member;
	// the closed connection is gone from every room it had joined.
	hub.Publish(ThreadRoom(1), ActionUpdate, DataTypeThread, map[string]any{"id": 1})
	hub.Publish(ThreadRoom(2), ActionUpdate, DataTypeThread, map[string]any{"id": 2})

	env := readEnvelope(t, observer)
	assert.Equal(t, "thread_1", env.Room)
	assert.Equal(t, 0, hub.MemberCount(ThreadRoom(2)))
}

func TestHub_ConnectionCount(t *testing.T) {
	hub, dial := testHub(t)

	assert.Equal(t, int64(0), hub.ConnectionCount())

	conn1 := dial()
	require.True(t, waitForConnections(hub, 1))

	dial()
	require.True(t, waitForConnections(hub, 2))

	conn1.Close()
	require.True(t, waitForConnections(hub, 1))
}

func TestHub_PublishUpdateCarriesIDAndChangedFields(t *testing.T) {
	hub, dial := testHub(t)
	conn := dial()

	join(t, conn, "thread_4")
	require.True(t, waitForMembers(hub, ThreadRoom(4), 1))

	name := "Recap"
	hub.PublishUpdate(ThreadRoom(4), DataTypeSection, 17, struct {
		Name *string `json:"name,omitempty"`
	}{Name: &name})

	env := readEnvelope(t, conn)
	assert.Equal(t, ActionUpdate, env.Action)
	assert.JSONEq(t, `{"id":17,"name":"Recap"}`, string(env.Data))
}

func TestUpdatePayload_ExplicitNullSurvives(t *testing.T) {
	payload, err := UpdatePayload(8, struct {
		LockHeldByUserID *int32 `json:"lock_held_by_user_id"`
	}{LockHeldByUserID: nil})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":8,"lock_held_by_user_id":null}`, string(payload))
}
