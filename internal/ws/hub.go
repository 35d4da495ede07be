// Package ws implements the room registry and broadcaster: the mapping
// from logical rooms to connected viewer sockets, and best-effort fan-out
// of mutation envelopes to every member of a room.
//
// Delivery is fire-and-forget and at-most-once. A publish to an empty
// room is a no-op; a member that has gone away or cannot keep up is
// dropped without the publisher ever seeing an error.
package ws

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/kevinmiles/Enceladus-API/internal/metrics"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
)

// Client is one live viewer connection as seen by the hub. The rooms
// slice is the connection's own join list, touched only by the hub
// goroutine; disconnect cleanup walks it instead of scanning the whole
// registry.
type Client struct {
	writer *clientWriter
	rooms  []Room
}

// --- Command types ---

type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type registerCmd struct {
	baseHubCmd
	connection   *websocket.Conn
	replyChannel chan *Client
}

type joinCmd struct {
	baseHubCmd
	client *Client
	rooms  []Room
}

type unregisterCmd struct {
	baseHubCmd
	client *Client
}

type publishCmd struct {
	baseHubCmd
	room Room
	data []byte
}

type memberCountCmd struct {
	baseHubCmd
	room         Room
	replyChannel chan int
}

type roomCountCmd struct {
	baseHubCmd
	replyChannel chan int
}

type stopCmd struct {
	baseHubCmd
}

// Hub is the process-wide room registry. All registry state is confined
// to the run goroutine; public methods communicate over the command
// channel, so disconnect cleanup is always safe against an in-flight
// publish to the same room.
type Hub struct {
	cmdCh       chan hubCmd
	clock       clockwork.Clock
	rooms       map[Room]map[*Client]struct{}
	clients     map[*Client]struct{}
	connections atomic.Int64
	done        chan struct{}
}

func NewHub(clock clockwork.Clock) *Hub {
	h := &Hub{
		cmdCh:   make(chan hubCmd, 256),
		clock:   clock,
		rooms:   make(map[Room]map[*Client]struct{}),
		clients: make(map[*Client]struct{}),
		done:    make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.done)

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case registerCmd:
			c.replyChannel <- h.handleRegister(c.connection)
		case joinCmd:
			h.handleJoin(c.client, c.rooms)
		case unregisterCmd:
			h.handleUnregister(c.client)
		case publishCmd:
			h.handlePublish(c.room, c.data)
		case memberCountCmd:
			c.replyChannel <- len(h.rooms[c.room])
		case roomCountCmd:
			c.replyChannel <- len(h.rooms)
		case stopCmd:
			h.handleStop()
			return
		default:
			slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (h *Hub) handleRegister(connection *websocket.Conn) *Client {
	client := &Client{writer: newClientWriter(connection, h.clock)}
	h.clients[client] = struct{}{}

	h.connections.Add(1)
	metrics.WebsocketConnections.Inc()

	slog.Debug("Client connected", "connections", h.connections.Load())
	return client
}

func (h *Hub) handleJoin(client *Client, rooms []Room) {
	if _, live := h.clients[client]; !live {
		return
	}

	for _, room := range rooms {
		members, exists := h.rooms[room]
		if !exists {
			members = make(map[*Client]struct{})
			h.rooms[room] = members
		}
		if _, already := members[client]; already {
			continue
		}
		members[client] = struct{}{}
		client.rooms = append(client.rooms, room)
		slog.Debug("Client joined room", "room", room.String(), "members", len(members))
	}

	metrics.WebsocketRooms.Set(float64(len(h.rooms)))
}

func (h *Hub) handleUnregister(client *Client) {
	if _, live := h.clients[client]; !live {
		return
	}
	delete(h.clients, client)

	// O(rooms joined): walk the client's own list, never the registry.
	for _, room := range client.rooms {
		members, exists := h.rooms[room]
		if !exists {
			continue
		}
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	client.rooms = nil
	client.writer.stop()

	h.connections.Add(-1)
	metrics.WebsocketConnections.Dec()
	metrics.WebsocketRooms.Set(float64(len(h.rooms)))

	slog.Debug("Client disconnected", "connections", h.connections.Load())
}

func (h *Hub) handlePublish(room Room, data []byte) {
	members, exists := h.rooms[room]
	if !exists {
		return
	}

	var slow []*Client
	for client := range members {
		select {
		case client.writer.sendChannel <- data:
		default:
			slow = append(slow, client)
		}
	}

	for _, client := range slow {
		slog.Warn("Disconnecting slow client", "room", room.String())
		metrics.BroadcastSlowClientsEvicted.Inc()
		h.handleUnregister(client)
	}
}

func (h *Hub) handleStop() {
	slog.Info("Hub shutting down", "rooms", len(h.rooms), "connections", h.connections.Load())

	for client := range h.clients {
		client.writer.stopGraceful("Server shutting down")
		delete(h.clients, client)
	}
	h.rooms = make(map[Room]map[*Client]struct{})
	h.connections.Store(0)
	metrics.WebsocketConnections.Set(0)
	metrics.WebsocketRooms.Set(0)
}

// --- Public API ---

// Register adds a newly upgraded connection to the hub and returns its
// Client handle. The handle is passed to Join and, exactly once, to
// Unregister when the socket closes.
func (h *Hub) Register(connection *websocket.Conn) (*Client, error) {
	replyCh := make(chan *Client, 1)
	h.cmdCh <- registerCmd{connection: connection, replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case client := <-replyCh:
		return client, nil
	case <-timer.Chan():
		return nil, fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Join subscribes the client to each parseable room name. Names outside
// the room grammar are silently ignored and create no room entry.
func (h *Hub) Join(client *Client, names []string) {
	rooms := make([]Room, 0, len(names))
	for _, name := range names {
		room, ok := ParseRoom(name)
		if !ok {
			slog.Debug("Ignoring unknown room name", "name", name)
			continue
		}
		rooms = append(rooms, room)
	}
	if len(rooms) == 0 {
		return
	}
	h.cmdCh <- joinCmd{client: client, rooms: rooms}
}

// Unregister removes the client from every room it joined and closes its
// writer. Safe to call for an already-evicted client.
func (h *Hub) Unregister(client *Client) {
	h.cmdCh <- unregisterCmd{client: client}
}

// Publish fans an envelope out to every current member of room. Data is
// marshaled as the envelope's data field. Delivery problems are never
// surfaced: a successful mutation must not be aborted by a failed
// notification.
func (h *Hub) Publish(room Room, action Action, dataType DataType, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		slog.Error("Failed to marshal broadcast payload", "error", err)
		return
	}
	h.publishRaw(room, action, dataType, raw)
}

// PublishUpdate publishes a changed-fields-only patch tagged with the
// entity id.
func (h *Hub) PublishUpdate(room Room, dataType DataType, id int32, partial any) {
	payload, err := UpdatePayload(id, partial)
	if err != nil {
		slog.Error("Failed to build update payload", "error", err)
		return
	}
	h.publishRaw(room, ActionUpdate, dataType, payload)
}

// PublishDelete publishes a `{"id": …}` tombstone.
func (h *Hub) PublishDelete(room Room, dataType DataType, id int32) {
	h.publishRaw(room, ActionDelete, dataType, DeletePayload(id))
}

func (h *Hub) publishRaw(room Room, action Action, dataType DataType, data json.RawMessage) {
	envelope := Envelope{
		Room:     room.String(),
		Action:   action,
		DataType: dataType,
		Data:     data,
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		slog.Error("Failed to marshal envelope", "error", err)
		return
	}

	metrics.BroadcastMessagesTotal.WithLabelValues(string(action)).Inc()
	h.cmdCh <- publishCmd{room: room, data: raw}
}

// ConnectionCount returns the number of currently open connections. Reads
// an atomic counter maintained outside the membership critical section.
func (h *Hub) ConnectionCount() int64 {
	return h.connections.Load()
}

// MemberCount returns the number of members currently in room.
// Returns -1 if the command times out.
func (h *Hub) MemberCount(room Room) int {
	replyCh := make(chan int, 1)
	h.cmdCh <- memberCountCmd{room: room, replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("MemberCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// RoomCount returns the number of rooms with at least one member.
// Returns -1 if the command times out.
func (h *Hub) RoomCount() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- roomCountCmd{replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("RoomCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts the hub down, closing all client connections. Blocks until
// the hub goroutine has exited or the timeout is reached.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}

	timer := h.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timer.Chan():
		slog.Warn("Hub stop timeout exceeded", "timeout", stopTimeout)
	}
}
