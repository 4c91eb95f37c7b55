package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"gofleet/internal/models"
	"gofleet/internal/observability"
	"gofleet/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// ChannelOperations receives every new-trip, status change, SOS and
	// incident event for the dashboard.
	ChannelOperations = "operations"

	ChannelDrivers  = "drivers"
	ChannelCouriers = "couriers"
)

func WorkerChannel(workerID primitive.ObjectID) string {
	return "worker_" + workerID.Hex()
}

func UserChannel(userID primitive.ObjectID) string {
	return "user_" + userID.Hex()
}

func TripChannel(tripID primitive.ObjectID) string {
	return "trip_" + tripID.Hex()
}

func RoleChannel(role models.WorkerRole) string {
	if role == models.WorkerRoleCourier {
		return ChannelCouriers
	}
	return ChannelDrivers
}

// ResyncFunc is called after a worker's channel join has settled, so the
// dispatcher can replay still-pending trips the worker now qualifies for.
type ResyncFunc func(workerID primitive.ObjectID)

type Message struct {
	Event     string                 `json:"event"`
	ChannelID string                 `json:"channel_id,omitempty"`
	UserID    primitive.ObjectID     `json:"user_id,omitempty"`
	Timestamp int64                  `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Hub is the presence registry: it tracks which live connections belong to
// which channel and fans events out to them. Membership is rebuilt from
// connection lifecycle events and never persisted.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	channels   map[string]map[*Client]bool
	mutex      sync.RWMutex

	settleDelay time.Duration
	resync      ResyncFunc
	log         *logger.Logger
}

func NewHub(settleDelay time.Duration, log *logger.Logger) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		channels:    make(map[string]map[*Client]bool),
		settleDelay: settleDelay,
		log:         log,
	}
}

// SetResyncFunc wires the dispatcher's pending-trip replay in after both
// sides exist; the hub and the dispatcher reference each other.
func (h *Hub) SetResyncFunc(fn ResyncFunc) {
	h.resync = fn
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()

	h.clients[client] = true

	// Every connection joins its personal channel; workers additionally join
	// their role-wide channel so offer retractions reach them.
	if client.Role == string(models.WorkerRoleDriver) || client.Role == string(models.WorkerRoleCourier) {
		h.joinChannel(client, WorkerChannel(client.UserID))
		h.joinChannel(client, RoleChannel(models.WorkerRole(client.Role)))
	} else {
		h.joinChannel(client, UserChannel(client.UserID))
	}
	if client.Role == "admin" {
		h.joinChannel(client, ChannelOperations)
	}

	h.mutex.Unlock()

	observability.ConnectedClients.Inc()
	h.log.WithField("user_id", client.UserID.Hex()).WithField("role", client.Role).Debug("Client registered")

	welcome := Message{
		Event:     "welcome",
		UserID:    client.UserID,
		Timestamp: getCurrentTimestamp(),
		Data: map[string]interface{}{
			"message": "Connected successfully",
		},
	}
	h.sendToClient(client, welcome)

	// A worker that comes online after a trip was created would otherwise be
	// missed; wait for the join to settle, re-check membership, then ask the
	// dispatcher to replay pending trips.
	if h.resync != nil && (client.Role == string(models.WorkerRoleDriver) || client.Role == string(models.WorkerRoleCourier)) {
		workerID := client.UserID
		time.AfterFunc(h.settleDelay, func() {
			if h.IsMember(WorkerChannel(workerID)) {
				h.resync(workerID)
			}
		})
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	for channelID, members := range h.channels {
		if _, exists := members[client]; exists {
			delete(members, client)
			if len(members) == 0 {
				delete(h.channels, channelID)
			}
		}
	}

	observability.ConnectedClients.Dec()
	h.log.WithField("user_id", client.UserID.Hex()).Debug("Client unregistered")
}

// JoinChannel is idempotent: joining a channel twice is a no-op.
func (h *Hub) JoinChannel(client *Client, channelID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.joinChannel(client, channelID)
}

func (h *Hub) joinChannel(client *Client, channelID string) {
	if h.channels[channelID] == nil {
		h.channels[channelID] = make(map[*Client]bool)
	}
	h.channels[channelID][client] = true
	client.channels[channelID] = true
}

// LeaveChannel is idempotent: leaving an unjoined channel is a no-op.
func (h *Hub) LeaveChannel(client *Client, channelID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if members, exists := h.channels[channelID]; exists {
		delete(members, client)
		delete(client.channels, channelID)

		if len(members) == 0 {
			delete(h.channels, channelID)
		}
	}
}

// IsMember reports whether any live connection belongs to the channel.
func (h *Hub) IsMember(channelID string) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	members, exists := h.channels[channelID]
	return exists && len(members) > 0
}

// Emit fans an event out to every connection in the channel. Emitting to an
// unknown or empty channel is a silent no-op: stale or not-yet-joined
// channels are expected under normal churn. A send that cannot be delivered
// drops that connection without aborting delivery to the rest.
func (h *Hub) Emit(channelID, event string, payload map[string]interface{}) {
	message := Message{
		Event:     event,
		ChannelID: channelID,
		Timestamp: getCurrentTimestamp(),
		Data:      payload,
	}

	data, err := json.Marshal(message)
	if err != nil {
		h.log.LogNotifyFailure(channelID, event, err)
		return
	}

	h.mutex.RLock()
	members, exists := h.channels[channelID]
	if !exists {
		h.mutex.RUnlock()
		return
	}
	stale := make([]*Client, 0)
	for client := range members {
		select {
		case client.send <- data:
		default:
			stale = append(stale, client)
		}
	}
	h.mutex.RUnlock()

	for _, client := range stale {
		observability.FanoutFailures.Inc()
		h.log.LogNotifyFailure(channelID, event, errSendBufferFull)
		go func(c *Client) { h.unregister <- c }(client)
	}
}

func (h *Hub) sendToClient(client *Client, message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

func getCurrentTimestamp() int64 {
	return time.Now().Unix()
}
