package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lexlink/chat-backend/internal/domain"
	"github.com/lexlink/chat-backend/pkg/logger"
)

const redisPubSubChannel = "chat_events"

// Hub is the presence registry: it maps chat identities to their live
// connections and fans events out to them. One Hub per process; all state
// is in memory and lost on restart, after which clients re-announce.
//
// An identity may hold several connections (two browser tabs); events for
// the identity go to all of them, and eviction is keyed by the *Client
// handle so closing a stale tab never marks a still-connected identity
// offline.
type Hub struct {
	// Registered clients grouped by identity
	clients map[domain.Identity]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	mu          sync.RWMutex
	redisClient *redis.Client
	ctx         context.Context
	cancel      context.CancelFunc

	// id stamps published envelopes so this instance can discard its own
	// replays off the pub/sub channel. Local connections already got the
	// event directly.
	id string
}

// NewHub creates a new Hub. redisClient may be nil; without it the hub is
// purely process-local, which is the single-instance deployment mode.
func NewHub(redisClient *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[domain.Identity]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		redisClient: redisClient,
		ctx:         ctx,
		cancel:      cancel,
		id:          uuid.NewString(),
	}
}

// Register announces a client's identity to the hub. Safe to call more
// than once for the same client (a re-announce after reconnect is a no-op
// beyond the presence broadcast).
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client. Called from the read pump on disconnect;
// harmless for clients that never announced.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	if h.redisClient != nil {
		go h.subscribeRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.identity]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[client.identity] = set
			}
			first := len(set) == 0
			set[client] = true
			client.announced = true
			h.mu.Unlock()

			if first {
				h.BroadcastStatus(client.identity, "online")
			}

		case client := <-h.unregister:
			h.mu.Lock()
			last := false
			if set, ok := h.clients[client.identity]; ok && set[client] {
				delete(set, client)
				close(client.send)
				if len(set) == 0 {
					delete(h.clients, client.identity)
					last = true
				}
			} else if !client.announced {
				// Connection dropped before it ever announced; nothing to
				// evict, but the write pump still waits on the channel.
				close(client.send)
			}
			h.mu.Unlock()

			if last {
				h.BroadcastStatus(client.identity, "offline")
			}

		case <-h.ctx.Done():
			return
		}
	}
}

// IsOnline reports whether the identity has a live connection on this
// instance.
func (h *Hub) IsOnline(identity domain.Identity) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[identity]) > 0
}

// Online returns a snapshot of identities connected to this instance.
func (h *Hub) Online() []domain.Identity {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]domain.Identity, 0, len(h.clients))
	for identity := range h.clients {
		out = append(out, identity)
	}
	return out
}

// Deliver pushes an event to every live connection of target on this
// instance and, when Redis is configured, publishes it for other
// instances. Returns whether any local connection received it; an offline
// target is a normal store-and-forward branch, not an error.
func (h *Hub) Deliver(target domain.Identity, event *Event) bool {
	delivered := h.deliverLocal(target, event)

	if h.redisClient != nil {
		h.publish(&redisEnvelope{Target: &target, Event: event})
	}
	return delivered
}

// BroadcastStatus sends a user_status event to every connected client.
func (h *Hub) BroadcastStatus(identity domain.Identity, status string) {
	event, err := NewEvent(EventUserStatus, StatusNotice{
		UserID:   identity.ID,
		UserType: string(identity.Kind),
		Status:   status,
	})
	if err != nil {
		return
	}

	h.broadcastLocal(event)

	if h.redisClient != nil {
		h.publish(&redisEnvelope{Event: event})
	}
}

func (h *Hub) deliverLocal(target domain.Identity, event *Event) bool {
	data, err := json.Marshal(event)
	if err != nil {
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	set, ok := h.clients[target]
	if !ok || len(set) == 0 {
		return false
	}
	for client := range set {
		select {
		case client.send <- data:
		default:
			// Slow consumer; the write pump will notice the closed
			// connection and unregister it.
		}
	}
	return true
}

func (h *Hub) broadcastLocal(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, set := range h.clients {
		for client := range set {
			select {
			case client.send <- data:
			default:
			}
		}
	}
}

// redisEnvelope carries an event across instances. A nil Target means
// broadcast to everyone. Origin identifies the publishing instance so a
// subscriber never replays an envelope it published itself.
type redisEnvelope struct {
	Origin string           `json:"origin"`
	Target *domain.Identity `json:"target,omitempty"`
	Event  *Event           `json:"event"`
}

func (h *Hub) publish(env *redisEnvelope) {
	env.Origin = h.id
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	if err := h.redisClient.Publish(h.ctx, redisPubSubChannel, data).Err(); err != nil {
		logger.Get().Warn().Err(err).Msg("redis publish failed")
	}
}

// subscribeRedis replays events published by other instances into the
// local client set. Replayed events are never re-published.
func (h *Hub) subscribeRedis() {
	pubsub := h.redisClient.Subscribe(h.ctx, redisPubSubChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env redisEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil || env.Event == nil {
				continue
			}
			if env.Origin == h.id {
				// Our own publish echoed back; local clients were already
				// served directly.
				continue
			}
			if env.Target != nil {
				h.deliverLocal(*env.Target, env.Event)
			} else {
				h.broadcastLocal(env.Event)
			}
		case <-h.ctx.Done():
			return
		}
	}
}

// Stop gracefully shuts down the hub.
func (h *Hub) Stop() {
	h.cancel()
}
