package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lexlink/chat-backend/internal/common"
	"github.com/lexlink/chat-backend/internal/domain"
	"github.com/lexlink/chat-backend/internal/metrics"
	"github.com/lexlink/chat-backend/internal/service"
	"github.com/lexlink/chat-backend/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

// Client represents a single chat WebSocket connection. The identity comes
// from the verified JWT at upgrade time; client payloads never carry the
// sender.
type Client struct {
	hub      *Hub
	chat     service.ChatService
	conn     *websocket.Conn
	send     chan []byte
	identity domain.Identity

	// set by the hub's run loop under its lock
	announced bool
}

// NewClient creates a new chat client for an upgraded connection.
func NewClient(hub *Hub, chat service.ChatService, conn *websocket.Conn, identity domain.Identity) *Client {
	return &Client{
		hub:      hub,
		chat:     chat,
		conn:     conn,
		send:     make(chan []byte, 256),
		identity: identity,
	}
}

// ReadPump reads and dispatches client events until the connection drops.
// Handler errors go back to this connection only; they never end the loop.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
		metrics.ConnectionsActive.Dec()
	}()
	metrics.ConnectionsActive.Inc()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			logger.Get().Debug().Str("identity", c.identity.String()).Msg("discarding malformed event")
			continue
		}
		c.handleEvent(&event)
	}
}

func (c *Client) handleEvent(event *Event) {
	switch event.Type {
	case EventUserConnected:
		// Announce: identity is already authenticated, the event only
		// marks this connection as present.
		c.hub.Register(c)
	case EventSendMessage:
		c.handleSend(event.Payload)
	case EventTyping:
		c.handleTyping(event.Payload, true)
	case EventStopTyping:
		c.handleTyping(event.Payload, false)
	default:
		logger.Get().Debug().Str("type", event.Type).Msg("ignoring unknown event")
	}
}

// handleSend is the delivery path: persist first, then push to the
// receiver's live connections if any, then ack the sender. A persistence
// failure aborts delivery and is reported to the sender only.
func (c *Client) handleSend(payload json.RawMessage) {
	var p SendMessagePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.sendEvent(EventMessageError, ErrorPayload{Error: "malformed send_message payload"})
		return
	}

	receiver, err := parseIdentity(p.ReceiverID, p.ReceiverType)
	if err != nil {
		c.sendEvent(EventMessageError, ErrorPayload{Error: err.Error()})
		return
	}

	msg, err := c.chat.SendMessage(c.identity, receiver, p.Content)
	if err != nil {
		c.sendEvent(EventMessageError, ErrorPayload{Error: err.Error()})
		return
	}
	metrics.MessagesSent.Inc()

	event, err := NewEvent(EventReceiveMessage, msg)
	if err == nil {
		if c.hub.Deliver(receiver, event) {
			metrics.MessagesDelivered.WithLabelValues("live").Inc()
		} else {
			// Receiver offline: the message waits in the store for the
			// next history fetch.
			metrics.MessagesDelivered.WithLabelValues("stored").Inc()
		}
	}

	c.sendEvent(EventMessageSent, msg)
}

// handleTyping relays a transient typing signal. Nothing is persisted and
// an offline receiver simply gets nothing.
func (c *Client) handleTyping(payload json.RawMessage, isTyping bool) {
	var p TypingPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return
	}

	receiver, err := parseIdentity(p.ReceiverID, p.ReceiverType)
	if err != nil {
		return
	}

	event, err := NewEvent(EventUserTyping, TypingNotice{
		SenderID:   c.identity.ID,
		SenderType: string(c.identity.Kind),
		IsTyping:   isTyping,
	})
	if err != nil {
		return
	}
	c.hub.Deliver(receiver, event)
	metrics.TypingEvents.Inc()
}

// sendEvent frames an event and queues it on this connection.
func (c *Client) sendEvent(eventType string, payload interface{}) {
	event, err := NewEvent(eventType, payload)
	if err != nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// WritePump sends queued events to the WebSocket
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func parseIdentity(id int, kind string) (domain.Identity, error) {
	k, err := domain.ParseKind(kind)
	if err != nil {
		return domain.Identity{}, err
	}
	identity := domain.Identity{ID: id, Kind: k}
	if !identity.Valid() {
		return domain.Identity{}, common.ErrInvalidIdentity
	}
	return identity, nil
}
