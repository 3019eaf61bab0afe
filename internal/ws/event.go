package ws

import "encoding/json"

// Wire event types. Client-to-server events are decoded in the read pump;
// server-to-client events are framed by NewEvent.
const (
	EventUserConnected  = "user_connected"
	EventSendMessage    = "send_message"
	EventMessageSent    = "message_sent"
	EventReceiveMessage = "receive_message"
	EventMessageError   = "message_error"
	EventTyping         = "typing"
	EventStopTyping     = "stop_typing"
	EventUserTyping     = "user_typing"
	EventUserStatus     = "user_status"
)

// Event is the JSON frame exchanged over the chat websocket.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEvent frames a payload as an outbound event.
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{Type: eventType, Payload: data}, nil
}

// SendMessagePayload is the client payload of a send_message event.
// The sender identity always comes from the authenticated connection,
// never from the payload.
type SendMessagePayload struct {
	ReceiverID   int    `json:"receiver_id"`
	ReceiverType string `json:"receiver_type"`
	Content      string `json:"content"`
}

// TypingPayload is the client payload of typing / stop_typing events.
type TypingPayload struct {
	ReceiverID   int    `json:"receiver_id"`
	ReceiverType string `json:"receiver_type"`
}

// TypingNotice is pushed to the receiver of a typing signal.
type TypingNotice struct {
	SenderID   int    `json:"sender_id"`
	SenderType string `json:"sender_type"`
	IsTyping   bool   `json:"isTyping"`
}

// StatusNotice announces a presence change to every connected client.
type StatusNotice struct {
	UserID   int    `json:"user_id"`
	UserType string `json:"user_type"`
	Status   string `json:"status"` // "online" or "offline"
}

// ErrorPayload reports a failed send to the initiating connection only.
type ErrorPayload struct {
	Error string `json:"error"`
}
