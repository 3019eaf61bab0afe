package domain

import "time"

// Message represents one chat message between two participants
// (chat_messages table). The sender/receiver tuple is immutable once
// written; only ReadStatus may change, and only from false to true.
type Message struct {
	ID           int       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SenderID     int       `gorm:"column:sender_id;index:idx_sender" json:"sender_id"`
	SenderKind   Kind      `gorm:"column:sender_kind;size:10;index:idx_sender" json:"sender_type"`
	ReceiverID   int       `gorm:"column:receiver_id;index:idx_receiver" json:"receiver_id"`
	ReceiverKind Kind      `gorm:"column:receiver_kind;size:10;index:idx_receiver" json:"receiver_type"`
	Content      string    `gorm:"column:content;type:text" json:"content"`
	ReadStatus   bool      `gorm:"column:read_status;default:false" json:"read_status"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Message) TableName() string {
	return "chat_messages"
}

// Sender returns the sending identity.
func (m *Message) Sender() Identity {
	return Identity{ID: m.SenderID, Kind: m.SenderKind}
}

// Receiver returns the receiving identity.
func (m *Message) Receiver() Identity {
	return Identity{ID: m.ReceiverID, Kind: m.ReceiverKind}
}

// SendMessageRequest is the payload of a send, over REST or websocket.
type SendMessageRequest struct {
	ReceiverID   int    `json:"receiver_id" binding:"required"`
	ReceiverType string `json:"receiver_type" binding:"required"`
	Content      string `json:"content" binding:"required"`
}

// ConversationSummary is one row of the conversation list: the counterparty
// plus a preview of the latest exchange. Derived per request, never stored.
type ConversationSummary struct {
	PartnerID       int       `json:"partner_id"`
	PartnerKind     Kind      `json:"partner_type"`
	PartnerName     string    `json:"partner_name"`
	PartnerImage    string    `json:"partner_image"`
	LastMessage     string    `json:"last_message"`
	LastMessageTime time.Time `json:"last_message_time"`
	UnreadCount     int64     `json:"unread_count"`
}
