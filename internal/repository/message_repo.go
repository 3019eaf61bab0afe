package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/lexlink/chat-backend/internal/domain"
)

// MessageRepository message data access interface
type MessageRepository interface {
	Create(msg *domain.Message) error
	FindBetween(a, b domain.Identity, limit, offset int) ([]*domain.Message, int64, error)
	FindByParticipant(p domain.Identity) ([]*domain.Message, error)
	CountUnread(receiver domain.Identity) (int64, error)
	MarkRead(reader, partner domain.Identity) error
	DeleteBetween(a, b domain.Identity) error
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create persists a new message. ID and CreatedAt are server-assigned;
// ReadStatus always starts false.
func (r *messageRepository) Create(msg *domain.Message) error {
	msg.ID = 0
	msg.ReadStatus = false
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	return r.db.Create(msg).Error
}

// betweenScope matches messages in either direction between two identities.
func betweenScope(db *gorm.DB, a, b domain.Identity) *gorm.DB {
	return db.Where(
		db.Session(&gorm.Session{NewDB: true}).
			Where("sender_id = ? AND sender_kind = ? AND receiver_id = ? AND receiver_kind = ?",
				a.ID, a.Kind, b.ID, b.Kind).
			Or("sender_id = ? AND sender_kind = ? AND receiver_id = ? AND receiver_kind = ?",
				b.ID, b.Kind, a.ID, a.Kind),
	)
}

// FindBetween returns one page of the exchange between a and b, newest
// first. Callers wanting chronological order reverse the page.
func (r *messageRepository) FindBetween(a, b domain.Identity, limit, offset int) ([]*domain.Message, int64, error) {
	var messages []*domain.Message
	var total int64

	if err := betweenScope(r.db.Model(&domain.Message{}), a, b).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := betweenScope(r.db, a, b).
		Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&messages).Error
	return messages, total, err
}

// FindByParticipant returns every message p sent or received, newest first.
// Feeds the conversation aggregation, which recomputes per request.
func (r *messageRepository) FindByParticipant(p domain.Identity) ([]*domain.Message, error) {
	var messages []*domain.Message
	err := r.db.
		Where("sender_id = ? AND sender_kind = ?", p.ID, p.Kind).
		Or("receiver_id = ? AND receiver_kind = ?", p.ID, p.Kind).
		Order("id DESC").
		Find(&messages).Error
	return messages, err
}

// CountUnread returns the total unread count for a receiver across all
// conversations.
func (r *messageRepository) CountUnread(receiver domain.Identity) (int64, error) {
	var total int64
	err := r.db.Model(&domain.Message{}).
		Where("receiver_id = ? AND receiver_kind = ? AND read_status = ?", receiver.ID, receiver.Kind, false).
		Count(&total).Error
	return total, err
}

// MarkRead flips every unread message from partner to reader to read.
// A no-op when nothing is unread, so repeated calls are safe.
func (r *messageRepository) MarkRead(reader, partner domain.Identity) error {
	return r.db.Model(&domain.Message{}).
		Where("sender_id = ? AND sender_kind = ? AND receiver_id = ? AND receiver_kind = ? AND read_status = ?",
			partner.ID, partner.Kind, reader.ID, reader.Kind, false).
		Update("read_status", true).Error
}

// DeleteBetween removes the whole exchange between two identities, both
// directions. The only path that ever deletes messages.
func (r *messageRepository) DeleteBetween(a, b domain.Identity) error {
	return betweenScope(r.db, a, b).Delete(&domain.Message{}).Error
}
