package service

import (
	"sort"
	"strings"

	"github.com/lexlink/chat-backend/internal/common"
	"github.com/lexlink/chat-backend/internal/domain"
	"github.com/lexlink/chat-backend/internal/repository"
)

// ChatService business logic for chat messaging
type ChatService interface {
	SendMessage(sender domain.Identity, receiver domain.Identity, content string) (*domain.Message, error)
	History(requester, partner domain.Identity, limit, offset int) ([]*domain.Message, *common.Meta, error)
	Conversations(requester domain.Identity) ([]*domain.ConversationSummary, error)
	MarkRead(reader, partner domain.Identity) error
	UnreadTotal(receiver domain.Identity) (int64, error)
	DeleteConversation(requester, partner domain.Identity) error
}

type chatService struct {
	messages repository.MessageRepository
	profiles repository.ProfileRepository
}

// NewChatService creates a new ChatService
func NewChatService(messages repository.MessageRepository, profiles repository.ProfileRepository) ChatService {
	return &chatService{
		messages: messages,
		profiles: profiles,
	}
}

// SendMessage validates and persists a message. Persistence must succeed
// before any delivery is attempted, so the returned message carries the
// server-assigned ID and timestamp the live push and the ack both use.
func (s *chatService) SendMessage(sender domain.Identity, receiver domain.Identity, content string) (*domain.Message, error) {
	if !sender.Valid() || !receiver.Valid() {
		return nil, common.ErrInvalidIdentity
	}
	if sender == receiver {
		return nil, common.ErrSelfMessage
	}
	if strings.TrimSpace(content) == "" {
		return nil, common.ErrEmptyContent
	}

	msg := &domain.Message{
		SenderID:     sender.ID,
		SenderKind:   sender.Kind,
		ReceiverID:   receiver.ID,
		ReceiverKind: receiver.Kind,
		Content:      content,
	}
	if err := s.messages.Create(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// History returns one page of the exchange with partner, oldest first.
// The repository pages newest-first so offset 0 is always the latest
// messages; the page is reversed here for chronological rendering.
func (s *chatService) History(requester, partner domain.Identity, limit, offset int) ([]*domain.Message, *common.Meta, error) {
	if !requester.Valid() || !partner.Valid() {
		return nil, nil, common.ErrInvalidIdentity
	}
	if limit < 1 {
		limit = 50
	} else if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	messages, total, err := s.messages.FindBetween(requester, partner, limit, offset)
	if err != nil {
		return nil, nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	meta := &common.Meta{
		Limit:  limit,
		Offset: offset,
		Total:  total,
	}
	return messages, meta, nil
}

// Conversations computes one summary row per distinct counterparty.
// Recomputed from the message log on every call; fine at marketplace
// scale, would need an incremental summary table under heavy traffic.
func (s *chatService) Conversations(requester domain.Identity) ([]*domain.ConversationSummary, error) {
	if !requester.Valid() {
		return nil, common.ErrInvalidIdentity
	}

	messages, err := s.messages.FindByParticipant(requester)
	if err != nil {
		return nil, err
	}

	byPartner := make(map[domain.Identity]*domain.ConversationSummary)
	order := make([]domain.Identity, 0)

	for _, m := range messages {
		partner := m.Sender()
		if partner == requester {
			partner = m.Receiver()
		}

		summary, ok := byPartner[partner]
		if !ok {
			// Messages arrive newest-first, so the first one per partner
			// is the conversation preview.
			summary = &domain.ConversationSummary{
				PartnerID:       partner.ID,
				PartnerKind:     partner.Kind,
				LastMessage:     m.Content,
				LastMessageTime: m.CreatedAt,
			}
			byPartner[partner] = summary
			order = append(order, partner)
		}

		if m.Receiver() == requester && !m.ReadStatus {
			summary.UnreadCount++
		}
	}

	summaries := make([]*domain.ConversationSummary, 0, len(order))
	for _, partner := range order {
		summary := byPartner[partner]
		profile, err := s.profiles.Find(partner)
		if err != nil {
			return nil, err
		}
		summary.PartnerName = profile.Name
		summary.PartnerImage = profile.Image
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastMessageTime.After(summaries[j].LastMessageTime)
	})
	return summaries, nil
}

// MarkRead flips all unread messages from partner to reader. Idempotent.
func (s *chatService) MarkRead(reader, partner domain.Identity) error {
	if !reader.Valid() || !partner.Valid() {
		return common.ErrInvalidIdentity
	}
	return s.messages.MarkRead(reader, partner)
}

// UnreadTotal returns the requester's unread count across conversations.
func (s *chatService) UnreadTotal(receiver domain.Identity) (int64, error) {
	if !receiver.Valid() {
		return 0, common.ErrInvalidIdentity
	}
	return s.messages.CountUnread(receiver)
}

// DeleteConversation removes the whole exchange with partner.
func (s *chatService) DeleteConversation(requester, partner domain.Identity) error {
	if !requester.Valid() || !partner.Valid() {
		return common.ErrInvalidIdentity
	}
	return s.messages.DeleteBetween(requester, partner)
}
