package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lexlink/chat-backend/internal/common"
	"github.com/lexlink/chat-backend/internal/domain"
)

// MockChatService is a mock implementation of service.ChatService
type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) SendMessage(sender, receiver domain.Identity, content string) (*domain.Message, error) {
	args := m.Called(sender, receiver, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockChatService) History(requester, partner domain.Identity, limit, offset int) ([]*domain.Message, *common.Meta, error) {
	args := m.Called(requester, partner, limit, offset)
	return nil, nil, args.Error(2)
}

func (m *MockChatService) Conversations(requester domain.Identity) ([]*domain.ConversationSummary, error) {
	args := m.Called(requester)
	return nil, args.Error(1)
}

func (m *MockChatService) MarkRead(reader, partner domain.Identity) error {
	args := m.Called(reader, partner)
	return args.Error(0)
}

func (m *MockChatService) UnreadTotal(receiver domain.Identity) (int64, error) {
	args := m.Called(receiver)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockChatService) DeleteConversation(requester, partner domain.Identity) error {
	args := m.Called(requester, partner)
	return args.Error(0)
}

func rawPayload(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestSendMessageDeliversAndAcks(t *testing.T) {
	hub := newTestHub(t)
	chat := new(MockChatService)

	receiver := NewClient(hub, chat, nil, bobID)
	announce(t, hub, receiver)

	sender := NewClient(hub, chat, nil, aliceID)
	announce(t, hub, sender, receiver)

	persisted := &domain.Message{
		ID: 11, SenderID: aliceID.ID, SenderKind: aliceID.Kind,
		ReceiverID: bobID.ID, ReceiverKind: bobID.Kind, Content: "hello",
	}
	chat.On("SendMessage", aliceID, bobID, "hello").Return(persisted, nil)

	sender.handleEvent(&Event{
		Type: EventSendMessage,
		Payload: rawPayload(t, SendMessagePayload{
			ReceiverID: bobID.ID, ReceiverType: string(bobID.Kind), Content: "hello",
		}),
	})

	// The receiver gets exactly one receive_message with the persisted record.
	got := recvEvent(t, receiver)
	assert.Equal(t, EventReceiveMessage, got.Type)
	var delivered domain.Message
	require.NoError(t, json.Unmarshal(got.Payload, &delivered))
	assert.Equal(t, persisted.ID, delivered.ID)
	assert.Equal(t, "hello", delivered.Content)
	assertNoEvent(t, receiver)

	// The sender always gets the ack.
	ack := recvEvent(t, sender)
	assert.Equal(t, EventMessageSent, ack.Type)

	chat.AssertExpectations(t)
}

func TestSendMessageToOfflineReceiver(t *testing.T) {
	hub := newTestHub(t)
	chat := new(MockChatService)

	sender := NewClient(hub, chat, nil, aliceID)
	announce(t, hub, sender)

	persisted := &domain.Message{ID: 12, Content: "hello"}
	chat.On("SendMessage", aliceID, bobID, "hello").Return(persisted, nil)

	sender.handleEvent(&Event{
		Type: EventSendMessage,
		Payload: rawPayload(t, SendMessagePayload{
			ReceiverID: bobID.ID, ReceiverType: string(bobID.Kind), Content: "hello",
		}),
	})

	// No error; the ack still arrives and the message waits in the store.
	ack := recvEvent(t, sender)
	assert.Equal(t, EventMessageSent, ack.Type)
	assertNoEvent(t, sender)
}

func TestSendMessagePersistenceFailure(t *testing.T) {
	hub := newTestHub(t)
	chat := new(MockChatService)

	receiver := NewClient(hub, chat, nil, bobID)
	announce(t, hub, receiver)
	sender := NewClient(hub, chat, nil, aliceID)
	announce(t, hub, sender, receiver)

	chat.On("SendMessage", aliceID, bobID, "hello").Return(nil, assert.AnError)

	sender.handleEvent(&Event{
		Type: EventSendMessage,
		Payload: rawPayload(t, SendMessagePayload{
			ReceiverID: bobID.ID, ReceiverType: string(bobID.Kind), Content: "hello",
		}),
	})

	// Reported to the sender only; delivery is aborted.
	errEvent := recvEvent(t, sender)
	assert.Equal(t, EventMessageError, errEvent.Type)
	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(errEvent.Payload, &payload))
	assert.NotEmpty(t, payload.Error)

	assertNoEvent(t, receiver)
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	hub := newTestHub(t)
	chat := new(MockChatService)

	sender := NewClient(hub, chat, nil, aliceID)
	announce(t, hub, sender)

	chat.On("SendMessage", aliceID, bobID, "").Return(nil, common.ErrEmptyContent)

	sender.handleEvent(&Event{
		Type: EventSendMessage,
		Payload: rawPayload(t, SendMessagePayload{
			ReceiverID: bobID.ID, ReceiverType: string(bobID.Kind), Content: "",
		}),
	})

	errEvent := recvEvent(t, sender)
	assert.Equal(t, EventMessageError, errEvent.Type)
}

func TestSendMessageBadReceiverKind(t *testing.T) {
	hub := newTestHub(t)
	chat := new(MockChatService)

	sender := NewClient(hub, chat, nil, aliceID)
	announce(t, hub, sender)

	sender.handleEvent(&Event{
		Type: EventSendMessage,
		Payload: rawPayload(t, SendMessagePayload{
			ReceiverID: 3, ReceiverType: "paralegal", Content: "hello",
		}),
	})

	errEvent := recvEvent(t, sender)
	assert.Equal(t, EventMessageError, errEvent.Type)
	// Never reaches the service.
	chat.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestTypingRelay(t *testing.T) {
	hub := newTestHub(t)

	receiver := NewClient(hub, nil, nil, bobID)
	announce(t, hub, receiver)
	sender := NewClient(hub, nil, nil, aliceID)
	announce(t, hub, sender, receiver)

	payload := rawPayload(t, TypingPayload{ReceiverID: bobID.ID, ReceiverType: string(bobID.Kind)})

	sender.handleEvent(&Event{Type: EventTyping, Payload: payload})
	got := recvEvent(t, receiver)
	assert.Equal(t, EventUserTyping, got.Type)
	var notice TypingNotice
	require.NoError(t, json.Unmarshal(got.Payload, &notice))
	assert.Equal(t, aliceID.ID, notice.SenderID)
	assert.Equal(t, string(aliceID.Kind), notice.SenderType)
	assert.True(t, notice.IsTyping)

	sender.handleEvent(&Event{Type: EventStopTyping, Payload: payload})
	got = recvEvent(t, receiver)
	require.NoError(t, json.Unmarshal(got.Payload, &notice))
	assert.False(t, notice.IsTyping)

	// The sender gets no echo of its own typing.
	assertNoEvent(t, sender)
}

func TestTypingToOfflineReceiver(t *testing.T) {
	hub := newTestHub(t)

	sender := NewClient(hub, nil, nil, aliceID)
	announce(t, hub, sender)

	// No receiver connected: silently dropped, nothing on the sender.
	sender.handleEvent(&Event{
		Type:    EventTyping,
		Payload: rawPayload(t, TypingPayload{ReceiverID: bobID.ID, ReceiverType: string(bobID.Kind)}),
	})
	assertNoEvent(t, sender)
}

func TestUnknownEventIgnored(t *testing.T) {
	hub := newTestHub(t)

	sender := NewClient(hub, nil, nil, aliceID)
	announce(t, hub, sender)

	sender.handleEvent(&Event{Type: "subscribe_everything"})
	assertNoEvent(t, sender)
}
