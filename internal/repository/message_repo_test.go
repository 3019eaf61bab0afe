package repository

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lexlink/chat-backend/internal/domain"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Message{}, &domain.UserProfile{}, &domain.LawyerProfile{}))
	return db
}

var (
	userA   = domain.Identity{ID: 7, Kind: domain.KindUser}
	lawyerB = domain.Identity{ID: 3, Kind: domain.KindLawyer}
	// Shares userA's numeric ID; must never collide with it.
	lawyerA7 = domain.Identity{ID: 7, Kind: domain.KindLawyer}
)

func mustSend(t *testing.T, repo MessageRepository, from, to domain.Identity, content string) *domain.Message {
	t.Helper()
	msg := &domain.Message{
		SenderID:     from.ID,
		SenderKind:   from.Kind,
		ReceiverID:   to.ID,
		ReceiverKind: to.Kind,
		Content:      content,
	}
	require.NoError(t, repo.Create(msg))
	return msg
}

func TestCreateAssignsServerFields(t *testing.T) {
	repo := NewMessageRepository(setupTestDB(t))

	msg := mustSend(t, repo, userA, lawyerB, "hello")
	assert.NotZero(t, msg.ID)
	assert.False(t, msg.CreatedAt.IsZero())
	assert.False(t, msg.ReadStatus)
}

func TestFindBetweenOrderAndPaging(t *testing.T) {
	repo := NewMessageRepository(setupTestDB(t))

	for i := 1; i <= 5; i++ {
		mustSend(t, repo, userA, lawyerB, fmt.Sprintf("msg-%d", i))
	}
	// Unrelated conversation must not leak into the page.
	mustSend(t, repo, userA, lawyerA7, "other thread")

	page, total, err := repo.FindBetween(userA, lawyerB, 2, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)

	// Newest first.
	assert.Equal(t, "msg-5", page[0].Content)
	assert.Equal(t, "msg-4", page[1].Content)

	page, _, err = repo.FindBetween(userA, lawyerB, 2, 2)
	assert.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "msg-3", page[0].Content)
}

func TestFindBetweenIsSymmetric(t *testing.T) {
	repo := NewMessageRepository(setupTestDB(t))

	mustSend(t, repo, userA, lawyerB, "from user")
	mustSend(t, repo, lawyerB, userA, "from lawyer")

	fromUser, totalU, err := repo.FindBetween(userA, lawyerB, 10, 0)
	assert.NoError(t, err)
	fromLawyer, totalL, err := repo.FindBetween(lawyerB, userA, 10, 0)
	assert.NoError(t, err)

	assert.Equal(t, totalU, totalL)
	require.Len(t, fromUser, 2)
	require.Len(t, fromLawyer, 2)
	assert.Equal(t, fromUser[0].ID, fromLawyer[0].ID)
}

func TestMarkReadScopeAndIdempotence(t *testing.T) {
	repo := NewMessageRepository(setupTestDB(t))

	mustSend(t, repo, lawyerB, userA, "unread 1")
	mustSend(t, repo, lawyerB, userA, "unread 2")
	// A message in the other direction must stay untouched.
	sent := mustSend(t, repo, userA, lawyerB, "mine")
	// A message from the same numeric ID but different kind must too.
	mustSend(t, repo, lawyerA7, userA, "from the other 7")

	unread, err := repo.CountUnread(userA)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), unread)

	assert.NoError(t, repo.MarkRead(userA, lawyerB))

	unread, err = repo.CountUnread(userA)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), unread) // only lawyerA7's message remains

	var untouched domain.Message
	require.NoError(t, repo.(*messageRepository).db.First(&untouched, sent.ID).Error)
	assert.False(t, untouched.ReadStatus)

	// Second call with nothing left unread is a no-op success.
	assert.NoError(t, repo.MarkRead(userA, lawyerB))
	unread, err = repo.CountUnread(userA)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}

func TestDeleteBetweenBothDirections(t *testing.T) {
	repo := NewMessageRepository(setupTestDB(t))

	mustSend(t, repo, userA, lawyerB, "a->b")
	mustSend(t, repo, lawyerB, userA, "b->a")
	keep := mustSend(t, repo, userA, lawyerA7, "a->other")

	assert.NoError(t, repo.DeleteBetween(userA, lawyerB))

	_, total, err := repo.FindBetween(userA, lawyerB, 10, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), total)

	var kept domain.Message
	assert.NoError(t, repo.(*messageRepository).db.First(&kept, keep.ID).Error)
}

func TestFindByParticipantCoversBothRoles(t *testing.T) {
	repo := NewMessageRepository(setupTestDB(t))

	mustSend(t, repo, userA, lawyerB, "sent")
	mustSend(t, repo, lawyerB, userA, "received")
	mustSend(t, repo, lawyerB, lawyerA7, "unrelated")

	messages, err := repo.FindByParticipant(userA)
	assert.NoError(t, err)
	require.Len(t, messages, 2)
	// Newest first.
	assert.Equal(t, "received", messages[0].Content)
	assert.Equal(t, "sent", messages[1].Content)
}

func TestProfileRepositoryFind(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&domain.UserProfile{ID: 7, Name: "Ann Client", Image: "ann.png"}).Error)
	require.NoError(t, db.Create(&domain.LawyerProfile{ID: 7, Name: "Bea Counsel", Image: "bea.png"}).Error)

	repo := NewProfileRepository(db)

	p, err := repo.Find(domain.Identity{ID: 7, Kind: domain.KindUser})
	assert.NoError(t, err)
	assert.Equal(t, "Ann Client", p.Name)

	p, err = repo.Find(domain.Identity{ID: 7, Kind: domain.KindLawyer})
	assert.NoError(t, err)
	assert.Equal(t, "Bea Counsel", p.Name)

	// Missing profile is not an error; the UI just shows nothing.
	p, err = repo.Find(domain.Identity{ID: 99, Kind: domain.KindUser})
	assert.NoError(t, err)
	assert.Empty(t, p.Name)
}

// TestOfflineSendScenario walks the store-and-forward path: A sends while B
// is offline, B later fetches history, marks read, and A's view of the
// conversation shows nothing unread for B.
func TestOfflineSendScenario(t *testing.T) {
	repo := NewMessageRepository(setupTestDB(t))

	msg := mustSend(t, repo, userA, lawyerB, "hello")

	// B comes online and loads the exchange.
	history, _, err := repo.FindBetween(lawyerB, userA, 50, 0)
	assert.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hello", history[0].Content)
	assert.False(t, history[0].ReadStatus)
	assert.Equal(t, msg.ID, history[0].ID)

	unread, err := repo.CountUnread(lawyerB)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	assert.NoError(t, repo.MarkRead(lawyerB, userA))

	unread, err = repo.CountUnread(lawyerB)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), unread)

	history, _, err = repo.FindBetween(lawyerB, userA, 50, 0)
	assert.NoError(t, err)
	assert.True(t, history[0].ReadStatus)
}
