package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mack/direct-chat/internal/domain"
	"github.com/mack/direct-chat/internal/repository/postgres"
	"github.com/mack/direct-chat/internal/service"
	"github.com/mack/direct-chat/internal/testutil"
)

func TestChatService_Send(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	chatService := service.NewChatService(repos.User, repos.Message)
	ctx := context.Background()

	alice, _ := testutil.NewUserBuilder().WithEmail("alice@test.local").Build(t, testDB.DB)
	bob, _ := testutil.NewUserBuilder().WithEmail("bob@test.local").Build(t, testDB.DB)

	tests := []struct {
		name       string
		senderID   uuid.UUID
		receiverID uuid.UUID
		text       string
		wantErr    error
	}{
		{
			name:       "successful send",
			senderID:   alice.ID,
			receiverID: bob.ID,
			text:       "hello",
		},
		{
			name:       "surrounding whitespace is trimmed",
			senderID:   alice.ID,
			receiverID: bob.ID,
			text:       "  trimmed  ",
		},
		{
			name:       "whitespace-only text",
			senderID:   alice.ID,
			receiverID: bob.ID,
			text:       " \t\n ",
			wantErr:    domain.ErrEmptyMessage,
		},
		{
			name:       "empty text",
			senderID:   alice.ID,
			receiverID: bob.ID,
			text:       "",
			wantErr:    domain.ErrEmptyMessage,
		},
		{
			name:       "self message",
			senderID:   alice.ID,
			receiverID: alice.ID,
			text:       "hi me",
			wantErr:    domain.ErrSelfConversation,
		},
		{
			name:       "unknown receiver",
			senderID:   alice.ID,
			receiverID: uuid.New(),
			text:       "hello",
			wantErr:    service.ErrReceiverNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			message, err := chatService.Send(ctx, tt.senderID, tt.receiverID, tt.text)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, message.ID)
			assert.Equal(t, tt.senderID, message.SenderID)
			assert.Equal(t, tt.receiverID, message.ReceiverID)
			assert.False(t, message.Timestamp.IsZero())
		})
	}

	// Rejected sends must not have created rows.
	var count int64
	require.NoError(t, testDB.DB.Model(&domain.Message{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestChatService_RoundTrip(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	chatService := service.NewChatService(repos.User, repos.Message)
	ctx := context.Background()

	alice, _ := testutil.NewUserBuilder().WithEmail("alice@test.local").Build(t, testDB.DB)
	bob, _ := testutil.NewUserBuilder().WithEmail("bob@test.local").Build(t, testDB.DB)

	sent, err := chatService.Send(ctx, alice.ID, bob.ID, "hello")
	require.NoError(t, err)

	messages, err := chatService.Conversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	got := messages[0]
	assert.Equal(t, sent.ID, got.ID)
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, alice.ID, got.SenderID)
	assert.Equal(t, bob.ID, got.ReceiverID)
	assert.Equal(t, alice.Email, got.SenderEmail)
	assert.Equal(t, alice.DisplayName, got.SenderName)

	// The peer's view converges to the same single message.
	peerView, err := chatService.Conversation(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, peerView, 1)
	assert.Equal(t, sent.ID, peerView[0].ID)
}

func TestChatService_ConversationOrdering(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	chatService := service.NewChatService(repos.User, repos.Message)
	ctx := context.Background()

	alice, _ := testutil.NewUserBuilder().WithEmail("alice@test.local").Build(t, testDB.DB)
	bob, _ := testutil.NewUserBuilder().WithEmail("bob@test.local").Build(t, testDB.DB)

	base := time.Now().UTC().Truncate(time.Millisecond)
	testutil.NewMessageBuilder().From(alice).To(bob).WithText("third").At(base.Add(2 * time.Second)).Build(t, testDB.DB)
	testutil.NewMessageBuilder().From(bob).To(alice).WithText("second").At(base.Add(time.Second)).Build(t, testDB.DB)
	testutil.NewMessageBuilder().From(alice).To(bob).WithText("first").At(base).Build(t, testDB.DB)

	messages, err := chatService.Conversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	testutil.AssertConversationOrdered(t, messages)
	assert.Equal(t, "first", messages[0].Text)
	assert.Equal(t, "second", messages[1].Text)
	assert.Equal(t, "third", messages[2].Text)

	// Received messages carry the peer's directory entry.
	assert.Equal(t, bob.Email, messages[1].SenderEmail)
}

func TestChatService_Delete(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	chatService := service.NewChatService(repos.User, repos.Message)
	ctx := context.Background()

	alice, _ := testutil.NewUserBuilder().WithEmail("alice@test.local").Build(t, testDB.DB)
	bob, _ := testutil.NewUserBuilder().WithEmail("bob@test.local").Build(t, testDB.DB)

	message := testutil.NewMessageBuilder().From(alice).To(bob).WithText("gone soon").Build(t, testDB.DB)

	t.Run("only the sender may delete", func(t *testing.T) {
		err := chatService.Delete(ctx, bob.ID, message.ID)
		assert.ErrorIs(t, err, domain.ErrNotMessageSender)
	})

	t.Run("sender deletes", func(t *testing.T) {
		require.NoError(t, chatService.Delete(ctx, alice.ID, message.ID))

		// Gone from both participants' snapshots.
		aliceView, err := chatService.Conversation(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		testutil.AssertNotContainsText(t, aliceView, "gone soon")

		bobView, err := chatService.Conversation(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		testutil.AssertNotContainsText(t, bobView, "gone soon")
	})

	t.Run("unknown message", func(t *testing.T) {
		err := chatService.Delete(ctx, alice.ID, "nope")
		assert.ErrorIs(t, err, domain.ErrMessageNotFound)
	})
}

func TestBuildConversation(t *testing.T) {
	alice := &domain.User{ID: uuid.New(), Email: "alice@test.local", DisplayName: "alice"}
	bob := &domain.User{ID: uuid.New(), Email: "bob@test.local", DisplayName: "bob"}

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	msg := func(id, text string, from, to *domain.User, ts time.Time) *domain.Message {
		return &domain.Message{ID: id, Text: text, SenderID: from.ID, ReceiverID: to.ID, Timestamp: ts}
	}

	t.Run("interleaves both directions by timestamp", func(t *testing.T) {
		sent := []*domain.Message{
			msg("b", "two", alice, bob, base.Add(time.Second)),
		}
		received := []*domain.Message{
			msg("a", "one", bob, alice, base),
			msg("c", "three", bob, alice, base.Add(2*time.Second)),
		}

		merged := service.BuildConversation(alice, bob, sent, received)
		require.Len(t, merged, 3)
		assert.Equal(t, []string{"one", "two", "three"},
			[]string{merged[0].Text, merged[1].Text, merged[2].Text})
		assert.Equal(t, "bob", merged[0].SenderName)
		assert.Equal(t, "alice", merged[1].SenderName)
	})

	t.Run("equal timestamps fall back to id", func(t *testing.T) {
		sent := []*domain.Message{msg("y", "later id", alice, bob, base)}
		received := []*domain.Message{msg("x", "earlier id", bob, alice, base)}

		merged := service.BuildConversation(alice, bob, sent, received)
		require.Len(t, merged, 2)
		assert.Equal(t, "earlier id", merged[0].Text)
		assert.Equal(t, "later id", merged[1].Text)

		// Deterministic regardless of which direction is fetched first.
		flipped := service.BuildConversation(bob, alice, received, sent)
		assert.Equal(t, merged[0].ID, flipped[0].ID)
		assert.Equal(t, merged[1].ID, flipped[1].ID)
	})

	t.Run("zero timestamp sorts first", func(t *testing.T) {
		sent := []*domain.Message{msg("b", "dated", alice, bob, base)}
		received := []*domain.Message{msg("a", "undated", bob, alice, time.Time{})}

		merged := service.BuildConversation(alice, bob, sent, received)
		require.Len(t, merged, 2)
		assert.Equal(t, "undated", merged[0].Text)
	})

	t.Run("empty conversation", func(t *testing.T) {
		merged := service.BuildConversation(alice, bob, nil, nil)
		assert.Empty(t, merged)
	})
}
