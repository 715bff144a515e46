package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rbaliyan/privmsg/store"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(":memory:", WithBusyTimeout(time.Second))
	require.NoError(t, err)
	t.Cleanup(func() { s.DB().Close() })

	require.NoError(t, s.Connect(context.Background()))
	return s
}

func seed(t *testing.T, s *Store, sender, recipient string, sentOn time.Time) *store.Message {
	t.Helper()
	msg, err := s.Create(context.Background(), store.MessageData{
		SenderID:    sender,
		RecipientID: recipient,
		SentOn:      sentOn,
		Title:       "title",
		Body:        "body",
		BodyFormat:  "markdown",
	})
	require.NoError(t, err)
	return msg
}

func TestConnect(t *testing.T) {
	s := setupStore(t)
	require.ErrorIs(t, s.Connect(context.Background()), store.ErrAlreadyConnected)

	require.NoError(t, s.Close(context.Background()))
	_, err := s.Get(context.Background(), 1)
	require.ErrorIs(t, err, store.ErrNotConnected)
}

func TestDSN(t *testing.T) {
	require.Equal(t, "mail.db?_busy_timeout=2000", dsnFromPath("mail.db", 2*time.Second))
	require.Equal(t, "mail.db?cache=shared&_busy_timeout=2000", dsnFromPath("mail.db?cache=shared", 2*time.Second))
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	sentOn := time.Date(2024, 3, 1, 12, 0, 0, 500, time.FixedZone("X", 3600))

	first := seed(t, s, "alice", "bob", sentOn)
	second := seed(t, s, "alice", "bob", sentOn)
	require.Equal(t, int64(1), first.ID)
	require.Equal(t, int64(2), second.ID)

	got, err := s.Get(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", got.SenderID)
	require.Equal(t, "bob", got.RecipientID)
	require.True(t, sentOn.Equal(got.SentOn))
	require.Equal(t, time.UTC, got.SentOn.Location())
	require.False(t, got.Read)
	require.True(t, got.SenderVisible)
	require.True(t, got.RecipientVisible)
	require.False(t, got.Muted)

	_, err = s.Get(ctx, 42)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Get(ctx, 0)
	require.ErrorIs(t, err, store.ErrInvalidID)

	_, err = s.Create(ctx, store.MessageData{SenderID: "alice"})
	require.ErrorIs(t, err, store.ErrInvalidData)
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for range 5 {
		seed(t, s, "alice", "bob", now)
	}
	seed(t, s, "carol", "dave", now)

	_, err := s.SetVisible(ctx, 2, store.PartyRecipient, false)
	require.NoError(t, err)

	inbox := []store.Filter{
		store.RecipientIs("bob"),
		store.VisibleTo(store.PartyRecipient),
		store.NotMuted(),
	}

	t.Run("newest first with cursor", func(t *testing.T) {
		msgs, err := s.Find(ctx, append(inbox, store.IDAtMost(4)), store.ListOptions{Limit: 2, SortOrder: store.SortDesc})
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		require.Equal(t, int64(4), msgs[0].ID)
		require.Equal(t, int64(3), msgs[1].ID)
	})

	t.Run("oldest first skips hidden", func(t *testing.T) {
		msgs, err := s.Find(ctx, inbox, store.ListOptions{SortOrder: store.SortAsc})
		require.NoError(t, err)
		ids := make([]int64, len(msgs))
		for i, m := range msgs {
			ids[i] = m.ID
		}
		require.Equal(t, []int64{1, 3, 4, 5}, ids)
	})

	t.Run("in set", func(t *testing.T) {
		f, err := store.MessageFilter("sender_id").In("carol", "erin")
		require.NoError(t, err)
		msgs, err := s.Find(ctx, []store.Filter{f}, store.ListOptions{})
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		require.Equal(t, "carol", msgs[0].SenderID)
	})

	t.Run("empty in set matches nothing", func(t *testing.T) {
		msgs, err := s.Find(ctx, []store.Filter{store.VisibleTo(store.Party(9))}, store.ListOptions{})
		require.NoError(t, err)
		require.Empty(t, msgs)
	})
}

func TestMutations(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	msg := seed(t, s, "alice", "bob", time.Now())

	updated, err := s.MarkRead(ctx, msg.ID, true)
	require.NoError(t, err)
	require.True(t, updated.Read)
	require.True(t, updated.SenderVisible)

	updated, err = s.SetVisible(ctx, msg.ID, store.PartySender, false)
	require.NoError(t, err)
	require.False(t, updated.SenderVisible)
	require.True(t, updated.RecipientVisible)
	require.True(t, updated.Read)

	_, err = s.MarkRead(ctx, 99, true)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.SetVisible(ctx, msg.ID, store.Party(0), false)
	require.ErrorIs(t, err, store.ErrInvalidParty)
}

func TestCountSentSince(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	seed(t, s, "alice", "bob", now.Add(-2*time.Hour))
	seed(t, s, "alice", "bob", now.Add(-time.Hour))
	seed(t, s, "alice", "bob", now.Add(-time.Minute))
	seed(t, s, "carol", "bob", now)

	n, err := s.CountSentSince(ctx, "alice", now.Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(2), n, "lower bound is inclusive")

	n, err = s.CountSentSince(ctx, "nobody", now.Add(-time.Hour))
	require.NoError(t, err)
	require.Zero(t, n)
}
