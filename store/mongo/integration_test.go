package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rbaliyan/privmsg/store"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	mongoopts "go.mongodb.org/mongo-driver/v2/mongo/options"
)

// connectTestStore connects to the server named by PRIVMSG_MONGO_URI using a
// throwaway database, and skips the test when the variable is unset.
func connectTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("PRIVMSG_MONGO_URI")
	if uri == "" {
		t.Skip("PRIVMSG_MONGO_URI not set")
	}

	ctx := context.Background()
	client, err := mongo.Connect(mongoopts.Client().ApplyURI(uri))
	require.NoError(t, err)

	dbName := "privmsg_test_" + uuid.NewString()[:8]
	s := New(client, WithDatabase(dbName))
	require.NoError(t, s.Connect(ctx))
	t.Cleanup(func() {
		_ = client.Database(dbName).Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return s
}

func TestStoreAgainstServer(t *testing.T) {
	s := connectTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	create := func(sender, recipient string, sentOn time.Time) *store.Message {
		t.Helper()
		msg, err := s.Create(ctx, store.MessageData{
			SenderID: sender, RecipientID: recipient, SentOn: sentOn,
			Title: "t", Body: "b", BodyFormat: "markdown",
		})
		require.NoError(t, err)
		return msg
	}

	m1 := create("alice", "bob", base)
	m2 := create("alice", "bob", base.Add(time.Minute))
	m3 := create("carol", "bob", base.Add(2*time.Minute))

	t.Run("ids are sequential", func(t *testing.T) {
		require.Equal(t, []int64{1, 2, 3}, []int64{m1.ID, m2.ID, m3.ID})
	})

	t.Run("find orders and limits", func(t *testing.T) {
		got, err := s.Find(ctx, []store.Filter{store.RecipientIs("bob")},
			store.ListOptions{SortOrder: store.SortDesc, Limit: 2})
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.Equal(t, m3.ID, got[0].ID)
		require.Equal(t, m2.ID, got[1].ID)

		got, err = s.Find(ctx, []store.Filter{store.RecipientIs("bob"), store.IDAtLeast(m2.ID)},
			store.ListOptions{SortOrder: store.SortAsc})
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.Equal(t, m2.ID, got[0].ID)
	})

	t.Run("flags touch one field", func(t *testing.T) {
		got, err := s.MarkRead(ctx, m1.ID, true)
		require.NoError(t, err)
		require.True(t, got.Read)
		require.True(t, got.SenderVisible)

		got, err = s.SetVisible(ctx, m1.ID, store.PartySender, false)
		require.NoError(t, err)
		require.False(t, got.SenderVisible)
		require.True(t, got.RecipientVisible)
		require.True(t, got.Read)

		_, err = s.MarkRead(ctx, 999, true)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("count includes the lower edge", func(t *testing.T) {
		n, err := s.CountSentSince(ctx, "alice", base.Add(999*time.Microsecond))
		require.NoError(t, err)
		require.EqualValues(t, 2, n)
	})
}
