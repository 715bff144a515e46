package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rbaliyan/privmsg"
	counter "github.com/rbaliyan/privmsg/counter/redis"
	"github.com/rbaliyan/privmsg/resolver"
	"github.com/rbaliyan/privmsg/store"
	"github.com/rbaliyan/privmsg/store/memory"
	"github.com/redis/go-redis/v9"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestCountSentSince(t *testing.T) {
	ctx := context.Background()
	_, client := newClient(t)
	c := counter.New(client)

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, offset := range []time.Duration{0, 10 * time.Minute, 30 * time.Minute} {
		msg := &store.Message{ID: int64(i + 1), SenderID: "alice", SentOn: base.Add(offset)}
		if err := c.RecordSent(ctx, msg); err != nil {
			t.Fatalf("RecordSent(%d): %v", msg.ID, err)
		}
	}
	// Duplicate record of the same message.
	if err := c.RecordSent(ctx, &store.Message{ID: 3, SenderID: "alice", SentOn: base.Add(30 * time.Minute)}); err != nil {
		t.Fatalf("RecordSent duplicate: %v", err)
	}

	tests := []struct {
		name  string
		since time.Time
		want  int64
	}{
		{"all", base.Add(-time.Hour), 3},
		{"inclusive lower bound", base.Add(10 * time.Minute), 2},
		{"after last", base.Add(31 * time.Minute), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.CountSentSince(ctx, "alice", tt.since)
			if err != nil {
				t.Fatalf("CountSentSince: %v", err)
			}
			if got != tt.want {
				t.Errorf("CountSentSince = %d, want %d", got, tt.want)
			}
		})
	}

	if got, _ := c.CountSentSince(ctx, "bob", base.Add(-time.Hour)); got != 0 {
		t.Errorf("CountSentSince(bob) = %d, want 0", got)
	}
}

func TestRecordTrimsOldSends(t *testing.T) {
	ctx := context.Background()
	mr, client := newClient(t)
	c := counter.New(client, counter.WithKeyPrefix("test:"), counter.WithRetention(time.Hour))

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	_ = c.RecordSent(ctx, &store.Message{ID: 1, SenderID: "alice", SentOn: base})
	_ = c.RecordSent(ctx, &store.Message{ID: 2, SenderID: "alice", SentOn: base.Add(2 * time.Hour)})

	members, err := mr.ZMembers("test:alice")
	if err != nil {
		t.Fatalf("ZMembers: %v", err)
	}
	if len(members) != 1 || members[0] != "2" {
		t.Errorf("members = %v, want [2]", members)
	}
	if ttl := mr.TTL("test:alice"); ttl != time.Hour {
		t.Errorf("TTL = %v, want 1h", ttl)
	}

	if err := c.Reset(ctx, "alice"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if mr.Exists("test:alice") {
		t.Error("key still exists after Reset")
	}
}

func TestServiceUsesCounter(t *testing.T) {
	ctx := context.Background()
	_, client := newClient(t)
	c := counter.New(client)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc, err := privmsg.NewService(
		privmsg.WithStore(memory.New()),
		privmsg.WithDirectory(resolver.NewStatic(
			&privmsg.User{ID: "alice", MaxMessagesPerHour: 2},
			&privmsg.User{ID: "bob"},
		)),
		privmsg.WithSendCounter(c),
		privmsg.WithClock(privmsg.ClockFunc(func() time.Time { return now })),
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if err := svc.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer svc.Close(ctx)

	alice := svc.Client("alice")
	req := privmsg.CreateRequest{Title: "t", Body: "b", Recipient: privmsg.ByID("bob")}
	for i := 0; i < 2; i++ {
		if _, err := alice.Create(ctx, req); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}
	if _, err := alice.Create(ctx, req); !errors.Is(err, privmsg.ErrRateLimitExceeded) {
		t.Fatalf("third Create = %v, want ErrRateLimitExceeded", err)
	}

	got, err := c.CountSentSince(ctx, "alice", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("CountSentSince: %v", err)
	}
	if got != 2 {
		t.Errorf("recorded %d sends, want 2 (rejected create must not be recorded)", got)
	}
}

func TestServiceRejectsShortRetention(t *testing.T) {
	_, client := newClient(t)
	dir := resolver.NewStatic(&privmsg.User{ID: "alice"})

	_, err := privmsg.NewService(
		privmsg.WithStore(memory.New()),
		privmsg.WithDirectory(dir),
		privmsg.WithSendCounter(counter.New(client)),
		privmsg.WithRateLimitWindow(2*time.Hour),
	)
	if !errors.Is(err, privmsg.ErrCounterRetention) {
		t.Fatalf("NewService with 1h retention and 2h window = %v, want ErrCounterRetention", err)
	}

	_, err = privmsg.NewService(
		privmsg.WithStore(memory.New()),
		privmsg.WithDirectory(dir),
		privmsg.WithSendCounter(counter.New(client, counter.WithRetention(2*time.Hour))),
		privmsg.WithRateLimitWindow(2*time.Hour),
	)
	if err != nil {
		t.Fatalf("NewService with matching retention: %v", err)
	}
}
