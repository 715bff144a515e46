// Package privmsg provides private, point-to-point messages between users.
//
// A message has exactly one sender and one recipient. Each side can hide the
// message from its own listing without affecting the other side, and only the
// recipient can change the read flag. Messages are never physically removed.
//
// # Basic Usage
//
//	st := memory.New()
//	dir := resolver.NewStatic(
//	    &privmsg.User{ID: "alice", DisplayName: "Alice"},
//	    &privmsg.User{ID: "bob", DisplayName: "Bob", NotifyOnMessage: true},
//	)
//
//	svc, err := privmsg.NewService(
//	    privmsg.WithStore(st),
//	    privmsg.WithDirectory(dir),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := svc.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close(ctx)
//
//	alice := svc.Client("alice")
//	msg, err := alice.Create(ctx, privmsg.CreateRequest{
//	    Title:     "Hello",
//	    Body:      "World",
//	    Recipient: privmsg.ByDisplayName("Bob"),
//	})
//
//	inbox, err := svc.Client("bob").Inbox(ctx, privmsg.ListParams{Order: "newest", Limit: "20"})
//
// # Listing
//
// Inbox and Outbox take the raw order, from_id and limit strings given by the
// caller. from_id is inclusive: with "newest" the page holds IDs <= from_id in
// descending order, with "oldest" IDs >= from_id in ascending order. To fetch
// the next page pass the ID after the last message returned, or use Walk.
//
// # Errors
//
// Caller mistakes are *BadInputError values matching ErrBadInput; their
// Message field is safe to show as-is. Missing messages and unknown recipients
// match ErrNotFound, foreign messages ErrAccessDenied and exhausted quotas
// ErrRateLimitExceeded.
//
// # Storage Backends
//
//   - In-memory (store/memory) for tests and single process use
//   - PostgreSQL (store/postgres) accepts *sqlx.DB
//   - SQLite (store/sqlite) for embedded deployments
//   - MongoDB (store/mongo) accepts *mongo.Client
//
// # Events
//
// Created, read and hidden messages are published on a
// github.com/rbaliyan/event/v3 bus. Events are dropped unless a transport is
// configured with WithRedisClient or WithEventTransport.
package privmsg
