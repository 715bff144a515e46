package privmsg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/rbaliyan/event/v3"
	"github.com/rbaliyan/event/v3/transport/noop"
	eventredis "github.com/rbaliyan/event/v3/transport/redis"
	"github.com/rbaliyan/privmsg/store"
	"golang.org/x/sync/semaphore"
)

// Message is the stored message type returned by every operation.
type Message = store.Message

// Service manages the message core (server-side).
// It owns the store connection and hands out per-user clients.
type Service interface {
	// IsConnected returns true if the service is connected and ready.
	IsConnected() bool
	// Connect establishes connections to storage backends.
	Connect(ctx context.Context) error
	// Close waits for in-flight creates and pending notifications, then
	// closes all connections.
	Close(ctx context.Context) error
	// Client returns the operations available to the acting user.
	// The user is assumed to be authenticated by the caller.
	Client(userID string) Messages
	// Events returns per-service event instances. Nil before Connect.
	Events() *ServiceEvents
}

// Messages is the set of operations performed on behalf of one user.
type Messages interface {
	// UserID returns the acting user.
	UserID() string
	// Inbox lists messages addressed to the user that they have not hidden.
	Inbox(ctx context.Context, params ListParams) ([]*Message, error)
	// Outbox lists messages sent by the user that they have not hidden.
	Outbox(ctx context.Context, params ListParams) ([]*Message, error)
	// Show returns a message the user sent or received, hidden or not.
	Show(ctx context.Context, id int64) (*Message, error)
	// Create sends a new message from the user.
	Create(ctx context.Context, req CreateRequest) (*Message, error)
	// UpdateReadStatus sets the read flag from a "true"/"false" token.
	// "true" marks the message unread and "false" marks it read.
	UpdateReadStatus(ctx context.Context, id int64, readStatus string) (*Message, error)
	// Destroy hides the message from the user's own listing.
	Destroy(ctx context.Context, id int64) (*Message, error)
	// Walk iterates over every page of a listing.
	Walk(box Box, params ListParams) *Iterator
}

// Connection states for the service.
const (
	stateDisconnected int32 = 0
	stateConnecting   int32 = 1
	stateConnected    int32 = 2
)

// service is the default implementation of Service.
type service struct {
	store     store.Store
	directory Directory
	limiter   *RateLimiter
	recorder  SentRecorder
	logger    *slog.Logger
	opts      *options
	state     int32 // stateDisconnected, stateConnecting, or stateConnected
	plugins   *pluginRegistry
	otel      *otelInstrumentation
	createSem *semaphore.Weighted
	eventBus  *event.Bus
	events    *ServiceEvents

	// notifyMu guards notifies and notifyClosed. notifies is replaced on
	// every Connect so a timed-out Wait never overlaps new deliveries.
	notifyMu     sync.Mutex
	notifies     *sync.WaitGroup
	notifyClosed bool
}

// NewService creates a new message service.
// Call Connect() to establish connections to backends.
func NewService(opts ...Option) (Service, error) {
	o := newOptions(opts...)

	if o.store == nil {
		return nil, ErrStoreRequired
	}
	if o.directory == nil {
		return nil, ErrDirectoryRequired
	}

	plugins := newPluginRegistry(o.logger)
	for _, p := range o.plugins {
		plugins.register(p)
	}

	otelInstr, err := newOtelInstrumentation(o)
	if err != nil {
		return nil, fmt.Errorf("init otel: %w", err)
	}

	var counter SendCounter = o.store
	if o.sendCounter != nil {
		counter = o.sendCounter
	}
	if r, ok := counter.(RetentionReporter); ok && r.Retention() < o.rateLimitWindow {
		return nil, fmt.Errorf("%w: counter keeps %s, window is %s",
			ErrCounterRetention, r.Retention(), o.rateLimitWindow)
	}
	recorder, _ := counter.(SentRecorder)

	return &service{
		store:     o.store,
		directory: o.directory,
		limiter:   NewRateLimiter(counter, o.maxMessagesPerHour, o.rateLimitWindow),
		recorder:  recorder,
		logger:    o.logger,
		opts:      o,
		plugins:   plugins,
		otel:      otelInstr,
		createSem: semaphore.NewWeighted(int64(o.maxConcurrentCreates)),
		notifies:  &sync.WaitGroup{},
	}, nil
}

// Events returns per-service event instances for subscribing and publishing.
func (s *service) Events() *ServiceEvents {
	return s.events
}

// IsConnected returns true if the service is connected and ready.
func (s *service) IsConnected() bool {
	return atomic.LoadInt32(&s.state) == stateConnected
}

// Connect establishes connections to storage backends.
func (s *service) Connect(ctx context.Context) error {
	// stateDisconnected -> stateConnecting -> stateConnected keeps Client()
	// from seeing partial initialization.
	if !atomic.CompareAndSwapInt32(&s.state, stateDisconnected, stateConnecting) {
		return ErrAlreadyConnected
	}

	success := false
	defer func() {
		if success {
			atomic.StoreInt32(&s.state, stateConnected)
		} else {
			atomic.StoreInt32(&s.state, stateDisconnected)
		}
	}()

	if err := s.store.Connect(ctx); err != nil {
		return fmt.Errorf("connect store: %w", err)
	}

	if err := s.initEventBus(ctx); err != nil {
		s.store.Close(ctx)
		return fmt.Errorf("init event bus: %w", err)
	}

	if err := s.plugins.initAll(ctx); err != nil {
		s.eventBus.Close(ctx)
		s.store.Close(ctx)
		return fmt.Errorf("init plugins: %w", err)
	}

	s.notifyMu.Lock()
	s.notifies = &sync.WaitGroup{}
	s.notifyClosed = false
	s.notifyMu.Unlock()

	success = true
	s.logger.Info("message service connected")
	return nil
}

// busCounter generates unique suffixes for event bus names.
var busCounter int64

// initEventBus initializes the event bus for this service.
func (s *service) initEventBus(ctx context.Context) error {
	// Each bus needs a unique name, so append a counter suffix
	busName := fmt.Sprintf("%s-%d", s.opts.serviceName, atomic.AddInt64(&busCounter, 1))

	var bus *event.Bus
	var err error

	switch {
	case s.opts.eventTransport != nil:
		s.logger.Info("initializing event bus with custom transport")
		bus, err = event.NewBus(busName, event.WithTransport(s.opts.eventTransport))
	case s.opts.redisClient != nil:
		s.logger.Info("initializing event bus with Redis transport")
		t, transportErr := eventredis.New(s.opts.redisClient)
		if transportErr != nil {
			return fmt.Errorf("create redis transport: %w", transportErr)
		}
		bus, err = event.NewBus(busName, event.WithTransport(t))
	default:
		s.logger.Debug("initializing event bus with noop transport")
		bus, err = event.NewBus(busName, event.WithTransport(noop.New()))
	}

	if err != nil {
		return fmt.Errorf("create event bus: %w", err)
	}
	s.eventBus = bus

	s.events = newServiceEvents(busName)
	if err := registerServiceEvents(ctx, bus, s.events); err != nil {
		bus.Close(ctx)
		return fmt.Errorf("register service events: %w", err)
	}

	return nil
}

// Close closes connections to storage backends.
func (s *service) Close(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.state, stateConnected, stateDisconnected) {
		return nil
	}

	var errs []error

	// No new creates can start once the state is disconnected; acquiring
	// every slot waits for the ones in flight.
	s.logger.Info("waiting for in-flight creates to complete", "timeout", s.opts.shutdownTimeout)
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, s.opts.shutdownTimeout)
	defer shutdownCancel()
	if err := s.createSem.Acquire(shutdownCtx, int64(s.opts.maxConcurrentCreates)); err != nil {
		s.logger.Warn("timeout waiting for in-flight creates, proceeding with shutdown",
			"error", err)
		errs = append(errs, fmt.Errorf("graceful shutdown timeout: %w", err))
	} else {
		s.createSem.Release(int64(s.opts.maxConcurrentCreates))
	}

	if err := s.drainNotifications(shutdownCtx); err != nil {
		s.logger.Warn("timeout waiting for pending notifications, proceeding with shutdown",
			"error", err)
		errs = append(errs, fmt.Errorf("graceful shutdown timeout: notifications: %w", err))
	}

	if err := s.plugins.closeAll(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close plugins: %w", err))
	}

	if s.eventBus != nil {
		if err := s.eventBus.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close event bus: %w", err))
		}
	}

	if err := s.store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	return errors.Join(errs...)
}

// notify delivers msg on its own goroutine. The delivery outlives the
// create's context but not the notify timeout.
func (s *service) notify(ctx context.Context, msg *Message) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if s.notifyClosed {
		s.logger.Warn("service closing, notification dropped",
			"message_id", msg.ID, "recipient_id", msg.RecipientID)
		return
	}

	ctx = context.WithoutCancel(ctx)
	s.notifies.Go(func() {
		ctx, cancel := context.WithTimeout(ctx, s.opts.notifyTimeout)
		defer cancel()
		if err := s.opts.notifier.Notify(ctx, msg); err != nil {
			s.logger.Warn("failed to notify recipient",
				"message_id", msg.ID, "recipient_id", msg.RecipientID, "error", err)
		}
	})
}

// drainNotifications stops new deliveries and waits for pending ones.
func (s *service) drainNotifications(ctx context.Context) error {
	s.notifyMu.Lock()
	s.notifyClosed = true
	wg := s.notifies
	s.notifyMu.Unlock()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Client returns the operations available to userID.
func (s *service) Client(userID string) Messages {
	return &userMessages{
		userID:      userID,
		service:     s,
		validUserID: isValidUserID(userID),
	}
}

// isValidUserID checks if a user ID is valid.
// Valid user IDs are non-empty and contain only safe characters.
func isValidUserID(userID string) bool {
	if userID == "" {
		return false
	}
	for _, c := range userID {
		if c == '*' || c == ':' || c == '/' || c == '\\' ||
			c == ' ' || c == '\t' || c == '\n' || c == '\r' ||
			c < 32 || c == 127 {
			return false
		}
	}
	return true
}

// userMessages is the default implementation of Messages.
type userMessages struct {
	userID      string
	service     *service
	validUserID bool // set by Client() after validation
}

// UserID returns the acting user.
func (m *userMessages) UserID() string {
	return m.userID
}

// checkAccess verifies the client is ready for operations.
func (m *userMessages) checkAccess() error {
	if atomic.LoadInt32(&m.service.state) != stateConnected {
		return ErrNotConnected
	}
	if !m.validUserID {
		return ErrInvalidUserID
	}
	return nil
}

// load fetches a message by ID, mapping store errors to service errors.
func (m *userMessages) load(ctx context.Context, id int64) (*Message, error) {
	msg, err := m.service.store.Get(ctx, id)
	if err != nil {
		// Non-positive IDs never exist.
		if store.IsNotFound(err) || store.IsInvalidID(err) {
			return nil, fmt.Errorf("message %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	return msg, nil
}
