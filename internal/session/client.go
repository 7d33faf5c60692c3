package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/servicesaver/servicesaver/internal/log"
)

// errStreamEnded is reported when a listener returns without an error
// while the client is still running.
var errStreamEnded = errors.New("listener ended unexpectedly")

const (
	defaultReconnectEvery = 2 * time.Second
	defaultReconnectBurst = 3
	updatesBuffer         = 16
)

// Client is the per-user session accessor. It owns the two real-time
// listeners and issues the two commands the UI may send.
type Client struct {
	uid    string
	store  Store
	reinit Reinitializer
	cache  Cache
	logger *zap.Logger

	reconnectLimit rate.Limit
	reconnectBurst int
	breakerLimit   int

	updates chan Update

	mu      sync.Mutex
	cancel  context.CancelFunc
	group   *errgroup.Group
	started bool
	closed  bool
}

// Option configures a Client.
type Option func(*Client)

// WithReinitializer sets the backend used to re-create sessions on reset.
func WithReinitializer(r Reinitializer) Option {
	return func(c *Client) { c.reinit = r }
}

// WithCache enables snapshot persistence.
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithReconnect bounds how often a broken listener is re-established.
func WithReconnect(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.reconnectLimit = limit
		}
		if burst > 0 {
			c.reconnectBurst = burst
		}
	}
}

// WithBreakerThreshold sets how many consecutive listener failures mark
// the sync as degraded.
func WithBreakerThreshold(n int) Option {
	return func(c *Client) { c.breakerLimit = n }
}

// NewClient creates a Client for the given user.
func NewClient(uid string, store Store, opts ...Option) (*Client, error) {
	if uid == "" {
		return nil, ErrNoUser
	}
	c := &Client{
		uid:            uid,
		store:          store,
		logger:         zap.NewNop(),
		reconnectLimit: rate.Every(defaultReconnectEvery),
		reconnectBurst: defaultReconnectBurst,
		updates:        make(chan Update, updatesBuffer),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("uid", uid))
	return c, nil
}

// UserID returns the user the client is bound to.
func (c *Client) UserID() string {
	return c.uid
}

// Updates returns the delivery channel. It is closed once both listeners
// have stopped after Close or cancellation of the Start context.
func (c *Client) Updates() <-chan Update {
	return c.updates
}

// Start launches the session and messages listeners. Calling Start more
// than once is a no-op.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.started {
		return nil
	}
	c.started = true

	ctx, c.cancel = context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	c.group = g

	g.Go(func() error { return c.runSession(gctx) })
	g.Go(func() error { return c.runMessages(gctx) })

	go func() {
		_ = g.Wait()
		close(c.updates)
	}()

	c.logger.Debug("listeners started", zap.String("event", log.EventSyncStarted))
	return nil
}

// Close stops both listeners and waits for them to exit. In-flight
// commands are not cancelled.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	started := c.started
	if c.cancel != nil {
		c.cancel()
	}
	g := c.group
	c.mu.Unlock()

	if !started {
		close(c.updates)
		return nil
	}
	_ = g.Wait()
	c.logger.Debug("listeners stopped", zap.String("event", log.EventSyncStopped))
	return nil
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// AppendMessage appends a user message with an optional category hint.
func (c *Client) AppendMessage(ctx context.Context, text, category string) error {
	if c.isClosed() {
		return ErrClosed
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	msg := Message{
		Role:     RoleUser,
		Content:  text,
		Category: category,
		ClientID: uuid.NewString(),
	}
	if err := c.store.AppendMessage(ctx, c.uid, msg); err != nil {
		c.logger.Error("append message failed",
			zap.String("event", log.EventWriteFailed), zap.Error(err))
		return err
	}

	c.logger.Info("message appended",
		zap.String("event", log.EventMessageAppended),
		zap.String("category", category),
		zap.String("client_id", msg.ClientID))
	return nil
}

// Reset deletes the session document and then asks the backend to
// re-initialise. Both steps are idempotent, so a failed reset can simply
// be retried.
func (c *Client) Reset(ctx context.Context) error {
	if c.isClosed() {
		return ErrClosed
	}

	if err := c.store.DeleteSession(ctx, c.uid); err != nil {
		c.logger.Error("reset failed",
			zap.String("event", log.EventWriteFailed),
			zap.String("stage", string(StageDelete)), zap.Error(err))
		return &ResetError{Stage: StageDelete, Err: err}
	}

	if c.cache != nil {
		if err := c.cache.Clear(ctx, c.uid); err != nil {
			c.logger.Warn("clear cached snapshot", zap.Error(err))
		}
	}

	if c.reinit != nil {
		if err := c.reinit.NewSession(ctx); err != nil {
			c.logger.Error("reset failed",
				zap.String("event", log.EventWriteFailed),
				zap.String("stage", string(StageReinit)), zap.Error(err))
			return &ResetError{Stage: StageReinit, Err: err}
		}
	}

	c.logger.Info("session reset", zap.String("event", log.EventSessionReset))
	return nil
}

// Fetch reads the session and messages once, without listeners.
func (c *Client) Fetch(ctx context.Context) (*Session, []Message, error) {
	sess, err := c.store.GetSession(ctx, c.uid)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := c.store.ListMessages(ctx, c.uid)
	if err != nil {
		return nil, nil, err
	}
	return sess, msgs, nil
}

func (c *Client) runSession(ctx context.Context) error {
	if c.cache != nil {
		sess, ok, err := c.cache.LoadSession(ctx, c.uid)
		if err != nil {
			c.logger.Warn("load cached session", zap.Error(err))
		} else if ok {
			c.emit(ctx, Update{Kind: KindSession, Session: sess, FromCache: true})
		}
	}

	breaker := NewBreaker(c.breakerLimit)
	return c.keepWatching(ctx, StreamSession, breaker, func(ctx context.Context) error {
		return c.store.WatchSession(ctx, c.uid, func(sess *Session) {
			c.recovered(ctx, StreamSession, breaker)
			if c.cache != nil {
				if err := c.cache.SaveSession(ctx, c.uid, sess); err != nil {
					c.logger.Warn("cache session", zap.Error(err))
				}
			}
			c.emit(ctx, Update{Kind: KindSession, Session: sess})
		})
	})
}

func (c *Client) runMessages(ctx context.Context) error {
	if c.cache != nil {
		msgs, ok, err := c.cache.LoadMessages(ctx, c.uid)
		if err != nil {
			c.logger.Warn("load cached messages", zap.Error(err))
		} else if ok {
			c.emit(ctx, Update{Kind: KindMessages, Messages: msgs, FromCache: true})
		}
	}

	breaker := NewBreaker(c.breakerLimit)
	return c.keepWatching(ctx, StreamMessages, breaker, func(ctx context.Context) error {
		return c.store.WatchMessages(ctx, c.uid, func(msgs []Message) {
			c.recovered(ctx, StreamMessages, breaker)
			if c.cache != nil {
				if err := c.cache.SaveMessages(ctx, c.uid, msgs); err != nil {
					c.logger.Warn("cache messages", zap.Error(err))
				}
			}
			c.emit(ctx, Update{Kind: KindMessages, Messages: msgs})
		})
	})
}

// keepWatching re-establishes a listener until ctx is done. Listener
// errors are reported as updates and never end the loop.
func (c *Client) keepWatching(ctx context.Context, stream Stream, breaker *Breaker, watch func(context.Context) error) error {
	limiter := rate.NewLimiter(c.reconnectLimit, c.reconnectBurst)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil
		}

		err := watch(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			err = errStreamEnded
		}

		degraded := breaker.RecordFailure()
		c.logger.Warn("listener failed",
			zap.String("event", log.EventSyncError),
			zap.String("stream", string(stream)),
			zap.Int("failures", breaker.Failures()),
			zap.Bool("degraded", degraded),
			zap.Error(err))
		c.emit(ctx, Update{Kind: KindError, Stream: stream, Err: err, Degraded: degraded})
	}
}

func (c *Client) recovered(ctx context.Context, stream Stream, breaker *Breaker) {
	if !breaker.RecordSuccess() {
		return
	}
	c.logger.Info("listener recovered",
		zap.String("event", log.EventSyncRecovered),
		zap.String("stream", string(stream)))
	c.emit(ctx, Update{Kind: KindRecovered, Stream: stream})
}

func (c *Client) emit(ctx context.Context, u Update) {
	select {
	case c.updates <- u:
	case <-ctx.Done():
	}
}
