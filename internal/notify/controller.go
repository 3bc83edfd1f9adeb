// Package notify keeps a locally cached, eventually consistent view of the
// session user's notifications. It polls the backend while a session is
// active and applies mark-read actions optimistically, reverting or
// resynchronizing when the backend rejects them.
//
// Failures never reach callers. A failed refresh keeps the last known list,
// a failed MarkRead reverts that one notification, and a failed MarkAllRead
// triggers a refresh. The next poll is the implicit retry.
//
// Known race: refreshes and mutations are not serialized against each
// other. A refresh issued before a MarkRead but answered after it replaces
// the list with server state that may predate the mark. The same holds for
// overlapping refreshes, where the last response to arrive wins.
package notify

import (
	"context"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nhle/recruit-inbox/internal/api"
	"github.com/nhle/recruit-inbox/internal/model"
)

const (
	// DefaultPollInterval is how often the list is refetched.
	DefaultPollInterval = 30 * time.Second

	// DefaultFetchLimit is how many notifications a refresh asks for.
	DefaultFetchLimit = 100

	// DefaultPreviewSize is the length of the compact preview list.
	DefaultPreviewSize = 7

	// requestTimeout bounds a single backend call.
	requestTimeout = 30 * time.Second
)

// Backend is the remote notification store.
type Backend interface {
	ListNotifications(ctx context.Context, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
}

// SyncRecorder receives the outcome of every refresh attempt.
type SyncRecorder interface {
	RecordSync(ctx context.Context, run model.SyncRun) error
}

// Snapshot is a consistent view of the controller state at one instant.
type Snapshot struct {
	All         []model.Notification
	Preview     []model.Notification
	UnreadCount int
	Active      bool
	Syncing     bool
	LastSync    time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithFetchLimit overrides DefaultFetchLimit.
func WithFetchLimit(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithPreviewSize overrides DefaultPreviewSize.
func WithPreviewSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.previewSize = n
		}
	}
}

// WithTicker replaces the ticker factory used by the poller.
func WithTicker(f TickerFunc) Option {
	return func(c *Controller) {
		if f != nil {
			c.newTicker = f
		}
	}
}

// WithRecorder records every refresh attempt for the given account.
func WithRecorder(r SyncRecorder, accountID string) Option {
	return func(c *Controller) {
		c.recorder = r
		c.accountID = accountID
	}
}

// WithAuthErrorHandler registers a callback for backend 401 responses,
// typically used to end the session.
func WithAuthErrorHandler(f func(error)) Option {
	return func(c *Controller) {
		c.onAuthError = f
	}
}

// Controller owns the cached notification list for one user.
type Controller struct {
	backend     Backend
	logger      *zap.Logger
	interval    time.Duration
	limit       int
	previewSize int
	newTicker   TickerFunc
	recorder    SyncRecorder
	accountID   string
	onAuthError func(error)

	// ctx is cancelled by Close; session end does not cancel requests.
	ctx    context.Context
	cancel context.CancelFunc
	wg     gosync.WaitGroup

	changes chan struct{}

	mu       gosync.Mutex
	all      []model.Notification
	active   bool
	epoch    uint64
	syncing  int
	lastSync time.Time
	stopCh   chan struct{}
	closed   bool
}

// New creates an inactive controller backed by b.
func New(b Backend, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		backend:     b,
		logger:      zap.NewNop(),
		interval:    DefaultPollInterval,
		limit:       DefaultFetchLimit,
		previewSize: DefaultPreviewSize,
		newTicker:   NewTimeTicker,
		ctx:         ctx,
		cancel:      cancel,
		changes:     make(chan struct{}, 1),
		all:         []model.Notification{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Changes returns a channel that receives a signal after every state
// transition. Signals coalesce; read Snapshot for the current state.
func (c *Controller) Changes() <-chan struct{} {
	return c.changes
}

// Start reacts to the session becoming active or inactive. Going active
// fetches immediately and arms the poll timer. Going inactive disarms the
// timer and clears the list; responses still in flight are discarded when
// they arrive. Repeating the current value does nothing.
func (c *Controller) Start(sessionActive bool) {
	c.mu.Lock()
	if c.closed || c.active == sessionActive {
		c.mu.Unlock()
		return
	}

	c.active = sessionActive
	c.epoch++

	if sessionActive {
		stop := make(chan struct{})
		c.stopCh = stop
		c.wg.Add(1)
		go c.poll(c.epoch, stop)
		c.logger.Info("notification polling started",
			zap.Duration("interval", c.interval))
	} else {
		close(c.stopCh)
		c.stopCh = nil
		c.all = []model.Notification{}
		c.syncing = 0
		c.logger.Info("notification polling stopped")
	}
	c.mu.Unlock()

	c.notify()
}

// Close stops polling for good and cancels in-flight requests. It waits
// for the poller to exit.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.stopCh != nil {
		close(c.stopCh)
		c.stopCh = nil
	}
	c.active = false
	c.epoch++
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

// Refresh refetches the list and replaces the cache on success. It does
// nothing without an active session.
func (c *Controller) Refresh(ctx context.Context) {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	epoch := c.epoch
	c.mu.Unlock()

	c.refresh(ctx, epoch)
}

// MarkRead flags one notification read locally, then on the backend. If
// the backend call fails and the notification was unread before the call,
// it is flagged unread again. A notification that was already read, or is
// not in the list, is left alone: its pre-call state is already showing.
func (c *Controller) MarkRead(ctx context.Context, id string) {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	epoch := c.epoch
	prev, found := find(c.all, id)
	c.all = Reduce(c.all, MarkRead{ID: id})
	c.mu.Unlock()
	c.notify()

	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	err := c.backend.MarkRead(ctx, id)
	if err == nil {
		return
	}
	c.logger.Warn("mark read failed; reverting",
		zap.String("id", id), zap.Int("status", api.StatusCode(err)), zap.Error(err))
	c.handleAuthError(err)

	if !found || prev.IsRead {
		return
	}

	c.mu.Lock()
	if !c.current(epoch) {
		c.mu.Unlock()
		return
	}
	c.all = Reduce(c.all, RevertRead{ID: id})
	c.mu.Unlock()
	c.notify()
}

// MarkAllRead flags every notification read locally, then on the backend.
// If the backend call fails the list is refetched, since the local state
// cannot tell which items were already read on the server.
func (c *Controller) MarkAllRead(ctx context.Context) {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	epoch := c.epoch
	c.all = Reduce(c.all, MarkAllRead{})
	c.mu.Unlock()
	c.notify()

	reqCtx, cancel := c.requestContext(ctx)
	err := c.backend.MarkAllRead(reqCtx)
	cancel()
	if err == nil {
		return
	}
	c.logger.Warn("mark all read failed; resyncing",
		zap.Int("status", api.StatusCode(err)), zap.Error(err))
	c.handleAuthError(err)

	c.refresh(ctx, epoch)
}

// All returns a copy of the cached list in backend order.
func (c *Controller) All() []model.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clone(c.all)
}

// UnreadCount returns the number of unread notifications in the cache.
func (c *Controller) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return UnreadCount(c.all)
}

// Preview returns the first notifications of the cache.
func (c *Controller) Preview() []model.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Preview(c.all, c.previewSize)
}

// Snapshot returns all derived views computed from the same list.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		All:         clone(c.all),
		Preview:     Preview(c.all, c.previewSize),
		UnreadCount: UnreadCount(c.all),
		Active:      c.active,
		Syncing:     c.syncing > 0,
		LastSync:    c.lastSync,
	}
}

// poll runs the refresh loop for one session.
func (c *Controller) poll(epoch uint64, stop <-chan struct{}) {
	defer c.wg.Done()

	ticker := c.newTicker(c.interval)
	defer ticker.Stop()

	c.refresh(c.ctx, epoch)

	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			c.refresh(c.ctx, epoch)
		}
	}
}

// refresh fetches the list on behalf of session epoch and applies the
// result only if that session is still the current one.
func (c *Controller) refresh(ctx context.Context, epoch uint64) {
	c.mu.Lock()
	if !c.current(epoch) {
		c.mu.Unlock()
		return
	}
	c.syncing++
	c.mu.Unlock()
	c.notify()

	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	started := time.Now()
	items, err := c.backend.ListNotifications(ctx, c.limit)
	finished := time.Now()

	if err != nil {
		c.logger.Warn("notification refresh failed",
			zap.Int("status", api.StatusCode(err)), zap.Error(err))
		c.handleAuthError(err)
	}

	c.mu.Lock()
	if !c.current(epoch) {
		c.mu.Unlock()
		c.logger.Debug("discarding refresh result from ended session")
		return
	}
	c.syncing--
	if err == nil {
		c.all = Reduce(c.all, ReplaceAll{Items: items})
		c.lastSync = finished
	}
	run := model.SyncRun{
		ID:          uuid.New().String(),
		AccountID:   c.accountID,
		StartedAt:   started,
		FinishedAt:  finished,
		ItemCount:   len(c.all),
		UnreadCount: UnreadCount(c.all),
	}
	if err != nil {
		run.Error = err.Error()
	}
	c.mu.Unlock()
	c.notify()

	c.record(run)
}

// record forwards a sync run to the recorder, if any.
func (c *Controller) record(run model.SyncRun) {
	if c.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.recorder.RecordSync(ctx, run); err != nil {
		c.logger.Warn("recording sync run failed", zap.Error(err))
	}
}

// current reports whether epoch still denotes the active session.
// Callers hold c.mu.
func (c *Controller) current(epoch uint64) bool {
	return c.active && c.epoch == epoch
}

// requestContext bounds a backend call. It also ends when the controller
// is closed.
func (c *Controller) requestContext(
	ctx context.Context,
) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	stop := context.AfterFunc(c.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (c *Controller) handleAuthError(err error) {
	if c.onAuthError != nil && api.IsAuthError(err) {
		c.onAuthError(err)
	}
}

// notify signals Changes without blocking.
func (c *Controller) notify() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}
