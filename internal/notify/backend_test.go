package notify_test

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nhle/recruit-inbox/internal/api"
	"github.com/nhle/recruit-inbox/internal/model"
	"github.com/nhle/recruit-inbox/internal/notify"
	"github.com/nhle/recruit-inbox/tests/testutil"
)

// These tests drive the controller against the HTTP client and an
// in-process backend instead of a stub.

func newBackedController(
	t *testing.T,
	opts ...notify.Option,
) (*notify.Controller, *testutil.FakeBackend) {
	t.Helper()

	backend := testutil.NewFakeBackend(t, "session", "cookie-1")
	backend.SetItems([]model.Notification{
		{ID: "n1", Title: "Interview scheduled"},
		{ID: "n2", Title: "Offer received"},
		{ID: "n3", Title: "Application viewed", IsRead: true},
	})

	client, err := api.NewClient(backend.URL,
		api.WithSessionCookie("session", "cookie-1"),
		api.WithMaxRetries(0),
	)
	require.NoError(t, err)

	opts = append([]notify.Option{
		notify.WithLogger(zaptest.NewLogger(t)),
		notify.WithPollInterval(time.Hour),
	}, opts...)
	c := notify.New(client, opts...)
	t.Cleanup(c.Close)

	return c, backend
}

func startLoaded(t *testing.T, c *notify.Controller) {
	t.Helper()
	c.Start(true)
	require.Eventually(t, func() bool {
		return len(c.All()) == 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBackendMarkReadPersists(t *testing.T) {
	c, backend := newBackedController(t)
	startLoaded(t, c)
	assert.Equal(t, 2, c.UnreadCount())

	c.MarkRead(context.Background(), "n1")
	assert.Equal(t, 1, c.UnreadCount())
	assert.True(t, backend.Items()[0].IsRead)

	c.Refresh(context.Background())
	assert.Equal(t, 1, c.UnreadCount())
}

func TestBackendMarkReadRejected(t *testing.T) {
	c, backend := newBackedController(t)
	startLoaded(t, c)

	backend.Fail(testutil.RouteRead, http.StatusInternalServerError)
	c.MarkRead(context.Background(), "n2")

	assert.Equal(t, 2, c.UnreadCount())
	assert.False(t, c.All()[1].IsRead)
	assert.Equal(t, 1, backend.Hits(testutil.RouteRead))
}

func TestBackendMarkAllRejectedResyncs(t *testing.T) {
	c, backend := newBackedController(t)
	startLoaded(t, c)
	before := backend.Hits(testutil.RouteList)

	backend.Fail(testutil.RouteReadAll, http.StatusBadGateway)
	c.MarkAllRead(context.Background())

	assert.Equal(t, 2, c.UnreadCount())
	assert.Equal(t, before+1, backend.Hits(testutil.RouteList))
}

func TestBackendRefreshFailureKeepsCache(t *testing.T) {
	c, backend := newBackedController(t)
	startLoaded(t, c)

	backend.Fail(testutil.RouteList, http.StatusServiceUnavailable)
	c.Refresh(context.Background())

	assert.Len(t, c.All(), 3)
	assert.Equal(t, 2, c.UnreadCount())
}

func TestBackendUnauthorizedEndsSession(t *testing.T) {
	var calls atomic.Int32
	var c *notify.Controller
	c, backend := newBackedController(t, notify.WithAuthErrorHandler(func(err error) {
		assert.True(t, api.IsAuthError(err))
		calls.Add(1)
		c.Start(false)
	}))
	startLoaded(t, c)

	backend.SetSessionCookie("rotated")
	c.Refresh(context.Background())

	assert.EqualValues(t, 1, calls.Load())
	assert.Empty(t, c.All())
	assert.False(t, c.Snapshot().Active)
}

func TestBackendNumericIDs(t *testing.T) {
	c, backend := newBackedController(t)
	backend.SetItems([]model.Notification{
		{ID: "101", Title: "Interview scheduled"},
		{ID: "102", Title: "Offer received"},
		{ID: "103", Title: "Application viewed", IsRead: true},
	})
	backend.SetNumericIDs(true)
	startLoaded(t, c)

	assert.Equal(t, "101", c.All()[0].ID)
	assert.Equal(t, 2, c.UnreadCount())

	c.MarkRead(context.Background(), "102")
	assert.Equal(t, 1, c.UnreadCount())
	assert.True(t, backend.Items()[1].IsRead)
}

func TestBackendFailureLogsStatus(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	c, backend := newBackedController(t, notify.WithLogger(zap.New(core)))
	startLoaded(t, c)

	backend.Fail(testutil.RouteList, http.StatusServiceUnavailable)
	c.Refresh(context.Background())

	entries := logs.FilterMessage("notification refresh failed").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, http.StatusServiceUnavailable, entries[0].ContextMap()["status"])
}
