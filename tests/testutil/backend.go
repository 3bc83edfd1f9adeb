package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/nhle/recruit-inbox/internal/model"
)

// Route names accepted by FakeBackend.Fail.
const (
	RouteList    = "list"
	RouteRead    = "read"
	RouteReadAll = "read-all"
	RoutePresign = "presign"
)

// FakeBackend is an in-process recruiting backend serving the
// notification and media endpoints the client uses.
type FakeBackend struct {
	URL        string
	CookieName string

	mu        sync.Mutex
	cookie    string
	items     []model.Notification
	failures  map[string]int
	hits      map[string]int
	media     map[string]string
	expiresIn int
	numeric   bool
}

// numericNotification encodes the id as a JSON number.
type numericNotification struct {
	model.Notification
	ID json.Number `json:"id"`
}

func init() {
	gin.SetMode(gin.TestMode)
}

// NewFakeBackend starts a backend that accepts requests carrying the
// given session cookie. It shuts down when the test completes.
func NewFakeBackend(t *testing.T, cookieName, cookie string) *FakeBackend {
	t.Helper()

	b := &FakeBackend{
		CookieName: cookieName,
		cookie:     cookie,
		failures:   map[string]int{},
		hits:       map[string]int{},
		media:      map[string]string{},
		expiresIn:  900,
	}

	router := gin.New()
	router.Use(b.requireSession)
	router.GET("/notifications", b.handleList)
	router.PATCH("/notifications/read-all", b.handleReadAll)
	router.PATCH("/notifications/:id/read", b.handleRead)
	router.GET("/media/presign", b.handlePresign)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	b.URL = srv.URL

	return b
}

// SetSessionCookie changes the cookie value the backend accepts, which
// invalidates sessions holding the old one.
func (b *FakeBackend) SetSessionCookie(cookie string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cookie = cookie
}

// SetItems replaces the server-side notification list.
func (b *FakeBackend) SetItems(items []model.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append([]model.Notification(nil), items...)
}

// Items returns a copy of the server-side notification list.
func (b *FakeBackend) Items() []model.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Notification(nil), b.items...)
}

// SetNumericIDs makes the list endpoint send ids as JSON numbers, the way
// backends keyed by integer columns do. Item ids must be decimal.
func (b *FakeBackend) SetNumericIDs(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.numeric = on
}

// Fail makes every following request to route answer with status.
// A zero status clears the failure.
func (b *FakeBackend) Fail(route string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == 0 {
		delete(b.failures, route)
		return
	}
	b.failures[route] = status
}

// Hits reports how many requests reached route.
func (b *FakeBackend) Hits(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[route]
}

// SetMedia registers the URL returned for a storage key and the
// lifetime in seconds reported with every presign response.
func (b *FakeBackend) SetMedia(key, url string, expiresIn int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.media[key] = url
	b.expiresIn = expiresIn
}

func (b *FakeBackend) requireSession(c *gin.Context) {
	value, err := c.Cookie(b.CookieName)
	b.mu.Lock()
	want := b.cookie
	b.mu.Unlock()
	if err != nil || value != want {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "session expired",
		})
		return
	}
	c.Next()
}

// begin counts the hit and reports whether a failure was injected.
func (b *FakeBackend) begin(c *gin.Context, route string) bool {
	b.mu.Lock()
	b.hits[route]++
	status, failing := b.failures[route]
	b.mu.Unlock()

	if failing {
		c.JSON(status, gin.H{"error": "injected", "message": route + " failed"})
		return true
	}
	return false
}

func (b *FakeBackend) handleList(c *gin.Context) {
	if b.begin(c, RouteList) {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": "invalid limit"})
		return
	}

	b.mu.Lock()
	items := append([]model.Notification(nil), b.items...)
	numeric := b.numeric
	b.mu.Unlock()
	if len(items) > limit {
		items = items[:limit]
	}

	if !numeric {
		c.JSON(http.StatusOK, gin.H{"notifications": items})
		return
	}
	out := make([]numericNotification, len(items))
	for i, n := range items {
		out[i] = numericNotification{Notification: n, ID: json.Number(n.ID)}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": out})
}

func (b *FakeBackend) handleRead(c *gin.Context) {
	if b.begin(c, RouteRead) {
		return
	}

	id := c.Param("id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if b.items[i].ID == id {
			b.items[i].IsRead = true
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "no notification " + id})
}

func (b *FakeBackend) handleReadAll(c *gin.Context) {
	if b.begin(c, RouteReadAll) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		b.items[i].IsRead = true
	}
	c.Status(http.StatusNoContent)
}

func (b *FakeBackend) handlePresign(c *gin.Context) {
	if b.begin(c, RoutePresign) {
		return
	}

	key := c.Query("key")
	b.mu.Lock()
	url, ok := b.media[key]
	expiresIn := b.expiresIn
	b.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "no object " + key})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "expiresIn": expiresIn})
}
