package detail

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/recruit-inbox/internal/keys"
	"github.com/nhle/recruit-inbox/internal/model"
)

type resolverFunc func(ctx context.Context, key string) (string, error)

func (f resolverFunc) Resolve(ctx context.Context, key string) (string, error) {
	return f(ctx, key)
}

func TestShowResolvesStorageKey(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	m.SetResolver(resolverFunc(func(_ context.Context, key string) (string, error) {
		return "https://cdn.example/" + key + "?sig=1", nil
	}))

	cmd := m.Show(model.Notification{ID: "n1", Title: "CV reviewed", Link: "uploads/cv.pdf"})
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "resolving")

	m, _ = m.Update(cmd())
	assert.Contains(t, m.View(), "https://cdn.example/uploads/cv.pdf?sig=1")
}

func TestShowAbsoluteLinkNeedsNoLookup(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	m.SetResolver(resolverFunc(func(context.Context, string) (string, error) {
		t.Fatal("absolute links must not be resolved")
		return "", nil
	}))

	cmd := m.Show(model.Notification{ID: "n1", Link: "https://recruit.example/jobs/7"})
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "https://recruit.example/jobs/7")
}

func TestResolveFailureShown(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	m.SetResolver(resolverFunc(func(context.Context, string) (string, error) {
		return "", errors.New("forbidden")
	}))

	cmd := m.Show(model.Notification{ID: "n1", Link: "uploads/a.png"})
	m, _ = m.Update(cmd())
	assert.Contains(t, m.View(), "unavailable: forbidden")
}

func TestStaleResolutionIgnored(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	m.Show(model.Notification{ID: "n2", Title: "Other"})

	m, _ = m.Update(LinkResolvedMsg{ID: "n1", URL: "https://late.example"})
	assert.NotContains(t, m.View(), "late.example")
}

func TestMarkReadAndBack(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	m.Show(model.Notification{ID: "n1", Title: "Hello"})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	require.NotNil(t, cmd)
	assert.Equal(t, MarkReadMsg{ID: "n1"}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, BackMsg{}, cmd())
}

func TestSyncUpdatesReadState(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	m.Show(model.Notification{ID: "n1", Title: "Hello"})
	assert.Contains(t, m.View(), "UNREAD")

	m.Sync([]model.Notification{{ID: "n1", Title: "Hello", IsRead: true}})
	cur, ok := m.Current()
	require.True(t, ok)
	assert.True(t, cur.IsRead)
	assert.NotContains(t, m.View(), "UNREAD")
}
