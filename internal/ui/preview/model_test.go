package preview

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/recruit-inbox/internal/model"
)

func TestViewShowsItemsAndCount(t *testing.T) {
	m := New(40, 12)
	m.Set([]model.Notification{
		{ID: "1", Title: "Interview invite"},
		{ID: "2", Title: "Offer", IsRead: true},
	}, 1)

	out := m.View()
	assert.Contains(t, out, "1 unread")
	assert.Contains(t, out, "Interview invite")
	assert.Contains(t, out, "Offer")
}

func TestViewEmpty(t *testing.T) {
	m := New(40, 12)
	out := m.View()
	assert.Contains(t, out, "Nothing yet")
	assert.NotContains(t, out, "unread")
}
