package notify

import "github.com/nhle/recruit-inbox/internal/model"

// Action is a state transition over the cached notification list.
// Implementations never modify the slice they are given.
type Action interface {
	apply(all []model.Notification) []model.Notification
}

// MarkRead optimistically flags one notification read.
type MarkRead struct {
	ID string
}

// RevertRead undoes a failed MarkRead for one notification.
type RevertRead struct {
	ID string
}

// MarkAllRead optimistically flags every notification read.
type MarkAllRead struct{}

// ReplaceAll installs the result of a full refresh.
type ReplaceAll struct {
	Items []model.Notification
}

// Reduce returns the list that results from applying a to all.
func Reduce(all []model.Notification, a Action) []model.Notification {
	return a.apply(all)
}

func (a MarkRead) apply(all []model.Notification) []model.Notification {
	return setRead(all, a.ID, true)
}

func (a RevertRead) apply(all []model.Notification) []model.Notification {
	return setRead(all, a.ID, false)
}

func (MarkAllRead) apply(all []model.Notification) []model.Notification {
	next := clone(all)
	for i := range next {
		next[i].IsRead = true
	}
	return next
}

func (a ReplaceAll) apply([]model.Notification) []model.Notification {
	return clone(a.Items)
}

// setRead copies all and sets IsRead on every element whose ID matches.
func setRead(all []model.Notification, id string, read bool) []model.Notification {
	next := clone(all)
	for i := range next {
		if next[i].ID == id {
			next[i].IsRead = read
		}
	}
	return next
}

// clone returns a copy of all that shares no backing array with it.
// A nil input yields an empty, non-nil slice.
func clone(all []model.Notification) []model.Notification {
	next := make([]model.Notification, len(all))
	copy(next, all)
	return next
}

// UnreadCount counts the notifications in all that are not read.
func UnreadCount(all []model.Notification) int {
	n := 0
	for _, item := range all {
		if !item.IsRead {
			n++
		}
	}
	return n
}

// Preview returns a copy of the first size notifications of all, or all of
// them when there are fewer.
func Preview(all []model.Notification, size int) []model.Notification {
	if size < 0 {
		size = 0
	}
	if size > len(all) {
		size = len(all)
	}
	return clone(all[:size])
}

// find returns the notification with the given ID.
func find(all []model.Notification, id string) (model.Notification, bool) {
	for _, item := range all {
		if item.ID == id {
			return item, true
		}
	}
	return model.Notification{}, false
}
