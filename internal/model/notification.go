package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Notification is a single in-app notification as returned by the
// recruiting backend. Only ID, IsRead and CreatedAt carry meaning for the
// client; the remaining fields are display payload.
type Notification struct {
	// ID is the backend identifier, stable across fetches. Backends send it
	// as a JSON string or number; it is kept in its string form.
	ID string `json:"id"`

	// Title is the short headline shown in lists.
	Title string `json:"title"`

	// Message is the notification body.
	Message string `json:"message"`

	// Link points at the related resource. It is either an absolute URL
	// or a storage key that must be resolved to a presigned URL.
	Link string `json:"link,omitempty"`

	// Recipient identifies the user the notification was addressed to.
	Recipient string `json:"recipient,omitempty"`

	// IsRead reports whether the user has acknowledged the notification.
	IsRead bool `json:"isRead"`

	// CreatedAt is when the backend generated the notification.
	CreatedAt time.Time `json:"createdAt"`
}

// UnmarshalJSON decodes a notification whose id is either a JSON string or
// a JSON number.
func (n *Notification) UnmarshalJSON(data []byte) error {
	type plain Notification
	aux := struct {
		ID json.RawMessage `json:"id"`
		*plain
	}{plain: (*plain)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	id, err := decodeID(aux.ID)
	if err != nil {
		return fmt.Errorf("decoding notification id %s: %w", aux.ID, err)
	}
	n.ID = id
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}

	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return "", err
	}
	return num.String(), nil
}
