package api

import "github.com/nhle/recruit-inbox/internal/model"

// NotificationsResponse is the response from GET /notifications.
type NotificationsResponse struct {
	Notifications []model.Notification `json:"notifications"`
}

// PresignResponse is the response from GET /media/presign.
type PresignResponse struct {
	URL string `json:"url"`

	// ExpiresIn is the URL lifetime in seconds. Zero means the backend
	// did not say.
	ExpiresIn int `json:"expiresIn"`
}

// errorResponse is the error envelope the backend uses for 4xx/5xx.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
