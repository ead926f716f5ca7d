package domain

import (
	"encoding/json"
	"time"
)

// Notification is an in-app notification.
type Notification struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	Body      string          `json:"body,omitempty"`
	Kind      string          `json:"type,omitempty"`
	IsRead    bool            `json:"is_read"`
	Payload   json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"created_at,omitempty"`
}

// UnreadCount is the body of notifications/unread-count/.
type UnreadCount struct {
	Count int `json:"count"`
}

// WebpushSubscription registers a browser push endpoint.
type WebpushSubscription struct {
	ID        int64     `json:"id"`
	Endpoint  string    `json:"endpoint"`
	P256dh    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	Browser   string    `json:"browser,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// WebpushInput creates or replaces a subscription.
type WebpushInput struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
	P256dh   string `json:"p256dh" validate:"required"`
	Auth     string `json:"auth" validate:"required"`
	Browser  string `json:"browser,omitempty"`
}
