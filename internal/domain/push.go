package domain

import "time"

// PushSubscription is a browser web-push endpoint registration.
type PushSubscription struct {
	ID        string
	UserID    *string
	Endpoint  string
	P256dh    string
	Auth      string
	CreatedAt time.Time
}

// PushPayload is the JSON document delivered to service workers.
type PushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Icon  string `json:"icon,omitempty"`
}
