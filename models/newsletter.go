package models

import "time"

type SubscribeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type Subscriber struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	IsActive     bool      `json:"is_active"`
	SubscribedAt time.Time `json:"subscribed_at"`
}

type NewsletterStats struct {
	TotalSubscribers  int `json:"total_subscribers"`
	ActiveSubscribers int `json:"active_subscribers"`
	RecentSubscribers int `json:"recent_subscribers"`
}
