package models

import "time"

// Lead kinds stored in the contacts table.
const (
	LeadMessage = "message"
	LeadCall    = "call"
)

type ContactMessageRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject"`
	Message string `json:"message" binding:"required"`
}

type BookCallRequest struct {
	Name          string    `json:"name" binding:"required"`
	Email         string    `json:"email" binding:"required,email"`
	PreferredTime time.Time `json:"preferred_time" binding:"required"`
	Topic         string    `json:"topic"`
}

type Lead struct {
	ID            int        `json:"id"`
	Kind          string     `json:"kind"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Subject       string     `json:"subject,omitempty"`
	Message       string     `json:"message,omitempty"`
	PreferredTime *time.Time `json:"preferred_time,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
