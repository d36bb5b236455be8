package models

import (
	"time"
)

// SavedSearch is one row of the search audit trail.
type SavedSearch struct {
	ID        string    `json:"id" bson:"_id"`
	City      string    `json:"city" bson:"city"`
	UserID    string    `json:"userId" bson:"userId"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

type SearchRequest struct {
	City   string `json:"city"`
	UserID string `json:"userId"`
}

type Notification struct {
	ID        string    `json:"id"`
	City      string    `json:"city"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type Feedback struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}
