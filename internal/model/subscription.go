package model

import "time"

// Subscription links a chat to scheduled signal pushes.
type Subscription struct {
	ChatID    int64     `json:"chat_id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
