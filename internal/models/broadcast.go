package models

import "time"

// AudienceAll targets every account type.
const AudienceAll = "all"

type Broadcast struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Recipients []string  `json:"recipients"`
	ReadBy     []int64   `json:"read_by"`
	CreatedAt  time.Time `json:"created_at"`
}

type BroadcastView struct {
	Broadcast
	IsRead bool `json:"is_read"`
}
