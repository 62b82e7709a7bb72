package models

import "time"

const (
	MessageKindText   = "text"
	MessageKindSystem = "system"
)

type ChatRoom struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	ProfessionalID int64     `json:"professional_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ChatMessage struct {
	ID        int64     `json:"id"`
	RoomID    int64     `json:"room_id"`
	SenderID  int64     `json:"sender_id"`
	Kind      string    `json:"kind"`
	Content   string    `json:"content"`
	ReadBy    []int64   `json:"read_by"`
	CreatedAt time.Time `json:"created_at"`
}

type RoomSummary struct {
	ChatRoom
	LastMessage *ChatMessage `json:"last_message,omitempty"`
	UnreadCount int          `json:"unread_count"`
}
