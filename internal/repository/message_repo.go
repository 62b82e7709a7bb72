package repository

import (
	"context"

	"github.com/ruangjiwa/MindCareBack/internal/models"
)

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a message. The sender is recorded as having read their own
// message.
func (r *MessageRepository) Create(
	ctx context.Context,
	roomID int64,
	senderID int64,
	kind string,
	content string,
) (*models.ChatMessage, error) {
	query := `
		INSERT INTO messages (room_id, sender_id, kind, content, read_by)
		VALUES ($1, $2, $3, $4, ARRAY[$2]::bigint[])
		RETURNING id, room_id, sender_id, kind, content, read_by, created_at
	`

	var message models.ChatMessage
	err := r.db.QueryRow(ctx, query, roomID, senderID, kind, content).Scan(
		&message.ID,
		&message.RoomID,
		&message.SenderID,
		&message.Kind,
		&message.Content,
		&message.ReadBy,
		&message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepository) ListByRoom(
	ctx context.Context,
	roomID int64,
	limit int,
	offset int,
) ([]models.ChatMessage, int, error) {
	totalQuery := `
		SELECT COUNT(*)
		FROM messages
		WHERE room_id = $1
	`

	var total int
	if err := r.db.QueryRow(ctx, totalQuery, roomID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, room_id, sender_id, kind, content, read_by, created_at
		FROM messages
		WHERE room_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, roomID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	messages := make([]models.ChatMessage, 0)
	for rows.Next() {
		var message models.ChatMessage
		if err := rows.Scan(
			&message.ID,
			&message.RoomID,
			&message.SenderID,
			&message.Kind,
			&message.Content,
			&message.ReadBy,
			&message.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

// MarkMessagesRead appends the reader to read_by for the given messages.
// Messages the reader sent, or has already read, are left untouched.
func (r *MessageRepository) MarkMessagesRead(
	ctx context.Context,
	messageIDs []int64,
	readerID int64,
) error {
	if len(messageIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		UPDATE messages
		SET read_by = array_append(read_by, $2)
		WHERE id = ANY($1)
		  AND sender_id <> $2
		  AND NOT ($2 = ANY(read_by))
	`, messageIDs, readerID)
	return err
}

func (r *MessageRepository) MarkRoomRead(
	ctx context.Context,
	roomID int64,
	readerID int64,
) error {
	_, err := r.db.Exec(ctx, `
		UPDATE messages
		SET read_by = array_append(read_by, $2)
		WHERE room_id = $1
		  AND sender_id <> $2
		  AND NOT ($2 = ANY(read_by))
	`, roomID, readerID)
	return err
}
