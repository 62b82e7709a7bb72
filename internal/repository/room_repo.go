package repository

import (
	"context"
	"database/sql"

	"github.com/ruangjiwa/MindCareBack/internal/models"
)

type RoomRepository struct {
	db DBTX
}

func NewRoomRepository(db DBTX) *RoomRepository {
	return &RoomRepository{db: db}
}

// CreateOrGet returns the room between the two participants, inserting it if
// absent. Participants are fixed at creation.
func (r *RoomRepository) CreateOrGet(
	ctx context.Context,
	userID int64,
	professionalID int64,
) (*models.ChatRoom, error) {
	query := `
		INSERT INTO chat_rooms (user_id, professional_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, professional_id)
		DO UPDATE SET updated_at = chat_rooms.updated_at
		RETURNING id, user_id, professional_id, created_at, updated_at
	`

	var room models.ChatRoom
	err := r.db.QueryRow(ctx, query, userID, professionalID).Scan(
		&room.ID,
		&room.UserID,
		&room.ProfessionalID,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *RoomRepository) GetByID(ctx context.Context, roomID int64) (*models.ChatRoom, error) {
	query := `
		SELECT id, user_id, professional_id, created_at, updated_at
		FROM chat_rooms
		WHERE id = $1
	`

	var room models.ChatRoom
	err := r.db.QueryRow(ctx, query, roomID).Scan(
		&room.ID,
		&room.UserID,
		&room.ProfessionalID,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *RoomRepository) GetByIDForParticipant(
	ctx context.Context,
	roomID int64,
	participantID int64,
) (*models.ChatRoom, error) {
	query := `
		SELECT id, user_id, professional_id, created_at, updated_at
		FROM chat_rooms
		WHERE id = $1 AND (user_id = $2 OR professional_id = $2)
	`

	var room models.ChatRoom
	err := r.db.QueryRow(ctx, query, roomID, participantID).Scan(
		&room.ID,
		&room.UserID,
		&room.ProfessionalID,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *RoomRepository) ListForParticipant(
	ctx context.Context,
	participantID int64,
) ([]models.RoomSummary, error) {
	query := `
		SELECT
			c.id,
			c.user_id,
			c.professional_id,
			c.created_at,
			c.updated_at,
			lm.id,
			lm.room_id,
			lm.sender_id,
			lm.kind,
			lm.content,
			lm.read_by,
			lm.created_at,
			COALESCE(uc.unread_count, 0)
		FROM chat_rooms c
		LEFT JOIN LATERAL (
			SELECT id, room_id, sender_id, kind, content, read_by, created_at
			FROM messages
			WHERE room_id = c.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) lm ON TRUE
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS unread_count
			FROM messages
			WHERE room_id = c.id
			  AND sender_id <> $1
			  AND NOT ($1 = ANY(read_by))
		) uc ON TRUE
		WHERE c.user_id = $1 OR c.professional_id = $1
		ORDER BY COALESCE(lm.created_at, c.updated_at, c.created_at) DESC, c.id DESC
	`

	rows, err := r.db.Query(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.RoomSummary, 0)
	for rows.Next() {
		var summary models.RoomSummary
		var messageID sql.NullInt64
		var messageRoomID sql.NullInt64
		var messageSenderID sql.NullInt64
		var messageKind sql.NullString
		var messageContent sql.NullString
		var messageReadBy []int64
		var messageCreatedAt sql.NullTime

		if err := rows.Scan(
			&summary.ID,
			&summary.UserID,
			&summary.ProfessionalID,
			&summary.CreatedAt,
			&summary.UpdatedAt,
			&messageID,
			&messageRoomID,
			&messageSenderID,
			&messageKind,
			&messageContent,
			&messageReadBy,
			&messageCreatedAt,
			&summary.UnreadCount,
		); err != nil {
			return nil, err
		}

		if messageID.Valid {
			summary.LastMessage = &models.ChatMessage{
				ID:        messageID.Int64,
				RoomID:    messageRoomID.Int64,
				SenderID:  messageSenderID.Int64,
				Kind:      messageKind.String,
				Content:   messageContent.String,
				ReadBy:    messageReadBy,
				CreatedAt: messageCreatedAt.Time,
			}
		}

		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *RoomRepository) Touch(ctx context.Context, roomID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE chat_rooms
		SET updated_at = NOW()
		WHERE id = $1
	`, roomID)
	return err
}
