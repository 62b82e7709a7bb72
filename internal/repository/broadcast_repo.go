package repository

import (
	"context"

	"github.com/ruangjiwa/MindCareBack/internal/models"
)

type BroadcastRepository struct {
	db DBTX
}

func NewBroadcastRepository(db DBTX) *BroadcastRepository {
	return &BroadcastRepository{db: db}
}

type CreateBroadcastInput struct {
	SenderID   int64
	Title      string
	Content    string
	Recipients []string
}

func (r *BroadcastRepository) Create(
	ctx context.Context,
	input CreateBroadcastInput,
) (*models.Broadcast, error) {
	query := `
		INSERT INTO broadcasts (sender_id, title, content, recipients)
		VALUES ($1, $2, $3, $4)
		RETURNING id, sender_id, title, content, recipients, read_by, created_at
	`

	var broadcast models.Broadcast
	err := r.db.QueryRow(ctx, query, input.SenderID, input.Title, input.Content, input.Recipients).Scan(
		&broadcast.ID,
		&broadcast.SenderID,
		&broadcast.Title,
		&broadcast.Content,
		&broadcast.Recipients,
		&broadcast.ReadBy,
		&broadcast.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &broadcast, nil
}

func (r *BroadcastRepository) GetByID(ctx context.Context, broadcastID int64) (*models.Broadcast, error) {
	query := `
		SELECT id, sender_id, title, content, recipients, read_by, created_at
		FROM broadcasts
		WHERE id = $1
	`

	var broadcast models.Broadcast
	err := r.db.QueryRow(ctx, query, broadcastID).Scan(
		&broadcast.ID,
		&broadcast.SenderID,
		&broadcast.Title,
		&broadcast.Content,
		&broadcast.Recipients,
		&broadcast.ReadBy,
		&broadcast.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &broadcast, nil
}

func (r *BroadcastRepository) ListAll(ctx context.Context) ([]models.Broadcast, error) {
	query := `
		SELECT id, sender_id, title, content, recipients, read_by, created_at
		FROM broadcasts
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	broadcasts := make([]models.Broadcast, 0)
	for rows.Next() {
		var broadcast models.Broadcast
		if err := rows.Scan(
			&broadcast.ID,
			&broadcast.SenderID,
			&broadcast.Title,
			&broadcast.Content,
			&broadcast.Recipients,
			&broadcast.ReadBy,
			&broadcast.CreatedAt,
		); err != nil {
			return nil, err
		}
		broadcasts = append(broadcasts, broadcast)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return broadcasts, nil
}

// MarkRead appends the reader to read_by once.
func (r *BroadcastRepository) MarkRead(ctx context.Context, broadcastID int64, readerID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE broadcasts
		SET read_by = array_append(read_by, $2)
		WHERE id = $1
		  AND NOT ($2 = ANY(read_by))
	`, broadcastID, readerID)
	return err
}
