package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ruangjiwa/MindCareBack/internal/models"
	"github.com/ruangjiwa/MindCareBack/internal/repository"
)

type ChatService struct {
	db          *pgxpool.Pool
	roomRepo    *repository.RoomRepository
	messageRepo *repository.MessageRepository
	userRepo    userReader
}

type ChatDelivery struct {
	Room        *models.ChatRoom
	Message     *models.ChatMessage
	RecipientID int64
}

func NewChatService(
	db *pgxpool.Pool,
	roomRepo *repository.RoomRepository,
	messageRepo *repository.MessageRepository,
	userRepo userReader,
) *ChatService {
	return &ChatService{
		db:          db,
		roomRepo:    roomRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
	}
}

func (s *ChatService) ListRooms(
	ctx context.Context,
	actorID int64,
) ([]models.RoomSummary, error) {
	return s.roomRepo.ListForParticipant(ctx, actorID)
}

func (s *ChatService) CreateRoom(
	ctx context.Context,
	actorID int64,
	role string,
	professionalID int64,
) (*models.ChatRoom, error) {
	if role != models.RoleUser {
		return nil, ErrForbidden
	}
	if professionalID <= 0 || professionalID == actorID {
		return nil, ErrInvalidInput
	}

	professional, err := s.userRepo.GetByID(ctx, professionalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfessionalNotFound
		}
		return nil, err
	}
	if professional.Role != models.RoleProfessional && professional.Role != models.RoleAdmin {
		return nil, ErrInvalidInput
	}

	return s.roomRepo.CreateOrGet(ctx, actorID, professionalID)
}

// ListMessages returns one page of a room's messages and marks the fetched
// page as read by the actor in the same transaction.
func (s *ChatService) ListMessages(
	ctx context.Context,
	actorID int64,
	roomID int64,
	page int,
	limit int,
) ([]models.ChatMessage, int, error) {
	if roomID <= 0 || page <= 0 || limit <= 0 {
		return nil, 0, ErrInvalidInput
	}

	if _, err := s.roomRepo.GetByIDForParticipant(ctx, roomID, actorID); err != nil {
		return nil, 0, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewMessageRepository(tx)

	messages, total, err := txMessageRepo.ListByRoom(ctx, roomID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}

	messageIDs := make([]int64, 0, len(messages))
	for _, message := range messages {
		messageIDs = append(messageIDs, message.ID)
	}

	if err := txMessageRepo.MarkMessagesRead(ctx, messageIDs, actorID); err != nil {
		return nil, 0, err
	}

	for i := range messages {
		if updated, changed := AppendReader(messages[i].ReadBy, actorID, messages[i].SenderID); changed {
			messages[i].ReadBy = updated
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func (s *ChatService) SendMessage(
	ctx context.Context,
	actorID int64,
	roomID int64,
	content string,
) (*ChatDelivery, error) {
	if roomID <= 0 {
		return nil, ErrInvalidInput
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}

	room, err := s.roomRepo.GetByIDForParticipant(ctx, roomID, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	recipientID := room.UserID
	if actorID == room.UserID {
		recipientID = room.ProfessionalID
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewMessageRepository(tx)
	txRoomRepo := repository.NewRoomRepository(tx)

	message, err := txMessageRepo.Create(ctx, roomID, actorID, models.MessageKindText, trimmed)
	if err != nil {
		return nil, err
	}

	if err := txRoomRepo.Touch(ctx, roomID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &ChatDelivery{
		Room:        room,
		Message:     message,
		RecipientID: recipientID,
	}, nil
}

// AppendReader adds readerID to a message's read set. Senders and readers
// already present are not appended; the second return reports whether the
// set changed.
func AppendReader(readBy []int64, readerID int64, senderID int64) ([]int64, bool) {
	if readerID == senderID {
		return readBy, false
	}
	for _, id := range readBy {
		if id == readerID {
			return readBy, false
		}
	}
	return append(readBy, readerID), true
}

func FormatChatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}
