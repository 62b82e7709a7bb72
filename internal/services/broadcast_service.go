package services

import (
	"context"
	"strings"

	"github.com/ruangjiwa/MindCareBack/internal/models"
	"github.com/ruangjiwa/MindCareBack/internal/repository"
)

var allowedAudiences = map[string]struct{}{
	models.AudienceAll:             {},
	models.AccountTypeGeneral:      {},
	models.AccountTypeStudent:      {},
	models.AccountTypeProfessional: {},
}

type BroadcastService struct {
	broadcastRepo *repository.BroadcastRepository
}

func NewBroadcastService(broadcastRepo *repository.BroadcastRepository) *BroadcastService {
	return &BroadcastService{broadcastRepo: broadcastRepo}
}

type PublishBroadcastInput struct {
	Title      string
	Content    string
	Recipients []string
}

func (s *BroadcastService) Publish(
	ctx context.Context,
	senderID int64,
	role string,
	input PublishBroadcastInput,
) (*models.Broadcast, error) {
	if role != models.RoleAdmin {
		return nil, ErrForbidden
	}

	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" || content == "" {
		return nil, ErrInvalidInput
	}

	recipients := make([]string, 0, len(input.Recipients))
	for _, tag := range input.Recipients {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if _, ok := allowedAudiences[tag]; !ok {
			return nil, ErrInvalidInput
		}
		recipients = append(recipients, tag)
	}
	if len(recipients) == 0 {
		recipients = []string{models.AudienceAll}
	}

	return s.broadcastRepo.Create(ctx, repository.CreateBroadcastInput{
		SenderID:   senderID,
		Title:      title,
		Content:    content,
		Recipients: recipients,
	})
}

// ListForUser returns the broadcasts visible to the given audience along
// with the per-user read marker.
func (s *BroadcastService) ListForUser(
	ctx context.Context,
	userID int64,
	accountType string,
	isAdmin bool,
) ([]models.BroadcastView, error) {
	broadcasts, err := s.broadcastRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]models.BroadcastView, 0, len(broadcasts))
	for _, broadcast := range broadcasts {
		if !VisibleTo(&broadcast, accountType, isAdmin) {
			continue
		}
		views = append(views, models.BroadcastView{
			Broadcast: broadcast,
			IsRead:    containsID(broadcast.ReadBy, userID),
		})
	}
	return views, nil
}

func (s *BroadcastService) MarkRead(ctx context.Context, broadcastID int64, userID int64) error {
	if broadcastID <= 0 {
		return ErrInvalidInput
	}
	return s.broadcastRepo.MarkRead(ctx, broadcastID, userID)
}

// VisibleTo reports whether a broadcast reaches the given audience: the
// "all" tag, the user's account type, or the "professional" tag when the
// user is an admin.
func VisibleTo(broadcast *models.Broadcast, accountType string, isAdmin bool) bool {
	for _, tag := range broadcast.Recipients {
		if tag == models.AudienceAll {
			return true
		}
		if tag == accountType {
			return true
		}
		if isAdmin && tag == models.AccountTypeProfessional {
			return true
		}
	}
	return false
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
