package services

import (
	"context"
	"errors"
	"mime/multipart"

	"github.com/jackc/pgx/v5"
	"github.com/ruangjiwa/MindCareBack/internal/models"
	"github.com/ruangjiwa/MindCareBack/internal/repository"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfileService struct {
	participantRepo  *repository.ParticipantProfileRepository
	professionalRepo *repository.ProfessionalProfileRepository
	storage          StorageService
}

func NewProfileService(
	participantRepo *repository.ParticipantProfileRepository,
	professionalRepo *repository.ProfessionalProfileRepository,
	storage StorageService,
) *ProfileService {
	return &ProfileService{
		participantRepo:  participantRepo,
		professionalRepo: professionalRepo,
		storage:          storage,
	}
}

func (s *ProfileService) GetParticipant(ctx context.Context, userID int64) (*models.ParticipantProfile, error) {
	profile, err := s.participantRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) GetProfessional(ctx context.Context, userID int64) (*models.ProfessionalProfile, error) {
	profile, err := s.professionalRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) UpdateParticipant(
	ctx context.Context,
	userID int64,
	input repository.UpdateParticipantProfileInput,
) (*models.ParticipantProfile, error) {
	if input.AccountType != nil && !validAccountType(*input.AccountType) {
		return nil, ErrInvalidInput
	}
	profile, err := s.participantRepo.UpdatePartial(ctx, userID, input)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) UpdateProfessional(
	ctx context.Context,
	userID int64,
	input repository.UpdateProfessionalProfileInput,
) (*models.ProfessionalProfile, error) {
	profile, err := s.professionalRepo.UpdatePartial(ctx, userID, input)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

// UploadAvatar stores the picture and records its public URL on whichever
// profile matches the caller's role.
func (s *ProfileService) UploadAvatar(
	ctx context.Context,
	userID int64,
	role string,
	file multipart.File,
	filename string,
) (string, error) {
	avatarURL, err := s.storage.UploadFile(ctx, file, BuildObjectName(filename), "avatars")
	if err != nil {
		return "", ErrStorageUnavailable
	}

	switch role {
	case models.RoleProfessional:
		_, err = s.professionalRepo.UpdatePartial(ctx, userID, repository.UpdateProfessionalProfileInput{
			AvatarURL: &avatarURL,
		})
	default:
		_, err = s.participantRepo.UpdatePartial(ctx, userID, repository.UpdateParticipantProfileInput{
			AvatarURL: &avatarURL,
		})
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrProfileNotFound
		}
		return "", err
	}
	return avatarURL, nil
}

func (s *ProfileService) SetProfessionalVerified(
	ctx context.Context,
	actorRole string,
	professionalUserID int64,
	verified bool,
) error {
	if actorRole != models.RoleAdmin {
		return ErrForbidden
	}
	return s.professionalRepo.SetVerified(ctx, professionalUserID, verified)
}

func validAccountType(accountType string) bool {
	switch accountType {
	case models.AccountTypeGeneral, models.AccountTypeStudent, models.AccountTypeProfessional:
		return true
	}
	return false
}
