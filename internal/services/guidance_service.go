package services

import (
	"context"
	"errors"
	"log"
	"mime/multipart"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/ruangjiwa/MindCareBack/internal/models"
	"github.com/ruangjiwa/MindCareBack/internal/repository"
)

var (
	ErrGuidanceNotFound   = errors.New("guidance material not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrEnrollmentRequired = errors.New("approved enrollment required")
	ErrTitleRequired      = errors.New("title required")
)

// GuidanceService manages per-session guidance materials. Participants
// only see materials for a program they are approved in.
type GuidanceService struct {
	guidanceRepo   *repository.GuidanceRepository
	enrollmentRepo *repository.EnrollmentRepository
	storage        StorageService
}

func NewGuidanceService(
	guidanceRepo *repository.GuidanceRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	storage StorageService,
) *GuidanceService {
	return &GuidanceService{
		guidanceRepo:   guidanceRepo,
		enrollmentRepo: enrollmentRepo,
		storage:        storage,
	}
}

type UpsertGuidanceInput struct {
	Program       string
	SessionNumber int
	Title         string
	Content       *string
	VideoURL      *string
	Links         *[]string
	PDFFile       multipart.File
	PDFFilename   string
	AudioFile     multipart.File
	AudioFilename string
}

func (s *GuidanceService) Upsert(
	ctx context.Context,
	actorRole string,
	input UpsertGuidanceInput,
) (*models.GuidanceMaterial, error) {
	if actorRole != models.RoleAdmin {
		return nil, ErrForbidden
	}
	cfg, ok := LookupProgram(input.Program)
	if !ok {
		return nil, ErrUnknownProgram
	}
	if input.SessionNumber < 1 || input.SessionNumber > cfg.Sessions {
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}

	previous, err := s.guidanceRepo.GetBySession(ctx, input.Program, input.SessionNumber)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	var pdfURL, audioURL *string
	if input.PDFFile != nil {
		uploaded, err := s.storage.UploadFile(ctx, input.PDFFile, BuildObjectName(input.PDFFilename), "guidance/pdf")
		if err != nil {
			return nil, ErrStorageUnavailable
		}
		pdfURL = &uploaded
	}
	if input.AudioFile != nil {
		uploaded, err := s.storage.UploadFile(ctx, input.AudioFile, BuildObjectName(input.AudioFilename), "guidance/audio")
		if err != nil {
			return nil, ErrStorageUnavailable
		}
		audioURL = &uploaded
	}

	material, err := s.guidanceRepo.Upsert(ctx, repository.UpsertGuidanceInput{
		Program:       input.Program,
		SessionNumber: input.SessionNumber,
		Title:         strings.TrimSpace(input.Title),
		Content:       input.Content,
		PDFURL:        pdfURL,
		AudioURL:      audioURL,
		VideoURL:      input.VideoURL,
		Links:         input.Links,
	})
	if err != nil {
		return nil, err
	}

	if previous != nil {
		// The new material is already saved. An orphaned object is
		// logged, not treated as a failed upsert.
		if cleanupErr := s.cleanupReplaced(ctx, previous, material); cleanupErr != nil {
			log.Printf("cleanup replaced guidance files: %v", cleanupErr)
		}
	}
	return material, nil
}

func (s *GuidanceService) cleanupReplaced(
	ctx context.Context,
	previous *models.GuidanceMaterial,
	current *models.GuidanceMaterial,
) error {
	var errs []error
	if replacedFile(previous.PDFURL, current.PDFURL) {
		errs = append(errs, s.storage.DeleteFile(ctx, *previous.PDFURL))
	}
	if replacedFile(previous.AudioURL, current.AudioURL) {
		errs = append(errs, s.storage.DeleteFile(ctx, *previous.AudioURL))
	}
	return errors.Join(errs...)
}

func replacedFile(previous, current *string) bool {
	return previous != nil && current != nil && *previous != *current
}

func (s *GuidanceService) GetForParticipant(
	ctx context.Context,
	actorID int64,
	actorRole string,
	program string,
	sessionNumber int,
) (*models.GuidanceMaterial, error) {
	cfg, ok := LookupProgram(program)
	if !ok {
		return nil, ErrUnknownProgram
	}
	if sessionNumber < 1 || sessionNumber > cfg.Sessions {
		return nil, ErrInvalidInput
	}

	if actorRole != models.RoleAdmin {
		enrollment, err := s.enrollmentRepo.GetByUserAndProgram(ctx, actorID, program)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrEnrollmentRequired
			}
			return nil, err
		}
		if enrollment.Status != models.EnrollmentApproved {
			return nil, ErrEnrollmentRequired
		}
	}

	material, err := s.guidanceRepo.GetBySession(ctx, program, sessionNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGuidanceNotFound
		}
		return nil, err
	}
	return material, nil
}

func (s *GuidanceService) ListByProgram(
	ctx context.Context,
	actorRole string,
	program string,
) ([]models.GuidanceMaterial, error) {
	if actorRole != models.RoleAdmin {
		return nil, ErrForbidden
	}
	if _, ok := LookupProgram(program); !ok {
		return nil, ErrUnknownProgram
	}
	return s.guidanceRepo.ListByProgram(ctx, program)
}
