package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ruangjiwa/MindCareBack/internal/models"
	"github.com/ruangjiwa/MindCareBack/internal/repository"
)

var ErrAlreadyEnrolled = errors.New("already enrolled")

type EnrollmentService struct {
	enrollmentRepo *repository.EnrollmentRepository
}

func NewEnrollmentService(enrollmentRepo *repository.EnrollmentRepository) *EnrollmentService {
	return &EnrollmentService{enrollmentRepo: enrollmentRepo}
}

func validProgram(program string) bool {
	return program == models.ProgramHibrida || program == models.ProgramSpiritual
}

func (s *EnrollmentService) Apply(
	ctx context.Context,
	userID int64,
	program string,
	motivation *string,
) (*models.Enrollment, error) {
	if !validProgram(program) {
		return nil, ErrInvalidInput
	}
	if motivation != nil {
		trimmed := strings.TrimSpace(*motivation)
		if trimmed == "" {
			motivation = nil
		} else {
			motivation = &trimmed
		}
	}

	enrollment, err := s.enrollmentRepo.Create(ctx, userID, program, motivation)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrAlreadyEnrolled
		}
		return nil, err
	}
	return enrollment, nil
}

func (s *EnrollmentService) GetOwn(
	ctx context.Context,
	userID int64,
	program string,
) (*models.Enrollment, error) {
	if !validProgram(program) {
		return nil, ErrInvalidInput
	}
	return s.enrollmentRepo.GetByUserAndProgram(ctx, userID, program)
}

func (s *EnrollmentService) List(
	ctx context.Context,
	role string,
	filter repository.EnrollmentListFilter,
) ([]models.Enrollment, error) {
	if role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	return s.enrollmentRepo.List(ctx, filter)
}

// Approve assigns role and group to a pending application.
func (s *EnrollmentService) Approve(
	ctx context.Context,
	actorRole string,
	enrollmentID int64,
	role string,
	groupName string,
) (*models.Enrollment, error) {
	if actorRole != models.RoleAdmin {
		return nil, ErrForbidden
	}
	if role != models.EnrollmentRoleIntervention && role != models.EnrollmentRolePsychoeducation {
		return nil, ErrInvalidInput
	}
	groupName = strings.TrimSpace(groupName)
	if groupName == "" {
		return nil, ErrInvalidInput
	}

	enrollment, err := s.enrollmentRepo.Approve(ctx, enrollmentID, role, groupName)
	if err != nil {
		return nil, mapDecisionErr(err)
	}
	return enrollment, nil
}

func (s *EnrollmentService) Reject(
	ctx context.Context,
	actorRole string,
	enrollmentID int64,
) (*models.Enrollment, error) {
	if actorRole != models.RoleAdmin {
		return nil, ErrForbidden
	}

	enrollment, err := s.enrollmentRepo.Reject(ctx, enrollmentID)
	if err != nil {
		return nil, mapDecisionErr(err)
	}
	return enrollment, nil
}

func mapDecisionErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrInvalidStateTransition
	}
	return err
}

// CanAccess is the gate for a program's restricted tabs. Unauthenticated
// callers never pass; super-admins always do; everyone else needs an
// approved enrollment whose role matches.
func CanAccess(isAuthenticated bool, isSuperAdmin bool, enrollment *models.Enrollment, requiredRole string) bool {
	if !isAuthenticated {
		return false
	}
	if isSuperAdmin {
		return true
	}
	if enrollment == nil || enrollment.Status != models.EnrollmentApproved {
		return false
	}
	return enrollment.Role != nil && *enrollment.Role == requiredRole
}
