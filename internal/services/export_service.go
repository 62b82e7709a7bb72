package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/ruangjiwa/MindCareBack/internal/models"
	"github.com/ruangjiwa/MindCareBack/internal/repository"
)

type userBatchReader interface {
	ListByIDs(ctx context.Context, ids []int64) ([]models.User, error)
}

// ExportService renders enrollment lists as CSV for offline analysis.
type ExportService struct {
	enrollmentRepo *repository.EnrollmentRepository
	userRepo       userBatchReader
}

func NewExportService(enrollmentRepo *repository.EnrollmentRepository, userRepo userBatchReader) *ExportService {
	return &ExportService{enrollmentRepo: enrollmentRepo, userRepo: userRepo}
}

var enrollmentCSVHeader = []string{
	"enrollment_id", "user_id", "email", "program", "role", "group_name", "status", "applied_at", "decided_at",
}

func (s *ExportService) EnrollmentsCSV(
	ctx context.Context,
	actorRole string,
	filter repository.EnrollmentListFilter,
) ([]byte, error) {
	if actorRole != models.RoleAdmin {
		return nil, ErrForbidden
	}

	enrollments, err := s.enrollmentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(enrollments))
	for _, enrollment := range enrollments {
		ids = append(ids, enrollment.UserID)
	}
	users, err := s.userRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	emails := make(map[int64]string, len(users))
	for _, user := range users {
		emails[user.ID] = user.Email
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(enrollmentCSVHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, enrollment := range enrollments {
		if err := writer.Write(enrollmentCSVRow(&enrollment, emails[enrollment.UserID])); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func enrollmentCSVRow(enrollment *models.Enrollment, email string) []string {
	return []string{
		strconv.FormatInt(enrollment.ID, 10),
		strconv.FormatInt(enrollment.UserID, 10),
		email,
		enrollment.Program,
		stringValue(enrollment.Role),
		stringValue(enrollment.GroupName),
		enrollment.Status,
		enrollment.CreatedAt.UTC().Format(time.RFC3339),
		timeValue(enrollment.DecidedAt),
	}
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func timeValue(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}
