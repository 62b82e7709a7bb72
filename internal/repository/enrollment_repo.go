package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/ruangjiwa/MindCareBack/internal/models"
)

type EnrollmentRepository struct {
	db DBTX
}

func NewEnrollmentRepository(db DBTX) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = `id, user_id, program, motivation, role, group_name, status,
	   decided_at, created_at, updated_at`

func scanEnrollment(row interface{ Scan(...any) error }, e *models.Enrollment) error {
	return row.Scan(
		&e.ID,
		&e.UserID,
		&e.Program,
		&e.Motivation,
		&e.Role,
		&e.GroupName,
		&e.Status,
		&e.DecidedAt,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
}

func (r *EnrollmentRepository) Create(
	ctx context.Context,
	userID int64,
	program string,
	motivation *string,
) (*models.Enrollment, error) {
	query := fmt.Sprintf(`
		INSERT INTO enrollments (user_id, program, motivation, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING %s
	`, enrollmentColumns)

	var enrollment models.Enrollment
	if err := scanEnrollment(r.db.QueryRow(ctx, query, userID, program, motivation), &enrollment); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *EnrollmentRepository) GetByID(ctx context.Context, enrollmentID int64) (*models.Enrollment, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM enrollments
		WHERE id = $1
	`, enrollmentColumns)

	var enrollment models.Enrollment
	if err := scanEnrollment(r.db.QueryRow(ctx, query, enrollmentID), &enrollment); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *EnrollmentRepository) GetByUserAndProgram(
	ctx context.Context,
	userID int64,
	program string,
) (*models.Enrollment, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM enrollments
		WHERE user_id = $1 AND program = $2
	`, enrollmentColumns)

	var enrollment models.Enrollment
	if err := scanEnrollment(r.db.QueryRow(ctx, query, userID, program), &enrollment); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

type EnrollmentListFilter struct {
	Program string
	Status  string
}

func (r *EnrollmentRepository) List(
	ctx context.Context,
	filter EnrollmentListFilter,
) ([]models.Enrollment, error) {
	args := []any{}
	whereParts := []string{}

	if program := strings.TrimSpace(filter.Program); program != "" {
		args = append(args, program)
		whereParts = append(whereParts, fmt.Sprintf("program = $%d", len(args)))
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}

	where := "TRUE"
	if len(whereParts) > 0 {
		where = strings.Join(whereParts, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM enrollments
		WHERE %s
		ORDER BY created_at ASC, id ASC
	`, enrollmentColumns, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	enrollments := make([]models.Enrollment, 0)
	for rows.Next() {
		var enrollment models.Enrollment
		if err := scanEnrollment(rows, &enrollment); err != nil {
			return nil, err
		}
		enrollments = append(enrollments, enrollment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// Approve assigns role and group; only a pending application can be approved.
func (r *EnrollmentRepository) Approve(
	ctx context.Context,
	enrollmentID int64,
	role string,
	groupName string,
) (*models.Enrollment, error) {
	query := fmt.Sprintf(`
		UPDATE enrollments
		SET status = 'approved', role = $2, group_name = $3, decided_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING %s
	`, enrollmentColumns)

	var enrollment models.Enrollment
	if err := scanEnrollment(r.db.QueryRow(ctx, query, enrollmentID, role, groupName), &enrollment); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *EnrollmentRepository) Reject(ctx context.Context, enrollmentID int64) (*models.Enrollment, error) {
	query := fmt.Sprintf(`
		UPDATE enrollments
		SET status = 'rejected', decided_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING %s
	`, enrollmentColumns)

	var enrollment models.Enrollment
	if err := scanEnrollment(r.db.QueryRow(ctx, query, enrollmentID), &enrollment); err != nil {
		return nil, err
	}
	return &enrollment, nil
}
