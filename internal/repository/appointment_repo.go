package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ruangjiwa/MindCareBack/internal/models"
)

type CreateAppointmentInput struct {
	UserID         int64
	ProfessionalID int64
	Topic          string
	Notes          *string
	PreferredAt    time.Time
}

type AppointmentListFilter struct {
	ActorID int64
	Role    string
	Status  string
}

type AppointmentRepository struct {
	db DBTX
}

func NewAppointmentRepository(db DBTX) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

const appointmentColumns = `id, user_id, professional_id, topic, notes, preferred_at, approved_at,
	   status, reject_reason, room_id, created_at, updated_at`

func scanAppointment(row interface{ Scan(...any) error }, a *models.Appointment) error {
	return row.Scan(
		&a.ID,
		&a.UserID,
		&a.ProfessionalID,
		&a.Topic,
		&a.Notes,
		&a.PreferredAt,
		&a.ApprovedAt,
		&a.Status,
		&a.RejectReason,
		&a.RoomID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
}

func (r *AppointmentRepository) Create(
	ctx context.Context,
	input CreateAppointmentInput,
) (*models.Appointment, error) {
	query := fmt.Sprintf(`
		INSERT INTO appointments (user_id, professional_id, topic, notes, preferred_at, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
		RETURNING %s
	`, appointmentColumns)

	var appointment models.Appointment
	err := scanAppointment(r.db.QueryRow(
		ctx,
		query,
		input.UserID,
		input.ProfessionalID,
		input.Topic,
		input.Notes,
		input.PreferredAt,
	), &appointment)
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, appointmentID int64) (*models.Appointment, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM appointments
		WHERE id = $1
	`, appointmentColumns)

	var appointment models.Appointment
	if err := scanAppointment(r.db.QueryRow(ctx, query, appointmentID), &appointment); err != nil {
		return nil, err
	}
	return &appointment, nil
}

func (r *AppointmentRepository) List(
	ctx context.Context,
	filter AppointmentListFilter,
) ([]models.Appointment, error) {
	args := []any{}
	whereParts := []string{}

	switch filter.Role {
	case models.RoleUser:
		args = append(args, filter.ActorID)
		whereParts = append(whereParts, fmt.Sprintf("user_id = $%d", len(args)))
	case models.RoleProfessional:
		args = append(args, filter.ActorID)
		whereParts = append(whereParts, fmt.Sprintf("professional_id = $%d", len(args)))
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
		FROM appointments
		WHERE %s
		ORDER BY created_at DESC, id DESC
	`, appointmentColumns, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := make([]models.Appointment, 0)
	for rows.Next() {
		var appointment models.Appointment
		if err := scanAppointment(rows, &appointment); err != nil {
			return nil, err
		}
		appointments = append(appointments, appointment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return appointments, nil
}

// Approve moves a pending (or already approved, for reschedules) appointment
// to approved with the given slot and room.
func (r *AppointmentRepository) Approve(
	ctx context.Context,
	appointmentID int64,
	approvedAt time.Time,
	roomID int64,
) (*models.Appointment, error) {
	query := fmt.Sprintf(`
		UPDATE appointments
		SET status = 'approved', approved_at = $2, room_id = $3, reject_reason = NULL, updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'approved')
		RETURNING %s
	`, appointmentColumns)

	var appointment models.Appointment
	if err := scanAppointment(r.db.QueryRow(ctx, query, appointmentID, approvedAt, roomID), &appointment); err != nil {
		return nil, err
	}
	return &appointment, nil
}

func (r *AppointmentRepository) Reject(
	ctx context.Context,
	appointmentID int64,
	reason string,
) (*models.Appointment, error) {
	query := fmt.Sprintf(`
		UPDATE appointments
		SET status = 'rejected', reject_reason = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING %s
	`, appointmentColumns)

	var appointment models.Appointment
	if err := scanAppointment(r.db.QueryRow(ctx, query, appointmentID, reason), &appointment); err != nil {
		return nil, err
	}
	return &appointment, nil
}

// UpdateStatusIfCurrent is a compare-and-set status transition.
func (r *AppointmentRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	appointmentID int64,
	currentStatus string,
	nextStatus string,
) (*models.Appointment, error) {
	query := fmt.Sprintf(`
		UPDATE appointments
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, appointmentColumns)

	var appointment models.Appointment
	if err := scanAppointment(r.db.QueryRow(ctx, query, appointmentID, currentStatus, nextStatus), &appointment); err != nil {
		return nil, err
	}
	return &appointment, nil
}

// ExpireStalePending cancels pending requests whose preferred slot is further
// in the past than the cutoff.
func (r *AppointmentRepository) ExpireStalePending(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE appointments
		SET status = 'cancelled', updated_at = NOW()
		WHERE status = 'pending'
		  AND preferred_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
