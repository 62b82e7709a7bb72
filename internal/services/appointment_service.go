package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ruangjiwa/MindCareBack/internal/models"
	"github.com/ruangjiwa/MindCareBack/internal/repository"
)

var (
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrProfessionalNotFound   = errors.New("professional not found")
	ErrReasonRequired         = errors.New("rejection reason required")
)

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type AppointmentService struct {
	db              *pgxpool.Pool
	appointmentRepo *repository.AppointmentRepository
	roomRepo        *repository.RoomRepository
	messageRepo     *repository.MessageRepository
	userRepo        userReader
}

func NewAppointmentService(
	db *pgxpool.Pool,
	appointmentRepo *repository.AppointmentRepository,
	roomRepo *repository.RoomRepository,
	messageRepo *repository.MessageRepository,
	userRepo userReader,
) *AppointmentService {
	return &AppointmentService{
		db:              db,
		appointmentRepo: appointmentRepo,
		roomRepo:        roomRepo,
		messageRepo:     messageRepo,
		userRepo:        userRepo,
	}
}

type RequestAppointmentInput struct {
	ProfessionalID int64
	Topic          string
	Notes          *string
	PreferredAt    time.Time
}

func (s *AppointmentService) RequestAppointment(
	ctx context.Context,
	userID int64,
	input RequestAppointmentInput,
) (*models.Appointment, error) {
	if input.ProfessionalID <= 0 || input.ProfessionalID == userID {
		return nil, ErrInvalidInput
	}
	topic := strings.TrimSpace(input.Topic)
	if topic == "" {
		return nil, ErrInvalidInput
	}
	if input.PreferredAt.Before(time.Now().Add(-1 * time.Minute)) {
		return nil, ErrInvalidInput
	}

	professional, err := s.userRepo.GetByID(ctx, input.ProfessionalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfessionalNotFound
		}
		return nil, err
	}
	if professional.Role != models.RoleProfessional {
		return nil, ErrInvalidInput
	}

	return s.appointmentRepo.Create(ctx, repository.CreateAppointmentInput{
		UserID:         userID,
		ProfessionalID: input.ProfessionalID,
		Topic:          topic,
		Notes:          input.Notes,
		PreferredAt:    input.PreferredAt.UTC(),
	})
}

func (s *AppointmentService) ListHistory(
	ctx context.Context,
	actorID int64,
	role string,
	status string,
) ([]models.Appointment, error) {
	appointments, err := s.appointmentRepo.List(ctx, repository.AppointmentListFilter{
		ActorID: actorID,
		Role:    role,
		Status:  status,
	})
	if err != nil {
		return nil, err
	}

	SortHistory(appointments)
	return appointments, nil
}

func (s *AppointmentService) ListBuckets(
	ctx context.Context,
	actorID int64,
	role string,
) (*models.AppointmentBuckets, error) {
	appointments, err := s.appointmentRepo.List(ctx, repository.AppointmentListFilter{
		ActorID: actorID,
		Role:    role,
	})
	if err != nil {
		return nil, err
	}

	buckets := BucketAppointments(appointments, time.Now().UTC())
	return &buckets, nil
}

func (s *AppointmentService) GetAppointment(
	ctx context.Context,
	actorID int64,
	role string,
	appointmentID int64,
) (*models.Appointment, error) {
	appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !canAccessAppointment(role, actorID, appointment) {
		return nil, ErrForbidden
	}
	return appointment, nil
}

// Approve moves a pending appointment to approved with the slot built from
// the submitted date and time form fields. Re-approving an already approved
// appointment with a new slot is the reschedule path.
func (s *AppointmentService) Approve(
	ctx context.Context,
	actorID int64,
	role string,
	appointmentID int64,
	approvedDate string,
	approvedTime string,
) (*models.Appointment, error) {
	appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !canDecideAppointment(role, actorID, appointment) {
		return nil, ErrForbidden
	}
	if appointment.Status != models.AppointmentPending && appointment.Status != models.AppointmentApproved {
		return nil, ErrInvalidStateTransition
	}

	approvedAt, err := CombineDateTime(approvedDate, approvedTime)
	if err != nil {
		return nil, ErrInvalidInput
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txAppointmentRepo := repository.NewAppointmentRepository(tx)
	txRoomRepo := repository.NewRoomRepository(tx)
	txMessageRepo := repository.NewMessageRepository(tx)

	room, err := txRoomRepo.CreateOrGet(ctx, appointment.UserID, appointment.ProfessionalID)
	if err != nil {
		return nil, err
	}

	approved, err := txAppointmentRepo.Approve(ctx, appointmentID, approvedAt, room.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	notice := fmt.Sprintf(
		"Appointment approved for %s.",
		approvedAt.Format(time.RFC3339),
	)
	if _, err := txMessageRepo.Create(ctx, room.ID, appointment.ProfessionalID, models.MessageKindSystem, notice); err != nil {
		return nil, err
	}
	if err := txRoomRepo.Touch(ctx, room.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return approved, nil
}

func (s *AppointmentService) Reject(
	ctx context.Context,
	actorID int64,
	role string,
	appointmentID int64,
	reason string,
) (*models.Appointment, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !canDecideAppointment(role, actorID, appointment) {
		return nil, ErrForbidden
	}

	rejected, err := s.appointmentRepo.Reject(ctx, appointmentID, reason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}
	return rejected, nil
}

const completedSystemMessage = "This consultation has been marked as completed. Thank you for participating."

// Complete closes an approved appointment. Admin only; a fixed system
// message is appended to the linked chat room.
func (s *AppointmentService) Complete(
	ctx context.Context,
	role string,
	appointmentID int64,
) (*models.Appointment, error) {
	if role != models.RoleAdmin {
		return nil, ErrForbidden
	}

	appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txAppointmentRepo := repository.NewAppointmentRepository(tx)
	txMessageRepo := repository.NewMessageRepository(tx)

	completed, err := txAppointmentRepo.UpdateStatusIfCurrent(
		ctx,
		appointmentID,
		models.AppointmentApproved,
		models.AppointmentCompleted,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	if completed.RoomID != nil {
		if _, err := txMessageRepo.Create(
			ctx,
			*completed.RoomID,
			appointment.ProfessionalID,
			models.MessageKindSystem,
			completedSystemMessage,
		); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return completed, nil
}

func (s *AppointmentService) Cancel(
	ctx context.Context,
	actorID int64,
	role string,
	appointmentID int64,
) (*models.Appointment, error) {
	appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleUser || appointment.UserID != actorID {
		return nil, ErrForbidden
	}

	cancelled, err := s.appointmentRepo.UpdateStatusIfCurrent(
		ctx,
		appointmentID,
		models.AppointmentPending,
		models.AppointmentCancelled,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}
	return cancelled, nil
}

// ExpireStalePending cancels pending requests whose preferred slot passed
// more than staleAfter ago. Used by the maintenance job.
func (s *AppointmentService) ExpireStalePending(
	ctx context.Context,
	staleAfter time.Duration,
) (int64, error) {
	return s.appointmentRepo.ExpireStalePending(ctx, time.Now().UTC().Add(-staleAfter))
}

func canAccessAppointment(role string, actorID int64, appointment *models.Appointment) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleUser:
		return appointment.UserID == actorID
	case models.RoleProfessional:
		return appointment.ProfessionalID == actorID
	default:
		return false
	}
}

func canDecideAppointment(role string, actorID int64, appointment *models.Appointment) bool {
	if role == models.RoleAdmin {
		return true
	}
	return role == models.RoleProfessional && appointment.ProfessionalID == actorID
}

// CombineDateTime builds a UTC slot from the two form fields, e.g.
// "2025-01-12" and "14:00" become 2025-01-12T14:00:00Z.
func CombineDateTime(dateStr, timeStr string) (time.Time, error) {
	day, err := time.Parse("2006-01-02", strings.TrimSpace(dateStr))
	if err != nil {
		return time.Time{}, err
	}
	clock, err := time.Parse("15:04", strings.TrimSpace(timeStr))
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(
		day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), 0, 0,
		time.UTC,
	), nil
}

// SortHistory orders approved appointments before all others, ascending by
// effective time within the approved group, and the rest descending by
// creation time.
func SortHistory(appointments []models.Appointment) {
	sort.SliceStable(appointments, func(i, j int) bool {
		a, b := appointments[i], appointments[j]
		aApproved := a.Status == models.AppointmentApproved
		bApproved := b.Status == models.AppointmentApproved
		if aApproved != bApproved {
			return aApproved
		}
		if aApproved {
			return a.EffectiveTime().Before(b.EffectiveTime())
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// BucketAppointments splits a list into the four dashboard groups by
// comparing each effective time against now's date.
func BucketAppointments(appointments []models.Appointment, now time.Time) models.AppointmentBuckets {
	buckets := models.AppointmentBuckets{
		InProgressToday:     make([]models.Appointment, 0),
		Upcoming:            make([]models.Appointment, 0),
		Finished:            make([]models.Appointment, 0),
		CancelledOrRejected: make([]models.Appointment, 0),
	}

	for _, appointment := range appointments {
		switch appointment.Status {
		case models.AppointmentCompleted:
			buckets.Finished = append(buckets.Finished, appointment)
		case models.AppointmentCancelled, models.AppointmentRejected:
			buckets.CancelledOrRejected = append(buckets.CancelledOrRejected, appointment)
		default:
			if sameDay(appointment.EffectiveTime(), now) {
				buckets.InProgressToday = append(buckets.InProgressToday, appointment)
			} else {
				buckets.Upcoming = append(buckets.Upcoming, appointment)
			}
		}
	}

	return buckets
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
