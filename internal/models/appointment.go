package models

import "time"

const (
	AppointmentPending   = "pending"
	AppointmentApproved  = "approved"
	AppointmentRejected  = "rejected"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

type Appointment struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	ProfessionalID int64      `json:"professional_id"`
	Topic          string     `json:"topic"`
	Notes          *string    `json:"notes"`
	PreferredAt    time.Time  `json:"preferred_at"`
	ApprovedAt     *time.Time `json:"approved_at"`
	Status         string     `json:"status"`
	RejectReason   *string    `json:"reject_reason"`
	RoomID         *int64     `json:"room_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// EffectiveTime is the approved slot when one exists, the requested slot
// otherwise.
func (a *Appointment) EffectiveTime() time.Time {
	if a.ApprovedAt != nil {
		return *a.ApprovedAt
	}
	return a.PreferredAt
}

type AppointmentBuckets struct {
	InProgressToday     []Appointment `json:"in_progress_today"`
	Upcoming            []Appointment `json:"upcoming"`
	Finished            []Appointment `json:"finished"`
	CancelledOrRejected []Appointment `json:"cancelled_or_rejected"`
}
