package models

import "time"

const (
	ProgramHibrida   = "hibrida"
	ProgramSpiritual = "spiritual"

	EnrollmentRoleIntervention    = "intervention"
	EnrollmentRolePsychoeducation = "psychoeducation"

	EnrollmentPending  = "pending"
	EnrollmentApproved = "approved"
	EnrollmentRejected = "rejected"
)

type Enrollment struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	Program    string     `json:"program"`
	Motivation *string    `json:"motivation"`
	Role       *string    `json:"role"`
	GroupName  *string    `json:"group_name"`
	Status     string     `json:"status"`
	DecidedAt  *time.Time `json:"decided_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
