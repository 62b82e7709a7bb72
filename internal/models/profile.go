package models

import "time"

const (
	AccountTypeGeneral      = "general"
	AccountTypeStudent      = "student"
	AccountTypeProfessional = "professional"
)

type ParticipantProfile struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	DisplayName *string   `json:"display_name"`
	AvatarURL   *string   `json:"avatar_url"`
	AccountType string    `json:"account_type"`
	Age         *int      `json:"age"`
	Gender      *string   `json:"gender"`
	Institution *string   `json:"institution"`
	Concerns    *[]string `json:"concerns"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ProfessionalProfile struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	FullName        *string   `json:"full_name"`
	AvatarURL       *string   `json:"avatar_url"`
	Bio             *string   `json:"bio"`
	Specializations *[]string `json:"specializations"`
	LicenseNumber   *string   `json:"license_number"`
	ExperienceYears *int      `json:"experience_years"`
	IsVerified      bool      `json:"is_verified"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type ProfessionalWithScore struct {
	ProfessionalProfile
	MatchScore int `json:"match_score"`
}
