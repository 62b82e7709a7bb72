package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/ruangjiwa/MindCareBack/internal/models"
)

type ParticipantProfileRepository struct {
	db DBTX
}

func NewParticipantProfileRepository(db DBTX) *ParticipantProfileRepository {
	return &ParticipantProfileRepository{db: db}
}

func (r *ParticipantProfileRepository) CreateEmpty(ctx context.Context, userID int64) error {
	query := `INSERT INTO participant_profiles (user_id) VALUES ($1)`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

const participantProfileColumns = `id, user_id, display_name, avatar_url, account_type, age, gender,
	   institution, concerns, created_at, updated_at`

func (r *ParticipantProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.ParticipantProfile, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM participant_profiles
		WHERE user_id = $1
	`, participantProfileColumns)

	var profile models.ParticipantProfile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.DisplayName,
		&profile.AvatarURL,
		&profile.AccountType,
		&profile.Age,
		&profile.Gender,
		&profile.Institution,
		&profile.Concerns,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

type UpdateParticipantProfileInput struct {
	DisplayName *string
	AvatarURL   *string
	AccountType *string
	Age         *int
	Gender      *string
	Institution *string
	Concerns    *[]string
}

func (r *ParticipantProfileRepository) UpdatePartial(
	ctx context.Context,
	userID int64,
	input UpdateParticipantProfileInput,
) (*models.ParticipantProfile, error) {
	sets := []string{}
	args := []any{userID}

	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if input.DisplayName != nil {
		addSet("display_name", *input.DisplayName)
	}
	if input.AvatarURL != nil {
		addSet("avatar_url", *input.AvatarURL)
	}
	if input.AccountType != nil {
		addSet("account_type", *input.AccountType)
	}
	if input.Age != nil {
		addSet("age", *input.Age)
	}
	if input.Gender != nil {
		addSet("gender", *input.Gender)
	}
	if input.Institution != nil {
		addSet("institution", *input.Institution)
	}
	if input.Concerns != nil {
		addSet("concerns", *input.Concerns)
	}

	if len(sets) == 0 {
		return r.GetByUserID(ctx, userID)
	}

	query := fmt.Sprintf(`
		UPDATE participant_profiles
		SET %s, updated_at = NOW()
		WHERE user_id = $1
		RETURNING %s
	`, strings.Join(sets, ", "), participantProfileColumns)

	var profile models.ParticipantProfile
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.DisplayName,
		&profile.AvatarURL,
		&profile.AccountType,
		&profile.Age,
		&profile.Gender,
		&profile.Institution,
		&profile.Concerns,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

type ProfessionalProfileRepository struct {
	db DBTX
}

func NewProfessionalProfileRepository(db DBTX) *ProfessionalProfileRepository {
	return &ProfessionalProfileRepository{db: db}
}

func (r *ProfessionalProfileRepository) CreateEmpty(ctx context.Context, userID int64) error {
	query := `INSERT INTO professional_profiles (user_id) VALUES ($1)`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

const professionalProfileColumns = `id, user_id, full_name, avatar_url, bio, specializations,
	   license_number, experience_years, is_verified, created_at, updated_at`

func scanProfessionalProfile(row interface{ Scan(...any) error }, profile *models.ProfessionalProfile) error {
	return row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.Bio,
		&profile.Specializations,
		&profile.LicenseNumber,
		&profile.ExperienceYears,
		&profile.IsVerified,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
}

func (r *ProfessionalProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.ProfessionalProfile, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM professional_profiles
		WHERE user_id = $1
	`, professionalProfileColumns)

	var profile models.ProfessionalProfile
	if err := scanProfessionalProfile(r.db.QueryRow(ctx, query, userID), &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfessionalProfileRepository) ListAll(ctx context.Context) ([]models.ProfessionalProfile, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM professional_profiles
		ORDER BY is_verified DESC, created_at ASC
	`, professionalProfileColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]models.ProfessionalProfile, 0)
	for rows.Next() {
		var profile models.ProfessionalProfile
		if err := scanProfessionalProfile(rows, &profile); err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}

type UpdateProfessionalProfileInput struct {
	FullName        *string
	AvatarURL       *string
	Bio             *string
	Specializations *[]string
	LicenseNumber   *string
	ExperienceYears *int
}

func (r *ProfessionalProfileRepository) UpdatePartial(
	ctx context.Context,
	userID int64,
	input UpdateProfessionalProfileInput,
) (*models.ProfessionalProfile, error) {
	sets := []string{}
	args := []any{userID}

	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if input.FullName != nil {
		addSet("full_name", *input.FullName)
	}
	if input.AvatarURL != nil {
		addSet("avatar_url", *input.AvatarURL)
	}
	if input.Bio != nil {
		addSet("bio", *input.Bio)
	}
	if input.Specializations != nil {
		addSet("specializations", *input.Specializations)
	}
	if input.LicenseNumber != nil {
		addSet("license_number", *input.LicenseNumber)
	}
	if input.ExperienceYears != nil {
		addSet("experience_years", *input.ExperienceYears)
	}

	if len(sets) == 0 {
		return r.GetByUserID(ctx, userID)
	}

	query := fmt.Sprintf(`
		UPDATE professional_profiles
		SET %s, updated_at = NOW()
		WHERE user_id = $1
		RETURNING %s
	`, strings.Join(sets, ", "), professionalProfileColumns)

	var profile models.ProfessionalProfile
	if err := scanProfessionalProfile(r.db.QueryRow(ctx, query, args...), &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfessionalProfileRepository) SetVerified(ctx context.Context, userID int64, verified bool) error {
	_, err := r.db.Exec(ctx, `
		UPDATE professional_profiles
		SET is_verified = $2, updated_at = NOW()
		WHERE user_id = $1
	`, userID, verified)
	return err
}
