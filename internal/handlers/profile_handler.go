package handlers

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/ruangjiwa/MindCareBack/internal/models"
	"github.com/ruangjiwa/MindCareBack/internal/repository"
	"github.com/ruangjiwa/MindCareBack/internal/services"
)

const maxAvatarSizeBytes = 5 * 1024 * 1024

type ProfileHandler struct {
	profileService *services.ProfileService
}

func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

type updateParticipantProfileRequest struct {
	DisplayName *string   `json:"display_name"`
	AccountType *string   `json:"account_type" validate:"omitempty,oneof=general student professional"`
	Age         *int      `json:"age" validate:"omitempty,min=1,max=120"`
	Gender      *string   `json:"gender" validate:"omitempty,oneof=male female other prefer_not_to_say"`
	Institution *string   `json:"institution"`
	Concerns    *[]string `json:"concerns"`
}

type updateProfessionalProfileRequest struct {
	FullName        *string   `json:"full_name"`
	Bio             *string   `json:"bio"`
	Specializations *[]string `json:"specializations"`
	LicenseNumber   *string   `json:"license_number"`
	ExperienceYears *int      `json:"experience_years" validate:"omitempty,min=0"`
}

func (h *ProfileHandler) GetMyProfile(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	if actorRole(c) == models.RoleProfessional {
		profile, err := h.profileService.GetProfessional(c.Context(), userID)
		if err != nil {
			return mapProfileError(c, err)
		}
		return c.JSON(fiber.Map{"profile": profile})
	}

	profile, err := h.profileService.GetParticipant(c.Context(), userID)
	if err != nil {
		return mapProfileError(c, err)
	}
	return c.JSON(fiber.Map{"profile": profile})
}

func (h *ProfileHandler) UpdateParticipantProfile(c *fiber.Ctx) error {
	role := actorRole(c)
	if role != models.RoleUser {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req updateParticipantProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	profile, err := h.profileService.UpdateParticipant(c.Context(), userID, repository.UpdateParticipantProfileInput{
		DisplayName: req.DisplayName,
		AccountType: req.AccountType,
		Age:         req.Age,
		Gender:      req.Gender,
		Institution: req.Institution,
		Concerns:    req.Concerns,
	})
	if err != nil {
		return mapProfileError(c, err)
	}
	return c.JSON(fiber.Map{"profile": profile})
}

func (h *ProfileHandler) UpdateProfessionalProfile(c *fiber.Ctx) error {
	role := actorRole(c)
	if role != models.RoleProfessional {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req updateProfessionalProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	profile, err := h.profileService.UpdateProfessional(c.Context(), userID, repository.UpdateProfessionalProfileInput{
		FullName:        req.FullName,
		Bio:             req.Bio,
		Specializations: req.Specializations,
		LicenseNumber:   req.LicenseNumber,
		ExperienceYears: req.ExperienceYears,
	})
	if err != nil {
		return mapProfileError(c, err)
	}
	return c.JSON(fiber.Map{"profile": profile})
}

func (h *ProfileHandler) UploadAvatar(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file is required"})
	}
	if fileHeader.Size <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file is empty"})
	}
	if fileHeader.Size > maxAvatarSizeBytes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file exceeds 5MB limit"})
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar must be a jpg, jpeg, png, or webp file"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to open avatar file"})
	}
	defer file.Close()

	avatarURL, err := h.profileService.UploadAvatar(c.Context(), userID, actorRole(c), file, fileHeader.Filename)
	if err != nil {
		return mapProfileError(c, err)
	}

	return c.JSON(fiber.Map{"avatar_url": avatarURL})
}

type verifyProfessionalRequest struct {
	Verified bool `json:"verified"`
}

func (h *ProfileHandler) VerifyProfessional(c *fiber.Ctx) error {
	professionalUserID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid professional id"})
	}

	var req verifyProfessionalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := h.profileService.SetProfessionalVerified(c.Context(), actorRole(c), professionalUserID, req.Verified); err != nil {
		return mapProfileError(c, err)
	}
	return c.JSON(fiber.Map{"verified": req.Verified})
}

func mapProfileError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrProfileNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
	case errors.Is(err, services.ErrStorageUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Storage unavailable"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process profile request"})
	}
}
