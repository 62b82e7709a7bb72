package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/ruangjiwa/MindCareBack/internal/models"
	"github.com/ruangjiwa/MindCareBack/internal/repository"
	"github.com/ruangjiwa/MindCareBack/internal/services"
)

const defaultRecommendationLimit = 5

type DirectoryHandler struct {
	directoryService *services.DirectoryService
	participantRepo  *repository.ParticipantProfileRepository
}

func NewDirectoryHandler(
	directoryService *services.DirectoryService,
	participantRepo *repository.ParticipantProfileRepository,
) *DirectoryHandler {
	return &DirectoryHandler{
		directoryService: directoryService,
		participantRepo:  participantRepo,
	}
}

func (h *DirectoryHandler) ListProfessionals(c *fiber.Ctx) error {
	professionals, err := h.directoryService.ListProfessionals(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to list professionals"})
	}
	return c.JSON(fiber.Map{"professionals": professionals})
}

func (h *DirectoryHandler) Recommended(c *fiber.Ctx) error {
	if actorRole(c) != models.RoleUser {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	limit := parsePositiveInt(c.Query("limit"), defaultRecommendationLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	participant, err := h.participantRepo.GetByUserID(c.Context(), userID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to fetch profile"})
	}

	ranked, err := h.directoryService.GetRecommended(c.Context(), participant, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to rank professionals"})
	}

	return c.JSON(fiber.Map{"professionals": ranked})
}
