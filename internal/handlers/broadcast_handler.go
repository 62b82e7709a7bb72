package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/ruangjiwa/MindCareBack/internal/models"
	"github.com/ruangjiwa/MindCareBack/internal/realtime"
	"github.com/ruangjiwa/MindCareBack/internal/repository"
	"github.com/ruangjiwa/MindCareBack/internal/services"
)

type BroadcastHandler struct {
	service         *services.BroadcastService
	participantRepo *repository.ParticipantProfileRepository
	hub             *realtime.Hub
}

func NewBroadcastHandler(
	service *services.BroadcastService,
	participantRepo *repository.ParticipantProfileRepository,
	hub *realtime.Hub,
) *BroadcastHandler {
	return &BroadcastHandler{
		service:         service,
		participantRepo: participantRepo,
		hub:             hub,
	}
}

type publishBroadcastRequest struct {
	Title      string   `json:"title" validate:"required"`
	Content    string   `json:"content" validate:"required"`
	Recipients []string `json:"recipients" validate:"omitempty,dive,oneof=all general student professional"`
}

func (h *BroadcastHandler) Publish(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req publishBroadcastRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	broadcast, err := h.service.Publish(c.Context(), userID, actorRole(c), services.PublishBroadcastInput{
		Title:      req.Title,
		Content:    req.Content,
		Recipients: req.Recipients,
	})
	if err != nil {
		return mapBroadcastError(c, err)
	}

	h.hub.PublishBroadcast(broadcast)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"broadcast": broadcast})
}

func (h *BroadcastHandler) ListMine(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	role := actorRole(c)

	accountType := models.AccountTypeGeneral
	if role == models.RoleProfessional {
		accountType = models.AccountTypeProfessional
	} else if role == models.RoleUser {
		profile, err := h.participantRepo.GetByUserID(c.Context(), userID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusInternalServerError).
				JSON(fiber.Map{"error": "Failed to fetch profile"})
		}
		if err == nil {
			accountType = profile.AccountType
		}
	}

	views, err := h.service.ListForUser(c.Context(), userID, accountType, role == models.RoleAdmin)
	if err != nil {
		return mapBroadcastError(c, err)
	}
	return c.JSON(fiber.Map{"broadcasts": views})
}

func (h *BroadcastHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	broadcastID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid broadcast id"})
	}

	if err := h.service.MarkRead(c.Context(), broadcastID, userID); err != nil {
		return mapBroadcastError(c, err)
	}
	return c.JSON(fiber.Map{"status": "read"})
}

func mapBroadcastError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Broadcast not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process broadcast request"})
	}
}
