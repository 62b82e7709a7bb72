package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/ruangjiwa/MindCareBack/internal/models"
	"github.com/ruangjiwa/MindCareBack/internal/services"
)

type ProgressHandler struct {
	service *services.ProgressService
}

func NewProgressHandler(service *services.ProgressService) *ProgressHandler {
	return &ProgressHandler{service: service}
}

type markMilestoneRequest struct {
	Milestone string `json:"milestone" validate:"required,oneof=opened meeting_done guidance_read"`
}

type autosaveAnswersRequest struct {
	Answers models.AnswerSet `json:"answers"`
}

type submitAssignmentRequest struct {
	Answers models.AnswerSet `json:"answers"`
}

type counselorRespondRequest struct {
	UserID   int64  `json:"user_id" validate:"required,min=1"`
	Response string `json:"response" validate:"required"`
}

func (h *ProgressHandler) sessionScope(c *fiber.Ctx) (string, int, error) {
	program := strings.TrimSpace(c.Params("program"))
	session := parsePositiveInt(c.Params("session"), 0)
	if session == 0 {
		return "", 0, errors.New("invalid session")
	}
	return program, session, nil
}

func (h *ProgressHandler) GetProgress(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	program, session, err := h.sessionScope(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session number"})
	}

	record, err := h.service.GetProgress(c.Context(), userID, program, session)
	if err != nil {
		return mapProgressError(c, err)
	}
	return c.JSON(fiber.Map{"progress": record})
}

func (h *ProgressHandler) Overview(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	program := strings.TrimSpace(c.Params("program"))
	overview, err := h.service.Overview(c.Context(), userID, program)
	if err != nil {
		return mapProgressError(c, err)
	}
	return c.JSON(fiber.Map{"sessions": overview})
}

func (h *ProgressHandler) MarkMilestone(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	program, session, err := h.sessionScope(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session number"})
	}

	var req markMilestoneRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	record, err := h.service.MarkMilestone(c.Context(), userID, program, session, req.Milestone)
	if err != nil {
		return mapProgressError(c, err)
	}
	return c.JSON(fiber.Map{"progress": record})
}

func (h *ProgressHandler) AutosaveAnswers(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	program, session, err := h.sessionScope(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session number"})
	}

	var req autosaveAnswersRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Answers == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "answers is required"})
	}

	if err := h.service.AutosaveAnswers(c.Context(), userID, program, session, req.Answers); err != nil {
		return mapProgressError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "queued"})
}

func (h *ProgressHandler) SubmitAssignment(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	program, session, err := h.sessionScope(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session number"})
	}

	var req submitAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if len(req.Answers) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "answers must not be empty"})
	}

	record, err := h.service.SubmitAssignment(c.Context(), userID, program, session, req.Answers)
	if err != nil {
		return mapProgressError(c, err)
	}
	return c.JSON(fiber.Map{"progress": record})
}

func (h *ProgressHandler) CounselorRespond(c *fiber.Ctx) error {
	program, session, err := h.sessionScope(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session number"})
	}

	var req counselorRespondRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	record, err := h.service.CounselorRespond(c.Context(), actorRole(c), req.UserID, program, session, req.Response)
	if err != nil {
		return mapProgressError(c, err)
	}
	return c.JSON(fiber.Map{"progress": record})
}

func mapProgressError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrUnknownProgram):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Unknown program"})
	case errors.Is(err, services.ErrSessionLocked):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Previous session must be completed first"})
	case errors.Is(err, services.ErrAlreadySubmitted):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Assignment already submitted"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "No submission to respond to"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Progress record not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process progress request"})
	}
}
