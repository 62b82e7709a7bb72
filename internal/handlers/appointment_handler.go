package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/ruangjiwa/MindCareBack/internal/models"
	"github.com/ruangjiwa/MindCareBack/internal/services"
)

type AppointmentHandler struct {
	service *services.AppointmentService
}

func NewAppointmentHandler(service *services.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{service: service}
}

type requestAppointmentRequest struct {
	ProfessionalID int64   `json:"professional_id" validate:"required,min=1"`
	Topic          string  `json:"topic" validate:"required"`
	Notes          *string `json:"notes"`
	PreferredAt    string  `json:"preferred_at" validate:"required"`
}

type approveAppointmentRequest struct {
	Date string `json:"date" validate:"required"`
	Time string `json:"time" validate:"required"`
}

type rejectAppointmentRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *AppointmentHandler) Request(c *fiber.Ctx) error {
	if actorRole(c) != models.RoleUser {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req requestAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	preferredAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.PreferredAt))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "preferred_at must be a valid RFC3339 timestamp"})
	}

	appointment, err := h.service.RequestAppointment(c.Context(), userID, services.RequestAppointmentInput{
		ProfessionalID: req.ProfessionalID,
		Topic:          req.Topic,
		Notes:          req.Notes,
		PreferredAt:    preferredAt,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"appointment": appointment})
}

func (h *AppointmentHandler) ListHistory(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	status := strings.TrimSpace(c.Query("status"))
	appointments, err := h.service.ListHistory(c.Context(), userID, actorRole(c), status)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return c.JSON(fiber.Map{"appointments": appointments})
}

func (h *AppointmentHandler) Buckets(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	buckets, err := h.service.ListBuckets(c.Context(), userID, actorRole(c))
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return c.JSON(buckets)
}

func (h *AppointmentHandler) Get(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	appointmentID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid appointment id"})
	}

	appointment, err := h.service.GetAppointment(c.Context(), userID, actorRole(c), appointmentID)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return c.JSON(fiber.Map{"appointment": appointment})
}

func (h *AppointmentHandler) Approve(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	appointmentID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid appointment id"})
	}

	var req approveAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	appointment, err := h.service.Approve(c.Context(), userID, actorRole(c), appointmentID, req.Date, req.Time)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return c.JSON(fiber.Map{"appointment": appointment})
}

func (h *AppointmentHandler) Reject(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	appointmentID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid appointment id"})
	}

	var req rejectAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	appointment, err := h.service.Reject(c.Context(), userID, actorRole(c), appointmentID, req.Reason)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return c.JSON(fiber.Map{"appointment": appointment})
}

func (h *AppointmentHandler) Complete(c *fiber.Ctx) error {
	appointmentID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid appointment id"})
	}

	appointment, err := h.service.Complete(c.Context(), actorRole(c), appointmentID)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return c.JSON(fiber.Map{"appointment": appointment})
}

func (h *AppointmentHandler) Cancel(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	appointmentID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid appointment id"})
	}

	appointment, err := h.service.Cancel(c.Context(), userID, actorRole(c), appointmentID)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return c.JSON(fiber.Map{"appointment": appointment})
}

func mapAppointmentError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrReasonRequired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Rejection reason is required"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Appointment is not in a valid state for this action"})
	case errors.Is(err, services.ErrProfessionalNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Professional not found"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Appointment not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process appointment request"})
	}
}
