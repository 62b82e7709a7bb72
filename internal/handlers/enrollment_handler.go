package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/ruangjiwa/MindCareBack/internal/models"
	"github.com/ruangjiwa/MindCareBack/internal/repository"
	"github.com/ruangjiwa/MindCareBack/internal/services"
)

type EnrollmentHandler struct {
	service       *services.EnrollmentService
	exportService *services.ExportService
}

func NewEnrollmentHandler(
	service *services.EnrollmentService,
	exportService *services.ExportService,
) *EnrollmentHandler {
	return &EnrollmentHandler{service: service, exportService: exportService}
}

type applyEnrollmentRequest struct {
	Program    string  `json:"program" validate:"required,oneof=hibrida spiritual"`
	Motivation *string `json:"motivation"`
}

type approveEnrollmentRequest struct {
	Role      string `json:"role" validate:"required,oneof=intervention psychoeducation"`
	GroupName string `json:"group_name" validate:"required"`
}

func (h *EnrollmentHandler) Apply(c *fiber.Ctx) error {
	if actorRole(c) != models.RoleUser {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req applyEnrollmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	enrollment, err := h.service.Apply(c.Context(), userID, req.Program, req.Motivation)
	if err != nil {
		return mapEnrollmentError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"enrollment": enrollment})
}

func (h *EnrollmentHandler) GetMine(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	program := strings.TrimSpace(c.Params("program"))
	enrollment, err := h.service.GetOwn(c.Context(), userID, program)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Enrollment not found"})
		}
		return mapEnrollmentError(c, err)
	}
	return c.JSON(fiber.Map{"enrollment": enrollment})
}

// CheckAccess answers whether the caller may open a program's restricted
// tabs for the requested role.
func (h *EnrollmentHandler) CheckAccess(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	role := actorRole(c)

	program := strings.TrimSpace(c.Params("program"))
	requiredRole := strings.TrimSpace(c.Query("role"))
	if requiredRole != models.EnrollmentRoleIntervention && requiredRole != models.EnrollmentRolePsychoeducation {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "role must be intervention or psychoeducation"})
	}

	var enrollment *models.Enrollment
	if role != models.RoleAdmin {
		enrollment, err = h.service.GetOwn(c.Context(), userID, program)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return mapEnrollmentError(c, err)
		}
	}

	allowed := services.CanAccess(true, role == models.RoleAdmin, enrollment, requiredRole)
	return c.JSON(fiber.Map{"can_access": allowed})
}

func (h *EnrollmentHandler) List(c *fiber.Ctx) error {
	enrollments, err := h.service.List(c.Context(), actorRole(c), repository.EnrollmentListFilter{
		Program: strings.TrimSpace(c.Query("program")),
		Status:  strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		return mapEnrollmentError(c, err)
	}
	return c.JSON(fiber.Map{"enrollments": enrollments})
}

func (h *EnrollmentHandler) Approve(c *fiber.Ctx) error {
	enrollmentID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid enrollment id"})
	}

	var req approveEnrollmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	enrollment, err := h.service.Approve(c.Context(), actorRole(c), enrollmentID, req.Role, req.GroupName)
	if err != nil {
		return mapEnrollmentError(c, err)
	}
	return c.JSON(fiber.Map{"enrollment": enrollment})
}

func (h *EnrollmentHandler) Reject(c *fiber.Ctx) error {
	enrollmentID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid enrollment id"})
	}

	enrollment, err := h.service.Reject(c.Context(), actorRole(c), enrollmentID)
	if err != nil {
		return mapEnrollmentError(c, err)
	}
	return c.JSON(fiber.Map{"enrollment": enrollment})
}

func (h *EnrollmentHandler) ExportCSV(c *fiber.Ctx) error {
	csvBytes, err := h.exportService.EnrollmentsCSV(c.Context(), actorRole(c), repository.EnrollmentListFilter{
		Program: strings.TrimSpace(c.Query("program")),
		Status:  strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		return mapEnrollmentError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "enrollments.csv"))
	return c.Send(csvBytes)
}

func mapEnrollmentError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrAlreadyEnrolled):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Already enrolled in this program"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Enrollment is not in a valid state for this action"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Enrollment not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process enrollment request"})
	}
}
