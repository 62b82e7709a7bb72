package handlers

import (
	"errors"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/ruangjiwa/MindCareBack/internal/services"
)

const maxGuidanceFileBytes = 25 * 1024 * 1024

type GuidanceHandler struct {
	service *services.GuidanceService
}

func NewGuidanceHandler(service *services.GuidanceService) *GuidanceHandler {
	return &GuidanceHandler{service: service}
}

func (h *GuidanceHandler) Get(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	program := strings.TrimSpace(c.Params("program"))
	session := parsePositiveInt(c.Params("session"), 0)
	if session == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session number"})
	}

	material, err := h.service.GetForParticipant(c.Context(), userID, actorRole(c), program, session)
	if err != nil {
		return mapGuidanceError(c, err)
	}
	return c.JSON(fiber.Map{"guidance": material})
}

func (h *GuidanceHandler) List(c *fiber.Ctx) error {
	program := strings.TrimSpace(c.Params("program"))
	materials, err := h.service.ListByProgram(c.Context(), actorRole(c), program)
	if err != nil {
		return mapGuidanceError(c, err)
	}
	return c.JSON(fiber.Map{"guidance": materials})
}

// Upsert accepts a multipart form: title, content, video_url, links plus
// optional pdf and audio file parts.
func (h *GuidanceHandler) Upsert(c *fiber.Ctx) error {
	program := strings.TrimSpace(c.Params("program"))
	session := parsePositiveInt(c.Params("session"), 0)
	if session == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session number"})
	}

	title := strings.TrimSpace(c.FormValue("title"))
	input := services.UpsertGuidanceInput{
		Program:       program,
		SessionNumber: session,
		Title:         title,
	}

	if content := strings.TrimSpace(c.FormValue("content")); content != "" {
		input.Content = &content
	}
	if videoURL := strings.TrimSpace(c.FormValue("video_url")); videoURL != "" {
		input.VideoURL = &videoURL
	}
	if form, err := c.MultipartForm(); err == nil && form != nil {
		if links := form.Value["links"]; len(links) > 0 {
			cleaned := make([]string, 0, len(links))
			for _, link := range links {
				if link = strings.TrimSpace(link); link != "" {
					cleaned = append(cleaned, link)
				}
			}
			input.Links = &cleaned
		}
	}

	pdfFile, pdfName, err := openGuidanceFile(c, "pdf", []string{".pdf"})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if pdfFile != nil {
		defer pdfFile.Close()
		input.PDFFile = pdfFile
		input.PDFFilename = pdfName
	}

	audioFile, audioName, err := openGuidanceFile(c, "audio", []string{".mp3", ".m4a", ".wav", ".ogg"})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if audioFile != nil {
		defer audioFile.Close()
		input.AudioFile = audioFile
		input.AudioFilename = audioName
	}

	material, err := h.service.Upsert(c.Context(), actorRole(c), input)
	if err != nil {
		return mapGuidanceError(c, err)
	}
	return c.JSON(fiber.Map{"guidance": material})
}

func openGuidanceFile(c *fiber.Ctx, field string, allowedExts []string) (multipart.File, string, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, "", nil
	}
	if fileHeader.Size <= 0 {
		return nil, "", errors.New(field + " file is empty")
	}
	if fileHeader.Size > maxGuidanceFileBytes {
		return nil, "", errors.New(field + " file exceeds 25MB limit")
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	allowed := false
	for _, candidate := range allowedExts {
		if ext == candidate {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, "", errors.New(field + " file has an unsupported extension")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", errors.New("failed to open " + field + " file")
	}
	return file, fileHeader.Filename, nil
}

func mapGuidanceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrUnknownProgram):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Unknown program"})
	case errors.Is(err, services.ErrEnrollmentRequired):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Approved enrollment required"})
	case errors.Is(err, services.ErrGuidanceNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Guidance material not found"})
	case errors.Is(err, services.ErrTitleRequired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrStorageUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Storage unavailable"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Guidance material not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process guidance request"})
	}
}
