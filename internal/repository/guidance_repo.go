package repository

import (
	"context"
	"fmt"

	"github.com/ruangjiwa/MindCareBack/internal/models"
)

type GuidanceRepository struct {
	db DBTX
}

func NewGuidanceRepository(db DBTX) *GuidanceRepository {
	return &GuidanceRepository{db: db}
}

const guidanceColumns = `id, program, session_number, title, content, pdf_url, audio_url,
	   video_url, links, created_at, updated_at`

func scanGuidance(row interface{ Scan(...any) error }, g *models.GuidanceMaterial) error {
	return row.Scan(
		&g.ID,
		&g.Program,
		&g.SessionNumber,
		&g.Title,
		&g.Content,
		&g.PDFURL,
		&g.AudioURL,
		&g.VideoURL,
		&g.Links,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
}

type UpsertGuidanceInput struct {
	Program       string
	SessionNumber int
	Title         string
	Content       *string
	PDFURL        *string
	AudioURL      *string
	VideoURL      *string
	Links         *[]string
}

func (r *GuidanceRepository) Upsert(
	ctx context.Context,
	input UpsertGuidanceInput,
) (*models.GuidanceMaterial, error) {
	query := fmt.Sprintf(`
		INSERT INTO guidance_materials (program, session_number, title, content, pdf_url, audio_url, video_url, links)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (program, session_number)
		DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			pdf_url = COALESCE(EXCLUDED.pdf_url, guidance_materials.pdf_url),
			audio_url = COALESCE(EXCLUDED.audio_url, guidance_materials.audio_url),
			video_url = EXCLUDED.video_url,
			links = EXCLUDED.links,
			updated_at = NOW()
		RETURNING %s
	`, guidanceColumns)

	var guidance models.GuidanceMaterial
	err := scanGuidance(r.db.QueryRow(
		ctx,
		query,
		input.Program,
		input.SessionNumber,
		input.Title,
		input.Content,
		input.PDFURL,
		input.AudioURL,
		input.VideoURL,
		input.Links,
	), &guidance)
	if err != nil {
		return nil, err
	}
	return &guidance, nil
}

func (r *GuidanceRepository) GetBySession(
	ctx context.Context,
	program string,
	sessionNumber int,
) (*models.GuidanceMaterial, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM guidance_materials
		WHERE program = $1 AND session_number = $2
	`, guidanceColumns)

	var guidance models.GuidanceMaterial
	if err := scanGuidance(r.db.QueryRow(ctx, query, program, sessionNumber), &guidance); err != nil {
		return nil, err
	}
	return &guidance, nil
}

func (r *GuidanceRepository) ListByProgram(
	ctx context.Context,
	program string,
) ([]models.GuidanceMaterial, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM guidance_materials
		WHERE program = $1
		ORDER BY session_number ASC
	`, guidanceColumns)

	rows, err := r.db.Query(ctx, query, program)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	materials := make([]models.GuidanceMaterial, 0)
	for rows.Next() {
		var guidance models.GuidanceMaterial
		if err := scanGuidance(rows, &guidance); err != nil {
			return nil, err
		}
		materials = append(materials, guidance)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return materials, nil
}
