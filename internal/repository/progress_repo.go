package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ruangjiwa/MindCareBack/internal/models"
)

type ProgressRepository struct {
	db DBTX
}

func NewProgressRepository(db DBTX) *ProgressRepository {
	return &ProgressRepository{db: db}
}

const progressColumns = `id, user_id, program, session_number, opened, meeting_done, guidance_read,
	   assignment_done, counselor_responded, answers, submissions, created_at, updated_at`

// milestoneColumns whitelists the flag columns reachable through
// SetMilestone. Anything else is rejected before touching SQL.
var milestoneColumns = map[string]struct{}{
	models.MilestoneOpened:             {},
	models.MilestoneMeetingDone:        {},
	models.MilestoneGuidanceRead:       {},
	models.MilestoneAssignmentDone:     {},
	models.MilestoneCounselorResponded: {},
}

func scanProgress(row interface{ Scan(...any) error }, p *models.SessionProgress) error {
	var answersRaw, submissionsRaw []byte
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Program,
		&p.SessionNumber,
		&p.Opened,
		&p.MeetingDone,
		&p.GuidanceRead,
		&p.AssignmentDone,
		&p.CounselorResponded,
		&answersRaw,
		&submissionsRaw,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return err
	}

	if err := json.Unmarshal(answersRaw, &p.Answers); err != nil {
		return fmt.Errorf("decode answers: %w", err)
	}
	if err := json.Unmarshal(submissionsRaw, &p.Submissions); err != nil {
		return fmt.Errorf("decode submissions: %w", err)
	}
	return nil
}

// GetOrInit fetches the record for (user, program, session), inserting a
// zeroed one when none exists.
func (r *ProgressRepository) GetOrInit(
	ctx context.Context,
	userID int64,
	program string,
	sessionNumber int,
) (*models.SessionProgress, error) {
	query := fmt.Sprintf(`
		INSERT INTO session_progress (user_id, program, session_number)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, program, session_number)
		DO UPDATE SET updated_at = session_progress.updated_at
		RETURNING %s
	`, progressColumns)

	var progress models.SessionProgress
	if err := scanProgress(r.db.QueryRow(ctx, query, userID, program, sessionNumber), &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *ProgressRepository) Get(
	ctx context.Context,
	userID int64,
	program string,
	sessionNumber int,
) (*models.SessionProgress, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM session_progress
		WHERE user_id = $1 AND program = $2 AND session_number = $3
	`, progressColumns)

	var progress models.SessionProgress
	if err := scanProgress(r.db.QueryRow(ctx, query, userID, program, sessionNumber), &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *ProgressRepository) ListForUser(
	ctx context.Context,
	userID int64,
	program string,
) ([]models.SessionProgress, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM session_progress
		WHERE user_id = $1 AND program = $2
		ORDER BY session_number ASC
	`, progressColumns)

	rows, err := r.db.Query(ctx, query, userID, program)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.SessionProgress, 0)
	for rows.Next() {
		var progress models.SessionProgress
		if err := scanProgress(rows, &progress); err != nil {
			return nil, err
		}
		records = append(records, progress)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// SetMilestone sets one whitelisted flag column to true. Setting an already
// true flag is a harmless repeat write.
func (r *ProgressRepository) SetMilestone(
	ctx context.Context,
	userID int64,
	program string,
	sessionNumber int,
	milestone string,
) (*models.SessionProgress, error) {
	if _, ok := milestoneColumns[milestone]; !ok {
		return nil, fmt.Errorf("unknown milestone %q", milestone)
	}

	query := fmt.Sprintf(`
		UPDATE session_progress
		SET %s = TRUE, updated_at = NOW()
		WHERE user_id = $1 AND program = $2 AND session_number = $3
		RETURNING %s
	`, milestone, progressColumns)

	var progress models.SessionProgress
	if err := scanProgress(r.db.QueryRow(ctx, query, userID, program, sessionNumber), &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *ProgressRepository) SaveAnswers(
	ctx context.Context,
	userID int64,
	program string,
	sessionNumber int,
	answers models.AnswerSet,
) error {
	encoded, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		UPDATE session_progress
		SET answers = $4, updated_at = NOW()
		WHERE user_id = $1 AND program = $2 AND session_number = $3
		  AND assignment_done = FALSE
	`, userID, program, sessionNumber, encoded)
	return err
}

// SubmitAssignment snapshots the answers into the submission history and
// marks the assignment done. A second submit on the same session is refused
// by the assignment_done guard.
func (r *ProgressRepository) SubmitAssignment(
	ctx context.Context,
	userID int64,
	program string,
	sessionNumber int,
	submission models.Submission,
) (*models.SessionProgress, error) {
	encoded, err := json.Marshal(submission)
	if err != nil {
		return nil, fmt.Errorf("encode submission: %w", err)
	}
	answersEncoded, err := json.Marshal(submission.Answers)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE session_progress
		SET assignment_done = TRUE,
			answers = $5,
			submissions = submissions || $4::jsonb,
			updated_at = NOW()
		WHERE user_id = $1 AND program = $2 AND session_number = $3
		  AND assignment_done = FALSE
		RETURNING %s
	`, progressColumns)

	var progress models.SessionProgress
	if err := scanProgress(r.db.QueryRow(ctx, query, userID, program, sessionNumber, encoded, answersEncoded), &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

// ReplaceSubmissions overwrites the submission history, used when a counselor
// response is appended to the latest entry.
func (r *ProgressRepository) ReplaceSubmissions(
	ctx context.Context,
	userID int64,
	program string,
	sessionNumber int,
	submissions []models.Submission,
) (*models.SessionProgress, error) {
	encoded, err := json.Marshal(submissions)
	if err != nil {
		return nil, fmt.Errorf("encode submissions: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE session_progress
		SET submissions = $4, counselor_responded = TRUE, updated_at = NOW()
		WHERE user_id = $1 AND program = $2 AND session_number = $3
		RETURNING %s
	`, progressColumns)

	var progress models.SessionProgress
	if err := scanProgress(r.db.QueryRow(ctx, query, userID, program, sessionNumber, encoded), &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}
