package models

import "time"

// Milestone column names understood by the progress repository.
const (
	MilestoneOpened             = "opened"
	MilestoneMeetingDone        = "meeting_done"
	MilestoneGuidanceRead       = "guidance_read"
	MilestoneAssignmentDone     = "assignment_done"
	MilestoneCounselorResponded = "counselor_responded"
)

// AnswerSet holds the free-text assignment answers keyed by question id.
type AnswerSet map[string]string

// Submission is one snapshot of submitted answers plus the counselor's
// eventual response.
type Submission struct {
	Answers     AnswerSet  `json:"answers"`
	SubmittedAt time.Time  `json:"submitted_at"`
	Response    *string    `json:"response,omitempty"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

type SessionProgress struct {
	ID                 int64        `json:"id"`
	UserID             int64        `json:"user_id"`
	Program            string       `json:"program"`
	SessionNumber      int          `json:"session_number"`
	Opened             bool         `json:"opened"`
	MeetingDone        bool         `json:"meeting_done"`
	GuidanceRead       bool         `json:"guidance_read"`
	AssignmentDone     bool         `json:"assignment_done"`
	CounselorResponded bool         `json:"counselor_responded"`
	Answers            AnswerSet    `json:"answers"`
	Submissions        []Submission `json:"submissions"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// Milestone reports a single flag by its column name.
func (p *SessionProgress) Milestone(name string) bool {
	switch name {
	case MilestoneOpened:
		return p.Opened
	case MilestoneMeetingDone:
		return p.MeetingDone
	case MilestoneGuidanceRead:
		return p.GuidanceRead
	case MilestoneAssignmentDone:
		return p.AssignmentDone
	case MilestoneCounselorResponded:
		return p.CounselorResponded
	default:
		return false
	}
}
