package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ruangjiwa/MindCareBack/internal/models"
)

var (
	ErrUnknownProgram   = errors.New("unknown program")
	ErrSessionLocked    = errors.New("session locked")
	ErrAlreadySubmitted = errors.New("assignment already submitted")
)

// ProgramConfig drives the progress tracker per program: session count,
// milestone weighting for the completion percentage, and whether session N
// requires finishing session N-1.
type ProgramConfig struct {
	Program        string
	Sessions       int
	Weights        map[string]int
	SequentialLock bool
}

// The weightings differ on purpose: the hibrida module shipped with a
// 20/30/30/20 split over four milestones, the spiritual modules with a
// uniform 20 over five. Kept per program until the study owners unify them.
var programConfigs = map[string]ProgramConfig{
	models.ProgramHibrida: {
		Program:  models.ProgramHibrida,
		Sessions: 8,
		Weights: map[string]int{
			models.MilestoneOpened:         20,
			models.MilestoneMeetingDone:    30,
			models.MilestoneGuidanceRead:   30,
			models.MilestoneAssignmentDone: 20,
		},
		SequentialLock: true,
	},
	models.ProgramSpiritual: {
		Program:  models.ProgramSpiritual,
		Sessions: 6,
		Weights: map[string]int{
			models.MilestoneOpened:             20,
			models.MilestoneMeetingDone:        20,
			models.MilestoneGuidanceRead:       20,
			models.MilestoneAssignmentDone:     20,
			models.MilestoneCounselorResponded: 20,
		},
		SequentialLock: false,
	},
}

func LookupProgram(program string) (ProgramConfig, bool) {
	cfg, ok := programConfigs[program]
	return cfg, ok
}

// ComputePercent is the weighted sum over the record's milestone flags,
// clamped to [0, 100].
func ComputePercent(cfg ProgramConfig, record *models.SessionProgress) int {
	if record == nil {
		return 0
	}
	percent := 0
	for milestone, weight := range cfg.Weights {
		if record.Milestone(milestone) {
			percent += weight
		}
	}
	if percent > 100 {
		percent = 100
	}
	return percent
}

// NextSessionUnlocked decides whether the session after previous is
// reachable. Programs without a sequential lock keep every session open.
func NextSessionUnlocked(cfg ProgramConfig, previous *models.SessionProgress) bool {
	if !cfg.SequentialLock {
		return true
	}
	if previous == nil {
		return false
	}
	return previous.MeetingDone && previous.AssignmentDone
}

type pendingSave struct {
	timer   *time.Timer
	answers models.AnswerSet
}

type progressKey struct {
	userID  int64
	program string
	session int
}

func (k progressKey) String() string {
	return fmt.Sprintf("%d/%s/%d", k.userID, k.program, k.session)
}

type progressStore interface {
	GetOrInit(ctx context.Context, userID int64, program string, sessionNumber int) (*models.SessionProgress, error)
	Get(ctx context.Context, userID int64, program string, sessionNumber int) (*models.SessionProgress, error)
	ListForUser(ctx context.Context, userID int64, program string) ([]models.SessionProgress, error)
	SetMilestone(ctx context.Context, userID int64, program string, sessionNumber int, milestone string) (*models.SessionProgress, error)
	SaveAnswers(ctx context.Context, userID int64, program string, sessionNumber int, answers models.AnswerSet) error
	SubmitAssignment(ctx context.Context, userID int64, program string, sessionNumber int, submission models.Submission) (*models.SessionProgress, error)
	ReplaceSubmissions(ctx context.Context, userID int64, program string, sessionNumber int, submissions []models.Submission) (*models.SessionProgress, error)
}

type ProgressService struct {
	progressRepo progressStore
	quietPeriod  time.Duration

	mu      sync.Mutex
	pending map[progressKey]*pendingSave
}

const defaultAutosaveQuiet = 900 * time.Millisecond

func NewProgressService(progressRepo progressStore, quietPeriod time.Duration) *ProgressService {
	if quietPeriod <= 0 {
		quietPeriod = defaultAutosaveQuiet
	}
	return &ProgressService{
		progressRepo: progressRepo,
		quietPeriod:  quietPeriod,
		pending:      make(map[progressKey]*pendingSave),
	}
}

func (s *ProgressService) validateSession(program string, sessionNumber int) (ProgramConfig, error) {
	cfg, ok := LookupProgram(program)
	if !ok {
		return ProgramConfig{}, ErrUnknownProgram
	}
	if sessionNumber < 1 || sessionNumber > cfg.Sessions {
		return ProgramConfig{}, ErrInvalidInput
	}
	return cfg, nil
}

// GetProgress fetches the milestone record for a session, default-initialized
// with every flag false when the user has not touched it yet.
func (s *ProgressService) GetProgress(
	ctx context.Context,
	userID int64,
	program string,
	sessionNumber int,
) (*models.SessionProgress, error) {
	if _, err := s.validateSession(program, sessionNumber); err != nil {
		return nil, err
	}
	return s.progressRepo.GetOrInit(ctx, userID, program, sessionNumber)
}

// SessionOverview is one row of the per-program progress bar.
type SessionOverview struct {
	SessionNumber int                     `json:"session_number"`
	Percent       int                     `json:"percent"`
	Unlocked      bool                    `json:"unlocked"`
	Record        *models.SessionProgress `json:"record,omitempty"`
}

func (s *ProgressService) Overview(
	ctx context.Context,
	userID int64,
	program string,
) ([]SessionOverview, error) {
	cfg, ok := LookupProgram(program)
	if !ok {
		return nil, ErrUnknownProgram
	}

	records, err := s.progressRepo.ListForUser(ctx, userID, program)
	if err != nil {
		return nil, err
	}

	bySession := make(map[int]*models.SessionProgress, len(records))
	for i := range records {
		bySession[records[i].SessionNumber] = &records[i]
	}

	overview := make([]SessionOverview, 0, cfg.Sessions)
	for session := 1; session <= cfg.Sessions; session++ {
		unlocked := true
		if session > 1 {
			unlocked = NextSessionUnlocked(cfg, bySession[session-1])
		}
		overview = append(overview, SessionOverview{
			SessionNumber: session,
			Percent:       ComputePercent(cfg, bySession[session]),
			Unlocked:      unlocked,
			Record:        bySession[session],
		})
	}
	return overview, nil
}

// userMilestones are the flags a participant may set directly. Assignment
// and counselor flags only move through SubmitAssignment / CounselorRespond.
var userMilestones = map[string]struct{}{
	models.MilestoneOpened:       {},
	models.MilestoneMeetingDone:  {},
	models.MilestoneGuidanceRead: {},
}

func (s *ProgressService) MarkMilestone(
	ctx context.Context,
	userID int64,
	program string,
	sessionNumber int,
	milestone string,
) (*models.SessionProgress, error) {
	cfg, err := s.validateSession(program, sessionNumber)
	if err != nil {
		return nil, err
	}
	if _, ok := userMilestones[milestone]; !ok {
		return nil, ErrInvalidInput
	}

	if err := s.checkUnlocked(ctx, cfg, userID, sessionNumber); err != nil {
		return nil, err
	}

	if _, err := s.progressRepo.GetOrInit(ctx, userID, program, sessionNumber); err != nil {
		return nil, err
	}
	return s.progressRepo.SetMilestone(ctx, userID, program, sessionNumber, milestone)
}

func (s *ProgressService) checkUnlocked(
	ctx context.Context,
	cfg ProgramConfig,
	userID int64,
	sessionNumber int,
) error {
	if !cfg.SequentialLock || sessionNumber == 1 {
		return nil
	}

	previous, err := s.progressRepo.Get(ctx, userID, cfg.Program, sessionNumber-1)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSessionLocked
		}
		return err
	}
	if !NextSessionUnlocked(cfg, previous) {
		return ErrSessionLocked
	}
	return nil
}

// AutosaveAnswers schedules a debounced upsert of in-progress answers. Each
// call resets the quiet-period timer; the write happens once the caller goes
// quiet. Submitted sessions refuse further edits.
func (s *ProgressService) AutosaveAnswers(
	ctx context.Context,
	userID int64,
	program string,
	sessionNumber int,
	answers models.AnswerSet,
) error {
	if _, err := s.validateSession(program, sessionNumber); err != nil {
		return err
	}

	record, err := s.progressRepo.GetOrInit(ctx, userID, program, sessionNumber)
	if err != nil {
		return err
	}
	if record.AssignmentDone {
		return ErrAlreadySubmitted
	}

	key := progressKey{userID: userID, program: program, session: sessionNumber}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.pending[key]; ok {
		entry.answers = answers
		entry.timer.Reset(s.quietPeriod)
		return nil
	}

	entry := &pendingSave{answers: answers}
	entry.timer = time.AfterFunc(s.quietPeriod, func() {
		s.flush(key)
	})
	s.pending[key] = entry
	return nil
}

func (s *ProgressService) flush(key progressKey) {
	s.mu.Lock()
	entry, ok := s.pending[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.pending, key)
	answers := entry.answers
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.progressRepo.SaveAnswers(ctx, key.userID, key.program, key.session, answers); err != nil {
		log.Printf("autosave answers %s: %v", key, err)
	}
}

// cancelAutosave drops a pending debounced write, returning its answers if
// one was queued.
func (s *ProgressService) cancelAutosave(key progressKey) (models.AnswerSet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.pending[key]
	if !ok {
		return nil, false
	}
	entry.timer.Stop()
	delete(s.pending, key)
	return entry.answers, true
}

// Flush forces every pending autosave to disk. Called on shutdown.
func (s *ProgressService) Flush() {
	s.mu.Lock()
	keys := make([]progressKey, 0, len(s.pending))
	for key := range s.pending {
		keys = append(keys, key)
	}
	s.mu.Unlock()

	for _, key := range keys {
		s.flush(key)
	}
}

// SubmitAssignment snapshots the answers into the submission history and
// locks further edits.
func (s *ProgressService) SubmitAssignment(
	ctx context.Context,
	userID int64,
	program string,
	sessionNumber int,
	answers models.AnswerSet,
) (*models.SessionProgress, error) {
	cfg, err := s.validateSession(program, sessionNumber)
	if err != nil {
		return nil, err
	}
	if len(answers) == 0 {
		return nil, ErrInvalidInput
	}
	if err := s.checkUnlocked(ctx, cfg, userID, sessionNumber); err != nil {
		return nil, err
	}

	if _, err := s.progressRepo.GetOrInit(ctx, userID, program, sessionNumber); err != nil {
		return nil, err
	}

	// A queued autosave would race the submission; drop it.
	s.cancelAutosave(progressKey{userID: userID, program: program, session: sessionNumber})

	record, err := s.progressRepo.SubmitAssignment(ctx, userID, program, sessionNumber, models.Submission{
		Answers:     answers,
		SubmittedAt: time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlreadySubmitted
		}
		return nil, err
	}
	return record, nil
}

// CounselorRespond appends the counselor's feedback to the latest submission
// and flags the milestone. Admin only.
func (s *ProgressService) CounselorRespond(
	ctx context.Context,
	actorRole string,
	userID int64,
	program string,
	sessionNumber int,
	response string,
) (*models.SessionProgress, error) {
	if actorRole != models.RoleAdmin {
		return nil, ErrForbidden
	}
	if _, err := s.validateSession(program, sessionNumber); err != nil {
		return nil, err
	}

	record, err := s.progressRepo.Get(ctx, userID, program, sessionNumber)
	if err != nil {
		return nil, err
	}
	if len(record.Submissions) == 0 {
		return nil, ErrInvalidStateTransition
	}

	now := time.Now().UTC()
	submissions := record.Submissions
	submissions[len(submissions)-1].Response = &response
	submissions[len(submissions)-1].RespondedAt = &now

	return s.progressRepo.ReplaceSubmissions(ctx, userID, program, sessionNumber, submissions)
}
