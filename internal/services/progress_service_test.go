package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ruangjiwa/MindCareBack/internal/models"
)

func TestLookupProgram(t *testing.T) {
	hibrida, ok := LookupProgram(models.ProgramHibrida)
	if !ok {
		t.Fatal("Expected hibrida program config")
	}
	if hibrida.Sessions != 8 || !hibrida.SequentialLock {
		t.Errorf("Unexpected hibrida config: %+v", hibrida)
	}

	spiritual, ok := LookupProgram(models.ProgramSpiritual)
	if !ok {
		t.Fatal("Expected spiritual program config")
	}
	if spiritual.Sessions != 6 || spiritual.SequentialLock {
		t.Errorf("Unexpected spiritual config: %+v", spiritual)
	}

	if _, ok := LookupProgram("unknown"); ok {
		t.Error("Expected lookup miss for unknown program")
	}
}

func TestComputePercentBounds(t *testing.T) {
	hibrida, _ := LookupProgram(models.ProgramHibrida)
	spiritual, _ := LookupProgram(models.ProgramSpiritual)

	if got := ComputePercent(hibrida, nil); got != 0 {
		t.Errorf("Expected 0 for missing record, got %d", got)
	}

	full := &models.SessionProgress{
		Opened:             true,
		MeetingDone:        true,
		GuidanceRead:       true,
		AssignmentDone:     true,
		CounselorResponded: true,
	}
	if got := ComputePercent(hibrida, full); got != 100 {
		t.Errorf("Expected 100 for full hibrida record, got %d", got)
	}
	if got := ComputePercent(spiritual, full); got != 100 {
		t.Errorf("Expected 100 for full spiritual record, got %d", got)
	}
}

func TestComputePercentWeights(t *testing.T) {
	hibrida, _ := LookupProgram(models.ProgramHibrida)

	record := &models.SessionProgress{Opened: true}
	if got := ComputePercent(hibrida, record); got != 20 {
		t.Errorf("Expected 20 after opened, got %d", got)
	}

	record.MeetingDone = true
	if got := ComputePercent(hibrida, record); got != 50 {
		t.Errorf("Expected 50 after meeting, got %d", got)
	}

	record.GuidanceRead = true
	if got := ComputePercent(hibrida, record); got != 80 {
		t.Errorf("Expected 80 after guidance, got %d", got)
	}

	record.AssignmentDone = true
	if got := ComputePercent(hibrida, record); got != 100 {
		t.Errorf("Expected 100 after assignment, got %d", got)
	}

	// Counselor response carries no weight in hibrida.
	record.CounselorResponded = true
	if got := ComputePercent(hibrida, record); got != 100 {
		t.Errorf("Expected 100 clamped, got %d", got)
	}
}

func TestComputePercentMonotonic(t *testing.T) {
	spiritual, _ := LookupProgram(models.ProgramSpiritual)

	steps := []func(*models.SessionProgress){
		func(p *models.SessionProgress) { p.Opened = true },
		func(p *models.SessionProgress) { p.MeetingDone = true },
		func(p *models.SessionProgress) { p.GuidanceRead = true },
		func(p *models.SessionProgress) { p.AssignmentDone = true },
		func(p *models.SessionProgress) { p.CounselorResponded = true },
	}

	record := &models.SessionProgress{}
	previous := ComputePercent(spiritual, record)
	for i, step := range steps {
		step(record)
		current := ComputePercent(spiritual, record)
		if current < previous {
			t.Fatalf("percent decreased at step %d: %d -> %d", i, previous, current)
		}
		if current < 0 || current > 100 {
			t.Fatalf("percent out of range at step %d: %d", i, current)
		}
		previous = current
	}
	if previous != 100 {
		t.Errorf("Expected 100 after all milestones, got %d", previous)
	}
}

func TestNextSessionUnlocked(t *testing.T) {
	hibrida, _ := LookupProgram(models.ProgramHibrida)
	spiritual, _ := LookupProgram(models.ProgramSpiritual)

	if NextSessionUnlocked(hibrida, nil) {
		t.Error("Expected locked without a previous record")
	}
	if NextSessionUnlocked(hibrida, &models.SessionProgress{MeetingDone: true}) {
		t.Error("Expected locked without assignment done")
	}
	if NextSessionUnlocked(hibrida, &models.SessionProgress{AssignmentDone: true}) {
		t.Error("Expected locked without meeting done")
	}
	if !NextSessionUnlocked(hibrida, &models.SessionProgress{MeetingDone: true, AssignmentDone: true}) {
		t.Error("Expected unlocked with both milestones")
	}

	// Spiritual never locks.
	if !NextSessionUnlocked(spiritual, nil) {
		t.Error("Expected spiritual sessions always unlocked")
	}
}

type stubProgressStore struct {
	mu        sync.Mutex
	record    models.SessionProgress
	saved     []models.AnswerSet
	submitted int
}

func (s *stubProgressStore) currentRecord(userID int64, program string, sessionNumber int) *models.SessionProgress {
	record := s.record
	record.UserID = userID
	record.Program = program
	record.SessionNumber = sessionNumber
	return &record
}

func (s *stubProgressStore) GetOrInit(_ context.Context, userID int64, program string, sessionNumber int) (*models.SessionProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentRecord(userID, program, sessionNumber), nil
}

func (s *stubProgressStore) Get(_ context.Context, userID int64, program string, sessionNumber int) (*models.SessionProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentRecord(userID, program, sessionNumber), nil
}

func (s *stubProgressStore) ListForUser(_ context.Context, _ int64, _ string) ([]models.SessionProgress, error) {
	return nil, nil
}

func (s *stubProgressStore) SetMilestone(_ context.Context, userID int64, program string, sessionNumber int, _ string) (*models.SessionProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentRecord(userID, program, sessionNumber), nil
}

func (s *stubProgressStore) SaveAnswers(_ context.Context, _ int64, _ string, _ int, answers models.AnswerSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, answers)
	return nil
}

func (s *stubProgressStore) SubmitAssignment(_ context.Context, userID int64, program string, sessionNumber int, _ models.Submission) (*models.SessionProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted++
	s.record.AssignmentDone = true
	return s.currentRecord(userID, program, sessionNumber), nil
}

func (s *stubProgressStore) ReplaceSubmissions(_ context.Context, userID int64, program string, sessionNumber int, _ []models.Submission) (*models.SessionProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentRecord(userID, program, sessionNumber), nil
}

func (s *stubProgressStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

func (s *stubProgressStore) lastSaved() models.AnswerSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saved) == 0 {
		return nil
	}
	return s.saved[len(s.saved)-1]
}

func waitForSaves(t *testing.T, store *stubProgressStore, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if store.saveCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Expected %d saved answer sets, got %d", want, store.saveCount())
}

func TestAutosaveCoalescesWrites(t *testing.T) {
	store := &stubProgressStore{}
	service := NewProgressService(store, 50*time.Millisecond)

	drafts := []models.AnswerSet{
		{"q1": "first"},
		{"q1": "second"},
		{"q1": "third"},
	}
	for _, draft := range drafts {
		if err := service.AutosaveAnswers(context.Background(), 9, models.ProgramHibrida, 1, draft); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}

	waitForSaves(t, store, 1)
	if got := store.lastSaved()["q1"]; got != "third" {
		t.Errorf("Expected the last draft to win, got %q", got)
	}
}

func TestAutosaveRejectsSubmittedSession(t *testing.T) {
	store := &stubProgressStore{record: models.SessionProgress{AssignmentDone: true}}
	service := NewProgressService(store, time.Hour)

	err := service.AutosaveAnswers(context.Background(), 9, models.ProgramHibrida, 1, models.AnswerSet{"q1": "late"})
	if !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("Expected ErrAlreadySubmitted, got %v", err)
	}

	service.Flush()
	if got := store.saveCount(); got != 0 {
		t.Errorf("Expected no queued write, got %d", got)
	}
}

func TestSubmitAssignmentCancelsQueuedAutosave(t *testing.T) {
	store := &stubProgressStore{}
	service := NewProgressService(store, time.Hour)

	if err := service.AutosaveAnswers(context.Background(), 9, models.ProgramHibrida, 1, models.AnswerSet{"q1": "draft"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	record, err := service.SubmitAssignment(context.Background(), 9, models.ProgramHibrida, 1, models.AnswerSet{"q1": "final"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !record.AssignmentDone {
		t.Error("Expected assignment_done after submission")
	}
	if store.submitted != 1 {
		t.Errorf("Expected 1 submission, got %d", store.submitted)
	}

	// The queued draft must not land after the submission.
	service.Flush()
	if got := store.saveCount(); got != 0 {
		t.Errorf("Expected the queued autosave to be dropped, got %d writes", got)
	}
}

func TestFlushWritesPendingImmediately(t *testing.T) {
	store := &stubProgressStore{}
	service := NewProgressService(store, time.Hour)

	if err := service.AutosaveAnswers(context.Background(), 9, models.ProgramSpiritual, 2, models.AnswerSet{"q2": "draft"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	service.Flush()
	if got := store.saveCount(); got != 1 {
		t.Fatalf("Expected 1 write after flush, got %d", got)
	}
	if got := store.lastSaved()["q2"]; got != "draft" {
		t.Errorf("Expected the pending draft, got %q", got)
	}
}
