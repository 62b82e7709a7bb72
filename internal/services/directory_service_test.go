package services

import (
	"context"
	"testing"

	"github.com/ruangjiwa/MindCareBack/internal/models"
)

type stubProfessionalLister struct {
	profiles []models.ProfessionalProfile
	err      error
}

func (s *stubProfessionalLister) ListAll(ctx context.Context) ([]models.ProfessionalProfile, error) {
	return s.profiles, s.err
}

func intPtr(v int) *int {
	return &v
}

func strSlicePtr(values ...string) *[]string {
	return &values
}

func TestCalculateMatchScore(t *testing.T) {
	participant := &models.ParticipantProfile{
		Concerns: strSlicePtr("anxiety", "stress"),
	}

	professional := &models.ProfessionalProfile{
		Specializations: strSlicePtr("Kecemasan", "Mindfulness"),
		IsVerified:      true,
		ExperienceYears: intPtr(5),
		LicenseNumber:   strPtr("PSI-1234"),
	}

	// Two concern matches (40 each) + verified 20 + experience 15 + license 10.
	if got := calculateMatchScore(participant, professional); got != 125 {
		t.Errorf("Expected score 125, got %d", got)
	}
}

func TestCalculateMatchScoreNoSignals(t *testing.T) {
	professional := &models.ProfessionalProfile{}
	if got := calculateMatchScore(nil, professional); got != 0 {
		t.Errorf("Expected score 0, got %d", got)
	}

	blank := &models.ProfessionalProfile{LicenseNumber: strPtr("   ")}
	if got := calculateMatchScore(nil, blank); got != 0 {
		t.Errorf("Expected blank license to score 0, got %d", got)
	}
}

func TestGetRecommendedOrdersByScore(t *testing.T) {
	lister := &stubProfessionalLister{
		profiles: []models.ProfessionalProfile{
			{UserID: 1},
			{UserID: 2, IsVerified: true, ExperienceYears: intPtr(10)},
			{UserID: 3, Specializations: strSlicePtr("depresi"), IsVerified: true},
		},
	}
	service := NewDirectoryService(lister)

	participant := &models.ParticipantProfile{Concerns: strSlicePtr("depression")}
	ranked, err := service.GetRecommended(context.Background(), participant, 2)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(ranked) != 2 {
		t.Fatalf("Expected limit of 2, got %d", len(ranked))
	}
	if ranked[0].UserID != 3 {
		t.Errorf("Expected professional 3 first, got %d", ranked[0].UserID)
	}
	if ranked[1].UserID != 2 {
		t.Errorf("Expected professional 2 second, got %d", ranked[1].UserID)
	}
	if ranked[0].MatchScore <= ranked[1].MatchScore {
		t.Errorf("Expected strictly ordered scores: %d vs %d", ranked[0].MatchScore, ranked[1].MatchScore)
	}
}
