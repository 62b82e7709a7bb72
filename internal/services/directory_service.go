package services

import (
	"context"
	"sort"
	"strings"

	"github.com/ruangjiwa/MindCareBack/internal/models"
)

type ProfessionalLister interface {
	ListAll(ctx context.Context) ([]models.ProfessionalProfile, error)
}

// DirectoryService lists professionals and ranks them against a
// participant's stated concerns.
type DirectoryService struct {
	professionalRepo ProfessionalLister
}

func NewDirectoryService(professionalRepo ProfessionalLister) *DirectoryService {
	return &DirectoryService{professionalRepo: professionalRepo}
}

func (s *DirectoryService) ListProfessionals(ctx context.Context) ([]models.ProfessionalProfile, error) {
	return s.professionalRepo.ListAll(ctx)
}

func (s *DirectoryService) GetRecommended(
	ctx context.Context,
	participant *models.ParticipantProfile,
	limit int,
) ([]models.ProfessionalWithScore, error) {
	professionals, err := s.professionalRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	ranked := make([]models.ProfessionalWithScore, 0, len(professionals))
	for _, professional := range professionals {
		ranked = append(ranked, models.ProfessionalWithScore{
			ProfessionalProfile: professional,
			MatchScore:          calculateMatchScore(participant, &professional),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].MatchScore == ranked[j].MatchScore {
			return intValue(ranked[i].ExperienceYears) > intValue(ranked[j].ExperienceYears)
		}
		return ranked[i].MatchScore > ranked[j].MatchScore
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func calculateMatchScore(participant *models.ParticipantProfile, professional *models.ProfessionalProfile) int {
	score := 0
	concernTags := concernAliases(participant)
	specs := normalizeValues(professional.Specializations)

	for _, aliases := range concernTags {
		for _, alias := range aliases {
			if _, ok := specs[alias]; ok {
				score += 40
				break
			}
		}
	}

	if professional.IsVerified {
		score += 20
	}
	if intValue(professional.ExperienceYears) > 3 {
		score += 15
	}
	if professional.LicenseNumber != nil && strings.TrimSpace(*professional.LicenseNumber) != "" {
		score += 10
	}

	return score
}

func concernAliases(participant *models.ParticipantProfile) map[string][]string {
	concerns := sliceValue(nil)
	if participant != nil {
		concerns = sliceValue(participant.Concerns)
	}

	mapped := make(map[string][]string, len(concerns))
	for _, concern := range concerns {
		switch normalize(concern) {
		case "anxiety", "kecemasan":
			mapped["anxiety"] = []string{"anxiety", "kecemasan", "cbt"}
		case "depression", "depresi":
			mapped["depression"] = []string{"depression", "depresi", "cbt"}
		case "stress", "burnout":
			mapped["stress"] = []string{"stress", "burnout", "mindfulness"}
		case "trauma", "ptsd":
			mapped["trauma"] = []string{"trauma", "ptsd"}
		case "spiritual", "budaya":
			mapped["spiritual"] = []string{"spiritual", "budaya", "religius"}
		default:
			if key := normalize(concern); key != "" {
				mapped[key] = []string{key}
			}
		}
	}

	return mapped
}

func normalizeValues(values *[]string) map[string]struct{} {
	normalized := make(map[string]struct{})
	for _, value := range sliceValue(values) {
		if key := normalize(value); key != "" {
			normalized[key] = struct{}{}
		}
	}
	return normalized
}

func normalize(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	value = strings.ReplaceAll(value, " ", "_")
	value = strings.ReplaceAll(value, "-", "_")
	return value
}

func sliceValue(values *[]string) []string {
	if values == nil {
		return nil
	}
	return *values
}

func intValue(value *int) int {
	if value == nil {
		return 0
	}
	return *value
}
