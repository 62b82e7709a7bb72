package services

import (
	"testing"

	"github.com/ruangjiwa/MindCareBack/internal/models"
)

func strPtr(s string) *string {
	return &s
}

func TestCanAccess(t *testing.T) {
	approved := &models.Enrollment{
		Status: models.EnrollmentApproved,
		Role:   strPtr(models.EnrollmentRoleIntervention),
	}
	pending := &models.Enrollment{
		Status: models.EnrollmentPending,
		Role:   strPtr(models.EnrollmentRoleIntervention),
	}
	rejected := &models.Enrollment{
		Status: models.EnrollmentRejected,
		Role:   strPtr(models.EnrollmentRoleIntervention),
	}

	cases := []struct {
		name          string
		authenticated bool
		superAdmin    bool
		enrollment    *models.Enrollment
		requiredRole  string
		want          bool
	}{
		{"unauthenticated", false, false, approved, models.EnrollmentRoleIntervention, false},
		{"unauthenticated super admin", false, true, nil, models.EnrollmentRoleIntervention, false},
		{"super admin without enrollment", true, true, nil, models.EnrollmentRoleIntervention, true},
		{"approved with matching role", true, false, approved, models.EnrollmentRoleIntervention, true},
		{"approved with wrong role", true, false, approved, models.EnrollmentRolePsychoeducation, false},
		{"pending", true, false, pending, models.EnrollmentRoleIntervention, false},
		{"rejected", true, false, rejected, models.EnrollmentRoleIntervention, false},
		{"no enrollment", true, false, nil, models.EnrollmentRoleIntervention, false},
	}

	for _, tc := range cases {
		got := CanAccess(tc.authenticated, tc.superAdmin, tc.enrollment, tc.requiredRole)
		if got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestCanAccessNilRole(t *testing.T) {
	enrollment := &models.Enrollment{Status: models.EnrollmentApproved}
	if CanAccess(true, false, enrollment, models.EnrollmentRoleIntervention) {
		t.Error("Expected no access when the enrollment has no role assigned")
	}
}
