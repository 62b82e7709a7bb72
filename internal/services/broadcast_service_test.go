package services

import (
	"testing"

	"github.com/ruangjiwa/MindCareBack/internal/models"
)

func TestVisibleTo(t *testing.T) {
	cases := []struct {
		name        string
		recipients  []string
		accountType string
		isAdmin     bool
		want        bool
	}{
		{"all matches everyone", []string{models.AudienceAll}, models.AccountTypeGeneral, false, true},
		{"matching account type", []string{models.AccountTypeStudent}, models.AccountTypeStudent, false, true},
		{"non-matching account type", []string{models.AccountTypeStudent}, models.AccountTypeGeneral, false, false},
		{"professional tag hidden from general", []string{models.AccountTypeProfessional}, models.AccountTypeGeneral, false, false},
		{"professional tag visible to admin", []string{models.AccountTypeProfessional}, models.AccountTypeGeneral, true, true},
		{"student tag not widened for admin", []string{models.AccountTypeStudent}, models.AccountTypeGeneral, true, false},
		{"multiple tags", []string{models.AccountTypeStudent, models.AudienceAll}, models.AccountTypeGeneral, false, true},
		{"empty recipients", nil, models.AccountTypeGeneral, false, false},
	}

	for _, tc := range cases {
		broadcast := &models.Broadcast{Recipients: tc.recipients}
		got := VisibleTo(broadcast, tc.accountType, tc.isAdmin)
		if got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
