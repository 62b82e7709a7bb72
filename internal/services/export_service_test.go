package services

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/ruangjiwa/MindCareBack/internal/models"
)

func TestEnrollmentCSVRowQuoting(t *testing.T) {
	group := `Group "A", morning`
	enrollment := &models.Enrollment{
		ID:        7,
		UserID:    12,
		Program:   models.ProgramHibrida,
		Role:      strPtr(models.EnrollmentRoleIntervention),
		GroupName: &group,
		Status:    models.EnrollmentApproved,
		CreatedAt: time.Date(2025, time.January, 5, 8, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(enrollmentCSVRow(enrollment, "a,b@example.com")); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	writer.Flush()

	line := strings.TrimRight(buf.String(), "\n")
	want := `7,12,"a,b@example.com",hibrida,intervention,"Group ""A"", morning",approved,2025-01-05T08:00:00Z,`
	if line != want {
		t.Errorf("Expected %s, got %s", want, line)
	}

	reader := csv.NewReader(strings.NewReader(buf.String()))
	fields, err := reader.Read()
	if err != nil {
		t.Fatalf("Round trip failed: %v", err)
	}
	if fields[5] != group {
		t.Errorf("Expected group restored as %q, got %q", group, fields[5])
	}
}

func TestEnrollmentCSVRowEmptyOptionals(t *testing.T) {
	enrollment := &models.Enrollment{
		ID:        1,
		UserID:    2,
		Program:   models.ProgramSpiritual,
		Status:    models.EnrollmentPending,
		CreatedAt: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
	}

	row := enrollmentCSVRow(enrollment, "")
	if len(row) != len(enrollmentCSVHeader) {
		t.Fatalf("Expected %d columns, got %d", len(enrollmentCSVHeader), len(row))
	}
	if row[4] != "" || row[5] != "" || row[8] != "" {
		t.Errorf("Expected empty optional columns, got %v", row)
	}
}
