package services

import (
	"testing"
	"time"

	"github.com/ruangjiwa/MindCareBack/internal/models"
)

func TestCombineDateTime(t *testing.T) {
	slot, err := CombineDateTime("2025-01-12", "14:00")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := time.Date(2025, time.January, 12, 14, 0, 0, 0, time.UTC)
	if !slot.Equal(want) {
		t.Errorf("Expected %s, got %s", want.Format(time.RFC3339), slot.Format(time.RFC3339))
	}
	if slot.Location() != time.UTC {
		t.Errorf("Expected UTC location, got %s", slot.Location())
	}
}

func TestCombineDateTimeInvalid(t *testing.T) {
	cases := []struct {
		name string
		date string
		time string
	}{
		{"bad date", "12-01-2025", "14:00"},
		{"bad time", "2025-01-12", "2pm"},
		{"empty date", "", "14:00"},
		{"empty time", "2025-01-12", ""},
	}

	for _, tc := range cases {
		if _, err := CombineDateTime(tc.date, tc.time); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func approvedAt(ts time.Time) *time.Time {
	return &ts
}

func TestSortHistoryApprovedFirst(t *testing.T) {
	base := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)

	appointments := []models.Appointment{
		{ID: 1, Status: models.AppointmentPending, PreferredAt: base, CreatedAt: base},
		{ID: 2, Status: models.AppointmentApproved, PreferredAt: base, ApprovedAt: approvedAt(base.Add(48 * time.Hour)), CreatedAt: base.Add(time.Hour)},
		{ID: 3, Status: models.AppointmentRejected, PreferredAt: base, CreatedAt: base.Add(2 * time.Hour)},
		{ID: 4, Status: models.AppointmentApproved, PreferredAt: base, ApprovedAt: approvedAt(base.Add(24 * time.Hour)), CreatedAt: base.Add(3 * time.Hour)},
	}

	SortHistory(appointments)

	sawNonApproved := false
	for _, appointment := range appointments {
		if appointment.Status != models.AppointmentApproved {
			sawNonApproved = true
			continue
		}
		if sawNonApproved {
			t.Fatalf("approved appointment %d sorted after a non-approved one", appointment.ID)
		}
	}

	if appointments[0].ID != 4 || appointments[1].ID != 2 {
		t.Errorf("approved appointments not ascending by effective time: got %d, %d", appointments[0].ID, appointments[1].ID)
	}
	if appointments[2].ID != 3 || appointments[3].ID != 1 {
		t.Errorf("non-approved appointments not descending by created_at: got %d, %d", appointments[2].ID, appointments[3].ID)
	}
}

func TestSortHistoryApprovedAscendingByEffectiveTime(t *testing.T) {
	base := time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC)

	appointments := []models.Appointment{
		{ID: 1, Status: models.AppointmentApproved, ApprovedAt: approvedAt(base.Add(72 * time.Hour))},
		{ID: 2, Status: models.AppointmentApproved, PreferredAt: base.Add(time.Hour)},
		{ID: 3, Status: models.AppointmentApproved, ApprovedAt: approvedAt(base.Add(10 * time.Hour))},
	}

	SortHistory(appointments)

	for i := 1; i < len(appointments); i++ {
		previous := appointments[i-1].EffectiveTime()
		current := appointments[i].EffectiveTime()
		if previous.After(current) {
			t.Errorf("appointments out of order at index %d: %s after %s", i, previous, current)
		}
	}
}

func TestBucketAppointments(t *testing.T) {
	now := time.Date(2025, time.May, 20, 9, 0, 0, 0, time.UTC)

	appointments := []models.Appointment{
		{ID: 1, Status: models.AppointmentApproved, ApprovedAt: approvedAt(now.Add(3 * time.Hour))},
		{ID: 2, Status: models.AppointmentApproved, ApprovedAt: approvedAt(now.Add(48 * time.Hour))},
		{ID: 3, Status: models.AppointmentPending, PreferredAt: now.Add(24 * time.Hour)},
		{ID: 4, Status: models.AppointmentCompleted, ApprovedAt: approvedAt(now.Add(-24 * time.Hour))},
		{ID: 5, Status: models.AppointmentCancelled, PreferredAt: now},
		{ID: 6, Status: models.AppointmentRejected, PreferredAt: now},
	}

	buckets := BucketAppointments(appointments, now)

	if len(buckets.InProgressToday) != 1 || buckets.InProgressToday[0].ID != 1 {
		t.Errorf("Expected appointment 1 in today bucket, got %+v", buckets.InProgressToday)
	}
	if len(buckets.Upcoming) != 2 {
		t.Errorf("Expected 2 upcoming appointments, got %d", len(buckets.Upcoming))
	}
	if len(buckets.Finished) != 1 || buckets.Finished[0].ID != 4 {
		t.Errorf("Expected appointment 4 finished, got %+v", buckets.Finished)
	}
	if len(buckets.CancelledOrRejected) != 2 {
		t.Errorf("Expected 2 cancelled/rejected appointments, got %d", len(buckets.CancelledOrRejected))
	}
}

func TestEffectiveTimePrefersApprovedSlot(t *testing.T) {
	preferred := time.Date(2025, time.April, 1, 10, 0, 0, 0, time.UTC)
	approved := preferred.Add(26 * time.Hour)

	appointment := models.Appointment{PreferredAt: preferred, ApprovedAt: &approved}
	if !appointment.EffectiveTime().Equal(approved) {
		t.Errorf("Expected approved slot, got %s", appointment.EffectiveTime())
	}

	appointment.ApprovedAt = nil
	if !appointment.EffectiveTime().Equal(preferred) {
		t.Errorf("Expected preferred slot, got %s", appointment.EffectiveTime())
	}
}
