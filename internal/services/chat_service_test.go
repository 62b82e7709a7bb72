package services

import (
	"testing"
	"time"
)

func TestAppendReader(t *testing.T) {
	readBy := []int64{1}

	updated, changed := AppendReader(readBy, 2, 1)
	if !changed {
		t.Fatal("Expected read set to change")
	}
	if len(updated) != 2 || updated[0] != 1 || updated[1] != 2 {
		t.Errorf("Expected [1 2], got %v", updated)
	}

	again, changed := AppendReader(updated, 2, 1)
	if changed {
		t.Error("Expected no change on repeated read")
	}
	if len(again) != 2 {
		t.Errorf("Expected stable set, got %v", again)
	}
}

func TestAppendReaderSkipsSender(t *testing.T) {
	updated, changed := AppendReader([]int64{5}, 5, 5)
	if changed {
		t.Error("Expected no change when reader is the sender")
	}
	if len(updated) != 1 {
		t.Errorf("Expected unchanged set, got %v", updated)
	}
}

func TestFormatChatTimestamp(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	ts := time.Date(2025, time.February, 3, 14, 30, 0, 0, loc)

	if got := FormatChatTimestamp(ts); got != "2025-02-03T07:30:00Z" {
		t.Errorf("Expected UTC RFC3339, got %s", got)
	}
}
