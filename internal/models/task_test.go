package models

import (
	"testing"
	"time"
)

func TestPriorityRank(t *testing.T) {
	t.Parallel()

	if PriorityHigh.Rank() <= PriorityMedium.Rank() ||
		PriorityMedium.Rank() <= PriorityLow.Rank() ||
		PriorityLow.Rank() <= PriorityNone.Rank() {
		t.Errorf("priority ranks out of order: none=%d low=%d medium=%d high=%d",
			PriorityNone.Rank(), PriorityLow.Rank(), PriorityMedium.Rank(), PriorityHigh.Rank())
	}
}

func TestTaskHasTag(t *testing.T) {
	t.Parallel()

	task := &Task{Tags: []string{"Work", "errands"}}

	tests := []struct {
		tag  string
		want bool
	}{
		{"work", true},
		{"WORK", true},
		{"Work", true},
		{"errands", true},
		{"home", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := task.HasTag(tt.tag); got != tt.want {
			t.Errorf("HasTag(%q) = %v, want %v", tt.tag, got, tt.want)
		}
	}
}

func TestTaskClone(t *testing.T) {
	t.Parallel()

	due := Date{Year: 2025, Month: time.June, Day: 1}
	at := TimeOfDay{Hour: 9, Minute: 0}
	original := &Task{
		ID:      1,
		Title:   "water plants",
		Tags:    []string{"home"},
		DueDate: &due,
		DueTime: &at,
	}

	clone := original.Clone()
	clone.Tags[0] = "garden"
	clone.DueDate.Day = 15
	clone.DueTime.Hour = 18

	if original.Tags[0] != "home" {
		t.Error("clone shares the tags slice with the original")
	}
	if original.DueDate.Day != 1 {
		t.Error("clone shares the due date with the original")
	}
	if original.DueTime.Hour != 9 {
		t.Error("clone shares the due time with the original")
	}
}
