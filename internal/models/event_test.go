package models

import (
	"testing"
	"time"
)

func TestNewEventPayload(t *testing.T) {
	task := Task{
		ID:      42,
		Title:   "Report",
		Due:     NewDate(2024, time.March, 1),
		Updated: time.Date(2024, 2, 20, 10, 0, 0, 0, time.UTC),
	}

	p := NewEventPayload(task, "https://vikunja.example/")
	if p.Summary != "Report" {
		t.Errorf("Expected summary 'Report', got '%s'", p.Summary)
	}
	if p.Start.String() != "2024-03-01" || p.End.String() != "2024-03-02" {
		t.Errorf("Expected 2024-03-01..2024-03-02, got %s..%s", p.Start, p.End)
	}
	if p.TaskID != "42" {
		t.Errorf("Expected task id '42', got '%s'", p.TaskID)
	}
	if p.Transparency != TransparencyOpaque {
		t.Errorf("Expected opaque event, got '%s'", p.Transparency)
	}
	if p.Description != "https://vikunja.example/tasks/42" {
		t.Errorf("Unexpected description for empty task description: %q", p.Description)
	}
}

func TestTaskDescription(t *testing.T) {
	task := Task{ID: 7, Description: "  call the vendor \n"}
	got := TaskDescription(task, "https://vikunja.example")
	want := "call the vendor\n\nhttps://vikunja.example/tasks/7"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestDateAddDaysAcrossMonth(t *testing.T) {
	d := NewDate(2024, time.February, 29)
	if got := d.AddDays(1).String(); got != "2024-03-01" {
		t.Errorf("Expected 2024-03-01, got %s", got)
	}
}

func TestNewDateFromTimeKeepsLocalDay(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	d := NewDateFromTime(time.Date(2024, 3, 1, 0, 0, 0, 0, loc))
	if d.String() != "2024-03-01" {
		t.Errorf("Expected 2024-03-01, got %s", d)
	}
}
