package syncer

import (
	"testing"
	"vikcal/internal/models"
)

func TestIndexEvents(t *testing.T) {
	events := []models.Event{
		{ID: "a", CalendarID: "c1", TaskID: "1"},
		{ID: "b", CalendarID: "c1"},
		{ID: "c", CalendarID: "c2", TaskID: "2"},
		{ID: "d", CalendarID: "c2", TaskID: "1"},
	}

	idx := IndexEvents(events)

	if len(idx.ByTask) != 2 {
		t.Fatalf("Expected 2 indexed tasks, got %d", len(idx.ByTask))
	}
	if idx.ByTask["1"].ID != "d" {
		t.Errorf("Expected the later event to win, got %s", idx.ByTask["1"].ID)
	}
	if idx.ByTask["2"].ID != "c" {
		t.Errorf("Expected event c for task 2, got %s", idx.ByTask["2"].ID)
	}
	if len(idx.Duplicates) != 1 || idx.Duplicates[0].ID != "a" {
		t.Errorf("Expected event a as duplicate, got %+v", idx.Duplicates)
	}
	if !idx.Complete() {
		t.Error("Expected a fresh index to be complete")
	}
}

func TestIndexEventsEmpty(t *testing.T) {
	idx := IndexEvents(nil)
	if len(idx.ByTask) != 0 || len(idx.Duplicates) != 0 {
		t.Errorf("Expected an empty index, got %+v", idx)
	}

	idx.Unindexed["c1"] = true
	if idx.Complete() {
		t.Error("Expected index with unindexed calendar to be incomplete")
	}
}

func TestIndexEventsSameEventListedTwice(t *testing.T) {
	ev := models.Event{ID: "a", CalendarID: "c1", TaskID: "1"}

	idx := IndexEvents([]models.Event{ev, ev})

	if idx.ByTask["1"].ID != "a" {
		t.Errorf("Expected event a for task 1, got %+v", idx.ByTask["1"])
	}
	if len(idx.Duplicates) != 0 {
		t.Errorf("Expected no duplicates, got %+v", idx.Duplicates)
	}
}

func TestIndexEventsSameIDInOtherCalendar(t *testing.T) {
	idx := IndexEvents([]models.Event{
		{ID: "a", CalendarID: "c1", TaskID: "1"},
		{ID: "a", CalendarID: "c2", TaskID: "1"},
	})

	if idx.ByTask["1"].CalendarID != "c2" {
		t.Errorf("Expected the later calendar to win, got %s", idx.ByTask["1"].CalendarID)
	}
	if len(idx.Duplicates) != 1 || idx.Duplicates[0].CalendarID != "c1" {
		t.Errorf("Expected the c1 copy as duplicate, got %+v", idx.Duplicates)
	}
}
