package syncer

import "vikcal/internal/models"

// Index maps task identifiers to the remote event carrying them.
type Index struct {
	ByTask map[string]models.Event
	// Duplicates are events whose task id was claimed again by a later event.
	Duplicates []models.Event
	// Unindexed holds the ids of calendars whose events could not be listed.
	Unindexed map[string]bool
}

// Complete reports whether every managed calendar was indexed.
func (idx Index) Complete() bool {
	return len(idx.Unindexed) == 0
}

// IndexEvents builds the task index from already fetched events, in enumeration order.
// Events without a task id are not ours and are ignored. When a task id appears twice
// the later event wins and the earlier one is kept as a duplicate. An event listed
// twice is indexed once.
func IndexEvents(events []models.Event) Index {
	idx := Index{
		ByTask:    make(map[string]models.Event),
		Unindexed: make(map[string]bool),
	}
	for _, e := range events {
		if e.TaskID == "" {
			continue
		}
		if prev, ok := idx.ByTask[e.TaskID]; ok {
			if prev.ID == e.ID && prev.CalendarID == e.CalendarID {
				// Same event listed twice across a page boundary.
				continue
			}
			idx.Duplicates = append(idx.Duplicates, prev)
		}
		idx.ByTask[e.TaskID] = e
	}
	return idx
}
