package syncer

import "time"

// Operation kinds recorded in a Report. Event operations reuse the ActionKind names.
const (
	OpCreateCalendar = "create_calendar"
	OpShareCalendar  = "share_calendar"
)

// Operation is one mutating call attempted during a cycle.
type Operation struct {
	Kind       string
	TaskID     string
	CalendarID string
	EventID    string
	Err        string // Empty on success
}

// Report summarizes one sync cycle.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	DryRun     bool

	Tasks          int // Uncompleted tasks considered
	Created        int
	Updated        int
	Moved          int
	Deleted        int
	Skipped        int
	Failed         int
	CleanupSkipped bool

	Operations []Operation
}

func (r *Report) add(op Operation) {
	if op.Err != "" {
		r.Failed++
	}
	r.Operations = append(r.Operations, op)
}

// Mutations is the number of successful mutating calls.
func (r *Report) Mutations() int {
	n := 0
	for _, op := range r.Operations {
		if op.Err == "" {
			n++
		}
	}
	return n
}

func (r *Report) count(kind ActionKind) {
	switch kind {
	case ActionCreate:
		r.Created++
	case ActionUpdate:
		r.Updated++
	case ActionMove:
		r.Moved++
	case ActionDelete:
		r.Deleted++
	}
}
