package reminders

import "time"

// ScanOutcome classifies what happened to one (assignment, offset) pair during a scan.
type ScanOutcome string

const (
	OutcomeScheduled     ScanOutcome = "scheduled"
	OutcomeAlreadyExists ScanOutcome = "already_exists"
	OutcomeStale         ScanOutcome = "stale"
	OutcomeFailed        ScanOutcome = "failed"
)

// ScanItem is the result for one reminder the scan considered.
type ScanItem struct {
	AssignmentID string      `json:"assignmentId"`
	DaysBefore   int         `json:"daysBefore"`
	ScheduledFor time.Time   `json:"scheduledFor"`
	Outcome      ScanOutcome `json:"outcome"`
	Error        string      `json:"error,omitempty"`
	Err          error       `json:"-"`
}

// ScanSummary accumulates per-item results; failures are data, not aborts.
type ScanSummary struct {
	AssignmentsExamined int        `json:"assignmentsExamined"`
	Scheduled           int        `json:"scheduled"`
	Cancelled           int64      `json:"cancelled,omitempty"`
	Items               []ScanItem `json:"items"`
}

func (s *ScanSummary) add(items ...ScanItem) {
	for _, it := range items {
		if it.Outcome == OutcomeScheduled {
			s.Scheduled++
		}
		s.Items = append(s.Items, it)
	}
}

// Failures returns the items that could not be scheduled.
func (s *ScanSummary) Failures() []ScanItem {
	var out []ScanItem
	for _, it := range s.Items {
		if it.Outcome == OutcomeFailed {
			out = append(out, it)
		}
	}
	return out
}

// ProcessOutcome is the result of executing one reminder job.
type ProcessOutcome string

const (
	ProcessMissing   ProcessOutcome = "missing"
	ProcessNoop      ProcessOutcome = "noop"
	ProcessStale     ProcessOutcome = "stale"
	ProcessCancelled ProcessOutcome = "cancelled"
	ProcessSent      ProcessOutcome = "sent"
	ProcessRetrying  ProcessOutcome = "retrying"
	ProcessFailed    ProcessOutcome = "failed"
)
