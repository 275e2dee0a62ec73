package history

import "time"

const (
	notesSaved     = "Job saved for later"
	notesSubmitted = "Application submitted"
)

// Seed returns the journal entry a freshly created record starts with. The
// stage defaults to the status itself unless the caller supplies an
// override.
func Seed(status, stageOverride string, at time.Time) Entry {
	notes := notesSubmitted
	if status == StatusSaved || status == StatusToApply {
		notes = notesSaved
	}
	stage := stageOverride
	if stage == "" {
		stage = status
	}
	return Entry{
		Status: status,
		Date:   at.Format(time.RFC3339),
		Notes:  notes,
		Stage:  stage,
	}
}

// Transition returns the entry appended when a record moves to a new status.
// For rejections the default stage is the status the application had reached
// before, which is exactly what ResolveStage reads back later.
func Transition(prevStatus, newStatus, stageOverride, notes string, at time.Time) Entry {
	stage := stageOverride
	if stage == "" {
		if newStatus == StatusRejected {
			stage = prevStatus
			if stage == "" {
				stage = StageUnknown
			}
		} else {
			stage = newStatus
		}
	}
	return Entry{
		Status: newStatus,
		Date:   at.Format(time.RFC3339),
		Notes:  notes,
		Stage:  stage,
	}
}

// Correction returns a stage-only correction entry: the status stays put and
// the stage is retroactively fixed. Used on already-rejected records to
// amend which stage the rejection happened at without touching the status
// timeline.
func Correction(currentStatus, stage, notes string, at time.Time) Entry {
	return Entry{
		Status: currentStatus,
		Date:   at.Format(time.RFC3339),
		Notes:  notes,
		Stage:  stage,
	}
}
