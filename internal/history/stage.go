package history

// Stored stage labels that say nothing about the pipeline step a rejection
// happened at. A rejection entry carrying one of these is backfilled from
// the entries preceding it.
var uninformativeStages = map[string]bool{
	StatusRejected: true,
	StatusSaved:    true,
	StatusToApply:  true,
	StageUnknown:   true,
}

// Statuses skipped during backfill: bookkeeping states, not pipeline steps
// the application actually reached.
var backfillSkip = map[string]bool{
	StatusRejected: true,
	StatusSaved:    true,
	StatusToApply:  true,
}

// ResolveStage reports the pipeline stage at which the latest rejection in
// the journal occurred. Earlier rejections (from reopened applications) are
// ignored. ok is false when the journal holds no rejection entry.
//
// Both the stage filter and the statistics histogram go through this
// function, so their notion of "rejected at stage X" can never drift apart.
func ResolveStage(entries []Entry) (stage string, ok bool) {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Status != StatusRejected {
			continue
		}

		label := entries[i].Stage
		if label == "" || uninformativeStages[label] {
			label = ""
			for j := i - 1; j >= 0; j-- {
				prev := entries[j]
				if prev.Status != "" && !backfillSkip[prev.Status] {
					label = prev.Status
					break
				}
			}
			if label == "" {
				label = StageNotSpecified
			}
		}

		// A rejection recorded with itself as the stage means it came
		// right after applying.
		if label == StatusRejected {
			label = StatusApplied
		}
		if label == StatusApplied || label == stageLegacyCVScreening {
			label = StageCVScreening
		}
		if label == "" {
			label = StageNotSpecified
		}
		return label, true
	}
	return "", false
}

// ResolveStageRaw normalizes a stored journal value and resolves its
// rejection stage in one step.
func ResolveStageRaw(raw any) (string, bool) {
	return ResolveStage(Normalize(raw))
}
