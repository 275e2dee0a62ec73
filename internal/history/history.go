// Package history maintains the append-only status journal kept on every job
// application and reconstructs rejection stages from it. The journal column
// has gone through several storage formats over the tracker's lifetime, so
// everything read from the database passes through Normalize before any other
// code sees it.
package history

import "encoding/json"

// Status labels with special meaning to the journal logic. Statuses are an
// open set stored as free text; anything outside this list is carried
// through untouched.
const (
	StatusSaved    = "Saved"
	StatusToApply  = "To Apply"
	StatusApplied  = "Applied"
	StatusRejected = "Rejected"
)

// Stage labels produced or recognized by the resolver.
const (
	StageUnknown      = "Unknown stage"
	StageNotSpecified = "Not specified"
	StageCVScreening  = "CV Screening"

	// Older records spell the screening stage differently; the resolver
	// canonicalizes it to StageCVScreening.
	stageLegacyCVScreening = "CV / Resume Screening"
)

// Entry is one recorded status transition. Date is RFC 3339 text when
// persisted; Notes and Stage are optional. For "Rejected" entries Stage
// records the pipeline step the application had reached when it was
// rejected.
type Entry struct {
	Status string `json:"status"`
	Date   string `json:"date,omitempty"`
	Notes  string `json:"notes,omitempty"`
	Stage  string `json:"stage,omitempty"`
}

// Normalize coerces an arbitrarily-shaped stored journal value into an
// ordered entry slice. Accepted shapes: an entry sequence (passed through),
// a single mapping with a non-empty status (wrapped), a JSON-encoded string,
// a doubly-encoded string, or nil. Anything malformed degrades to an empty
// journal; historical data must never make a read fail.
func Normalize(raw any) []Entry {
	v := raw
	// Text values may carry one extra encoding layer, so decode at most
	// twice and stop as soon as the value is no longer a string.
	for i := 0; i < 2; i++ {
		s, ok := v.(string)
		if !ok {
			break
		}
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			break
		}
		v = decoded
	}

	switch t := v.(type) {
	case []Entry:
		return t
	case []any:
		entries := make([]Entry, 0, len(t))
		for _, el := range t {
			if m, ok := el.(map[string]any); ok {
				entries = append(entries, entryFromMap(m))
			}
		}
		return entries
	case map[string]any:
		e := entryFromMap(t)
		if e.Status == "" {
			return nil
		}
		return []Entry{e}
	case Entry:
		if t.Status == "" {
			return nil
		}
		return []Entry{t}
	default:
		return nil
	}
}

// Decode interprets a raw status_history column value. It is the single
// point where the storage variant is resolved; callers only ever see
// []Entry.
func Decode(data []byte) []Entry {
	if len(data) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	return Normalize(v)
}

func entryFromMap(m map[string]any) Entry {
	return Entry{
		Status: stringField(m, "status"),
		Date:   stringField(m, "date"),
		Notes:  stringField(m, "notes"),
		Stage:  stringField(m, "stage"),
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
