package history

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Identity(t *testing.T) {
	entries := []Entry{
		{Status: "Applied", Date: "2025-01-10T09:00:00Z", Notes: "Application submitted", Stage: "Applied"},
		{Status: "Interview", Date: "2025-02-01T14:30:00Z", Stage: "Interview"},
	}
	assert.Equal(t, entries, Normalize(entries))
}

func TestNormalize_DecodedList(t *testing.T) {
	entries := []Entry{
		{Status: "Applied", Date: "2025-01-10T09:00:00Z"},
		{Status: "Rejected", Date: "2025-03-01T08:00:00Z", Stage: "Interview"},
	}

	raw, err := json.Marshal(entries)
	require.NoError(t, err)

	var v any
	require.NoError(t, json.Unmarshal(raw, &v))
	assert.Equal(t, entries, Normalize(v))
}

func TestNormalize_EncodedString(t *testing.T) {
	entries := []Entry{{Status: "Applied", Date: "2025-01-10T09:00:00Z"}}
	raw, err := json.Marshal(entries)
	require.NoError(t, err)

	// One encoding layer: the value itself is JSON text.
	assert.Equal(t, entries, Normalize(string(raw)))

	// Two layers: the JSON text was itself stored JSON-encoded.
	double, err := json.Marshal(string(raw))
	require.NoError(t, err)
	assert.Equal(t, entries, Normalize(string(double)))
}

func TestNormalize_Degenerate(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{"nil", nil},
		{"not json", "not json"},
		{"empty object", map[string]any{}},
		{"object without status", map[string]any{"notes": "x"}},
		{"number", 42.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, Normalize(tt.raw))
		})
	}
}

func TestNormalize_StopsAfterTwoDecodes(t *testing.T) {
	list, err := json.Marshal([]Entry{{Status: "Applied"}})
	require.NoError(t, err)
	once, err := json.Marshal(string(list))
	require.NoError(t, err)
	twice, err := json.Marshal(string(once))
	require.NoError(t, err)

	// Three text layers is beyond repair; the value is still a string after
	// the second decode and degrades to an empty journal.
	assert.Empty(t, Normalize(string(twice)))
}

func TestNormalize_SingleObjectWrapped(t *testing.T) {
	got := Normalize(map[string]any{"status": "Rejected", "stage": "Interview"})
	require.Len(t, got, 1)
	assert.Equal(t, Entry{Status: "Rejected", Stage: "Interview"}, got[0])
}

func TestNormalize_SkipsNonMappingElements(t *testing.T) {
	got := Normalize([]any{
		map[string]any{"status": "Applied"},
		"garbage",
		map[string]any{"status": "Rejected", "stage": "Interview"},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "Applied", got[0].Status)
	assert.Equal(t, "Rejected", got[1].Status)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []Entry
	}{
		{
			name: "plain list column",
			data: `[{"status":"Applied","date":"2025-01-10T09:00:00Z"}]`,
			want: []Entry{{Status: "Applied", Date: "2025-01-10T09:00:00Z"}},
		},
		{
			name: "legacy single object",
			data: `{"status":"Saved"}`,
			want: []Entry{{Status: "Saved"}},
		},
		{
			name: "text column holding encoded list",
			data: `"[{\"status\":\"Applied\"}]"`,
			want: []Entry{{Status: "Applied"}},
		},
		{
			name: "null column",
			data: `null`,
			want: nil,
		},
		{
			name: "invalid json",
			data: `{{`,
			want: nil,
		},
		{
			name: "empty",
			data: ``,
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decode([]byte(tt.data)))
		})
	}
}
