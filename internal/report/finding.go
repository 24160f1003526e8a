package report

import (
	"bytes"
	"encoding/json"
)

// Severity is the severity literal reported by the model, kept verbatim for rendering.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

// unknownRank sorts any unrecognized severity after Low
const unknownRank = 999

// Rank returns the sort key of the severity. Matching is case sensitive.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return unknownRank
	}
}

// Finding is a validated vulnerability entry
type Finding struct {
	Type           string   `json:"type"`
	Severity       Severity `json:"severity"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
}

// RawFinding is one decoded entry of the model output whose shape is not yet
// known. A nil RawFinding stands for an entry that was not a JSON object.
type RawFinding map[string]json.RawMessage

// text returns the value of key rendered as text. Strings are unquoted,
// other scalars keep their JSON literal. Missing keys and null are absent.
func (r RawFinding) text(key string) (string, bool) {
	raw, ok := r[key]
	if !ok {
		return "", false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	if raw[0] != '"' {
		return string(raw), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
