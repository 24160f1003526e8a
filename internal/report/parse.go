package report

import (
	"bytes"
	"encoding/json"
)

// Shape is the top level layout of the decoded model output
type Shape int

const (
	ShapeUnrecognized Shape = iota
	// ShapeBareArray is a top level array of findings
	ShapeBareArray
	// ShapeWrappedObject is an object holding the findings in an array field
	ShapeWrappedObject
)

// wrapperField is preferred over any other array field of a wrapped object
const wrapperField = "vulnerabilities"

func (s Shape) String() string {
	switch s {
	case ShapeBareArray:
		return "bare_array"
	case ShapeWrappedObject:
		return "wrapped_object"
	default:
		return "unrecognized"
	}
}

// Parse decodes sanitized model output into raw findings.
// Anything that cannot be decoded yields no findings.
func Parse(text string) []RawFinding {
	_, findings := Decode(text)
	return findings
}

// Decode classifies text and returns the findings it carries.
func Decode(text string) (Shape, []RawFinding) {
	data := bytes.TrimSpace([]byte(text))
	if len(data) == 0 || !json.Valid(data) {
		return ShapeUnrecognized, nil
	}

	switch data[0] {
	case '[':
		return ShapeBareArray, decodeEntries(data)
	case '{':
		arr := wrappedArray(data)
		if arr == nil {
			return ShapeUnrecognized, nil
		}
		return ShapeWrappedObject, decodeEntries(arr)
	default:
		return ShapeUnrecognized, nil
	}
}

// decodeEntries splits a JSON array. Entries that are not objects are kept as
// nil so the validator can drop them.
func decodeEntries(arr []byte) []RawFinding {
	var items []json.RawMessage
	if err := json.Unmarshal(arr, &items); err != nil {
		return nil
	}
	findings := make([]RawFinding, 0, len(items))
	for _, item := range items {
		var entry RawFinding
		if isKind(item, '{') {
			if err := json.Unmarshal(item, &entry); err != nil {
				entry = nil
			}
		}
		findings = append(findings, entry)
	}
	return findings
}

// wrappedArray returns the "vulnerabilities" array of obj, or else its first
// array valued field in document order, or nil.
func wrappedArray(obj []byte) json.RawMessage {
	dec := json.NewDecoder(bytes.NewReader(obj))
	if _, err := dec.Token(); err != nil {
		return nil
	}

	var first json.RawMessage
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil
		}
		key, _ := tok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil
		}
		if !isKind(value, '[') {
			continue
		}
		if key == wrapperField {
			return value
		}
		if first == nil {
			first = value
		}
	}
	return first
}

func isKind(raw json.RawMessage, delim byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == delim
}
