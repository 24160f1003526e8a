package report

import (
	"fmt"
	"strings"
)

// NoFindings is rendered for an empty report. It is also what callers show
// when the scan failed, see scanner.FailOpen.
const NoFindings = "No security vulnerabilities detected."

const findingTemplate = "- Vulnerability type: %s\n  Severity: %s\n  Description: %s\n  Recommendation: %s"

// Report is the ordered outcome of one scan
type Report struct {
	Findings []Finding `json:"findings"`
}

// Empty is the report with no findings
func Empty() Report {
	return Report{}
}

// FromOutput runs model output text through sanitize, parse, validate and rank.
func FromOutput(text string) Report {
	return Report{Findings: Rank(Validate(Parse(Sanitize(text))))}
}

// FromResponse extracts the model text from resp and builds its report.
func FromResponse(env Envelope, resp ProviderResponse) (Report, error) {
	text, err := Extract(env, resp)
	if err != nil {
		return Report{}, err
	}
	return FromOutput(text), nil
}

func (r Report) String() string {
	return Format(r.Findings)
}

// Format renders findings as they are stored in chat messages.
func Format(findings []Finding) string {
	if len(findings) == 0 {
		return NoFindings
	}
	blocks := make([]string, 0, len(findings))
	for _, f := range findings {
		blocks = append(blocks, fmt.Sprintf(findingTemplate, f.Type, f.Severity, f.Description, f.Recommendation))
	}
	return strings.Join(blocks, "\n")
}
