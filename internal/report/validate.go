package report

const (
	DefaultDescription    = "No description provided"
	DefaultRecommendation = "No recommendation provided"
)

// Validate keeps the entries carrying both a type and a severity, in input
// order, and fills in the optional fields.
func Validate(raw []RawFinding) []Finding {
	findings := make([]Finding, 0, len(raw))
	for _, entry := range raw {
		typ, ok := entry.text("type")
		if !ok {
			continue
		}
		severity, ok := entry.text("severity")
		if !ok {
			continue
		}

		f := Finding{
			Type:           typ,
			Severity:       Severity(severity),
			Description:    DefaultDescription,
			Recommendation: DefaultRecommendation,
		}
		if d, ok := entry.text("description"); ok {
			f.Description = d
		}
		if r, ok := entry.text("recommendation"); ok {
			f.Recommendation = r
		}
		findings = append(findings, f)
	}
	return findings
}
