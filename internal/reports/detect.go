package reports

import (
	"strings"

	"coopdash/internal/config"
)

type DetectResult struct {
	IsReport bool
	Score    float64
	Reason   string
}

const (
	subjectWeight    = 0.5
	sourceWeight     = 0.3
	sourceNameWeight = 0.4
	reportThreshold  = 0.65
)

// DetectSalesReport scores a mail by report keywords in its subject and source names.
// A mail without a usable source is never a report.
func DetectSalesReport(subject string, sources []string, rules config.ReportRules) DetectResult {
	keywords := lowerAll(rules.SubjectKeywords)

	score := 0.0
	if config.ContainsAny(strings.ToLower(subject), keywords) {
		score += subjectWeight
	}
	if len(sources) == 0 {
		return DetectResult{Score: score, Reason: "no_attachment"}
	}
	score += sourceWeight
	for _, name := range sources {
		if config.ContainsAny(strings.ToLower(name), keywords) {
			score += sourceNameWeight
			break
		}
	}
	if score > 1 {
		score = 1
	}

	isReport := score >= reportThreshold
	reason := "rules_negative"
	if isReport {
		reason = "rules_positive"
	}
	return DetectResult{IsReport: isReport, Score: score, Reason: reason}
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.ToLower(v))
	}
	return out
}
