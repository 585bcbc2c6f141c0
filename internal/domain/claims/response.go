package claims

import (
	"fmt"

	"github.com/claimgate/claimgate/internal/nphies"
	"github.com/claimgate/claimgate/internal/platform/fhir"
)

// Outcome is the raw processing outcome of a claim response.
type Outcome string

const (
	OutcomeComplete Outcome = "complete"
	OutcomePartial  Outcome = "partial"
	OutcomeQueued   Outcome = "queued"
	OutcomeError    Outcome = "error"
)

// Adjudication is the payer's decision classification, distinct from the
// raw processing outcome.
type Adjudication string

const (
	AdjudicationApproved Adjudication = "approved"
	AdjudicationPartial  Adjudication = "partial"
	AdjudicationDenied   Adjudication = "denied"
	AdjudicationPended   Adjudication = "pended"
	AdjudicationRejected Adjudication = "rejected"
)

// Issue is one structured issue from a response's issue list.
type Issue struct {
	Severity    string `json:"severity"`
	Code        string `json:"code"`
	Diagnostics string `json:"diagnostics,omitempty"`
}

// IsFailure reports whether the issue's severity flips a result to failure.
// Informational and warning issues are preserved but do not.
func (i Issue) IsFailure() bool {
	return i.Severity == fhir.IssueSeverityError || i.Severity == fhir.IssueSeverityFatal
}

// ClaimOutcome is the normalized result of parsing one claim response.
type ClaimOutcome struct {
	Outcome      Outcome      `json:"outcome"`
	Adjudication Adjudication `json:"adjudication,omitempty"`
	Disposition  string       `json:"disposition,omitempty"`
	Issues       []Issue      `json:"issues,omitempty"`
	Success      bool         `json:"success"`
}

// BatchOutcome is the normalized result of parsing a batch response.
type BatchOutcome struct {
	Results   []*ClaimOutcome `json:"results"`
	Issues    []Issue         `json:"issues,omitempty"`
	HasQueued bool            `json:"has_queued"`
	HasPended bool            `json:"has_pended"`
	Success   bool            `json:"success"`
}

// ParseResponse classifies a single claim response envelope. It never
// returns an error: malformed input yields an error-classified outcome with
// a synthetic issue so batch parsing can continue for sibling entries.
func ParseResponse(bundle map[string]interface{}) *ClaimOutcome {
	entries := responseEntries(bundle)
	if entries == nil {
		return parseFailure("response is not a bundle with entries")
	}

	var issues []Issue
	for _, resource := range entries {
		if resourceType(resource) == "OperationOutcome" {
			issues = append(issues, outcomeIssues(resource)...)
		}
	}
	for _, issue := range issues {
		if issue.IsFailure() {
			return &ClaimOutcome{Outcome: OutcomeError, Issues: issues, Success: false}
		}
	}

	for _, resource := range entries {
		if resourceType(resource) == "ClaimResponse" {
			result := claimOutcomeFromResource(resource)
			result.Issues = append(issues, result.Issues...)
			return result
		}
	}

	result := parseFailure("no claim-response resource in envelope")
	result.Issues = append(issues, result.Issues...)
	return result
}

// claimOutcomeFromResource classifies one ClaimResponse resource. The raw
// outcome is read directly from the resource; the adjudication outcome comes
// from its dedicated extension, except for queued responses where it stays
// unset until a later poll.
func claimOutcomeFromResource(resource map[string]interface{}) *ClaimOutcome {
	result := &ClaimOutcome{}
	switch raw, _ := resource["outcome"].(string); raw {
	case string(OutcomeComplete):
		result.Outcome = OutcomeComplete
	case string(OutcomePartial):
		result.Outcome = OutcomePartial
	case string(OutcomeQueued):
		result.Outcome = OutcomeQueued
	default:
		result.Outcome = OutcomeError
	}

	result.Disposition, _ = resource["disposition"].(string)

	if result.Outcome != OutcomeQueued {
		if ext, ok := fhir.FindExtension(resource, nphies.ExtAdjudicationOutcome); ok {
			if ext.ValueCodeableConcept != nil && len(ext.ValueCodeableConcept.Coding) > 0 {
				result.Adjudication = Adjudication(ext.ValueCodeableConcept.Coding[0].Code)
			} else if ext.ValueCode != "" {
				result.Adjudication = Adjudication(ext.ValueCode)
			}
		}
	}

	switch result.Outcome {
	case OutcomeComplete, OutcomePartial, OutcomeQueued:
		result.Success = result.Adjudication != AdjudicationRejected
	default:
		result.Success = false
	}
	return result
}

// ParseBatchResponse classifies a batch response envelope. A top-level issue
// list with error or fatal severity short-circuits the whole batch; otherwise
// every nested claim response, whether wrapped in its own bundle or inlined,
// contributes one result.
func ParseBatchResponse(bundle map[string]interface{}) *BatchOutcome {
	out := &BatchOutcome{Success: true}

	entries := responseEntries(bundle)
	if entries == nil {
		out.Success = false
		out.Issues = append(out.Issues, syntheticIssue("response is not a bundle with entries"))
		return out
	}

	for _, resource := range entries {
		if resourceType(resource) != "OperationOutcome" {
			continue
		}
		issues := outcomeIssues(resource)
		out.Issues = append(out.Issues, issues...)
		for _, issue := range issues {
			if issue.IsFailure() {
				out.Success = false
				return out
			}
		}
	}

	for _, resource := range entries {
		switch resourceType(resource) {
		case "Bundle":
			out.Results = append(out.Results, ParseResponse(resource))
		case "ClaimResponse":
			out.Results = append(out.Results, claimOutcomeFromResource(resource))
		}
	}

	for _, r := range out.Results {
		if r.Outcome == OutcomeQueued {
			out.HasQueued = true
		}
		if r.Adjudication == AdjudicationPended {
			out.HasPended = true
		}
		for _, issue := range r.Issues {
			if issue.IsFailure() {
				out.Success = false
			}
		}
	}
	return out
}

// ValidateResponseShape checks the structure of a returned envelope without
// classifying it: correct resource and bundle type, a MessageHeader first,
// the expected response event code (falling back to the individual-response
// event for single responses), and at least one claim-response or issue-list
// resource. It reports every structural problem found.
func ValidateResponseShape(bundle map[string]interface{}, expectedEvent string) []string {
	var errs []string

	if rt, _ := bundle["resourceType"].(string); rt != "Bundle" {
		errs = append(errs, fmt.Sprintf("expected a Bundle resource, got %q", rt))
		return errs
	}
	if bt, _ := bundle["type"].(string); bt != fhir.BundleTypeMessage {
		errs = append(errs, fmt.Sprintf("expected bundle type %q, got %q", fhir.BundleTypeMessage, bt))
	}

	entries := responseEntries(bundle)
	if len(entries) == 0 {
		errs = append(errs, "bundle has no entries")
		return errs
	}

	header := entries[0]
	if resourceType(header) != "MessageHeader" {
		errs = append(errs, fmt.Sprintf("first entry must be a MessageHeader, got %q", resourceType(header)))
	} else {
		event := headerEventCode(header)
		if event != expectedEvent && event != nphies.EventClaimResponse {
			errs = append(errs, fmt.Sprintf("unexpected message event %q, want %q or %q",
				event, expectedEvent, nphies.EventClaimResponse))
		}
	}

	found := false
	for _, resource := range entries {
		switch resourceType(resource) {
		case "ClaimResponse", "OperationOutcome":
			found = true
		case "Bundle":
			for _, nested := range responseEntries(resource) {
				rt := resourceType(nested)
				if rt == "ClaimResponse" || rt == "OperationOutcome" {
					found = true
				}
			}
		}
	}
	if !found {
		errs = append(errs, "bundle contains neither a claim-response nor an issue-list resource")
	}

	return errs
}

// responseEntries extracts the entry resources of a decoded bundle map.
// A nil return means the payload is not bundle-shaped at all; an empty slice
// means an empty entry list.
func responseEntries(bundle map[string]interface{}) []map[string]interface{} {
	raw, ok := bundle["entry"]
	if !ok {
		return nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(list))
	for _, item := range list {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if resource, ok := entry["resource"].(map[string]interface{}); ok {
			out = append(out, resource)
		}
	}
	return out
}

func resourceType(resource map[string]interface{}) string {
	rt, _ := resource["resourceType"].(string)
	return rt
}

func headerEventCode(header map[string]interface{}) string {
	if ec, ok := header["eventCoding"].(map[string]interface{}); ok {
		code, _ := ec["code"].(string)
		return code
	}
	return ""
}

func outcomeIssues(resource map[string]interface{}) []Issue {
	raw, ok := resource["issue"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]Issue, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		issue := Issue{}
		issue.Severity, _ = m["severity"].(string)
		issue.Code, _ = m["code"].(string)
		issue.Diagnostics, _ = m["diagnostics"].(string)
		out = append(out, issue)
	}
	return out
}

func parseFailure(diagnostics string) *ClaimOutcome {
	return &ClaimOutcome{
		Outcome: OutcomeError,
		Issues:  []Issue{syntheticIssue(diagnostics)},
		Success: false,
	}
}

func syntheticIssue(diagnostics string) Issue {
	return Issue{
		Severity:    fhir.IssueSeverityError,
		Code:        fhir.IssueTypeStructure,
		Diagnostics: diagnostics,
	}
}
