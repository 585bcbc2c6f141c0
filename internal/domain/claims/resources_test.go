package claims

import (
	"testing"
	"time"

	"github.com/claimgate/claimgate/internal/nphies"
	"github.com/claimgate/claimgate/internal/platform/fhir"
)

func TestFallback(t *testing.T) {
	if got := fallback("", "", "third"); got != "third" {
		t.Errorf("fallback = %q", got)
	}
	if got := fallback("first", "second"); got != "first" {
		t.Errorf("fallback = %q", got)
	}
	if got := fallback("", ""); got != "" {
		t.Errorf("fallback = %q", got)
	}
}

func TestBuildPatient_IdentifierFallback(t *testing.T) {
	// No national id, no member id: the builder falls back to the
	// entity-supplied id so it never fails on missing optional data.
	resource, urn := buildPatient(PatientRecord{ID: "pat-9"}, "abc-123")

	if urn != "urn:uuid:abc-123" {
		t.Errorf("unexpected urn %s", urn)
	}
	ids, ok := resource["identifier"].([]fhir.Identifier)
	if !ok || len(ids) != 1 {
		t.Fatalf("expected one fallback identifier, got %v", resource["identifier"])
	}
	if ids[0].Value != "pat-9" {
		t.Errorf("expected entity id as identifier value, got %s", ids[0].Value)
	}
	names, ok := resource["name"].([]fhir.HumanName)
	if !ok || names[0].Text != placeholderName {
		t.Errorf("expected placeholder name, got %v", resource["name"])
	}
}

func TestBuildPatient_SuppliedIdentifiers(t *testing.T) {
	birth := time.Date(1990, 5, 2, 0, 0, 0, 0, time.UTC)
	resource, _ := buildPatient(PatientRecord{
		ID:         "pat-1",
		NationalID: "1012345678",
		MemberID:   "M-1",
		Name:       "Test Patient",
		Gender:     "female",
		BirthDate:  &birth,
	}, "id-1")

	ids := resource["identifier"].([]fhir.Identifier)
	if len(ids) != 2 {
		t.Fatalf("expected 2 identifiers, got %d", len(ids))
	}
	if ids[0].System != nphies.SysNationalID {
		t.Errorf("expected national id system first, got %s", ids[0].System)
	}
	if resource["birthDate"] != "1990-05-02" {
		t.Errorf("unexpected birthDate %v", resource["birthDate"])
	}
}

func TestBuildOrganization_LicenseFallback(t *testing.T) {
	resource, _ := buildProviderOrganization(OrganizationRecord{}, "o-1")
	ids := resource["identifier"].([]fhir.Identifier)
	if ids[0].Value != placeholderLicense {
		t.Errorf("expected placeholder license, got %s", ids[0].Value)
	}
	if resource["name"] != placeholderName {
		t.Errorf("expected placeholder name, got %v", resource["name"])
	}
}

func TestBuildCoverage_SubscriberReference(t *testing.T) {
	resource, _ := buildCoverage(CoverageRecord{ID: "cov-1", MemberID: "M-1"},
		"c-1", "urn:uuid:newborn", "urn:uuid:mother", "urn:uuid:payer")

	beneficiary := resource["beneficiary"].(fhir.Reference)
	if beneficiary.Reference != "urn:uuid:newborn" {
		t.Errorf("unexpected beneficiary %s", beneficiary.Reference)
	}
	subscriber, ok := resource["subscriber"].(fhir.Reference)
	if !ok || subscriber.Reference != "urn:uuid:mother" {
		t.Errorf("expected mother subscriber reference, got %v", resource["subscriber"])
	}

	// Without a subscriber urn the field is absent entirely.
	resource, _ = buildCoverage(CoverageRecord{ID: "cov-1"}, "c-2", "urn:uuid:p", "", "urn:uuid:payer")
	if _, present := resource["subscriber"]; present {
		t.Error("did not expect a subscriber reference")
	}
}

func TestFirstOfMonth(t *testing.T) {
	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2025, time.March, 14, 10, 30, 0, 0, time.UTC), "2025-03-01"},
		{time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), "2025-03-01"},
		{time.Date(2025, time.March, 31, 23, 59, 59, 0, time.UTC), "2025-03-01"},
		{time.Date(2024, time.December, 25, 0, 0, 0, 0, time.UTC), "2024-12-01"},
	}
	for _, tt := range tests {
		if got := formatDate(firstOfMonth(tt.in)); got != tt.want {
			t.Errorf("firstOfMonth(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestFormatDateTimeOffset(t *testing.T) {
	in := time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC)
	got := formatDateTimeOffset(in)
	if got != "2025-03-14T15:00:00+03:00" {
		t.Errorf("formatDateTimeOffset = %s", got)
	}
}
