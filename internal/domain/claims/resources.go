package claims

import (
	"time"

	"github.com/google/uuid"

	"github.com/claimgate/claimgate/internal/nphies"
	"github.com/claimgate/claimgate/internal/platform/fhir"
)

// Sub-resource builders. Each takes a domain entity plus a caller-assigned
// local id and returns the resource map and its urn:uuid locator. They are
// total functions: identifiers and display names fall back through the
// entity-supplied value, then a generated value, then a fixed placeholder,
// so a missing optional field never fails a build.

const (
	placeholderName    = "Unknown"
	placeholderLicense = "N-A"
)

// fallback returns the first non-empty value.
func fallback(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func buildPatient(p PatientRecord, id string) (map[string]interface{}, string) {
	identifiers := []fhir.Identifier{}
	if p.NationalID != "" {
		identifiers = append(identifiers, fhir.Identifier{
			System: nphies.SysNationalID,
			Value:  p.NationalID,
		})
	}
	if p.MemberID != "" {
		identifiers = append(identifiers, fhir.Identifier{
			System: nphies.SysMemberCard,
			Value:  p.MemberID,
		})
	}
	if len(identifiers) == 0 {
		identifiers = append(identifiers, fhir.Identifier{
			System: nphies.SysNationalID,
			Value:  fallback(p.ID, id),
		})
	}

	resource := map[string]interface{}{
		"resourceType": "Patient",
		"id":           id,
		"meta":         fhir.Meta{Profile: []string{nphies.ProfilePatient}},
		"identifier":   identifiers,
		"name": []fhir.HumanName{{
			Use:  "official",
			Text: fallback(p.Name, placeholderName),
		}},
		"active": true,
	}
	if p.Gender != "" {
		resource["gender"] = p.Gender
	}
	if p.BirthDate != nil {
		resource["birthDate"] = p.BirthDate.Format("2006-01-02")
	}
	if p.Phone != "" {
		resource["telecom"] = []fhir.ContactPoint{{System: "phone", Value: p.Phone}}
	}
	if p.MaritalSts != "" {
		resource["maritalStatus"] = fhir.CodeableConcept{
			Coding: []fhir.Coding{{
				System: "http://terminology.hl7.org/CodeSystem/v3-MaritalStatus",
				Code:   p.MaritalSts,
			}},
		}
	}
	return resource, fhir.URN(id)
}

func buildOrganization(o OrganizationRecord, id, profile, licenseSystem, typeCode string) (map[string]interface{}, string) {
	resource := map[string]interface{}{
		"resourceType": "Organization",
		"id":           id,
		"meta":         fhir.Meta{Profile: []string{profile}},
		"identifier": []fhir.Identifier{{
			System: licenseSystem,
			Value:  fallback(o.License, o.ID, placeholderLicense),
		}},
		"active": true,
		"type": []fhir.CodeableConcept{{
			Coding: []fhir.Coding{{
				System: nphies.CSOrganizationType,
				Code:   typeCode,
			}},
		}},
		"name": fallback(o.Name, placeholderName),
	}
	return resource, fhir.URN(id)
}

func buildProviderOrganization(o OrganizationRecord, id string) (map[string]interface{}, string) {
	return buildOrganization(o, id, nphies.ProfileProviderOrg, nphies.SysProviderLicense, "prov")
}

func buildInsurerOrganization(o OrganizationRecord, id string) (map[string]interface{}, string) {
	return buildOrganization(o, id, nphies.ProfileInsurerOrg, nphies.SysPayerLicense, "ins")
}

// buildCoverage links the beneficiary and payor. subscriberURN is empty
// except for newborn claims, where it references the bundled mother subject.
func buildCoverage(c CoverageRecord, id, beneficiaryURN, subscriberURN, payorURN string) (map[string]interface{}, string) {
	resource := map[string]interface{}{
		"resourceType": "Coverage",
		"id":           id,
		"meta":         fhir.Meta{Profile: []string{nphies.ProfileCoverage}},
		"identifier": []fhir.Identifier{{
			System: nphies.SysMemberCard,
			Value:  fallback(c.MemberID, c.PolicyNumber, c.ID),
		}},
		"status":      "active",
		"beneficiary": fhir.Reference{Reference: beneficiaryURN},
		"payor":       []fhir.Reference{{Reference: payorURN}},
	}
	if c.TypeCode != "" {
		resource["type"] = fhir.CodeableConcept{
			Coding: []fhir.Coding{{System: nphies.CSCoverageType, Code: c.TypeCode}},
		}
	}
	relation := fallback(c.Relationship, "self")
	resource["relationship"] = fhir.CodeableConcept{
		Coding: []fhir.Coding{{System: nphies.CSSubscriberRelation, Code: relation}},
	}
	if subscriberURN != "" {
		resource["subscriber"] = fhir.Reference{Reference: subscriberURN}
	}
	if c.PolicyNumber != "" {
		resource["subscriberId"] = c.PolicyNumber
	}
	if c.Network != "" {
		resource["network"] = c.Network
	}
	if c.PeriodStart != nil || c.PeriodEnd != nil {
		period := fhir.Period{}
		if c.PeriodStart != nil {
			period.Start = c.PeriodStart.Format("2006-01-02")
		}
		if c.PeriodEnd != nil {
			period.End = c.PeriodEnd.Format("2006-01-02")
		}
		resource["period"] = period
	}
	return resource, fhir.URN(id)
}

func buildPractitioner(p PractitionerRecord, id string) (map[string]interface{}, string) {
	resource := map[string]interface{}{
		"resourceType": "Practitioner",
		"id":           id,
		"meta":         fhir.Meta{Profile: []string{nphies.ProfilePractitioner}},
		"identifier": []fhir.Identifier{{
			System: nphies.SysPractitionerLic,
			Value:  fallback(p.License, p.ID, placeholderLicense),
		}},
		"active": true,
		"name": []fhir.HumanName{{
			Use:  "official",
			Text: fallback(p.Name, placeholderName),
		}},
	}
	return resource, fhir.URN(id)
}

// localID returns the entity-supplied id when it is already a UUID, otherwise
// a fresh one. Resource ids must be unique per envelope, not stable across
// submissions.
func localID(supplied string) string {
	if supplied != "" {
		if _, err := uuid.Parse(supplied); err == nil {
			return supplied
		}
	}
	return uuid.New().String()
}

// formatDate renders a plain FHIR date.
func formatDate(t time.Time) string { return t.Format("2006-01-02") }

// formatDateTime renders a FHIR dateTime in UTC.
func formatDateTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

// riyadhOffset is the exchange's fixed submission offset.
var riyadhOffset = time.FixedZone("AST", 3*60*60)

// formatDateTimeOffset renders a FHIR dateTime in the exchange's fixed
// +03:00 offset, which the receiving validator expects on header timestamps.
func formatDateTimeOffset(t time.Time) string {
	return t.In(riyadhOffset).Format("2006-01-02T15:04:05-07:00")
}

// firstOfMonth normalizes a date to the first day of its month. The exchange
// validates the accounting-period extension against exactly this value.
func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
