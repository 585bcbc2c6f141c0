package claims

import (
	"github.com/claimgate/claimgate/internal/nphies"
	"github.com/claimgate/claimgate/internal/platform/fhir"
)

// VisionBuilder builds vision claim envelopes. The protocol defines vision
// claims as encounter-less, with a reduced extension set and normalized
// supporting information.
type VisionBuilder struct {
	settings Settings
}

func NewVisionBuilder(s Settings) *VisionBuilder {
	return &VisionBuilder{settings: s}
}

func (b *VisionBuilder) ClaimType() string { return nphies.ClaimTypeVision }

// BuildEnvelope produces one complete message bundle for the record.
func (b *VisionBuilder) BuildEnvelope(rec *ClaimRecord) (*fhir.Bundle, error) {
	return BuildEnvelope(b, b.settings, rec)
}

// NeedsMotherSubject reports whether a second ("mother") subject resource is
// bundled: newborn vision claims reference both subjects from the coverage.
func (b *VisionBuilder) NeedsMotherSubject(rec *ClaimRecord) bool {
	return rec.Newborn && rec.Mother != nil
}

func (b *VisionBuilder) BuildClaimResource(rec *ClaimRecord, refs *ResourceRefs) (map[string]interface{}, error) {
	// Vision claims are always outpatient on the wire, whatever the caller
	// put in the record.
	resource := claimScaffold(rec, refs, nphies.ClaimTypeVision, nphies.SubTypeOutpatient, nphies.ProfileVisionClaim)

	exts := []fhir.Extension{
		accountingPeriodExtension(rec.ServiceDate),
		episodeExtension(rec),
	}
	if rec.Newborn {
		exts = append(exts, fhir.Extension{
			URL:          nphies.ExtNewborn,
			ValueBoolean: fhir.BoolPtr(true),
		})
	}
	resource["extension"] = exts

	resource["diagnosis"] = b.buildDiagnoses(rec)

	supporting := rec.SupportingInfo
	if rec.Newborn && rec.BirthWeightGrams != nil && !hasCategory(supporting, nphies.CategoryBirthWeight) {
		kg := roundMinor(*rec.BirthWeightGrams / 1000)
		supporting = append(append([]SupportingInfoEntry{}, supporting...), SupportingInfoEntry{
			Category:      nphies.CategoryBirthWeight,
			ValueQuantity: &kg,
			Unit:          "kg",
		})
	}
	if len(supporting) > 0 {
		resource["supportingInfo"] = buildSupportingInfo(supporting, true)
	}

	currency := rec.CurrencyOrDefault(b.settings.DefaultCurrency)
	items, total := buildItems(rec, currency, func(item ClaimItem) []fhir.Extension {
		return []fhir.Extension{
			{URL: nphies.ExtPatientShare, ValueMoney: &fhir.Money{Value: roundMinor(item.PatientShare), Currency: currency}},
			{URL: nphies.ExtTax, ValueMoney: &fhir.Money{Value: roundMinor(item.Tax), Currency: currency}},
			{URL: nphies.ExtPatientInvoice, ValueIdentifier: ptrIdentifier(patientInvoiceFor(rec, item))},
		}
	})
	resource["item"] = items
	resource["total"] = total

	return resource, nil
}

// buildDiagnoses renders vision diagnoses. Unlike institutional ones they
// carry no condition-onset extension and no on-admission flag; that is a
// structural difference between the two profiles.
func (b *VisionBuilder) buildDiagnoses(rec *ClaimRecord) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(rec.Diagnoses))
	for i, d := range rec.Diagnoses {
		typeCode := d.TypeCode
		if typeCode == "" {
			if i == 0 {
				typeCode = "principal"
			} else {
				typeCode = "secondary"
			}
		}
		out = append(out, map[string]interface{}{
			"sequence": i + 1,
			"diagnosisCodeableConcept": fhir.CodeableConcept{
				Coding: []fhir.Coding{{
					System:  fallback(d.System, "http://hl7.org/fhir/sid/icd-10-am"),
					Code:    d.Code,
					Display: d.Display,
				}},
			},
			"type": []fhir.CodeableConcept{{
				Coding: []fhir.Coding{{System: nphies.CSDiagnosisType, Code: typeCode}},
			}},
		})
	}
	return out
}

// BuildEncounterResource returns nil: vision envelopes never contain an
// encounter entry.
func (b *VisionBuilder) BuildEncounterResource(*ClaimRecord, *ResourceRefs) (map[string]interface{}, error) {
	return nil, nil
}

func hasCategory(entries []SupportingInfoEntry, category string) bool {
	for _, e := range entries {
		if e.Category == category {
			return true
		}
	}
	return false
}

// buildSupportingInfo renders supporting-information entries. With normalize
// set (vision claims), categories other than investigation-result are demoted
// to free text, because the exchange requires a complete code-system entry
// whenever a code is present; investigation-result entries stay fully coded
// and get a placeholder code when the caller supplied none. Quantity-valued
// entries keep their quantity in both modes.
func buildSupportingInfo(entries []SupportingInfoEntry, normalize bool) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(entries))
	for i, e := range entries {
		m := map[string]interface{}{
			"sequence": i + 1,
			"category": fhir.CodeableConcept{
				Coding: []fhir.Coding{{
					System:  nphies.CSClaimInformation,
					Code:    e.Category,
					Display: nphies.CategoryDisplay[e.Category],
				}},
			},
		}
		switch {
		case e.ValueQuantity != nil:
			m["valueQuantity"] = fhir.Quantity{
				Value: *e.ValueQuantity,
				Unit:  e.Unit,
				Code:  e.Unit,
			}
		case normalize && e.Category == nphies.CategoryInvestigationResult:
			code := fallback(e.Code, nphies.InvestigationResultDefault)
			m["code"] = fhir.CodeableConcept{
				Coding: []fhir.Coding{{
					System: fallback(e.System, nphies.CSClaimInformation),
					Code:   code,
				}},
			}
		case normalize:
			m["valueString"] = fallback(e.ValueString, e.Code)
		case e.Code != "":
			m["code"] = fhir.CodeableConcept{
				Coding: []fhir.Coding{{
					System: fallback(e.System, nphies.CSClaimInformation),
					Code:   e.Code,
				}},
			}
		case e.ValueString != "":
			m["valueString"] = e.ValueString
		}
		out = append(out, m)
	}
	return out
}
