package claims

import (
	"github.com/claimgate/claimgate/internal/nphies"
	"github.com/claimgate/claimgate/internal/platform/fhir"
)

// InstitutionalBuilder builds institutional (inpatient/daycase) claim
// envelopes: claim plus encounter, with the full institutional extension set.
type InstitutionalBuilder struct {
	settings Settings
}

func NewInstitutionalBuilder(s Settings) *InstitutionalBuilder {
	return &InstitutionalBuilder{settings: s}
}

func (b *InstitutionalBuilder) ClaimType() string { return nphies.ClaimTypeInstitutional }

// BuildEnvelope produces one complete message bundle for the record.
func (b *InstitutionalBuilder) BuildEnvelope(rec *ClaimRecord) (*fhir.Bundle, error) {
	return BuildEnvelope(b, b.settings, rec)
}

func (b *InstitutionalBuilder) BuildClaimResource(rec *ClaimRecord, refs *ResourceRefs) (map[string]interface{}, error) {
	subType := rec.SubType
	if subType == "" {
		subType = nphies.SubTypeInpatient
	}
	resource := claimScaffold(rec, refs, nphies.ClaimTypeInstitutional, subType, nphies.ProfileInstitutionalClaim)

	// Extension order is validated by the exchange: accounting period first,
	// then episode, then the optional eligibility-offline pair.
	exts := []fhir.Extension{
		accountingPeriodExtension(rec.ServiceDate),
		episodeExtension(rec),
	}
	if rec.EligibilityOfflineRef != "" {
		exts = append(exts, fhir.Extension{
			URL:         nphies.ExtEligibilityOfflineRef,
			ValueString: rec.EligibilityOfflineRef,
		})
		if rec.EligibilityOfflineAt != nil {
			exts = append(exts, fhir.Extension{
				URL:           nphies.ExtEligibilityOfflineDate,
				ValueDateTime: formatDateTime(*rec.EligibilityOfflineAt),
			})
		}
	}
	resource["extension"] = exts

	resource["diagnosis"] = b.buildDiagnoses(rec)

	if len(rec.SupportingInfo) > 0 {
		resource["supportingInfo"] = buildSupportingInfo(rec.SupportingInfo, false)
	}

	currency := rec.CurrencyOrDefault(b.settings.DefaultCurrency)
	items, total := buildItems(rec, currency, func(item ClaimItem) []fhir.Extension {
		return []fhir.Extension{
			{URL: nphies.ExtPackage, ValueBoolean: fhir.BoolPtr(item.IsPackage)},
			{URL: nphies.ExtTax, ValueMoney: &fhir.Money{Value: roundMinor(item.Tax), Currency: currency}},
			{URL: nphies.ExtPatientShare, ValueMoney: &fhir.Money{Value: roundMinor(item.PatientShare), Currency: currency}},
			{URL: nphies.ExtPatientInvoice, ValueIdentifier: ptrIdentifier(patientInvoiceFor(rec, item))},
			{URL: nphies.ExtMaternity, ValueBoolean: fhir.BoolPtr(item.IsMaternity)},
		}
	})
	resource["item"] = items
	resource["total"] = total

	return resource, nil
}

// buildDiagnoses renders the diagnosis list. Each entry carries the
// condition-onset extension and the on-admission flag; the first diagnosis is
// principal unless the record tags it otherwise.
func (b *InstitutionalBuilder) buildDiagnoses(rec *ClaimRecord) []map[string]interface{} {
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
		onset := d.OnsetCode
		if onset == "" {
			onset = nphies.DefaultConditionOnset
		}
		onAdmission := "n"
		if d.OnAdmission {
			onAdmission = "y"
		}
		out = append(out, map[string]interface{}{
			"extension": []fhir.Extension{{
				URL: nphies.ExtConditionOnset,
				ValueCodeableConcept: &fhir.CodeableConcept{
					Coding: []fhir.Coding{{System: nphies.CSConditionOnset, Code: onset}},
				},
			}},
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
			"onAdmission": fhir.CodeableConcept{
				Coding: []fhir.Coding{{System: nphies.CSDiagnosisOnAdmission, Code: onAdmission}},
			},
		})
	}
	return out
}

// BuildEncounterResource builds the finished encounter bundled with every
// institutional claim. When an end date is present the discharge specialty,
// intended length of stay, and discharge disposition become mandatory; the
// exchange rejects encounters that have an end date but lack any of the
// three, so defaults are synthesized when the record omits them.
func (b *InstitutionalBuilder) BuildEncounterResource(rec *ClaimRecord, refs *ResourceRefs) (map[string]interface{}, error) {
	enc := rec.Encounter
	if enc == nil {
		enc = &EncounterRecord{}
	}

	classCode := fallback(enc.ClassCode, "IMP")
	resource := map[string]interface{}{
		"resourceType": "Encounter",
		"id":           idFromURN(refs.EncounterURN),
		"meta":         fhir.Meta{Profile: []string{nphies.ProfileEncounter}},
		"identifier": []fhir.Identifier{{
			System: nphies.SysEncounterID,
			Value:  fallback(enc.ID, rec.ClaimNumber),
		}},
		// Claims describe completed care; pre-authorization encounters do
		// not travel through this engine.
		"status": "finished",
		"class":  fhir.Coding{System: nphies.CSEncounterClass, Code: classCode},
		"subject": fhir.Reference{Reference: refs.PatientURN},
		"serviceProvider": fhir.Reference{Reference: refs.ProviderURN},
	}
	if enc.ServiceType != "" {
		resource["serviceType"] = fhir.CodeableConcept{
			Coding: []fhir.Coding{{System: nphies.CSPracticeCodes, Code: enc.ServiceType}},
		}
	}

	period := fhir.Period{}
	if enc.Start != nil {
		period.Start = formatDateTime(*enc.Start)
	} else {
		period.Start = formatDateTime(rec.ServiceDate)
	}
	if enc.End != nil {
		period.End = formatDateTime(*enc.End)
	}
	resource["period"] = period

	hospitalization := map[string]interface{}{}
	if enc.AdmitSource != "" {
		hospitalization["admitSource"] = fhir.CodeableConcept{
			Coding: []fhir.Coding{{System: nphies.CSDischargeDisposition, Code: enc.AdmitSource}},
		}
	}

	if enc.End != nil {
		specialty := fallback(enc.DischargeSpecialty, nphies.DefaultDischargeSpecialty)
		stay := fallback(enc.IntendedStay, nphies.DefaultIntendedStay)
		resource["extension"] = []fhir.Extension{
			{
				URL: nphies.ExtDischargeSpecialty,
				ValueCodeableConcept: &fhir.CodeableConcept{
					Coding: []fhir.Coding{{System: nphies.CSDischargeSpecialty, Code: specialty}},
				},
			},
			{
				URL: nphies.ExtIntendedLengthOfStay,
				ValueCodeableConcept: &fhir.CodeableConcept{
					Coding: []fhir.Coding{{System: nphies.CSIntendedLengthOfStay, Code: stay}},
				},
			},
		}
		disposition := fallback(enc.DischargeDisposition, nphies.DefaultDischargeDisposition)
		hospitalization["dischargeDisposition"] = fhir.CodeableConcept{
			Coding: []fhir.Coding{{
				System:  nphies.CSDischargeDisposition,
				Code:    disposition,
				Display: nphies.DischargeDispositionDisplay[disposition],
			}},
		}
	}
	if len(hospitalization) > 0 {
		resource["hospitalization"] = hospitalization
	}

	return resource, nil
}

func ptrIdentifier(id fhir.Identifier) *fhir.Identifier { return &id }
