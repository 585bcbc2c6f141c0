package claims

import (
	"testing"
	"time"

	"github.com/claimgate/claimgate/internal/nphies"
	"github.com/claimgate/claimgate/internal/platform/fhir"
)

func TestInstitutionalClaim_ExtensionOrder(t *testing.T) {
	rec := institutionalRecord()
	at := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	rec.EligibilityOfflineRef = "ELIG-1"
	rec.EligibilityOfflineAt = &at

	builder := NewInstitutionalBuilder(testSettings())
	bundle, err := builder.BuildEnvelope(rec)
	if err != nil {
		t.Fatalf("BuildEnvelope: %v", err)
	}

	exts := claimEntryOf(bundle)["extension"].([]fhir.Extension)
	want := []string{
		nphies.ExtAccountingPeriod,
		nphies.ExtEpisode,
		nphies.ExtEligibilityOfflineRef,
		nphies.ExtEligibilityOfflineDate,
	}
	if len(exts) != len(want) {
		t.Fatalf("expected %d extensions, got %d", len(want), len(exts))
	}
	for i, url := range want {
		if exts[i].URL != url {
			t.Errorf("extension %d: expected %s, got %s", i, url, exts[i].URL)
		}
	}
	if exts[0].ValueDate != "2025-03-01" {
		t.Errorf("expected accounting period 2025-03-01, got %s", exts[0].ValueDate)
	}
}

func TestInstitutionalClaim_SubTypeDefaultsToInpatient(t *testing.T) {
	rec := institutionalRecord()
	rec.SubType = ""

	builder := NewInstitutionalBuilder(testSettings())
	bundle, err := builder.BuildEnvelope(rec)
	if err != nil {
		t.Fatalf("BuildEnvelope: %v", err)
	}
	sub := claimEntryOf(bundle)["subType"].(fhir.CodeableConcept)
	if sub.Coding[0].Code != nphies.SubTypeInpatient {
		t.Errorf("expected default sub type %s, got %s", nphies.SubTypeInpatient, sub.Coding[0].Code)
	}
}

func TestInstitutionalDiagnoses(t *testing.T) {
	builder := NewInstitutionalBuilder(testSettings())
	diagnoses := builder.buildDiagnoses(institutionalRecord())
	if len(diagnoses) != 2 {
		t.Fatalf("expected 2 diagnoses, got %d", len(diagnoses))
	}

	first := diagnoses[0]
	typ := first["type"].([]fhir.CodeableConcept)
	if typ[0].Coding[0].Code != "principal" {
		t.Errorf("first diagnosis must default to principal, got %s", typ[0].Coding[0].Code)
	}
	onAdmission := first["onAdmission"].(fhir.CodeableConcept)
	if onAdmission.Coding[0].Code != "n" {
		t.Errorf("expected onAdmission n, got %s", onAdmission.Coding[0].Code)
	}
	exts := first["extension"].([]fhir.Extension)
	if exts[0].URL != nphies.ExtConditionOnset {
		t.Errorf("expected condition-onset extension, got %s", exts[0].URL)
	}
	if exts[0].ValueCodeableConcept.Coding[0].Code != nphies.DefaultConditionOnset {
		t.Errorf("expected default onset code, got %s", exts[0].ValueCodeableConcept.Coding[0].Code)
	}

	second := diagnoses[1]
	typ = second["type"].([]fhir.CodeableConcept)
	if typ[0].Coding[0].Code != "secondary" {
		t.Errorf("later diagnoses must default to secondary, got %s", typ[0].Coding[0].Code)
	}
	onAdmission = second["onAdmission"].(fhir.CodeableConcept)
	if onAdmission.Coding[0].Code != "y" {
		t.Errorf("expected onAdmission y, got %s", onAdmission.Coding[0].Code)
	}
}

func TestInstitutionalItems_FiveExtensionsPerLine(t *testing.T) {
	builder := NewInstitutionalBuilder(testSettings())
	bundle, err := builder.BuildEnvelope(institutionalRecord())
	if err != nil {
		t.Fatalf("BuildEnvelope: %v", err)
	}

	items := claimEntryOf(bundle)["item"].([]map[string]interface{})
	want := []string{
		nphies.ExtPackage,
		nphies.ExtTax,
		nphies.ExtPatientShare,
		nphies.ExtPatientInvoice,
		nphies.ExtMaternity,
	}
	for _, item := range items {
		exts := item["extension"].([]fhir.Extension)
		if len(exts) != len(want) {
			t.Fatalf("expected %d item extensions, got %d", len(want), len(exts))
		}
		for i, url := range want {
			if exts[i].URL != url {
				t.Errorf("item extension %d: expected %s, got %s", i, url, exts[i].URL)
			}
		}
	}

	// Tax on line 1 must round-trip into the tax extension.
	exts := items[0]["extension"].([]fhir.Extension)
	if exts[1].ValueMoney == nil || exts[1].ValueMoney.Value != 82.5 {
		t.Errorf("unexpected tax extension %v", exts[1].ValueMoney)
	}
}

func TestInstitutionalEncounter_EndDateMandatesDischargeFields(t *testing.T) {
	rec := institutionalRecord()
	start := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC)
	rec.Encounter = &EncounterRecord{Start: &start, End: &end}

	builder := NewInstitutionalBuilder(testSettings())
	refs := newRefs(rec, builder)
	enc, err := builder.BuildEncounterResource(rec, refs)
	if err != nil {
		t.Fatalf("BuildEncounterResource: %v", err)
	}

	exts, ok := enc["extension"].([]fhir.Extension)
	if !ok || len(exts) != 2 {
		t.Fatalf("expected discharge extensions, got %v", enc["extension"])
	}
	if exts[0].URL != nphies.ExtDischargeSpecialty {
		t.Errorf("expected discharge specialty first, got %s", exts[0].URL)
	}
	if exts[0].ValueCodeableConcept.Coding[0].Code != nphies.DefaultDischargeSpecialty {
		t.Errorf("expected default specialty, got %s", exts[0].ValueCodeableConcept.Coding[0].Code)
	}
	if exts[1].URL != nphies.ExtIntendedLengthOfStay {
		t.Errorf("expected intended length of stay, got %s", exts[1].URL)
	}

	hosp, ok := enc["hospitalization"].(map[string]interface{})
	if !ok {
		t.Fatal("expected hospitalization block")
	}
	disposition, ok := hosp["dischargeDisposition"].(fhir.CodeableConcept)
	if !ok || disposition.Coding[0].Code != nphies.DefaultDischargeDisposition {
		t.Errorf("expected default discharge disposition, got %v", hosp["dischargeDisposition"])
	}
}

func TestInstitutionalEncounter_NoEndDateNoDischargeFields(t *testing.T) {
	rec := institutionalRecord()
	builder := NewInstitutionalBuilder(testSettings())
	refs := newRefs(rec, builder)
	enc, err := builder.BuildEncounterResource(rec, refs)
	if err != nil {
		t.Fatalf("BuildEncounterResource: %v", err)
	}

	if _, present := enc["extension"]; present {
		t.Error("open encounter must not carry discharge extensions")
	}
	if _, present := enc["hospitalization"]; present {
		t.Error("open encounter must not carry a hospitalization block")
	}
	if enc["status"] != "finished" {
		t.Errorf("unexpected status %v", enc["status"])
	}
	period := enc["period"].(fhir.Period)
	if period.Start == "" {
		t.Error("period start must default to the service date")
	}
	if period.End != "" {
		t.Errorf("unexpected period end %s", period.End)
	}
}

func TestInstitutionalEncounter_SuppliedDischargeValuesWin(t *testing.T) {
	rec := institutionalRecord()
	end := time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC)
	rec.Encounter = &EncounterRecord{
		End:                  &end,
		DischargeSpecialty:   "08.00",
		DischargeDisposition: "other-hcf",
		IntendedStay:         "unplanned",
	}

	builder := NewInstitutionalBuilder(testSettings())
	refs := newRefs(rec, builder)
	enc, _ := builder.BuildEncounterResource(rec, refs)

	exts := enc["extension"].([]fhir.Extension)
	if exts[0].ValueCodeableConcept.Coding[0].Code != "08.00" {
		t.Errorf("supplied specialty lost: %s", exts[0].ValueCodeableConcept.Coding[0].Code)
	}
	if exts[1].ValueCodeableConcept.Coding[0].Code != "unplanned" {
		t.Errorf("supplied intended stay lost: %s", exts[1].ValueCodeableConcept.Coding[0].Code)
	}
	hosp := enc["hospitalization"].(map[string]interface{})
	disposition := hosp["dischargeDisposition"].(fhir.CodeableConcept)
	if disposition.Coding[0].Code != "other-hcf" {
		t.Errorf("supplied disposition lost: %s", disposition.Coding[0].Code)
	}
}
