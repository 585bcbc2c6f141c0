package claims

import (
	"testing"

	"github.com/claimgate/claimgate/internal/nphies"
	"github.com/claimgate/claimgate/internal/platform/fhir"
)

func TestVisionEnvelope_NoEncounterEntry(t *testing.T) {
	builder := NewVisionBuilder(testSettings())
	bundle, err := builder.BuildEnvelope(visionRecord())
	if err != nil {
		t.Fatalf("BuildEnvelope: %v", err)
	}
	if _, found := bundle.FindEntry("Encounter"); found {
		t.Error("vision envelopes must not contain an encounter entry")
	}
	if _, found := bundle.FindEntry("Claim"); !found {
		t.Error("expected a claim entry")
	}
}

func TestVisionClaim_ForcesOutpatientSubType(t *testing.T) {
	rec := visionRecord()
	if rec.SubType != "ip" {
		t.Fatal("fixture should carry a non-outpatient sub type")
	}

	builder := NewVisionBuilder(testSettings())
	bundle, err := builder.BuildEnvelope(rec)
	if err != nil {
		t.Fatalf("BuildEnvelope: %v", err)
	}
	sub := claimEntryOf(bundle)["subType"].(fhir.CodeableConcept)
	if sub.Coding[0].Code != nphies.SubTypeOutpatient {
		t.Errorf("expected forced %s, got %s", nphies.SubTypeOutpatient, sub.Coding[0].Code)
	}
}

func TestVisionDiagnoses_NoOnsetNoAdmission(t *testing.T) {
	builder := NewVisionBuilder(testSettings())
	diagnoses := builder.buildDiagnoses(visionRecord())
	for _, d := range diagnoses {
		if _, present := d["extension"]; present {
			t.Error("vision diagnoses must not carry the condition-onset extension")
		}
		if _, present := d["onAdmission"]; present {
			t.Error("vision diagnoses must not carry the on-admission flag")
		}
	}
}

func TestVisionItems_ThreeExtensionsPerLine(t *testing.T) {
	builder := NewVisionBuilder(testSettings())
	bundle, err := builder.BuildEnvelope(visionRecord())
	if err != nil {
		t.Fatalf("BuildEnvelope: %v", err)
	}

	items := claimEntryOf(bundle)["item"].([]map[string]interface{})
	want := []string{nphies.ExtPatientShare, nphies.ExtTax, nphies.ExtPatientInvoice}
	exts := items[0]["extension"].([]fhir.Extension)
	if len(exts) != len(want) {
		t.Fatalf("expected %d item extensions, got %d", len(want), len(exts))
	}
	for i, url := range want {
		if exts[i].URL != url {
			t.Errorf("item extension %d: expected %s, got %s", i, url, exts[i].URL)
		}
	}
	if exts[0].ValueMoney == nil || exts[0].ValueMoney.Value != 20 {
		t.Errorf("patient share lost: %v", exts[0].ValueMoney)
	}
}

func TestVisionNewborn_MotherSubjectAndCoverage(t *testing.T) {
	rec := visionRecord()
	rec.Newborn = true
	rec.Mother = &PatientRecord{ID: "pat-m", NationalID: "1098765432", Name: "Mother Test", Gender: "female"}

	builder := NewVisionBuilder(testSettings())
	bundle, err := builder.BuildEnvelope(rec)
	if err != nil {
		t.Fatalf("BuildEnvelope: %v", err)
	}

	patients := bundle.FindEntries("Patient")
	if len(patients) != 2 {
		t.Fatalf("expected newborn and mother patient entries, got %d", len(patients))
	}

	coverageEntry, _ := bundle.FindEntry("Coverage")
	subscriber, ok := coverageEntry.Resource["subscriber"].(fhir.Reference)
	if !ok {
		t.Fatal("newborn coverage must reference the mother as subscriber")
	}
	if subscriber.Reference != patients[1].FullURL {
		t.Errorf("subscriber %s does not reference the mother entry %s", subscriber.Reference, patients[1].FullURL)
	}
	beneficiary := coverageEntry.Resource["beneficiary"].(fhir.Reference)
	if beneficiary.Reference != patients[0].FullURL {
		t.Errorf("beneficiary %s does not reference the newborn entry %s", beneficiary.Reference, patients[0].FullURL)
	}

	exts := claimEntryOf(bundle)["extension"].([]fhir.Extension)
	last := exts[len(exts)-1]
	if last.URL != nphies.ExtNewborn || last.ValueBoolean == nil || !*last.ValueBoolean {
		t.Errorf("expected trailing newborn extension, got %+v", last)
	}
}

func TestVisionNewborn_WithoutMotherNoSecondSubject(t *testing.T) {
	rec := visionRecord()
	rec.Newborn = true

	builder := NewVisionBuilder(testSettings())
	bundle, err := builder.BuildEnvelope(rec)
	if err != nil {
		t.Fatalf("BuildEnvelope: %v", err)
	}
	if len(bundle.FindEntries("Patient")) != 1 {
		t.Error("newborn without mother record must bundle a single subject")
	}
}

func TestVisionNewborn_BirthWeightSynthesized(t *testing.T) {
	grams := 3250.0
	rec := visionRecord()
	rec.Newborn = true
	rec.BirthWeightGrams = &grams

	builder := NewVisionBuilder(testSettings())
	bundle, err := builder.BuildEnvelope(rec)
	if err != nil {
		t.Fatalf("BuildEnvelope: %v", err)
	}

	supporting, ok := claimEntryOf(bundle)["supportingInfo"].([]map[string]interface{})
	if !ok || len(supporting) != 1 {
		t.Fatalf("expected one synthesized supporting entry, got %v", claimEntryOf(bundle)["supportingInfo"])
	}
	category := supporting[0]["category"].(fhir.CodeableConcept)
	if category.Coding[0].Code != nphies.CategoryBirthWeight {
		t.Errorf("unexpected category %s", category.Coding[0].Code)
	}
	quantity := supporting[0]["valueQuantity"].(fhir.Quantity)
	if quantity.Value != 3.25 || quantity.Unit != "kg" {
		t.Errorf("expected 3.25 kg, got %v %s", quantity.Value, quantity.Unit)
	}
}

func TestVisionNewborn_SuppliedBirthWeightNotDuplicated(t *testing.T) {
	grams := 3250.0
	supplied := 3.1
	rec := visionRecord()
	rec.Newborn = true
	rec.BirthWeightGrams = &grams
	rec.SupportingInfo = []SupportingInfoEntry{{
		Category:      nphies.CategoryBirthWeight,
		ValueQuantity: &supplied,
		Unit:          "kg",
	}}

	builder := NewVisionBuilder(testSettings())
	bundle, err := builder.BuildEnvelope(rec)
	if err != nil {
		t.Fatalf("BuildEnvelope: %v", err)
	}
	supporting := claimEntryOf(bundle)["supportingInfo"].([]map[string]interface{})
	if len(supporting) != 1 {
		t.Fatalf("expected supplied entry to win, got %d entries", len(supporting))
	}
	quantity := supporting[0]["valueQuantity"].(fhir.Quantity)
	if quantity.Value != 3.1 {
		t.Errorf("supplied birth weight lost: %v", quantity.Value)
	}
}

func TestBuildSupportingInfo_NormalizeRules(t *testing.T) {
	entries := []SupportingInfoEntry{
		{Category: nphies.CategoryInvestigationResult},
		{Category: nphies.CategoryChiefComplaint, Code: "R51", ValueString: "Headache"},
	}

	normalized := buildSupportingInfo(entries, true)

	code, ok := normalized[0]["code"].(fhir.CodeableConcept)
	if !ok || code.Coding[0].Code != nphies.InvestigationResultDefault {
		t.Errorf("investigation result must get the placeholder code, got %v", normalized[0]["code"])
	}
	if _, present := normalized[1]["code"]; present {
		t.Error("normalized non-investigation entries must not stay coded")
	}
	if normalized[1]["valueString"] != "Headache" {
		t.Errorf("expected free-text demotion, got %v", normalized[1]["valueString"])
	}

	// Without normalization the coded entry stays coded.
	plain := buildSupportingInfo(entries[1:], false)
	code, ok = plain[0]["code"].(fhir.CodeableConcept)
	if !ok || code.Coding[0].Code != "R51" {
		t.Errorf("expected coded entry preserved, got %v", plain[0]["code"])
	}
}
