package claims

import (
	"fmt"
	"time"

	"github.com/claimgate/claimgate/internal/platform/fhir"
)

func testSettings() Settings {
	return Settings{
		SenderLicense:       "PR-FHIR-001",
		ReceiverLicense:     "INS-FHIR-001",
		SourceEndpoint:      "http://provider.test.sa",
		DestinationEndpoint: "http://exchange.test.sa",
		DefaultCurrency:     "SAR",
	}
}

func institutionalRecord() *ClaimRecord {
	return &ClaimRecord{
		ClaimNumber: "CLM-1001",
		Type:        "institutional",
		SubType:     "ip",
		Currency:    "SAR",
		Patient: PatientRecord{
			ID:         "pat-1",
			NationalID: "1012345678",
			Name:       "Ahmed Al Saleh",
			Gender:     "male",
		},
		Provider: OrganizationRecord{ID: "prov-1", License: "PR-FHIR-001", Name: "Test Hospital"},
		Insurer:  OrganizationRecord{ID: "ins-1", License: "INS-FHIR-001", Name: "Test Insurance"},
		Coverage: CoverageRecord{ID: "cov-1", MemberID: "M-900", PolicyNumber: "POL-7"},
		Practitioner: PractitionerRecord{License: "MDH-001", Name: "Dr. Test"},
		ServiceDate:  time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC),
		Diagnoses: []Diagnosis{
			{Code: "J18.9", Display: "Pneumonia"},
			{Code: "E11.9", Display: "Type 2 diabetes", OnAdmission: true},
		},
		Items: []ClaimItem{
			{Sequence: 1, Code: "83600-00-10", Quantity: 1, UnitPrice: 550, Tax: 82.5},
			{Sequence: 2, Code: "110", Quantity: 3, UnitPrice: 120.25, Factor: 0.9},
		},
	}
}

func visionRecord() *ClaimRecord {
	rec := institutionalRecord()
	rec.ClaimNumber = "CLM-2001"
	rec.Type = "vision"
	rec.SubType = "ip" // builders must force outpatient regardless
	rec.Encounter = nil
	rec.Items = []ClaimItem{
		{Sequence: 1, Code: "E-100", Quantity: 2, UnitPrice: 75.5, PatientShare: 20},
	}
	return rec
}

func batchRecords(n int) []*ClaimRecord {
	records := make([]*ClaimRecord, 0, n)
	for i := 0; i < n; i++ {
		rec := institutionalRecord()
		rec.ClaimNumber = fmt.Sprintf("CLM-%04d", i+1)
		records = append(records, rec)
	}
	return records
}

func claimEntryOf(bundle *fhir.Bundle) map[string]interface{} {
	entry, ok := bundle.FindEntry("Claim")
	if !ok {
		return nil
	}
	return entry.Resource
}
