// Package nphies holds the protocol constants for the national insurance
// exchange: profile URLs, extension URLs, code systems, identifier systems,
// message event codes, and code-display tables. Every builder and parser
// reads these from here so a protocol version bump touches one place.
package nphies

// Version is the exchange structure-definition release the constants below
// were taken from.
const Version = "1.0.0"

const fsBase = "http://exchange.nphies.sa/fhir/ksa/nphies-fs"

// Structure definition profiles.
const (
	ProfileBundle              = fsBase + "/StructureDefinition/bundle"
	ProfileMessageHeader       = fsBase + "/StructureDefinition/message-header"
	ProfileInstitutionalClaim  = fsBase + "/StructureDefinition/institutional-claim"
	ProfileVisionClaim         = fsBase + "/StructureDefinition/vision-claim"
	ProfilePatient             = fsBase + "/StructureDefinition/patient"
	ProfileProviderOrg         = fsBase + "/StructureDefinition/provider-organization"
	ProfileInsurerOrg          = fsBase + "/StructureDefinition/insurer-organization"
	ProfileCoverage            = fsBase + "/StructureDefinition/coverage"
	ProfilePractitioner        = fsBase + "/StructureDefinition/practitioner"
	ProfileEncounter           = fsBase + "/StructureDefinition/encounter"
	ProfileClaimResponse       = fsBase + "/StructureDefinition/claim-response"
	ProfileTask                = fsBase + "/StructureDefinition/task"
	ProfileOperationOutcome    = fsBase + "/StructureDefinition/operation-outcome"
)

// Extension URLs. The receiving validator checks both presence and order of
// these; the accounting-period extension must come first on claim resources.
const (
	ExtAccountingPeriod       = fsBase + "/StructureDefinition/extension-accounting-period"
	ExtEpisode                = fsBase + "/StructureDefinition/extension-episode"
	ExtEligibilityOfflineRef  = fsBase + "/StructureDefinition/extension-eligibility-offline-reference"
	ExtEligibilityOfflineDate = fsBase + "/StructureDefinition/extension-eligibility-offline-date"
	ExtConditionOnset         = fsBase + "/StructureDefinition/extension-condition-onset"
	ExtPackage                = fsBase + "/StructureDefinition/extension-package"
	ExtTax                    = fsBase + "/StructureDefinition/extension-tax"
	ExtPatientShare           = fsBase + "/StructureDefinition/extension-patient-share"
	ExtPatientInvoice         = fsBase + "/StructureDefinition/extension-patient-invoice"
	ExtMaternity              = fsBase + "/StructureDefinition/extension-maternity"
	ExtNewborn                = fsBase + "/StructureDefinition/extension-newborn"
	ExtBatchIdentifier        = fsBase + "/StructureDefinition/extension-batch-identifier"
	ExtBatchNumber            = fsBase + "/StructureDefinition/extension-batch-number"
	ExtBatchPeriod            = fsBase + "/StructureDefinition/extension-batch-period"
	ExtAdjudicationOutcome    = fsBase + "/StructureDefinition/extension-adjudication-outcome"
	ExtDischargeSpecialty     = fsBase + "/StructureDefinition/extension-discharge-specialty"
	ExtIntendedLengthOfStay   = fsBase + "/StructureDefinition/extension-intended-length-of-stay"
)

// Code systems.
const (
	CSClaimType            = "http://terminology.hl7.org/CodeSystem/claim-type"
	CSClaimSubType         = fsBase + "/CodeSystem/claim-subtype"
	CSMessageEvents        = fsBase + "/CodeSystem/ksa-message-events"
	CSClaimInformation     = fsBase + "/CodeSystem/claim-information-category"
	CSConditionOnset       = fsBase + "/CodeSystem/condition-onset"
	CSDiagnosisType        = "http://terminology.hl7.org/CodeSystem/ex-diagnosistype"
	CSDiagnosisOnAdmission = fsBase + "/CodeSystem/diagnosis-on-admission"
	CSAdjudicationOutcome  = fsBase + "/CodeSystem/adjudication-outcome"
	CSDischargeSpecialty   = fsBase + "/CodeSystem/practice-codes"
	CSIntendedLengthOfStay = fsBase + "/CodeSystem/intended-length-of-stay"
	CSDischargeDisposition = fsBase + "/CodeSystem/discharge-disposition"
	CSEncounterClass       = "http://terminology.hl7.org/CodeSystem/v3-ActCode"
	CSCoverageType         = fsBase + "/CodeSystem/coverage-type"
	CSSubscriberRelation   = "http://terminology.hl7.org/CodeSystem/subscriber-relationship"
	CSProcessPriority      = "http://terminology.hl7.org/CodeSystem/processpriority"
	CSPayeeType            = "http://terminology.hl7.org/CodeSystem/payeetype"
	CSCareTeamRole         = "http://terminology.hl7.org/CodeSystem/claimcareteamrole"
	CSPracticeCodes        = fsBase + "/CodeSystem/practice-codes"
	CSTaskCode             = fsBase + "/CodeSystem/task-code"
	CSTaskInputType        = fsBase + "/CodeSystem/task-input-type"
	CSOrganizationType     = "http://terminology.hl7.org/CodeSystem/organization-type"
)

// Identifier systems.
const (
	SysBundleID          = "http://exchange.nphies.sa/identifier/bundle"
	SysMessageHeaderID   = "http://exchange.nphies.sa/identifier/message-header"
	SysProviderLicense   = "http://exchange.nphies.sa/licenses/provider-license"
	SysPayerLicense      = "http://exchange.nphies.sa/licenses/payer-license"
	SysPractitionerLic   = "http://exchange.nphies.sa/licenses/practitioner-license"
	SysNationalID        = "http://exchange.nphies.sa/identifier/nationalid"
	SysMemberCard        = "http://exchange.nphies.sa/identifier/member-card"
	SysClaimID           = "http://provider.example.sa/identifier/claim"
	SysPatientInvoice    = "http://provider.example.sa/identifier/patient-invoice"
	SysEpisode           = "http://provider.example.sa/identifier/episode"
	SysBatchID           = "http://provider.example.sa/identifier/batch"
	SysEncounterID       = "http://provider.example.sa/identifier/encounter"
)

// Message event codes. Request events travel on outbound headers; response
// events are what the structural validator expects back.
const (
	EventClaimRequest  = "claim-request"
	EventClaimResponse = "claim-response"
	EventBatchRequest  = "batch-request"
	EventBatchResponse = "batch-response"
	EventPollRequest   = "poll-request"
)

// Claim type codes as the exchange expects them.
const (
	ClaimTypeInstitutional = "institutional"
	ClaimTypeVision        = "vision"
	ClaimTypeProfessional  = "professional"
	ClaimTypeOral          = "oral"
	ClaimTypePharmacy      = "pharmacy"
)

// Claim sub-type codes.
const (
	SubTypeInpatient  = "ip"
	SubTypeOutpatient = "op"
	SubTypeEmergency  = "emr"
)

// Supporting-information category codes.
const (
	CategoryInvestigationResult = "investigation-result"
	CategoryChiefComplaint      = "chief-complaint"
	CategoryBirthWeight         = "birth-weight"
	CategoryVitalSignWeight     = "vital-sign-weight"
	CategoryDaysSupply          = "days-supply"
	CategoryReasonForVisit      = "reason-for-visit"
)

// InvestigationResultDefault is the placeholder investigation-result code
// used when the caller supplies none; the exchange requires a fully coded
// entry for this category.
const InvestigationResultDefault = "INP"

// Defaults synthesized for mandatory discharge fields.
const (
	DefaultDischargeSpecialty   = "19.00" // internal medicine practice code
	DefaultDischargeDisposition = "home"
	DefaultIntendedStay         = "planned"
	DefaultConditionOnset       = "NR" // not reported
)

// ClaimTypeDisplay maps claim type codes to their wire display strings.
var ClaimTypeDisplay = map[string]string{
	ClaimTypeInstitutional: "Institutional",
	ClaimTypeVision:        "Vision",
	ClaimTypeProfessional:  "Professional",
	ClaimTypeOral:          "Oral",
	ClaimTypePharmacy:      "Pharmacy",
}

// SubTypeDisplay maps claim sub-type codes to display strings.
var SubTypeDisplay = map[string]string{
	SubTypeInpatient:  "InPatient",
	SubTypeOutpatient: "OutPatient",
	SubTypeEmergency:  "Emergency",
}

// CategoryDisplay maps supporting-information category codes to display
// strings.
var CategoryDisplay = map[string]string{
	CategoryInvestigationResult: "Investigation Result",
	CategoryChiefComplaint:      "Chief Complaint",
	CategoryBirthWeight:         "Birth Weight",
	CategoryVitalSignWeight:     "Vital Sign Weight",
	CategoryDaysSupply:          "Days Supply",
	CategoryReasonForVisit:      "Reason for Visit",
}

// DischargeDispositionDisplay maps discharge disposition codes to display
// strings.
var DischargeDispositionDisplay = map[string]string{
	"home":       "Home",
	"transfer":   "Transferred to another facility",
	"deceased":   "Deceased",
	"left-ama":   "Left against medical advice",
	"long-care":  "Long-term care",
}

// ClaimProfile returns the claim resource profile URL for a normalized claim
// type. Unknown types fall back to the institutional profile, matching the
// registry's normalization policy.
func ClaimProfile(claimType string) string {
	switch claimType {
	case ClaimTypeVision:
		return ProfileVisionClaim
	default:
		return ProfileInstitutionalClaim
	}
}
