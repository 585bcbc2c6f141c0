// Package claims implements the claim mapping, batch-splitting, and
// response-parsing engine for the national insurance exchange. It translates
// internal claim records into protocol-conformant message bundles and
// translates the exchange's responses back into normalized outcomes. The
// package holds no state and performs no I/O; builders are safe to share
// across goroutines.
package claims

import (
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance. validator.Validate is
// concurrency-safe and caches struct metadata, so one instance serves the
// whole package.
var validate = validator.New()

// PatientRecord identifies the claim subject.
type PatientRecord struct {
	ID         string     `json:"id" validate:"required"`
	NationalID string     `json:"national_id,omitempty"`
	MemberID   string     `json:"member_id,omitempty"`
	Name       string     `json:"name,omitempty"`
	Gender     string     `json:"gender,omitempty" validate:"omitempty,oneof=male female other unknown"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	MaritalSts string     `json:"marital_status,omitempty"`
}

// OrganizationRecord identifies a provider or insurer organization.
type OrganizationRecord struct {
	ID      string `json:"id" validate:"required"`
	License string `json:"license,omitempty"`
	Name    string `json:"name,omitempty"`
}

// PractitionerRecord identifies the treating practitioner.
type PractitionerRecord struct {
	ID        string `json:"id,omitempty"`
	License   string `json:"license,omitempty"`
	Name      string `json:"name,omitempty"`
	Specialty string `json:"specialty,omitempty"`
}

// CoverageRecord identifies the insurance coverage a claim bills against.
type CoverageRecord struct {
	ID           string     `json:"id" validate:"required"`
	MemberID     string     `json:"member_id,omitempty"`
	PolicyNumber string     `json:"policy_number,omitempty"`
	TypeCode     string     `json:"type_code,omitempty"`
	Relationship string     `json:"relationship,omitempty"`
	Network      string     `json:"network,omitempty"`
	PeriodStart  *time.Time `json:"period_start,omitempty"`
	PeriodEnd    *time.Time `json:"period_end,omitempty"`
}

// EncounterRecord carries the encounter metadata for claim types that bundle
// an encounter resource.
type EncounterRecord struct {
	ID                   string     `json:"id,omitempty"`
	ClassCode            string     `json:"class_code,omitempty"`
	ServiceType          string     `json:"service_type,omitempty"`
	Start                *time.Time `json:"start,omitempty"`
	End                  *time.Time `json:"end,omitempty"`
	AdmitSource          string     `json:"admit_source,omitempty"`
	DischargeDisposition string     `json:"discharge_disposition,omitempty"`
	DischargeSpecialty   string     `json:"discharge_specialty,omitempty"`
	IntendedStay         string     `json:"intended_length_of_stay,omitempty"`
}

// Diagnosis is one diagnosis on a claim. The first diagnosis in a record's
// list is principal unless TypeCode says otherwise.
type Diagnosis struct {
	Code        string `json:"code" validate:"required"`
	System      string `json:"system,omitempty"`
	Display     string `json:"display,omitempty"`
	TypeCode    string `json:"type_code,omitempty"`
	OnAdmission bool   `json:"on_admission,omitempty"`
	OnsetCode   string `json:"onset_code,omitempty"`
}

// ClaimItem is one billable line. Net is always recomputed by the engine as
// quantity * unit price * factor + tax, rounded to the currency minor unit;
// any caller-supplied net is ignored.
type ClaimItem struct {
	Sequence       int        `json:"sequence" validate:"gt=0"`
	Code           string     `json:"code" validate:"required"`
	System         string     `json:"system,omitempty"`
	Display        string     `json:"display,omitempty"`
	ServicedDate   *time.Time `json:"serviced_date,omitempty"`
	Quantity       float64    `json:"quantity" validate:"gt=0"`
	UnitPrice      float64    `json:"unit_price" validate:"gte=0"`
	Factor         float64    `json:"factor,omitempty"`
	Tax            float64    `json:"tax,omitempty"`
	PatientShare   float64    `json:"patient_share,omitempty"`
	PatientInvoice string     `json:"patient_invoice,omitempty"`
	IsPackage      bool       `json:"is_package,omitempty"`
	IsMaternity    bool       `json:"is_maternity,omitempty"`
}

// Net computes the line net in the currency minor unit.
func (i ClaimItem) Net() float64 {
	factor := i.Factor
	if factor == 0 {
		factor = 1
	}
	return roundMinor(i.Quantity*i.UnitPrice*factor + i.Tax)
}

// roundMinor rounds a monetary amount to two decimal places, the minor unit
// of the supported currencies.
func roundMinor(v float64) float64 {
	return math.Round(v*100) / 100
}

// SupportingInfoEntry is one supporting-information entry. At most one of
// Code, ValueString, and ValueQuantity may be populated, per category rules.
type SupportingInfoEntry struct {
	Category      string   `json:"category" validate:"required"`
	Code          string   `json:"code,omitempty"`
	System        string   `json:"system,omitempty"`
	ValueString   string   `json:"value_string,omitempty"`
	ValueQuantity *float64 `json:"value_quantity,omitempty"`
	Unit          string   `json:"unit,omitempty"`
}

// ClaimRecord is the internal claim representation supplied by the caller.
// The engine reads it and never modifies it.
type ClaimRecord struct {
	ClaimNumber string `json:"claim_number" validate:"required"`
	Type        string `json:"type" validate:"required"`
	SubType     string `json:"sub_type,omitempty"`
	Currency    string `json:"currency,omitempty" validate:"omitempty,len=3"`

	Patient      PatientRecord       `json:"patient" validate:"required"`
	Provider     OrganizationRecord  `json:"provider" validate:"required"`
	Insurer      OrganizationRecord  `json:"insurer" validate:"required"`
	Coverage     CoverageRecord      `json:"coverage" validate:"required"`
	Practitioner PractitionerRecord  `json:"practitioner,omitempty"`
	Encounter    *EncounterRecord    `json:"encounter,omitempty"`
	Mother       *PatientRecord      `json:"mother,omitempty"`

	ServiceDate time.Time `json:"service_date" validate:"required"`

	Diagnoses      []Diagnosis           `json:"diagnoses" validate:"min=1,dive"`
	Items          []ClaimItem           `json:"items" validate:"min=1,dive"`
	SupportingInfo []SupportingInfoEntry `json:"supporting_info,omitempty" validate:"dive"`

	EpisodeID             string     `json:"episode_id,omitempty"`
	EligibilityOfflineRef string     `json:"eligibility_offline_ref,omitempty"`
	EligibilityOfflineAt  *time.Time `json:"eligibility_offline_at,omitempty"`

	Newborn          bool     `json:"newborn,omitempty"`
	BirthWeightGrams *float64 `json:"birth_weight_grams,omitempty"`
}

// Total recomputes the claim total from the item nets. The engine never
// trusts a caller-supplied total.
func (r *ClaimRecord) Total() float64 {
	var total float64
	for _, item := range r.Items {
		total += item.Net()
	}
	return roundMinor(total)
}

// CurrencyOrDefault returns the record currency, falling back to def.
func (r *ClaimRecord) CurrencyOrDefault(def string) string {
	if r.Currency != "" {
		return r.Currency
	}
	if def != "" {
		return def
	}
	return "SAR"
}

// Validate checks the record against its field constraints and returns one
// message per violation.
func (r *ClaimRecord) Validate() []string {
	return validationMessages(validate.Struct(r))
}

// BatchRequest groups 2-200 claim records that share insurer, provider, and
// normalized claim type for submission as independent envelopes.
type BatchRequest struct {
	BatchID     string         `json:"batch_id" validate:"required"`
	PeriodStart time.Time      `json:"period_start" validate:"required"`
	PeriodEnd   time.Time      `json:"period_end" validate:"required"`
	Claims      []*ClaimRecord `json:"claims" validate:"min=2,max=200"`
}

// Validate checks the request's own fields. Cross-claim constraints (shared
// insurer/provider/type) are the batch builder's job.
func (b *BatchRequest) Validate() []string {
	return validationMessages(validate.Struct(b))
}

func validationMessages(err error) []string {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q constraint", fe.Namespace(), fe.Tag()))
	}
	return msgs
}
