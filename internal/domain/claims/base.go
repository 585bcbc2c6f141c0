package claims

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claimgate/claimgate/internal/nphies"
	"github.com/claimgate/claimgate/internal/platform/fhir"
)

// Settings carries the exchange routing values shared by every envelope.
// They come from configuration, not from individual claim records.
type Settings struct {
	SenderLicense       string
	ReceiverLicense     string
	SourceEndpoint      string
	DestinationEndpoint string
	DefaultCurrency     string
}

// ResourceRefs holds the urn:uuid locators generated for one envelope so
// sub-resources can cross-reference each other.
type ResourceRefs struct {
	PatientURN      string
	MotherURN       string
	ProviderURN     string
	InsurerURN      string
	CoverageURN     string
	PractitionerURN string
	EncounterURN    string
	ClaimURN        string
	ClaimID         string
}

// ClaimBuilder is the per-type strategy. BuildEncounterResource returns
// (nil, nil) for types the protocol defines as encounter-less.
type ClaimBuilder interface {
	ClaimType() string
	BuildClaimResource(rec *ClaimRecord, refs *ResourceRefs) (map[string]interface{}, error)
	BuildEncounterResource(rec *ClaimRecord, refs *ResourceRefs) (map[string]interface{}, error)
}

// motherBundler is implemented by builders whose profile bundles a second
// ("mother") subject resource for newborn cases.
type motherBundler interface {
	NeedsMotherSubject(rec *ClaimRecord) bool
}

// ValidationError aggregates pre-transmission validation failures. It blocks
// envelope construction; the caller decides whether to abort or correct.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "claim validation failed: " + strings.Join(e.Messages, "; ")
}

// BuildEnvelope assembles one complete message bundle for a claim record
// using the given per-type builder. Entry order is fixed: header, patient,
// (mother), provider, insurer, coverage, practitioner, (encounter), claim.
func BuildEnvelope(b ClaimBuilder, s Settings, rec *ClaimRecord) (*fhir.Bundle, error) {
	if msgs := rec.Validate(); len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}

	refs := newRefs(rec, b)

	patient, _ := buildPatient(rec.Patient, idFromURN(refs.PatientURN))
	provider, _ := buildProviderOrganization(rec.Provider, idFromURN(refs.ProviderURN))
	insurer, _ := buildInsurerOrganization(rec.Insurer, idFromURN(refs.InsurerURN))
	coverage, _ := buildCoverage(rec.Coverage, idFromURN(refs.CoverageURN), refs.PatientURN, refs.MotherURN, refs.InsurerURN)
	practitioner, _ := buildPractitioner(rec.Practitioner, idFromURN(refs.PractitionerURN))

	claim, err := b.BuildClaimResource(rec, refs)
	if err != nil {
		return nil, fmt.Errorf("build %s claim resource: %w", b.ClaimType(), err)
	}
	encounter, err := b.BuildEncounterResource(rec, refs)
	if err != nil {
		return nil, fmt.Errorf("build %s encounter resource: %w", b.ClaimType(), err)
	}

	header := buildMessageHeader(s, nphies.EventClaimRequest, refs.ClaimURN)

	entries := []fhir.BundleEntry{
		{FullURL: fhir.URN(header["id"].(string)), Resource: header},
		{FullURL: refs.PatientURN, Resource: patient},
	}

	if refs.MotherURN != "" && rec.Mother != nil {
		mother, _ := buildPatient(*rec.Mother, idFromURN(refs.MotherURN))
		entries = append(entries, fhir.BundleEntry{FullURL: refs.MotherURN, Resource: mother})
	}

	entries = append(entries,
		fhir.BundleEntry{FullURL: refs.ProviderURN, Resource: provider},
		fhir.BundleEntry{FullURL: refs.InsurerURN, Resource: insurer},
		fhir.BundleEntry{FullURL: refs.CoverageURN, Resource: coverage},
		fhir.BundleEntry{FullURL: refs.PractitionerURN, Resource: practitioner},
	)
	if encounter != nil {
		entries = append(entries, fhir.BundleEntry{FullURL: refs.EncounterURN, Resource: encounter})
	}
	entries = append(entries, fhir.BundleEntry{FullURL: refs.ClaimURN, Resource: claim})

	return fhir.NewMessageBundle(nphies.SysBundleID, nphies.ProfileBundle, entries), nil
}

func newRefs(rec *ClaimRecord, b ClaimBuilder) *ResourceRefs {
	refs := &ResourceRefs{
		PatientURN:      fhir.URN(localID(rec.Patient.ID)),
		ProviderURN:     fhir.URN(uuid.New().String()),
		InsurerURN:      fhir.URN(uuid.New().String()),
		CoverageURN:     fhir.URN(uuid.New().String()),
		PractitionerURN: fhir.URN(uuid.New().String()),
		EncounterURN:    fhir.URN(uuid.New().String()),
		ClaimID:         uuid.New().String(),
	}
	refs.ClaimURN = fhir.URN(refs.ClaimID)
	if mb, ok := b.(motherBundler); ok && mb.NeedsMotherSubject(rec) {
		refs.MotherURN = fhir.URN(uuid.New().String())
	}
	return refs
}

// idFromURN strips the urn:uuid prefix from a locator.
func idFromURN(urn string) string {
	return strings.TrimPrefix(urn, "urn:uuid:")
}

func buildMessageHeader(s Settings, eventCode, focusURN string) map[string]interface{} {
	id := uuid.New().String()
	return map[string]interface{}{
		"resourceType": "MessageHeader",
		"id":           id,
		"meta":         fhir.Meta{Profile: []string{nphies.ProfileMessageHeader}},
		"eventCoding":  fhir.Coding{System: nphies.CSMessageEvents, Code: eventCode},
		"destination": []map[string]interface{}{{
			"endpoint": s.DestinationEndpoint,
			"receiver": fhir.Reference{
				Type: "Organization",
				Display: s.ReceiverLicense,
			},
		}},
		"sender": fhir.Reference{
			Type:    "Organization",
			Display: s.SenderLicense,
		},
		"source": map[string]interface{}{"endpoint": s.SourceEndpoint},
		"focus":  []fhir.Reference{{Reference: focusURN}},
	}
}

// claimScaffold builds the claim resource fields common to every claim type:
// identifier, status, type/subType, use, subject, created timestamp, insurer,
// provider, priority, care team, and the insurance line.
func claimScaffold(rec *ClaimRecord, refs *ResourceRefs, claimType, subType, profile string) map[string]interface{} {
	resource := map[string]interface{}{
		"resourceType": "Claim",
		"id":           refs.ClaimID,
		"meta":         fhir.Meta{Profile: []string{profile}},
		"identifier": []fhir.Identifier{{
			System: nphies.SysClaimID,
			Value:  rec.ClaimNumber,
		}},
		"status": "active",
		"type": fhir.CodeableConcept{
			Coding: []fhir.Coding{{
				System:  nphies.CSClaimType,
				Code:    claimType,
				Display: nphies.ClaimTypeDisplay[claimType],
			}},
		},
		"use":     "claim",
		"patient": fhir.Reference{Reference: refs.PatientURN},
		"created": formatDateTimeOffset(time.Now()),
		"insurer": fhir.Reference{Reference: refs.InsurerURN},
		"provider": fhir.Reference{Reference: refs.ProviderURN},
		"priority": fhir.CodeableConcept{
			Coding: []fhir.Coding{{System: nphies.CSProcessPriority, Code: "normal"}},
		},
		"payee": map[string]interface{}{
			"type": fhir.CodeableConcept{
				Coding: []fhir.Coding{{System: nphies.CSPayeeType, Code: "provider"}},
			},
		},
		"careTeam": []map[string]interface{}{{
			"sequence": 1,
			"provider": fhir.Reference{Reference: refs.PractitionerURN},
			"role": fhir.CodeableConcept{
				Coding: []fhir.Coding{{System: nphies.CSCareTeamRole, Code: "primary"}},
			},
		}},
		"insurance": []map[string]interface{}{{
			"sequence": 1,
			"focal":    true,
			"coverage": fhir.Reference{Reference: refs.CoverageURN},
		}},
	}
	if subType != "" {
		resource["subType"] = fhir.CodeableConcept{
			Coding: []fhir.Coding{{
				System:  nphies.CSClaimSubType,
				Code:    subType,
				Display: nphies.SubTypeDisplay[subType],
			}},
		}
	}
	return resource
}

// accountingPeriodExtension builds the extension the exchange requires first
// on every claim resource. The day of month is forced to 01 regardless of
// the actual service day; submitting the literal service date is a known
// rejection.
func accountingPeriodExtension(serviceDate time.Time) fhir.Extension {
	return fhir.Extension{
		URL:       nphies.ExtAccountingPeriod,
		ValueDate: formatDate(firstOfMonth(serviceDate)),
	}
}

func episodeExtension(rec *ClaimRecord) fhir.Extension {
	episode := rec.EpisodeID
	if episode == "" {
		episode = fmt.Sprintf("EP-%s", rec.ClaimNumber)
	}
	return fhir.Extension{
		URL: nphies.ExtEpisode,
		ValueIdentifier: &fhir.Identifier{
			System: nphies.SysEpisode,
			Value:  episode,
		},
	}
}

// patientInvoiceFor synthesizes the per-item patient invoice identifier from
// the claim number and service date when the caller supplied none.
func patientInvoiceFor(rec *ClaimRecord, item ClaimItem) fhir.Identifier {
	value := item.PatientInvoice
	if value == "" {
		value = fmt.Sprintf("%s-%s", rec.ClaimNumber, rec.ServiceDate.Format("20060102"))
	}
	return fhir.Identifier{System: nphies.SysPatientInvoice, Value: value}
}

// buildItems renders the item list and the recomputed total. itemExtensions
// supplies the per-type extension set for one line.
func buildItems(rec *ClaimRecord, currency string, itemExtensions func(ClaimItem) []fhir.Extension) ([]map[string]interface{}, fhir.Money) {
	items := make([]map[string]interface{}, 0, len(rec.Items))
	var total float64
	for idx, item := range rec.Items {
		seq := item.Sequence
		if seq == 0 {
			seq = idx + 1
		}
		factor := item.Factor
		if factor == 0 {
			factor = 1
		}
		net := item.Net()
		total += net

		serviced := rec.ServiceDate
		if item.ServicedDate != nil {
			serviced = *item.ServicedDate
		}

		m := map[string]interface{}{
			"extension": itemExtensions(item),
			"sequence":  seq,
			"careTeamSequence": []int{1},
			"productOrService": fhir.CodeableConcept{
				Coding: []fhir.Coding{{
					System:  item.System,
					Code:    item.Code,
					Display: item.Display,
				}},
			},
			"servicedDate": formatDate(serviced),
			"quantity":     fhir.Quantity{Value: item.Quantity},
			"unitPrice":    fhir.Money{Value: roundMinor(item.UnitPrice), Currency: currency},
			"factor":       factor,
			"net":          fhir.Money{Value: net, Currency: currency},
		}
		items = append(items, m)
	}
	return items, fhir.Money{Value: roundMinor(total), Currency: currency}
}
