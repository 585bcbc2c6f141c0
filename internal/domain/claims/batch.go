package claims

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/claimgate/claimgate/internal/nphies"
	"github.com/claimgate/claimgate/internal/platform/fhir"
)

// Batch size bounds enforced by the exchange, inclusive.
const (
	BatchMinSize = 2
	BatchMaxSize = 200
)

// BatchBuilder validates a candidate batch and splits it into independent
// envelopes. The exchange forbids grouping several claims under one message
// header, so each claim travels in its own envelope and the batch exists
// only as shared metadata injected into every claim entry.
type BatchBuilder struct {
	registry *Registry
	settings Settings
	logger   zerolog.Logger
}

func NewBatchBuilder(registry *Registry, s Settings, logger zerolog.Logger) *BatchBuilder {
	return &BatchBuilder{registry: registry, settings: s, logger: logger}
}

// Validate checks the cross-claim batch constraints. All violations are
// collected rather than failing on the first, so the caller can report every
// problem at once.
func (b *BatchBuilder) Validate(records []*ClaimRecord) (bool, []string) {
	var errs []string

	if len(records) < BatchMinSize || len(records) > BatchMaxSize {
		errs = append(errs, fmt.Sprintf("batch size must be between %d and %d claims, got %d",
			BatchMinSize, BatchMaxSize, len(records)))
	}

	insurers := map[string]bool{}
	providers := map[string]bool{}
	types := map[string]bool{}
	for i, rec := range records {
		if rec.Patient.ID == "" {
			errs = append(errs, fmt.Sprintf("claim %d (%s): patient is not resolvable", i+1, rec.ClaimNumber))
		}
		if rec.Provider.ID == "" {
			errs = append(errs, fmt.Sprintf("claim %d (%s): provider is not resolvable", i+1, rec.ClaimNumber))
		} else {
			providers[fallback(rec.Provider.License, rec.Provider.ID)] = true
		}
		if rec.Insurer.ID != "" {
			insurers[fallback(rec.Insurer.License, rec.Insurer.ID)] = true
		}
		types[NormalizeClaimType(rec.Type)] = true
	}
	if len(insurers) > 1 {
		errs = append(errs, fmt.Sprintf("all claims in a batch must share one insurer, found %d", len(insurers)))
	}
	if len(providers) > 1 {
		errs = append(errs, fmt.Sprintf("all claims in a batch must share one provider, found %d", len(providers)))
	}
	if len(types) > 1 {
		errs = append(errs, fmt.Sprintf("all claims in a batch must normalize to one claim type, found %d", len(types)))
	}

	return len(errs) == 0, errs
}

// Split validates the batch and builds one independent envelope per claim,
// injecting the batch identifier, 1-based sequence number, and batch period
// into each envelope's claim entry. Validation failure blocks construction
// entirely; no partial batch is ever produced.
func (b *BatchBuilder) Split(req *BatchRequest) ([]*fhir.Bundle, error) {
	errs := req.Validate()
	if ok, verrs := b.Validate(req.Claims); !ok {
		errs = append(errs, verrs...)
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Messages: errs}
	}

	period := fhir.Period{
		Start: formatDate(req.PeriodStart),
		End:   formatDate(req.PeriodEnd),
	}

	envelopes := make([]*fhir.Bundle, 0, len(req.Claims))
	for i, rec := range req.Claims {
		bundle, err := b.registry.BuildEnvelope(rec)
		if err != nil {
			return nil, fmt.Errorf("batch %s claim %d (%s): %w", req.BatchID, i+1, rec.ClaimNumber, err)
		}
		if err := injectBatchMetadata(bundle, req.BatchID, i+1, period); err != nil {
			return nil, fmt.Errorf("batch %s claim %d (%s): %w", req.BatchID, i+1, rec.ClaimNumber, err)
		}
		b.logger.Debug().
			Str("batch_id", req.BatchID).
			Str("claim_number", rec.ClaimNumber).
			Int("sequence", i+1).
			Msg("built batch envelope")
		envelopes = append(envelopes, bundle)
	}

	b.logger.Info().
		Str("batch_id", req.BatchID).
		Int("envelopes", len(envelopes)).
		Msg("batch split complete")
	return envelopes, nil
}

// injectBatchMetadata replaces the claim entry of an envelope with a copy
// carrying the batch extensions. Pre-existing batch extensions from an
// earlier submission attempt are stripped first so re-submission never
// duplicates them.
func injectBatchMetadata(bundle *fhir.Bundle, batchID string, sequence int, period fhir.Period) error {
	for i, entry := range bundle.Entry {
		if entry.ResourceType() != "Claim" {
			continue
		}
		bundle.Entry[i].Resource = InjectBatchExtensions(entry.Resource, batchID, sequence, period)
		return nil
	}
	return fmt.Errorf("envelope has no claim entry")
}

// InjectBatchExtensions returns a copy of a claim resource with the batch
// identifier, sequence number, and period extensions appended, after
// stripping any previous batch extensions. The input resource is not
// modified, which keeps re-injection idempotent and safe to retry.
func InjectBatchExtensions(claim map[string]interface{}, batchID string, sequence int, period fhir.Period) map[string]interface{} {
	stripped := fhir.WithoutExtensions(claim,
		nphies.ExtBatchIdentifier,
		nphies.ExtBatchNumber,
		nphies.ExtBatchPeriod,
	)
	return fhir.WithExtensions(stripped,
		fhir.Extension{
			URL: nphies.ExtBatchIdentifier,
			ValueIdentifier: &fhir.Identifier{
				System: nphies.SysBatchID,
				Value:  batchID,
			},
		},
		fhir.Extension{
			URL:          nphies.ExtBatchNumber,
			ValueInteger: fhir.IntPtr(sequence),
		},
		fhir.Extension{
			URL:         nphies.ExtBatchPeriod,
			ValuePeriod: &period,
		},
	)
}

// ReadBatchExtensions reads the batch identifier and sequence number back
// from a claim resource. ok is false when either extension is absent.
func ReadBatchExtensions(claim map[string]interface{}) (batchID string, sequence int, ok bool) {
	idExt, idOK := fhir.FindExtension(claim, nphies.ExtBatchIdentifier)
	seqExt, seqOK := fhir.FindExtension(claim, nphies.ExtBatchNumber)
	if !idOK || !seqOK || idExt.ValueIdentifier == nil || seqExt.ValueInteger == nil {
		return "", 0, false
	}
	return idExt.ValueIdentifier.Value, *seqExt.ValueInteger, true
}

// BuildPollRequest produces a minimal task-style envelope asking the
// exchange for any deferred batch responses. A non-empty batchID narrows the
// poll to one batch.
func (b *BatchBuilder) BuildPollRequest(batchID string) *fhir.Bundle {
	taskID := uuid.New().String()
	task := map[string]interface{}{
		"resourceType": "Task",
		"id":           taskID,
		"meta":         fhir.Meta{Profile: []string{nphies.ProfileTask}},
		"identifier": []fhir.Identifier{{
			System: nphies.SysClaimID,
			Value:  "poll-" + taskID,
		}},
		"status":     "requested",
		"intent":     "order",
		"priority":   "routine",
		"authoredOn": formatDateTimeOffset(time.Now()),
		"code": fhir.CodeableConcept{
			Coding: []fhir.Coding{{System: nphies.CSTaskCode, Code: "poll"}},
		},
	}
	if batchID != "" {
		task["input"] = []map[string]interface{}{{
			"type": fhir.CodeableConcept{
				Coding: []fhir.Coding{{System: nphies.CSTaskInputType, Code: "batch-identifier"}},
			},
			"valueIdentifier": fhir.Identifier{System: nphies.SysBatchID, Value: batchID},
		}}
	}

	header := buildMessageHeader(b.settings, nphies.EventPollRequest, fhir.URN(taskID))
	entries := []fhir.BundleEntry{
		{FullURL: fhir.URN(header["id"].(string)), Resource: header},
		{FullURL: fhir.URN(taskID), Resource: task},
	}
	return fhir.NewMessageBundle(nphies.SysBundleID, nphies.ProfileBundle, entries)
}
