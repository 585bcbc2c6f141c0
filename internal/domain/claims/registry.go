package claims

import (
	"strings"

	"github.com/claimgate/claimgate/internal/nphies"
	"github.com/claimgate/claimgate/internal/platform/fhir"
)

// EnvelopeBuilder is what the registry hands out: a per-type strategy that
// can also assemble the full envelope.
type EnvelopeBuilder interface {
	ClaimBuilder
	BuildEnvelope(rec *ClaimRecord) (*fhir.Bundle, error)
}

// Registry maps normalized claim-type labels to builder instances. It is
// populated once at construction and read-only afterward, so it is safe to
// share across goroutines.
type Registry struct {
	builders map[string]EnvelopeBuilder
}

func NewRegistry(s Settings) *Registry {
	return &Registry{
		builders: map[string]EnvelopeBuilder{
			nphies.ClaimTypeInstitutional: NewInstitutionalBuilder(s),
			nphies.ClaimTypeVision:        NewVisionBuilder(s),
		},
	}
}

// NormalizeClaimType collapses the loosely-typed labels callers use into the
// exchange's claim-type codes. Unknown labels normalize to institutional;
// that default is a policy choice carried over from the submission rules,
// not a silent fallback, and callers relying on it should tag records
// explicitly.
func NormalizeClaimType(label string) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case nphies.ClaimTypeInstitutional, "inpatient", "ip", "daycase", "day-case":
		return nphies.ClaimTypeInstitutional
	case nphies.ClaimTypeVision, "optical", "optometry":
		return nphies.ClaimTypeVision
	default:
		return nphies.ClaimTypeInstitutional
	}
}

// ForType returns the builder for a claim-type label, normalizing first.
func (r *Registry) ForType(label string) EnvelopeBuilder {
	return r.builders[NormalizeClaimType(label)]
}

// BuildEnvelope dispatches a record to its type's builder.
func (r *Registry) BuildEnvelope(rec *ClaimRecord) (*fhir.Bundle, error) {
	return r.ForType(rec.Type).BuildEnvelope(rec)
}
