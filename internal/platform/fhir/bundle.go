package fhir

import (
	"time"

	"github.com/google/uuid"
)

// Bundle represents a FHIR Bundle resource. Entries hold decoded resources
// rather than raw JSON so builders can cross-reference and patch them before
// the bundle is serialized once at the transport boundary.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	ID           string        `json:"id,omitempty"`
	Meta         *Meta         `json:"meta,omitempty"`
	Identifier   *Identifier   `json:"identifier,omitempty"`
	Type         string        `json:"type"`
	Timestamp    *time.Time    `json:"timestamp,omitempty"`
	Entry        []BundleEntry `json:"entry,omitempty"`
}

type BundleEntry struct {
	FullURL  string                 `json:"fullUrl,omitempty"`
	Resource map[string]interface{} `json:"resource,omitempty"`
}

// Bundle types used by this engine.
const (
	BundleTypeMessage = "message"
)

// URN converts a resource id into the urn:uuid form used for fullUrl
// cross-references inside message bundles.
func URN(id string) string { return "urn:uuid:" + id }

// NewMessageBundle wraps already-built entries in a message bundle shell with
// a fresh identifier and timestamp. The first entry is expected to be the
// MessageHeader; the function does not reorder entries.
func NewMessageBundle(identifierSystem, profile string, entries []BundleEntry) *Bundle {
	now := time.Now().UTC()
	id := uuid.New().String()
	return &Bundle{
		ResourceType: "Bundle",
		ID:           id,
		Meta: &Meta{
			LastUpdated: now,
			Profile:     []string{profile},
		},
		Identifier: &Identifier{
			System: identifierSystem,
			Value:  id,
		},
		Type:      BundleTypeMessage,
		Timestamp: &now,
		Entry:     entries,
	}
}

// ResourceType returns the resourceType of an entry's resource, or "".
func (e BundleEntry) ResourceType() string {
	rt, _ := e.Resource["resourceType"].(string)
	return rt
}

// FindEntries returns all bundle entries holding a resource of the given type.
func (b *Bundle) FindEntries(resourceType string) []BundleEntry {
	var out []BundleEntry
	for _, e := range b.Entry {
		if e.ResourceType() == resourceType {
			out = append(out, e)
		}
	}
	return out
}

// FindEntry returns the first entry of the given resource type, if any.
func (b *Bundle) FindEntry(resourceType string) (BundleEntry, bool) {
	for _, e := range b.Entry {
		if e.ResourceType() == resourceType {
			return e, true
		}
	}
	return BundleEntry{}, false
}
