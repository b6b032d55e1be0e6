// Package registry resolves loosely-formatted external identifiers against
// the canonical student registry.
package registry

import "context"

// Student is the canonical registry record. The engine only reads it; the
// registry owns the data.
type Student struct {
	AdmissionNumber string
	PinNumber       string
	Name            string
	College         string
	Course          string
	Branch          string
	Batch           string
	CurrentYear     int
}

// Store defines registry lookups. A backing store that cannot normalize
// in-query may post-filter application side, as long as the contract holds.
type Store interface {
	// FindByNormalizedIDs returns every student whose normalized admission
	// number or normalized pin number is in ids.
	FindByNormalizedIDs(ctx context.Context, ids []string) ([]Student, error)
	Search(ctx context.Context, query string, limit int) ([]Student, error)
}
