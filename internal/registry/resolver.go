package registry

import (
	"context"
	"strings"
)

// LookupMap indexes resolved students by every key an operator-typed
// identifier might reduce to.
type LookupMap map[string]*Student

// Find tries the normalized form first, then the raw lowercase fallback.
func (m LookupMap) Find(raw string) *Student {
	if key := Normalize(raw); key != "" {
		if s, ok := m[key]; ok {
			return s
		}
	}
	if s, ok := m[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return nil
}

// SyntheticID derives the degraded canonical id for an unresolved raw
// identifier. Callers must surface such students for operator review.
func SyntheticID(raw string) string {
	return strings.ToUpper(Normalize(raw))
}

// Resolver batch-resolves raw identifiers against the registry.
type Resolver struct {
	store Store
}

// NewResolver constructs a resolver.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve issues a single registry round trip for the whole id set and keys
// the result by normalized admission number, normalized pin number, and the
// raw lowercase forms of both. Unresolved ids are not an error here.
func (r *Resolver) Resolve(ctx context.Context, rawIDs []string) (LookupMap, error) {
	seen := make(map[string]struct{}, len(rawIDs))
	keys := make([]string, 0, len(rawIDs))
	for _, raw := range rawIDs {
		norm := Normalize(raw)
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		keys = append(keys, norm)
	}
	if len(keys) == 0 {
		return LookupMap{}, nil
	}

	students, err := r.store.FindByNormalizedIDs(ctx, keys)
	if err != nil {
		return nil, err
	}

	lookup := make(LookupMap, len(students)*4)
	for i := range students {
		s := &students[i]
		for _, key := range []string{
			Normalize(s.AdmissionNumber),
			Normalize(s.PinNumber),
			strings.ToLower(strings.TrimSpace(s.AdmissionNumber)),
			strings.ToLower(strings.TrimSpace(s.PinNumber)),
		} {
			if key == "" {
				continue
			}
			if _, ok := lookup[key]; !ok {
				lookup[key] = s
			}
		}
	}
	return lookup, nil
}
