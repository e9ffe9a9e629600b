package veo

// Registry is an ordered, immutable list of model-endpoint candidates.
// Submission and status lookups walk the list front to back, so the
// most-likely-correct identifier belongs first.
type Registry struct {
	candidates []string
}

// NewRegistry builds a registry from the given candidates, dropping
// duplicates while preserving first-seen order. An empty input falls
// back to the built-in default list.
func NewRegistry(candidates []string) Registry {
	if len(candidates) == 0 {
		candidates = defaultCandidates
	}
	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return Registry{candidates: out}
}

// Candidates returns a copy of the candidate list in priority order.
func (r Registry) Candidates() []string {
	out := make([]string, len(r.candidates))
	copy(out, r.candidates)
	return out
}

// Len returns the number of candidates.
func (r Registry) Len() int {
	return len(r.candidates)
}
