package citation

import "codeqa/internal/domain"

// Verify drops references that do not point inside one of the snippets
// that were actually shown to the model. Reversed ranges are normalised
// before the check.
func Verify(refs []domain.CitationReference, snippets []domain.RetrievedSnippet) []domain.CitationReference {
	kept := make([]domain.CitationReference, 0, len(refs))
	for _, ref := range refs {
		lo, hi := ref.StartLine, ref.EndLine
		if lo > hi {
			lo, hi = hi, lo
		}
		for _, s := range snippets {
			if s.Path == ref.Path && s.StartLine <= lo && hi <= s.EndLine {
				kept = append(kept, ref)
				break
			}
		}
	}
	return kept
}

// ReconcileVerified is Reconcile followed by Verify. If verification
// rejects every declared reference the defaults are used.
func ReconcileVerified(raw string, snippets []domain.RetrievedSnippet) (string, []domain.CitationReference) {
	defaults := domain.ReferencesFor(snippets)
	answer, refs := Reconcile(raw, defaults)
	if len(refs) == 0 {
		return answer, defaults
	}
	verified := Verify(refs, snippets)
	if len(verified) == 0 {
		return answer, defaults
	}
	return answer, verified
}
