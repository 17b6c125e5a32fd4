// Package similarity computes a [0,1] similarity score between two
// free-text specifications.
//
// The score is a weighted combination of three signals: lexical overlap
// (Jaccard on word sets), character-length ratio, and agreement on a fixed
// set of structural probes (user-story phrasing, Given/When/Then, etc.).
// The function is pure, symmetric, and deterministic — score(a,b) always
// equals score(b,a), and identical non-empty inputs score exactly 1.0.
package similarity

import (
	"regexp"
	"strings"
	"unicode"
)

// Weights controls the contribution of each signal. They should sum to 1.0
// so that identical inputs score exactly 1.0.
type Weights struct {
	Lexical    float64
	Length     float64
	Structural float64
}

// DefaultWeights returns the standard 0.6/0.2/0.2 weighting.
func DefaultWeights() Weights {
	return Weights{Lexical: 0.6, Length: 0.2, Structural: 0.2}
}

// Scorer computes spec-to-spec similarity. The zero value is not usable;
// construct with New or NewWithWeights.
type Scorer struct {
	weights Weights
}

// New creates a Scorer with the default weights.
func New() *Scorer {
	return NewWithWeights(DefaultWeights())
}

// NewWithWeights creates a Scorer with custom signal weights.
func NewWithWeights(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// structuralProbes is the fixed probe set. Each probe tests for a
// structural convention common in written specifications; two texts that
// agree on presence/absence of a probe are structurally closer.
// Order is fixed so scoring is deterministic.
var structuralProbes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bas an? .{1,80}?\bi want\b`), // user-story phrasing
	regexp.MustCompile(`(?i)\bgiven\b.*\bwhen\b.*\bthen\b`),
	regexp.MustCompile(`(?i)\b(should|must)\b`),
	regexp.MustCompile(`(?i)acceptance criteria`),
	regexp.MustCompile(`(?i)user stor(y|ies)`),
}

// Score returns the similarity between two specification texts in [0,1].
func (s *Scorer) Score(a, b string) float64 {
	// Identical inputs are exactly 1.0 regardless of weight rounding.
	if a == b {
		return 1.0
	}

	lexical := jaccard(tokenize(a), tokenize(b))
	length := lengthRatio(a, b)
	structural := structuralAgreement(a, b)

	return s.weights.Lexical*lexical +
		s.weights.Length*length +
		s.weights.Structural*structural
}

// tokenize lowercases a text and splits it into a set of alphanumeric
// word tokens. Punctuation becomes whitespace.
func tokenize(text string) map[string]struct{} {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(' ')
	}

	parts := strings.Fields(b.String())
	tokens := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		tokens[p] = struct{}{}
	}
	return tokens
}

// jaccard returns |a ∩ b| / |a ∪ b|. Two empty sets are defined as
// identical (1.0) so empty inputs never produce NaN.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// lengthRatio returns min(len)/max(len) on character counts, 1.0 when both
// strings are empty.
func lengthRatio(a, b string) float64 {
	la, lb := len(a), len(b)
	if la == 0 && lb == 0 {
		return 1.0
	}
	if la > lb {
		la, lb = lb, la
	}
	return float64(la) / float64(lb)
}

// structuralAgreement returns the fraction of probes for which both texts
// agree on presence/absence.
func structuralAgreement(a, b string) float64 {
	agree := 0
	for _, probe := range structuralProbes {
		if probe.MatchString(a) == probe.MatchString(b) {
			agree++
		}
	}
	return float64(agree) / float64(len(structuralProbes))
}
