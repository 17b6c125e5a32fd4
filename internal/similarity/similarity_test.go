package similarity_test

import (
	"testing"

	"github.com/specforge/specforge/internal/similarity"
)

const specAuth = `# User Login
As a registered user I want to log in with email and password.
Given valid credentials, when the user submits the form, then a session is created.
The system must lock the account after five failed attempts.

## Acceptance Criteria
- Session cookie is HttpOnly
- Failed logins are rate limited`

const specPayments = `# Payment Processing
Charge the customer card through the gateway and record the transaction.
Refunds are issued to the original payment method within 30 days.`

// ─── Identity / Symmetry ────────────────────────────────────────────────────

func TestScore_IdenticalInputs(t *testing.T) {
	s := similarity.New()

	for _, text := range []string{specAuth, specPayments, "one word", "x"} {
		if got := s.Score(text, text); got != 1.0 {
			t.Errorf("Score(s, s) = %v for input of %d bytes, want 1.0", got, len(text))
		}
	}
}

func TestScore_Symmetric(t *testing.T) {
	s := similarity.New()

	pairs := [][2]string{
		{specAuth, specPayments},
		{specAuth, ""},
		{"as a user I want to log in", "the system must log users in"},
		{"", ""},
	}
	for _, p := range pairs {
		ab := s.Score(p[0], p[1])
		ba := s.Score(p[1], p[0])
		if ab != ba {
			t.Errorf("Score(a,b) = %v, Score(b,a) = %v — not symmetric", ab, ba)
		}
	}
}

func TestScore_BothEmpty(t *testing.T) {
	s := similarity.New()

	// Empty token sets are defined as identical to avoid NaN.
	if got := s.Score("", ""); got != 1.0 {
		t.Errorf("Score(\"\", \"\") = %v, want 1.0", got)
	}
	// Punctuation-only inputs reduce to empty token sets too.
	got := s.Score("!!!", "???")
	if got < 0 || got > 1 {
		t.Errorf("Score(punct, punct) = %v, want value in [0,1]", got)
	}
}

func TestScore_Range(t *testing.T) {
	s := similarity.New()

	pairs := [][2]string{
		{specAuth, specPayments},
		{specAuth, specAuth + " extra"},
		{"", specPayments},
		{"a", "completely different text with many more words than the other"},
	}
	for _, p := range pairs {
		got := s.Score(p[0], p[1])
		if got < 0 || got > 1 {
			t.Errorf("Score out of range: %v", got)
		}
	}
}

// ─── Signal behavior ────────────────────────────────────────────────────────

func TestScore_NearIdenticalScoresHigh(t *testing.T) {
	s := similarity.New()

	a := specAuth
	b := specAuth + "\n- Password reset link expires after one hour"

	if got := s.Score(a, b); got < 0.8 {
		t.Errorf("near-identical specs scored %v, want >= 0.8", got)
	}
}

func TestScore_UnrelatedScoresLow(t *testing.T) {
	s := similarity.New()

	if got := s.Score(specAuth, specPayments); got > 0.6 {
		t.Errorf("unrelated specs scored %v, want <= 0.6", got)
	}
}

func TestScore_CaseInsensitive(t *testing.T) {
	s := similarity.New()

	a := "The User MUST Log In"
	b := "the user must log in"
	if got := s.Score(a, b); got < 0.95 {
		t.Errorf("case variants scored %v, want >= 0.95", got)
	}
}

func TestScore_Deterministic(t *testing.T) {
	s := similarity.New()

	first := s.Score(specAuth, specPayments)
	for i := 0; i < 10; i++ {
		if got := s.Score(specAuth, specPayments); got != first {
			t.Fatalf("run %d: Score = %v, want %v (non-deterministic)", i, got, first)
		}
	}
}

func TestScore_CustomWeights(t *testing.T) {
	// All weight on length: two same-length unrelated strings score 1.0.
	s := similarity.NewWithWeights(similarity.Weights{Lexical: 0, Length: 1, Structural: 0})

	if got := s.Score("aaaa", "bzzz"); got != 1.0 {
		t.Errorf("length-only score = %v, want 1.0", got)
	}
}
