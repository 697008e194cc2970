package schema

import "testing"

func TestParseDomain(t *testing.T) {
	cases := map[string]Domain{
		"sports":     DomainSports,
		"finance":    DomainFinance,
		"shopping":   DomainShopping,
		"healthcare": DomainHealthcare,
		"general":    DomainGeneral,
		"astrology":  DomainGeneral,
		"":           DomainGeneral,
	}
	for in, want := range cases {
		if got := ParseDomain(in); got != want {
			t.Errorf("ParseDomain(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestConfidenceOrdinalRoundTrip(t *testing.T) {
	for _, c := range []Confidence{ConfidenceLow, ConfidenceMedium, ConfidenceHigh, ConfidenceVeryHigh} {
		if got := ConfidenceFromOrdinal(c.Ordinal()); got != c {
			t.Errorf("round trip %s -> %d -> %s", c, c.Ordinal(), got)
		}
	}
}

func TestConfidenceUnknownMapsToMedium(t *testing.T) {
	if Confidence("certain").Ordinal() != 1 {
		t.Error("unknown confidence should rank as medium")
	}
	if ParseConfidence("certain") != ConfidenceMedium {
		t.Error("unknown confidence should parse as medium")
	}
}

func TestConfidenceFromOrdinalClamps(t *testing.T) {
	if ConfidenceFromOrdinal(-1) != ConfidenceLow {
		t.Error("negative ordinal should clamp low")
	}
	if ConfidenceFromOrdinal(99) != ConfidenceVeryHigh {
		t.Error("oversized ordinal should clamp very_high")
	}
}

func TestUsageNormalize(t *testing.T) {
	u := Usage{PromptTokens: 100, CompletionTokens: 40}.Normalize()
	if u.TotalTokens != 140 {
		t.Errorf("Normalize total = %d", u.TotalTokens)
	}

	reported := Usage{PromptTokens: 100, CompletionTokens: 40, TotalTokens: 150}.Normalize()
	if reported.TotalTokens != 150 {
		t.Error("provider-reported total should be kept")
	}

	zero := Usage{}.Normalize()
	if zero.TotalTokens != 0 {
		t.Error("zero usage stays zero")
	}
}

func TestUsageAdd(t *testing.T) {
	a := Usage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150}
	b := Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}
	sum := a.Add(b)
	if sum.PromptTokens != 110 || sum.CompletionTokens != 55 || sum.TotalTokens != 165 {
		t.Errorf("unexpected sum: %+v", sum)
	}
}
