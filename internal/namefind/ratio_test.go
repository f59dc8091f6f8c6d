package namefind

import "testing"

func TestRatioIdentity(t *testing.T) {
	if r := Ratio("central station", "central station"); r != 1 {
		t.Errorf("Ratio(x, x) = %v, want 1", r)
	}
	if r := Ratio("", ""); r != 1 {
		t.Errorf("Ratio(\"\", \"\") = %v, want 1", r)
	}
}

func TestRatioDisjoint(t *testing.T) {
	if r := Ratio("abc", "xyz"); r != 0 {
		t.Errorf("Ratio of disjoint strings = %v, want 0", r)
	}
}

func TestRatioPartialOverlap(t *testing.T) {
	// "central" shares a long common run with "centra" but differs at the tail.
	r := Ratio("central", "centra")
	if r <= 0.5 || r >= 1 {
		t.Errorf("Ratio(central, centra) = %v, want in (0.5, 1)", r)
	}
}

func TestBestMatchCutoff(t *testing.T) {
	_, _, ok := BestMatch("zzzzzzzz", []string{"central station", "north terminal"}, 0.2)
	if ok {
		t.Errorf("BestMatch should reject candidates below the cutoff")
	}
}

func TestBestMatchPicksHighestRatio(t *testing.T) {
	idx, _, ok := BestMatch("central stn", []string{"north terminal", "central station", "eastgate"}, 0.2)
	if !ok {
		t.Fatalf("expected a match above cutoff")
	}
	if idx != 1 {
		t.Errorf("BestMatch picked index %d, want 1 (central station)", idx)
	}
}

func TestBestMatchTieBreaksOnFirstEncountered(t *testing.T) {
	// Two identical candidates: the first index must win on a tie.
	idx, _, ok := BestMatch("alpha", []string{"alpha", "alpha"}, 0.2)
	if !ok || idx != 0 {
		t.Errorf("BestMatch tie-break = (%d, %v), want (0, true)", idx, ok)
	}
}
