package hostre

import "testing"

func TestFindPrefixAtStart(t *testing.T) {
	re := MustCompile(`[0-9]+`)
	n, ok := re.FindPrefix("123abc")
	if !ok || n != 3 {
		t.Fatalf("FindPrefix = (%d, %v), want (3, true)", n, ok)
	}
}

func TestFindPrefixRequiresStartMatch(t *testing.T) {
	re := MustCompile(`[0-9]+`)
	if _, ok := re.FindPrefix("abc123"); ok {
		t.Fatalf("FindPrefix matched mid-string despite the offset-0 contract")
	}
}

func TestFindPrefixAlternationPrefersFirst(t *testing.T) {
	// Leftmost-first (PCRE) semantics: the first-written alternative
	// wins even when a later one would match more.
	re := MustCompile(`a|ab|abc`)
	n, ok := re.FindPrefix("abcd")
	if !ok || n != 1 {
		t.Fatalf("FindPrefix = (%d, %v), want (1, true) (first alternative)", n, ok)
	}
}

func TestFindPrefixGreedyQuantifier(t *testing.T) {
	re := MustCompile(`a+`)
	n, ok := re.FindPrefix("aaab")
	if !ok || n != 3 {
		t.Fatalf("FindPrefix = (%d, %v), want (3, true) (greedy repetition)", n, ok)
	}
}

func TestFindPrefixEmptyMatch(t *testing.T) {
	re := MustCompile(`[ \t]*`)
	n, ok := re.FindPrefix("abc")
	if !ok || n != 0 {
		t.Fatalf("FindPrefix = (%d, %v), want (0, true) (empty match at offset 0)", n, ok)
	}
}
