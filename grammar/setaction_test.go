package grammar

import "testing"

func TestParseSetActionSingleIndex(t *testing.T) {
	got, err := ParseSetAction("set(1)")
	if err != nil {
		t.Fatalf("ParseSetAction: %v", err)
	}
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("got %v, want [1]", got)
	}
}

func TestParseSetActionMultipleIndices(t *testing.T) {
	got, err := ParseSetAction("set(0, 2, 3)")
	if err != nil {
		t.Fatalf("ParseSetAction: %v", err)
	}
	want := []int{0, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestParseSetActionRejectsTooManyIndices(t *testing.T) {
	if _, err := ParseSetAction("set(1,2,3,4,5,6)"); err == nil {
		t.Fatalf("expected an error for 6 indices")
	}
}

func TestParseSetActionRejectsBadSyntax(t *testing.T) {
	for _, body := range []string{"set()", "set(1", "foo(1)", "set(a)"} {
		if _, err := ParseSetAction(body); err == nil {
			t.Fatalf("ParseSetAction(%q): expected error", body)
		}
	}
}
