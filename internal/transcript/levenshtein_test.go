package transcript

import "testing"

func TestLevenshteinIdentical(t *testing.T) {
	if got := Levenshtein("kitten", "kitten"); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestLevenshteinClassic(t *testing.T) {
	if got := Levenshtein("kitten", "sitting"); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestLevenshteinEmptyOperand(t *testing.T) {
	if got := Levenshtein("", "abc"); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if got := Levenshtein("abc", ""); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestWERProxyBothEmpty(t *testing.T) {
	if got := WERProxy("", ""); got != 0 {
		t.Fatalf("expected 0, got %f", got)
	}
}

func TestWERProxyIdentical(t *testing.T) {
	if got := WERProxy("hello world", "hello world"); got != 0 {
		t.Fatalf("expected 0, got %f", got)
	}
}

func TestWERProxyPartialEdit(t *testing.T) {
	got := WERProxy("hello world", "hello word")
	if got <= 0 || got >= 1 {
		t.Fatalf("expected a fractional proxy in (0,1), got %f", got)
	}
}
