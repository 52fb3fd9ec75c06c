package utils

import "testing"

func TestHashContent(t *testing.T) {
	a := HashContent([]byte("kita"))
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a != HashContent([]byte("kita")) {
		t.Error("hash should be deterministic")
	}
	if a == HashContent([]byte("kitab")) {
		t.Error("different content should hash differently")
	}
}

func TestHashStrings(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		same bool
	}{
		{"identical", []string{"a", "b"}, []string{"a", "b"}, true},
		{"split point", []string{"ab", "c"}, []string{"a", "bc"}, false},
		{"order", []string{"a", "b"}, []string{"b", "a"}, false},
		{"empty part", []string{"a", ""}, []string{"a"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HashStrings(tt.a...) == HashStrings(tt.b...); got != tt.same {
				t.Errorf("HashStrings(%q) == HashStrings(%q) is %v, want %v", tt.a, tt.b, got, tt.same)
			}
		})
	}
}

func TestHashSetIgnoresOrder(t *testing.T) {
	words := []string{"makan", "kita", "buku"}
	if HashSet(words) != HashSet([]string{"buku", "makan", "kita"}) {
		t.Error("HashSet should not depend on order")
	}
	if words[0] != "makan" {
		t.Error("HashSet must not reorder its input")
	}
	if HashSet(words) == HashSet([]string{"makan", "kita"}) {
		t.Error("different sets should hash differently")
	}
}
