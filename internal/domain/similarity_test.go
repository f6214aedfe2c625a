package domain

import (
	"testing"
	"testing/quick"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{"equal", "Paris", "Paris", 100},
		{"both empty", "", "", 100},
		{"left empty", "", "Paris", 0},
		{"right empty", "Paris", "", 0},
		{"one char off", "paris", "pariss", 83},
		{"single substitution", "madrid", "madrit", 83},
		{"disjoint", "abc", "xyz", 0},
		{"unicode", "sí", "si", 50},
		{"half", "ab", "ax", 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Similarity(tt.a, tt.b); got != tt.want {
				t.Errorf("Similarity(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilarity_Symmetry(t *testing.T) {
	symmetric := func(a, b string) bool {
		return Similarity(a, b) == Similarity(b, a)
	}
	if err := quick.Check(symmetric, nil); err != nil {
		t.Errorf("symmetry violated: %v", err)
	}
}

func TestSimilarity_Identity(t *testing.T) {
	identity := func(a string) bool {
		return Similarity(a, a) == 100
	}
	if err := quick.Check(identity, nil); err != nil {
		t.Errorf("identity violated: %v", err)
	}
}

func TestSimilarity_Range(t *testing.T) {
	inRange := func(a, b string) bool {
		s := Similarity(a, b)
		return s >= 0 && s <= 100
	}
	if err := quick.Check(inRange, nil); err != nil {
		t.Errorf("similarity out of range: %v", err)
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a    string
		b    string
		want int
	}{
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"", "abc", 3},
		{"abc", "abc", 0},
		{"gopher", "gophers", 1},
	}

	for _, tt := range tests {
		if got := levenshtein([]rune(tt.a), []rune(tt.b)); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
