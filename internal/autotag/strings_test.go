package autotag

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello world"},
		{"  spaced   out ", "spaced out"},
		{"Café Noir", "cafe noir"},
		{"AC/DC", "ac dc"},
		{"Tom & Jerry", "tom and jerry"},
		{"The Beatles", "beatles the"},
		{"Beatles, The", "beatles the"},
		{"The", "the"},
		{"東京ストーリー", "東京ストーリー"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := normalize(tt.in); got != tt.want {
			t.Errorf("normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStringDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 0},
		{"Same", "same", 0},
		{"The Band", "Band, The", 0},
		{"Sigur Rós", "Sigur Ros", 0},
		{"abc", "abd", 1.0 / 3},
		{"", "x", 1},
		{"abc", "xyz", 1},
		{"!!!", "???", 0},
		{"Ichiban", "一番", 1},
	}
	for _, tt := range tests {
		got := StringDistance(tt.a, tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("StringDistance(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if back := StringDistance(tt.b, tt.a); math.Abs(back-got) > 1e-9 {
			t.Errorf("StringDistance(%q, %q) = %v, not symmetric with %v", tt.b, tt.a, back, got)
		}
	}
}
