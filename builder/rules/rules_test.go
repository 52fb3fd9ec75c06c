package rules

import (
	"reflect"
	"testing"
)

func TestProduct(t *testing.T) {
	left := []Pair{P("k", "K"), P("t", "T")}
	right := []Pair{P("a", "1"), P("i", "2")}

	got := Product(left, right)
	want := []Pair{P("ka", "K1"), P("ki", "K2"), P("ta", "T1"), P("ti", "T2")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Product() = %v, want %v", got, want)
	}

	if got := Product(nil, right); len(got) != 0 {
		t.Errorf("Product(nil, right) should be empty, got %v", got)
	}
}

func TestChain(t *testing.T) {
	got := Chain([]Pair{P("a", "1")}, nil, []Pair{P("b", "2"), P("c", "3")})
	want := []Pair{P("a", "1"), P("b", "2"), P("c", "3")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Chain() = %v, want %v", got, want)
	}
}

func TestEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ka", "ka"},
		{"^e", `\^e`},
		{"t-", `t\-`},
		{"a.b", `a\.b`},
		{"(x)", `\(x\)`},
		{"$", `\$`},
		{"ك", "ك"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Escape(tt.in); got != tt.want {
				t.Errorf("Escape(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPrepare(t *testing.T) {
	in := []Rule{
		{Pattern: "^e", Replace: "X$"},
		{Pattern: `(a)b`, Replace: "${1}", Regex: true},
	}
	got := Prepare(in)

	if got[0].Pattern != `\^e` || got[0].Replace != "X$$" || !got[0].Regex || got[0].Key != "^e" {
		t.Errorf("plain rule not escaped: %+v", got[0])
	}
	if got[1] != in[1] {
		t.Errorf("regex rule changed: %+v", got[1])
	}
	if in[0].Regex {
		t.Error("Prepare must not mutate its input")
	}
}

func TestInverse(t *testing.T) {
	got := Inverse([]Pair{P("a", "X"), P("b", "Y")})
	want := []Pair{P("X", "a"), P("Y", "b")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Inverse() = %v, want %v", got, want)
	}
}

func TestMakeTransitive(t *testing.T) {
	tests := []struct {
		name   string
		stages [][]Pair
		want   []Pair
	}{
		{
			name:   "prefix rewrite",
			stages: [][]Pair{{P("a", "X")}, {P("ab", "Y")}},
			want:   []Pair{P("Xb", "Y"), P("a", "X")},
		},
		{
			name:   "unmatched entries pass through",
			stages: [][]Pair{{P("a", "X")}, {P("ab", "Y"), P("cd", "Z")}},
			want:   []Pair{P("Xb", "Y"), P("cd", "Z"), P("a", "X")},
		},
		{
			name:   "several left prefixes all emit",
			stages: [][]Pair{{P("k", "K"), P("k_h", "H")}, {P("k_ha", "HA")}},
			want:   []Pair{P("K_ha", "HA"), P("Ha", "HA"), P("k", "K"), P("k_h", "H")},
		},
		{
			name: "three stages fold right to left",
			stages: [][]Pair{
				{P("k", "K")},
				{P("ka", "KA")},
				{P("kan", "KAN")},
			},
			// stage 2+3: [("KAn","KAN"), ("ka","KA")]; then stage 1 over that
			want: []Pair{P("KAn", "KAN"), P("Ka", "KA"), P("k", "K")},
		},
		{
			name:   "single stage is returned as is",
			stages: [][]Pair{{P("a", "X")}},
			want:   []Pair{P("a", "X")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MakeTransitive(tt.stages...)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MakeTransitive() = %v, want %v", got, tt.want)
			}
		})
	}

	if got := MakeTransitive(); got != nil {
		t.Errorf("MakeTransitive() with no stages = %v, want nil", got)
	}
}

func TestWithoutAndDedupe(t *testing.T) {
	pairs := []Pair{P("w-a", "1"), P("ka", "2"), P("y-a", "3"), P("ka", "4")}

	got := Without(pairs, "w-a", "y-a")
	if want := []Pair{P("ka", "2"), P("ka", "4")}; !reflect.DeepEqual(got, want) {
		t.Errorf("Without() = %v, want %v", got, want)
	}

	got = Dedupe(pairs)
	if want := []Pair{P("w-a", "1"), P("ka", "2"), P("y-a", "3")}; !reflect.DeepEqual(got, want) {
		t.Errorf("Dedupe() = %v, want %v", got, want)
	}
}

func TestMapPairs(t *testing.T) {
	got := MapPairs([]Pair{P("k", "K"), P("n_g", "G")}, "{k}+{k}", "{v}~")
	want := []Pair{P("k+k", "K~"), P("n_g+n_g", "G~")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MapPairs() = %v, want %v", got, want)
	}
}

func TestKeysValues(t *testing.T) {
	pairs := []Pair{P("a", "1"), P("b", "2")}
	if got := Keys(pairs); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Keys() = %v", got)
	}
	if got := Values(pairs); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Errorf("Values() = %v", got)
	}
}
