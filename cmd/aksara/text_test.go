package main

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"
)

func baseArgs(t *testing.T) []string {
	t.Helper()
	return []string{"-config", filepath.Join(t.TempDir(), "aksara.yaml"), "-no-cache"}
}

func TestTextCommands(t *testing.T) {
	tests := []struct {
		name  string
		run   func([]string, io.Reader, io.Writer) error
		args  []string
		stdin string
		want  string
	}{
		{
			name: "latin argument",
			run:  runLatin,
			args: []string{"kita"},
			want: "كِيتَا\n",
		},
		{
			name:  "latin stdin lines",
			run:   runLatin,
			stdin: "kita\nkita\n",
			want:  "كِيتَا\nكِيتَا\n",
		},
		{
			name: "latin stemmed",
			run:  runLatin,
			args: []string{"-variant", "jawa", "-stem", "tulisan"},
			want: "تُولِيسَان\n",
		},
		{
			name: "pegon",
			run:  runPegon,
			args: []string{"كِيتَا"},
			want: "kita\n",
		},
		{
			name: "stem",
			run:  runStem,
			args: []string{"-variant", "jawa", "dijupukake"},
			want: "dijupukake\tjupuk\tdi- -ake\n",
		},
		{
			name:  "stem not found",
			run:   runStem,
			args:  []string{"-variant", "jawa"},
			stdin: "aku\n",
			want:  "aku\taku\t-\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			args := append(baseArgs(t), tt.args...)
			if err := tt.run(args, strings.NewReader(tt.stdin), &out); err != nil {
				t.Fatalf("command failed: %v", err)
			}
			if out.String() != tt.want {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestTextStats(t *testing.T) {
	var out bytes.Buffer
	args := append(baseArgs(t), "-stats", "kita")
	if err := runLatin(args, strings.NewReader(""), &out); err != nil {
		t.Fatalf("runLatin failed: %v", err)
	}
	if !strings.Contains(out.String(), "1 transliterations") {
		t.Errorf("missing counters:\n%s", out.String())
	}
}

func TestTextUnknownVariant(t *testing.T) {
	args := append(baseArgs(t), "-variant", "klingon", "kita")
	if err := runLatin(args, strings.NewReader(""), &bytes.Buffer{}); err == nil {
		t.Error("expected an error for an unknown variant")
	}
}
