package info

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Kush-Singh-26/aksara/builder/catalog"
	"github.com/Kush-Singh-26/aksara/builder/config"
	"github.com/Kush-Singh-26/aksara/builder/models"
	"github.com/Kush-Singh-26/aksara/builder/testutil"
)

const clashCatalog = `
name: clash
version: 3
tables:
  first:
    - ["a", "b"]
  second:
    - ["b", "c"]
schemes:
  forward:
    - name: first
      rules: [first]
    - name: second
      rules: [second]
`

func TestCollectDefault(t *testing.T) {
	r, err := Collect(testutil.CreateTestFilesystemWithContent(t, nil), config.DefaultConfig(), models.Variants)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if r.Source != "embedded" || r.Fingerprint == "" || r.Tables == 0 {
		t.Errorf("unexpected catalog header: %+v", r)
	}
	if len(r.Variants) != len(models.Variants) {
		t.Fatalf("got %d variants, want %d", len(r.Variants), len(models.Variants))
	}
	for _, v := range r.Variants {
		if v.Words == 0 {
			t.Errorf("%s: no root words", v.Variant)
		}
		if len(v.Schemes) != len(catalog.Kinds) {
			t.Errorf("%s: %d schemes, want %d", v.Variant, len(v.Schemes), len(catalog.Kinds))
		}
		fwd := v.Schemes[0]
		if fwd.Kind != catalog.Forward || len(fwd.Stages) == 0 || fwd.Rules == 0 {
			t.Errorf("%s: empty forward scheme %+v", v.Variant, fwd)
		}
		sum := 0
		for _, st := range fwd.Stages {
			sum += st.Rules
		}
		if sum != fwd.Rules {
			t.Errorf("%s: stage rules sum to %d, scheme reports %d", v.Variant, sum, fwd.Rules)
		}
	}
	if n := r.Conflicts(); n != 0 {
		t.Errorf("default catalog has %d conflicts", n)
	}
}

func TestCollectConflicts(t *testing.T) {
	fs := testutil.CreateTestFilesystemWithContent(t, map[string]string{"/rules/clash.yaml": clashCatalog})
	cfg := config.DefaultConfig()
	cfg.Catalog = "/rules/clash.yaml"

	r, err := Collect(fs, cfg, []models.Variant{models.Jawa})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if r.Catalog != "clash" || r.Version != 3 {
		t.Errorf("header = %s v%d", r.Catalog, r.Version)
	}
	fwd := r.Variants[0].Schemes[0]
	if len(fwd.Conflicts) != 1 {
		t.Fatalf("conflicts = %v, want 1", fwd.Conflicts)
	}
	if c := fwd.Conflicts[0]; c.Stage != "first" || c.LaterStage != "second" || c.Key != "b" {
		t.Errorf("conflict = %+v", c)
	}

	var out bytes.Buffer
	r.Print(&out, true)
	for _, want := range []string{"Catalog clash (version 3)", "first", "1 stage re-entry conflicts"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestCollectMissingCatalog(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Catalog = "/nowhere.yaml"
	if _, err := Collect(testutil.CreateTestFilesystemWithContent(t, nil), cfg, models.Variants); err == nil {
		t.Error("expected an error for a missing catalog")
	}
}

func TestRun(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "aksara.yaml")

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, out string)
	}{
		{
			name: "text",
			args: []string{"-variant", "sunda"},
			check: func(t *testing.T, out string) {
				if !strings.Contains(out, "sunda") || strings.Contains(out, "madura") {
					t.Errorf("expected only sunda:\n%s", out)
				}
				if !strings.Contains(out, "No stage re-entry conflicts") {
					t.Errorf("missing guard summary:\n%s", out)
				}
			},
		},
		{
			name: "json",
			args: []string{"-json"},
			check: func(t *testing.T, out string) {
				var r Report
				if err := json.Unmarshal([]byte(out), &r); err != nil {
					t.Fatalf("invalid JSON: %v", err)
				}
				if len(r.Variants) != len(models.Variants) {
					t.Errorf("got %d variants", len(r.Variants))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := Run(append([]string{"-config", cfgPath}, tt.args...), &out); err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			tt.check(t, out.String())
		})
	}
}

func TestRunUnknownVariant(t *testing.T) {
	if err := Run([]string{"-config", filepath.Join(os.TempDir(), "none.yaml"), "-variant", "klingon"}, &bytes.Buffer{}); err == nil {
		t.Error("expected an error for an unknown variant")
	}
}
