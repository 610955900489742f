package policy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"trainerpass/guardian/pkg/config"
	"trainerpass/guardian/pkg/filter"
)

const tradingRules = `
disabled_rules: [mild-profanity]
rules:
  - id: off-platform-trading
    label: Arranging trades outside the app
    category: contact_sharing
    severity: high
    patterns: ['\b(?:dm|message)\s+me\s+on\s+(?:discord|telegram|whatsapp)\b']
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func filterConfig() config.FilterConfig {
	return config.FilterConfig{PhoneDetection: true}
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rules.yaml", tradingRules)

	rs, version, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if len(rs.Rules) != 1 || rs.Rules[0].ID != "off-platform-trading" {
		t.Fatalf("rules = %+v", rs.Rules)
	}
	if rs.Rules[0].Category != filter.CategoryContactSharing || rs.Rules[0].Severity != filter.SeverityHigh {
		t.Errorf("rule fields not decoded: %+v", rs.Rules[0])
	}
	if version != Fingerprint([]byte(tradingRules)) || len(version) != 16 {
		t.Errorf("version = %q", version)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		path    string
		wantErr any
	}{
		{"missing", filepath.Join(dir, "nope.yaml"), &LoadError{}},
		{"directory", dir, &LoadError{}},
		{"bad yaml", writeFile(t, dir, "bad.yaml", "rules: [\n"), &ParseError{}},
		{"unknown field", writeFile(t, dir, "typo.yaml", "rules:\n  - id: x\n    pattern: ['x']\n"), &ParseError{}},
		{"invalid utf8", writeFile(t, dir, "bin.yaml", "rules: \xff\xfe"), &LoadError{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := LoadFile(tt.path)
			if err == nil {
				t.Fatal("expected error")
			}
			switch tt.wantErr.(type) {
			case *LoadError:
				var le *LoadError
				if !errors.As(err, &le) {
					t.Errorf("error = %T %v, want *LoadError", err, err)
				}
			case *ParseError:
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Errorf("error = %T %v, want *ParseError", err, err)
				}
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	rs, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error = %v", err)
	}
	if len(rs.Rules) != 0 || rs.PhoneDetection != nil {
		t.Errorf("empty rule set = %+v", rs)
	}
}

func TestBuild(t *testing.T) {
	off := false

	tests := []struct {
		name      string
		cfg       config.FilterConfig
		rs        *RuleSet
		text      string
		wantRule  string
		wantPhone bool
	}{
		{
			name:      "builtin",
			cfg:       filterConfig(),
			text:      "damn it",
			wantRule:  filter.RuleMildProfanity,
			wantPhone: true,
		},
		{
			name:      "config disables rule",
			cfg:       config.FilterConfig{PhoneDetection: true, DisabledRules: []string{filter.RuleMildProfanity}},
			text:      "damn it",
			wantPhone: true,
		},
		{
			name: "extra rule after builtins",
			cfg:  filterConfig(),
			rs: &RuleSet{Rules: []filter.Rule{{
				ID: "trading", Label: "Trading", Category: filter.CategoryContactSharing,
				Severity: filter.SeverityHigh, Patterns: []string{`\bdm me\b`},
			}}},
			text:      "dm me",
			wantRule:  "trading",
			wantPhone: true,
		},
		{
			name:     "rule set overrides phone detection",
			cfg:      filterConfig(),
			rs:       &RuleSet{PhoneDetection: &off},
			text:     "call 555-123-4567",
			wantRule: "",
		},
		{
			name: "replace table",
			cfg:  filterConfig(),
			rs: &RuleSet{Replace: true, Rules: []filter.Rule{{
				ID: "only", Label: "Only", Category: filter.CategoryProfanity,
				Severity: filter.SeverityMedium, Patterns: []string{`\bheck\b`},
			}}},
			text:      "damn it",
			wantPhone: true,
		},
		{
			name:      "duplicate disables collapse",
			cfg:       config.FilterConfig{PhoneDetection: true, DisabledRules: []string{filter.RuleMildProfanity}},
			rs:        &RuleSet{DisabledRules: []string{filter.RuleMildProfanity}},
			text:      "damn it",
			wantPhone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Build(tt.cfg, tt.rs)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if f.PhoneDetection() != tt.wantPhone {
				t.Errorf("PhoneDetection() = %v, want %v", f.PhoneDetection(), tt.wantPhone)
			}
			d := f.Scan(tt.text)
			got := ""
			if d != nil {
				got = d.RuleID
			}
			if got != tt.wantRule {
				t.Errorf("Scan(%q) rule = %q, want %q", tt.text, got, tt.wantRule)
			}
		})
	}
}

func TestBuild_InvalidRule(t *testing.T) {
	rs := &RuleSet{Rules: []filter.Rule{{
		ID: "broken", Label: "Broken", Category: filter.CategoryProfanity,
		Severity: filter.SeverityMedium, Patterns: []string{`(`},
	}}}

	_, err := Build(filterConfig(), rs)
	var re *filter.RuleError
	if !errors.As(err, &re) || re.RuleID != "broken" {
		t.Errorf("Build() error = %v, want *filter.RuleError for broken", err)
	}
}
