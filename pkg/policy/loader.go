package policy

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"trainerpass/guardian/pkg/config"
	"trainerpass/guardian/pkg/filter"
)

const (
	// MaxFileSize is the largest rule-set file accepted.
	MaxFileSize = 1 << 20

	// BuiltinVersion is the version reported when no rule-set file is used.
	BuiltinVersion = "builtin"
)

// RuleSet is the decoded form of a rule-set file.
type RuleSet struct {
	// PhoneDetection overrides filter.phone_detection when set.
	PhoneDetection *bool `yaml:"phone_detection"`

	// Replace makes Rules the whole table instead of extending the built-ins.
	Replace bool `yaml:"replace"`

	// DisabledRules lists rule IDs to remove, in addition to the ones
	// disabled in configuration.
	DisabledRules []string `yaml:"disabled_rules"`

	// Rules are custom rules, evaluated in file order.
	Rules []filter.Rule `yaml:"rules"`
}

// LoadFile reads and parses a rule-set file. It also returns the file's
// fingerprint, used as the policy version.
func LoadFile(path string) (*RuleSet, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", &LoadError{FilePath: path, Message: "failed to access file", Cause: err}
	}
	if !info.Mode().IsRegular() {
		return nil, "", &LoadError{FilePath: path, Message: "not a regular file"}
	}
	if info.Size() > MaxFileSize {
		return nil, "", &LoadError{
			FilePath: path,
			Message:  fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", info.Size(), MaxFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", &LoadError{FilePath: path, Message: "failed to read file", Cause: err}
	}
	if !utf8.Valid(data) {
		return nil, "", &LoadError{FilePath: path, Message: "file is not valid UTF-8"}
	}

	rs, err := Parse(data)
	if err != nil {
		return nil, "", &ParseError{FilePath: path, Cause: err}
	}
	return rs, Fingerprint(data), nil
}

// Parse decodes a rule set. Unknown fields are rejected so that typos such
// as "pattern:" fail loudly instead of producing an empty rule.
func Parse(data []byte) (*RuleSet, error) {
	rs := &RuleSet{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(rs); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return rs, nil
}

// Fingerprint returns the short SHA-256 fingerprint of a rule-set file.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// Build compiles a filter from the filter configuration and an optional
// rule set. A nil rule set yields the built-in table.
func Build(cfg config.FilterConfig, rs *RuleSet) (*filter.Filter, error) {
	phone := cfg.PhoneDetection
	disabled := slices.Clone(cfg.DisabledRules)
	var opts []filter.Option

	if rs != nil {
		if rs.PhoneDetection != nil {
			phone = *rs.PhoneDetection
		}
		disabled = append(disabled, rs.DisabledRules...)
		if rs.Replace {
			opts = append(opts, filter.WithRules(rs.Rules...))
		} else if len(rs.Rules) > 0 {
			opts = append(opts, filter.WithExtraRules(rs.Rules...))
		}
	}

	slices.Sort(disabled)
	disabled = slices.Compact(disabled)

	opts = append(opts,
		filter.WithPhoneDetection(phone),
		filter.WithoutRules(disabled...),
	)
	return filter.New(opts...)
}
