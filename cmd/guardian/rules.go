package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"trainerpass/guardian/pkg/cli"
	"trainerpass/guardian/pkg/filter"
	"trainerpass/guardian/pkg/policy"
)

var rulesFlags struct {
	format string
	file   string
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and validate content rules",
	Long: `Inspect the active rule table or validate a rule-set file.

Examples:
  # List the active rules in evaluation order
  guardian rules list

  # Validate a rule-set file before deploying it
  guardian rules validate --file rules.yaml`,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the active rules in evaluation order",
	RunE:  listRules,
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a rule-set file",
	RunE:  validateRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd, rulesValidateCmd)

	rulesListCmd.Flags().StringVar(&rulesFlags.format, "format", "text", "output format: text, json, csv")
	rulesListCmd.Flags().StringVar(&rulesFlags.file, "file", "", "rule-set file (overrides filter.rules_file)")

	rulesValidateCmd.Flags().StringVar(&rulesFlags.file, "file", "", "rule-set file to validate (required)")
	_ = rulesValidateCmd.MarkFlagRequired("file")
}

// ruleTable is the output of rules list.
type ruleTable struct {
	PolicyVersion  string        `json:"policy_version"`
	PhoneDetection bool          `json:"phone_detection"`
	Rules          []filter.Rule `json:"rules"`
}

func (t ruleTable) Header() []string {
	return []string{"order", "id", "category", "severity", "patterns", "label"}
}

func (t ruleTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.Rules))
	for i, r := range t.Rules {
		rows = append(rows, []string{
			strconv.Itoa(i + 1), r.ID, string(r.Category), string(r.Severity),
			strconv.Itoa(len(r.Patterns)), r.Label,
		})
	}
	return rows
}

func (t ruleTable) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Policy version: %s\n", t.PolicyVersion)
	for i, r := range t.Rules {
		fmt.Fprintf(&b, "%2d. %-22s %-16s %-8s %s\n", i+1, r.ID, r.Category, r.Severity, r.Label)
	}
	phone := "off"
	if t.PhoneDetection {
		phone = "on"
	}
	fmt.Fprintf(&b, "Phone detection: %s\n", phone)
	return b.String()
}

func listRules(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(rulesFlags.format, cli.FormatText, cli.FormatJSON, cli.FormatCSV)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rules, err := offlineRules(cfg.Filter, rulesFlags.file)
	if err != nil {
		return cli.NewCommandError("rules list", err)
	}

	snap := rules.Snapshot()
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), ruleTable{
		PolicyVersion:  snap.Version,
		PhoneDetection: snap.Filter.PhoneDetection(),
		Rules:          snap.Filter.Rules(),
	})
}

func validateRules(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	rs, version, err := policy.LoadFile(rulesFlags.file)
	if err != nil {
		return cli.NewCommandError("rules validate", err)
	}
	f, err := policy.Build(cfg.Filter, rs)
	if err != nil {
		return cli.NewCommandError("rules validate", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid (version %s, %d custom rules, %d active rules)\n",
		rulesFlags.file, version, len(rs.Rules), len(f.Rules()))
	return nil
}
