package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"trainerpass/guardian/pkg/cli"
	"trainerpass/guardian/pkg/config"
	"trainerpass/guardian/pkg/filter"
	"trainerpass/guardian/pkg/policy"
)

var scanFlags struct {
	format          string
	rulesFile       string
	failOnViolation bool
}

var scanCmd = &cobra.Command{
	Use:   "scan [text...]",
	Short: "Scan text with the content filter",
	Long: `Scan text offline with the content filter. Arguments are joined with
spaces; with no arguments the text is read from stdin.

Nothing is recorded and no strikes are added.

Examples:
  # Scan an argument
  guardian scan "meet me at 555 123 4567"

  # Scan stdin as JSON, failing on a violation
  cat bio.txt | guardian scan --format json --fail-on-violation

  # Scan with a custom rule set
  guardian scan --rules-file rules.yaml "dm me on telegram"`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanFlags.format, "format", "text", "output format: text, json")
	scanCmd.Flags().StringVar(&scanFlags.rulesFile, "rules-file", "", "rule-set file (overrides filter.rules_file)")
	scanCmd.Flags().BoolVar(&scanFlags.failOnViolation, "fail-on-violation", false, "exit with status 1 when a violation is found")
}

// scanResult is the output of the scan command.
type scanResult struct {
	Violation     bool             `json:"violation"`
	Decision      *filter.Decision `json:"decision,omitempty"`
	PolicyVersion string           `json:"policy_version"`
}

func (r scanResult) Text() string {
	if !r.Violation {
		return "clean\n"
	}
	d := r.Decision
	return fmt.Sprintf("violation: %s\n  rule:     %s\n  category: %s\n  severity: %s\n  match:    %q\n",
		d.Label, d.RuleID, d.Category, d.Severity, d.Match)
}

func runScan(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(scanFlags.format, cli.FormatText, cli.FormatJSON)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	rules, err := offlineRules(cfg.Filter, scanFlags.rulesFile)
	if err != nil {
		return cli.NewCommandError("scan", err)
	}

	text := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return cli.NewCommandError("scan", fmt.Errorf("failed to read stdin: %w", err))
		}
		text = string(data)
	}

	snap := rules.Snapshot()
	decision := snap.Filter.Scan(text)
	result := scanResult{
		Violation:     decision != nil,
		Decision:      decision,
		PolicyVersion: snap.Version,
	}
	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), result); err != nil {
		return err
	}

	if decision != nil && scanFlags.failOnViolation {
		return &cli.ExitError{Code: 1, Reason: "violation found: " + decision.RuleID}
	}
	return nil
}

// offlineRules loads the rule set once, without watching. rulesFile
// overrides the configured file when set.
func offlineRules(cfg config.FilterConfig, rulesFile string) (*policy.Manager, error) {
	if rulesFile != "" {
		cfg.RulesFile = rulesFile
	}
	cfg.Watch = false
	return policy.NewManager(cfg, policy.WithLogger(slog.New(slog.DiscardHandler)))
}
