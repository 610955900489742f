package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"trainerpass/guardian/pkg/cli"
	"trainerpass/guardian/pkg/config"
	"trainerpass/guardian/pkg/moderation"
	"trainerpass/guardian/pkg/moderation/export"
	"trainerpass/guardian/pkg/moderation/retention"
	"trainerpass/guardian/pkg/moderation/storage"
)

var queryFlags struct {
	author   string
	source   string
	ruleID   string
	category string
	severity string
	action   string
	since    string
	until    string
	limit    int
	offset   int
	format   string
	output   string
}

var pruneFlags struct {
	dryRun bool
}

var moderationCmd = &cobra.Command{
	Use:   "moderation",
	Short: "Review and maintain moderation records",
	Long: `Query moderation records and apply the retention policy.

Examples:
  # Show the latest violations by an author
  guardian moderation query --author alice

  # Export a day of rejected submissions to CSV
  guardian moderation query --action reject --since 24h --format csv -o rejects.csv

  # Show what the retention policy would delete
  guardian moderation prune --dry-run`,
}

var moderationQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query moderation records",
	RunE:  queryRecords,
}

var moderationPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete records outside the retention policy",
	RunE:  pruneRecords,
}

func init() {
	rootCmd.AddCommand(moderationCmd)
	moderationCmd.AddCommand(moderationQueryCmd, moderationPruneCmd)

	f := moderationQueryCmd.Flags()
	f.StringVar(&queryFlags.author, "author", "", "filter by author")
	f.StringVar(&queryFlags.source, "source", "", "filter by submission source")
	f.StringVar(&queryFlags.ruleID, "rule-id", "", "filter by rule ID")
	f.StringVar(&queryFlags.category, "category", "", "filter by category")
	f.StringVar(&queryFlags.severity, "severity", "", "filter by severity")
	f.StringVar(&queryFlags.action, "action", "", "filter by action: flag, reject")
	f.StringVar(&queryFlags.since, "since", "", "start time (RFC3339, or a duration such as 24h)")
	f.StringVar(&queryFlags.until, "until", "", "end time (RFC3339, or a duration such as 1h)")
	f.IntVar(&queryFlags.limit, "limit", 0, "maximum number of records (default from moderation.query.default_limit)")
	f.IntVar(&queryFlags.offset, "offset", 0, "number of records to skip")
	f.StringVar(&queryFlags.format, "format", "text", "output format: text, json, csv")
	f.StringVarP(&queryFlags.output, "output", "o", "", "write to file instead of stdout")

	moderationPruneCmd.Flags().BoolVar(&pruneFlags.dryRun, "dry-run", false, "report what would be deleted without deleting")
}

// recordList is the text rendering of query results.
type recordList []*moderation.Record

func (l recordList) Text() string {
	if len(l) == 0 {
		return "No records found\n"
	}
	var b strings.Builder
	for _, r := range l {
		author := r.Author
		if author == "" {
			author = "-"
		}
		fmt.Fprintf(&b, "%s  %-6s  %-8s  %-22s  %-16s  %q\n",
			r.ScannedAt.UTC().Format(time.RFC3339), r.Action, r.Severity, r.RuleID, author, r.Match)
	}
	fmt.Fprintf(&b, "%d record(s)\n", len(l))
	return b.String()
}

func queryRecords(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(queryFlags.format, cli.FormatText, cli.FormatJSON, cli.FormatCSV)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	now := time.Now()
	q := &moderation.Query{
		Author:   queryFlags.author,
		Source:   queryFlags.source,
		RuleID:   queryFlags.ruleID,
		Category: queryFlags.category,
		Severity: queryFlags.severity,
		Action:   moderation.Action(queryFlags.action),
		Limit:    queryFlags.limit,
		Offset:   queryFlags.offset,
	}
	if q.StartTime, err = parseTimeFlag("since", queryFlags.since, now); err != nil {
		return err
	}
	if q.EndTime, err = parseTimeFlag("until", queryFlags.until, now); err != nil {
		return err
	}

	moderation.ApplyQueryDefaults(q, cfg.Moderation.Query.DefaultLimit)
	if err := moderation.ValidateQuery(q, cfg.Moderation.Query.MaxLimit); err != nil {
		return err
	}

	store, err := storage.New(cfg.Moderation)
	if err != nil {
		return cli.NewCommandError("moderation query", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Moderation.Query.Timeout)
	defer cancel()

	records, err := store.Query(ctx, q)
	if err != nil {
		return cli.NewCommandError("moderation query", err)
	}

	out := cmd.OutOrStdout()
	if queryFlags.output != "" {
		file, err := os.Create(queryFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	if err := writeRecords(ctx, out, format, records, cfg.Moderation.Export); err != nil {
		return cli.NewCommandError("moderation query", err)
	}

	if queryFlags.output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d records to %s\n", len(records), queryFlags.output)
	}
	return nil
}

func writeRecords(ctx context.Context, w io.Writer, format cli.OutputFormat, records []*moderation.Record, cfg config.ExportConfig) error {
	if format == cli.FormatText {
		return cli.NewFormatter(format).FormatTo(w, recordList(records))
	}
	exporter, err := export.New(string(format), cfg)
	if err != nil {
		return err
	}
	return exporter.Export(ctx, records, w)
}

// parseTimeFlag accepts an RFC3339 timestamp or a duration counted back
// from now. An empty value means no bound.
func parseTimeFlag(name, value string, now time.Time) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return nil, fmt.Errorf("invalid --%s %q: expected RFC3339 time or positive duration", name, value)
	}
	t := now.Add(-d)
	return &t, nil
}

func pruneRecords(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := setupLogging(cfg.Telemetry.Logging); err != nil {
		return err
	}

	store, err := storage.New(cfg.Moderation)
	if err != nil {
		return cli.NewCommandError("moderation prune", err)
	}
	defer store.Close()

	pruner := retention.NewPruner(store, cfg.Moderation.Retention, nil)
	out := cmd.OutOrStdout()

	if pruneFlags.dryRun {
		byAge, byCount, err := pruner.Preview(cmd.Context())
		if err != nil {
			return cli.NewCommandError("moderation prune", err)
		}
		fmt.Fprintf(out, "Would delete %d records (%d past retention, %d over max_records)\n",
			byAge+byCount, byAge, byCount)
		return nil
	}

	deleted, err := pruner.Prune(cmd.Context())
	if err != nil {
		return cli.NewCommandError("moderation prune", err)
	}
	fmt.Fprintf(out, "Deleted %d records\n", deleted)
	return nil
}
