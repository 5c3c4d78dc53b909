package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/heymagurany/toggl-to-jira/internal/config"
	"github.com/heymagurany/toggl-to-jira/internal/credentials"
	"github.com/heymagurany/toggl-to-jira/internal/epic"
	"github.com/heymagurany/toggl-to-jira/internal/jira"
	"github.com/heymagurany/toggl-to-jira/internal/reconcile"
	"github.com/heymagurany/toggl-to-jira/internal/report"
	"github.com/heymagurany/toggl-to-jira/internal/toggl"
)

var (
	configPath string

	// sync flags
	fromTime  string
	toTime    string
	today     bool
	yesterday bool
	dryRun    bool

	// epic flags
	lastMonth   bool
	workingDays int
	output      string
	xlsxExport  bool
	csvExport   bool
)

var rootCmd = &cobra.Command{
	Use:           "toggl-to-jira",
	Short:         "Sync Toggl time entries to Jira worklogs and roll time up per epic",
	Long:          `toggl-to-jira reconciles Toggl time entries against Jira worklogs for a time window, and reports how logged time distributes over epics.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Log Toggl time entries to Jira.",
	Long:  `Fetches Toggl entries and Jira worklogs for the window, diffs them, and applies the additions, updates and removals to Jira. With --dry-run the plan is printed without touching Jira.`,
	RunE:  runSync,
}

var epicCmd = &cobra.Command{
	Use:   "epic",
	Short: "Output rolled-up work log per epic for a time range.",
	Long:  `Attributes every worklog you authored in the window to the epic of the issue it was logged on (inherited through the issue hierarchy) and prints seconds and percent of working capacity per epic.`,
	RunE:  runEpic,
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the rc file (default: nearest "+config.RCFileName+")")

	syncCmd.Flags().StringVarP(&fromTime, "from-time", "f", "", "The date/time from which to sync work logs, inclusive (default: start of today)")
	syncCmd.Flags().StringVarP(&toTime, "to-time", "t", "", "The date/time to which to sync work logs, exclusive (default: now)")
	syncCmd.Flags().BoolVar(&today, "today", false, "Sync today's entries")
	syncCmd.Flags().BoolVar(&yesterday, "yesterday", false, "Sync yesterday's entries")
	syncCmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "Calculate the sync operations without making changes")

	epicCmd.Flags().StringVarP(&fromTime, "from-time", "f", "", "The date/time from which to search for work logs, inclusive (default: start of month)")
	epicCmd.Flags().StringVarP(&toTime, "to-time", "t", "", "The date/time to which to search for work logs (default: end of month)")
	epicCmd.Flags().BoolVar(&lastMonth, "last-month", false, "Search last month's work logs")
	epicCmd.Flags().IntVarP(&workingDays, "working-days", "w", 0, "The number of days to include in the calculation (default: weekdays in the window)")
	epicCmd.Flags().StringVarP(&output, "output", "o", "reports", "Output directory for exports")
	epicCmd.Flags().BoolVar(&xlsxExport, "xlsx", false, "Export the epic roll-up as an Excel workbook")
	epicCmd.Flags().BoolVar(&csvExport, "csv", false, "Export the epic roll-up as CSV")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(epicCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	start, end, err := syncWindow(time.Now())
	if err != nil {
		return err
	}

	togglClient, jiraClient := buildClients(cfg)
	reconciler := reconcile.New(togglClient, jiraClient, slog.Default())

	bar := newSpinner("Syncing time entries")
	plan, err := reconciler.Run(cmd.Context(), start, end, dryRun)
	finishBar(bar)
	if err != nil {
		return err
	}

	return report.PrintJSON(cmd.OutOrStdout(), plan)
}

func runEpic(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	start, end, err := epicWindow(time.Now())
	if err != nil {
		return err
	}

	days := workingDays
	if days <= 0 {
		days = weekdaysBetween(start, end)
	}
	workingSeconds := days * secondsPerWorkday

	_, jiraClient := buildClients(cfg)
	aggregator := epic.New(jiraClient, epic.Options{
		EpicField:     cfg.Jira.EpicField,
		EpicIssueType: cfg.Jira.EpicIssueType,
	}, slog.Default())

	bar := newSpinner("Rolling up work logs")
	aggregates, err := aggregator.Aggregate(cmd.Context(), start, end, workingSeconds)
	finishBar(bar)
	if err != nil {
		return err
	}

	if err := report.PrintJSON(cmd.OutOrStdout(), aggregates); err != nil {
		return err
	}
	report.WriteEpicSummary(cmd.OutOrStdout(), aggregates, workingSeconds)

	if xlsxExport {
		exporter := report.NewEpicExcelExporter(output)
		filename, err := exporter.Export(aggregates, start, end)
		if err != nil {
			slog.Error("failed to export xlsx", "error", err)
		} else {
			slog.Info("report exported", "format", "xlsx", "file", filename)
		}
	}
	if csvExport {
		exporter := report.NewEpicCSVExporter(output)
		filename, err := exporter.Export(aggregates, start, end)
		if err != nil {
			slog.Error("failed to export csv", "error", err)
		} else {
			slog.Info("report exported", "format", "csv", "file", filename)
		}
	}

	return nil
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildClients(cfg *config.Config) (*toggl.Client, *jira.Client) {
	var provider credentials.Provider
	if cfg.Jira.Username != "" && cfg.Jira.Password != "" {
		provider = credentials.Static(cfg.Jira.Username, cfg.Jira.Password)
	} else {
		provider = credentials.Cached(credentials.Prompt())
	}
	return toggl.NewClient(cfg.Toggl.APIToken), jira.NewClient(cfg.Jira.BaseURL, provider)
}
