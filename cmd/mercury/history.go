package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/mercury/pkg/cli"
	"mercator-hq/mercury/pkg/config"
	"mercator-hq/mercury/pkg/history"
	"mercator-hq/mercury/pkg/history/export"
	"mercator-hq/mercury/pkg/history/query"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Query and summarize recorded gateway traffic",
	Long: `Query the traffic history recorded by the gateway.

Records capture each forwarded request: method, path, resolved backend,
status, outcome, latency, and byte counts. Captured request headers are
stored with sensitive values already redacted.`,
}

var historyQueryFlags struct {
	timeRange string
	backend   string
	method    string
	path      string
	outcome   string
	minStatus int
	maxStatus int
	limit     int
	offset    int
	sortBy    string
	sortOrder string
	format    string
	output    string
}

var historyQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query traffic records with filters",
	Long: `Query traffic records with filters, in text, JSON, or CSV.

Examples:
  # Most recent records
  mercury history query

  # Failed forwards in a time range, as JSON
  mercury history query --outcome backend_unavailable \
    --time-range "2026-08-01T00:00:00Z/2026-08-27T00:00:00Z" --format json

  # Slowest requests against one backend, exported to a file
  mercury history query --backend http://localhost:9000 \
    --sort latency --order desc --format csv --output slow.csv`,
	RunE: historyQuery,
}

var historyReportFlags struct {
	timeRange string
	format    string
}

var historyReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Aggregate statistics over recorded traffic",
	Long: `Summarize recorded traffic: totals by outcome, status class
distribution, latency, and per-backend counts.

Examples:
  mercury history report
  mercury history report --time-range "2026-08-26T00:00:00Z/2026-08-27T00:00:00Z" --format json`,
	RunE: historyReport,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyQueryCmd)
	historyCmd.AddCommand(historyReportCmd)

	qf := historyQueryCmd.Flags()
	qf.StringVar(&historyQueryFlags.timeRange, "time-range", "", "RFC3339 interval: start/end")
	qf.StringVar(&historyQueryFlags.backend, "backend", "", "filter by backend origin")
	qf.StringVar(&historyQueryFlags.method, "method", "", "filter by HTTP method")
	qf.StringVar(&historyQueryFlags.path, "path", "", "filter by path prefix")
	qf.StringVar(&historyQueryFlags.outcome, "outcome", "", "filter by outcome: forwarded, backend_unavailable")
	qf.IntVar(&historyQueryFlags.minStatus, "min-status", 0, "minimum status code")
	qf.IntVar(&historyQueryFlags.maxStatus, "max-status", 0, "maximum status code")
	qf.IntVar(&historyQueryFlags.limit, "limit", 0, "maximum records to return")
	qf.IntVar(&historyQueryFlags.offset, "offset", 0, "records to skip")
	qf.StringVar(&historyQueryFlags.sortBy, "sort", "", "sort field: request_time, latency, status_code")
	qf.StringVar(&historyQueryFlags.sortOrder, "order", "", "sort order: asc, desc")
	qf.StringVar(&historyQueryFlags.format, "format", "text", "output format: text, json, csv")
	qf.StringVar(&historyQueryFlags.output, "output", "", "write to file instead of stdout")

	rf := historyReportCmd.Flags()
	rf.StringVar(&historyReportFlags.timeRange, "time-range", "", "RFC3339 interval: start/end")
	rf.StringVar(&historyReportFlags.format, "format", "text", "output format: text, json")
}

// openHistory opens the configured history storage for read-side commands.
func openHistory() (history.Storage, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	if !cfg.History.Enabled {
		return nil, fmt.Errorf("traffic history is disabled in the configuration")
	}
	return openHistoryStorage(cfg)
}

// parseTimeRange parses an RFC3339 "start/end" interval.
func parseTimeRange(value string) (*time.Time, *time.Time, error) {
	if value == "" {
		return nil, nil, nil
	}

	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("invalid time range format (expected: start/end)")
	}

	start, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid start time: %w", err)
	}
	end, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid end time: %w", err)
	}
	return &start, &end, nil
}

func historyQuery(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	q := &history.Query{
		Backend:   historyQueryFlags.backend,
		Method:    strings.ToUpper(historyQueryFlags.method),
		Path:      historyQueryFlags.path,
		Outcome:   historyQueryFlags.outcome,
		Limit:     historyQueryFlags.limit,
		Offset:    historyQueryFlags.offset,
		SortBy:    historyQueryFlags.sortBy,
		SortOrder: historyQueryFlags.sortOrder,
	}
	q.StartTime, q.EndTime, err = parseTimeRange(historyQueryFlags.timeRange)
	if err != nil {
		return err
	}
	if historyQueryFlags.minStatus > 0 {
		q.MinStatus = &historyQueryFlags.minStatus
	}
	if historyQueryFlags.maxStatus > 0 {
		q.MaxStatus = &historyQueryFlags.maxStatus
	}

	query.ApplyDefaults(q)
	if err := query.Validate(q); err != nil {
		return err
	}

	ctx := context.Background()
	records, err := store.Query(ctx, q)
	if err != nil {
		return cli.NewCommandError("history query", err)
	}

	out := io.Writer(os.Stdout)
	if historyQueryFlags.output != "" {
		f, err := os.Create(historyQueryFlags.output)
		if err != nil {
			return cli.NewCommandError("history query", err)
		}
		defer f.Close()
		out = f
	}

	switch cli.OutputFormat(historyQueryFlags.format) {
	case cli.FormatJSON:
		return export.NewJSONExporter(true).Export(ctx, records, out)
	case cli.FormatCSV:
		return export.NewCSVExporter(true).Export(ctx, records, out)
	default:
		if len(records) == 0 {
			fmt.Fprintln(out, "No traffic records found.")
			return nil
		}
		return (&cli.TextFormatter{}).FormatTo(out, recordTable(records))
	}
}

// recordTable renders records as a table for text output.
type recordTable []*history.TrafficRecord

func (rt recordTable) Header() []string {
	return []string{"TIME", "METHOD", "PATH", "BACKEND", "STATUS", "OUTCOME", "LATENCY"}
}

func (rt recordTable) Rows() [][]string {
	rows := make([][]string, 0, len(rt))
	for _, r := range rt {
		rows = append(rows, []string{
			r.RequestTime.Format(time.RFC3339),
			r.Method,
			r.Path,
			r.Backend,
			strconv.Itoa(r.StatusCode),
			r.Outcome,
			r.Latency.String(),
		})
	}
	return rows
}

// trafficReport is the aggregate produced by history report.
type trafficReport struct {
	TotalRecords  int            `json:"total_records"`
	ByOutcome     map[string]int `json:"by_outcome"`
	ByStatusClass map[string]int `json:"by_status_class"`
	ByBackend     map[string]int `json:"by_backend"`
	AvgLatencyMs  int64          `json:"avg_latency_ms"`
	MaxLatencyMs  int64          `json:"max_latency_ms"`
	RequestBytes  int64          `json:"request_bytes"`
	ResponseBytes int64          `json:"response_bytes"`
}

func historyReport(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	q := &history.Query{Limit: query.MaxLimit}
	q.StartTime, q.EndTime, err = parseTimeRange(historyReportFlags.timeRange)
	if err != nil {
		return err
	}

	ctx := context.Background()
	records, err := store.Query(ctx, q)
	if err != nil {
		return cli.NewCommandError("history report", err)
	}

	report := buildReport(records)

	if cli.OutputFormat(historyReportFlags.format) == cli.FormatJSON {
		return (&cli.JSONFormatter{Indent: true}).FormatTo(os.Stdout, report)
	}

	printReport(report)
	return nil
}

func buildReport(records []*history.TrafficRecord) *trafficReport {
	report := &trafficReport{
		TotalRecords:  len(records),
		ByOutcome:     make(map[string]int),
		ByStatusClass: make(map[string]int),
		ByBackend:     make(map[string]int),
	}

	var totalLatency time.Duration
	var maxLatency time.Duration
	for _, r := range records {
		report.ByOutcome[r.Outcome]++
		report.ByStatusClass[fmt.Sprintf("%dxx", r.StatusCode/100)]++
		report.ByBackend[r.Backend]++
		report.RequestBytes += r.RequestBytes
		report.ResponseBytes += r.ResponseBytes

		totalLatency += r.Latency
		if r.Latency > maxLatency {
			maxLatency = r.Latency
		}
	}

	if len(records) > 0 {
		report.AvgLatencyMs = (totalLatency / time.Duration(len(records))).Milliseconds()
	}
	report.MaxLatencyMs = maxLatency.Milliseconds()
	return report
}

func printReport(report *trafficReport) {
	fmt.Printf("Total records: %d\n", report.TotalRecords)
	if report.TotalRecords == 0 {
		return
	}

	fmt.Println("\nBy outcome:")
	for _, key := range sortedKeys(report.ByOutcome) {
		fmt.Printf("  %-22s %d\n", key, report.ByOutcome[key])
	}

	fmt.Println("\nBy status class:")
	for _, key := range sortedKeys(report.ByStatusClass) {
		fmt.Printf("  %-22s %d\n", key, report.ByStatusClass[key])
	}

	fmt.Println("\nBy backend:")
	for _, key := range sortedKeys(report.ByBackend) {
		fmt.Printf("  %-22s %d\n", key, report.ByBackend[key])
	}

	fmt.Println()
	fmt.Printf("Latency: avg %dms, max %dms\n", report.AvgLatencyMs, report.MaxLatencyMs)
	fmt.Printf("Bytes: %d in, %d out\n", report.RequestBytes, report.ResponseBytes)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
