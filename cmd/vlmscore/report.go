package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"vlmscore/pkg/config"
	"vlmscore/pkg/cost"
	"vlmscore/pkg/logger"
	"vlmscore/pkg/results"
	"vlmscore/pkg/ui"
	"vlmscore/pkg/vlm"
)

var (
	// Report command flags
	csvPath       string
	reportVerbose bool
	filterValid   bool
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report <directory>",
	Short: "Analyze scoring results in a directory",
	Long: `Analyze the JSON results a scoring run left next to its images.

The report validates every result file against the expected schema,
totals token usage and cost, and shows how scores distribute across
quality bands. Broken or foreign JSON files are counted and itemized
rather than skipped silently, so a partially corrupted batch is visible.

Cost figures use the token prices from the configuration, so point
--config at the file used for scoring to price a batch accurately.`,
	Example: `  # Summarize a scored directory
  vlmscore report ./photos

  # Show validation errors per file
  vlmscore report ./photos --verbose

  # Ignore broken result files entirely
  vlmscore report ./photos --filter-valid

  # Export per-file token usage and cost
  vlmscore report ./photos --csv analysis.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runReport(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&csvPath, "csv", "", "export per-file cost data to a CSV file")
	reportCmd.Flags().BoolVarP(&reportVerbose, "verbose", "v", false, "show validation errors for each broken file")
	reportCmd.Flags().BoolVar(&filterValid, "filter-valid", false, "analyze only valid result files, without itemizing broken ones")
}

func runReport(cmd *cobra.Command, args []string) {
	dir := args[0]

	// Offline analysis needs pricing and output settings only, so the
	// endpoint fields are not required here.
	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	_ = cfg.LoadFromEnv()
	if logLevel != "info" {
		cfg.Logging.Level = logLevel
	}
	logger.Initialize(&cfg.Logging)

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		ui.PrintError("Not a directory", dir)
		os.Exit(1)
	}

	store := results.NewStore(&cfg.Output, logger.GetLogger())
	sidecars := store.FindSidecars(dir)
	if len(sidecars) == 0 {
		ui.PrintWarning("No result files found", dir)
		return
	}

	ui.PrintInfo("Scanning", dir)
	ui.PrintInfo("Result files found", strconv.Itoa(len(sidecars)))

	validator := results.NewValidator("")
	reports := validator.ValidateAll(sidecars)

	scored := make([]*results.ScoreResult, 0, len(reports))
	for _, report := range reports {
		if report.Valid && report.Result != nil {
			scored = append(scored, report.Result)
		}
	}

	if filterValid {
		ui.PrintInfo("Filtered", fmt.Sprintf("analyzing %d valid files only", len(scored)))
	}

	stats := validator.Stats()
	printer := message.NewPrinter(language.English)

	ui.PrintHighlight("\n[RESULT ANALYSIS REPORT]\n")

	// Validation summary
	ui.PrintHighlight("File validation:")
	ui.PrintInfo("  Total files", strconv.Itoa(stats.TotalFiles))
	ui.PrintInfo("  Valid files", strconv.Itoa(stats.ValidFiles))
	ui.PrintInfo("  Invalid files", strconv.Itoa(stats.InvalidFiles))
	ui.PrintInfo("  Success rate", fmt.Sprintf("%.1f%%", stats.SuccessRate()))

	if stats.InvalidFiles > 0 && !filterValid {
		ui.PrintHighlight("\nError types:")
		ui.PrintInfo("  Parse errors", strconv.Itoa(stats.ParseErrors))
		ui.PrintInfo("  Missing fields", strconv.Itoa(stats.FieldErrors))
		ui.PrintInfo("  Type errors", strconv.Itoa(stats.TypeErrors))
		ui.PrintInfo("  Range errors", strconv.Itoa(stats.RangeErrors))
	}

	if len(scored) == 0 {
		ui.PrintWarning("\nNo valid results to analyze", "")
		return
	}

	// Cost summary. Replaying usage through the calculator prices the
	// batch with the configured rates.
	calc := priceBatch(cfg, scored)
	totals := calc.Totals()
	symbol := totals.Symbol()

	ui.PrintHighlight("\nCost analysis:")
	ui.PrintInfo("  Images analyzed", strconv.Itoa(len(scored)))
	ui.PrintInfo("  Input tokens", printer.Sprintf("%d", totals.InputTokens))
	ui.PrintInfo("  Output tokens", printer.Sprintf("%d", totals.OutputTokens))
	if totals.ReasoningTokens > 0 {
		ui.PrintInfo("  Reasoning tokens", printer.Sprintf("%d", totals.ReasoningTokens))
	}
	ui.PrintInfo("  Total cost", fmt.Sprintf("%s%.4f", symbol, totals.TotalCost))
	ui.PrintInfo("  Cost per image", fmt.Sprintf("%s%.4f", symbol, totals.AverageCost(len(scored))))

	// Per-file cost spread
	perFile := make([]float64, 0, len(scored))
	for _, r := range scored {
		perFile = append(perFile, calc.CostOf(r.Usage))
	}
	sort.Float64s(perFile)
	ui.PrintHighlight("\nCost distribution:")
	ui.PrintInfo("  Lowest", fmt.Sprintf("%s%.4f", symbol, perFile[0]))
	ui.PrintInfo("  Highest", fmt.Sprintf("%s%.4f", symbol, perFile[len(perFile)-1]))
	ui.PrintInfo("  Median", fmt.Sprintf("%s%.4f", symbol, median(perFile)))

	printQualityTable(scored)

	// Global detection ratios
	aiCount, watermarkCount := 0, 0
	var scoreSum float64
	for _, r := range scored {
		if r.IsAIGenerated {
			aiCount++
		}
		if r.WatermarkPresent {
			watermarkCount++
		}
		scoreSum += r.Score
	}
	ui.PrintHighlight("\nDetections:")
	ui.PrintInfo("  Average score", fmt.Sprintf("%.1f", scoreSum/float64(len(scored))))
	ui.PrintInfo("  AI generated", fmt.Sprintf("%d / %d (%.1f%%)",
		aiCount, len(scored), float64(aiCount)/float64(len(scored))*100))
	ui.PrintInfo("  Watermarked", fmt.Sprintf("%d / %d (%.1f%%)",
		watermarkCount, len(scored), float64(watermarkCount)/float64(len(scored))*100))

	if reportVerbose && !filterValid {
		printInvalidDetails(validator.InvalidReports())
	}

	if csvPath != "" {
		if err := exportCostCSV(csvPath, scored, calc); err != nil {
			ui.PrintError("CSV export failed", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("\nCSV report exported: " + csvPath)
	}
}

// priceBatch replays stored usage into a fresh calculator so the report
// prices with whatever rates the current configuration carries.
func priceBatch(cfg *config.Config, scored []*results.ScoreResult) *cost.Calculator {
	calc := cost.NewCalculator(&cfg.Cost)
	for _, r := range scored {
		calc.AddUsage(r.Usage)
	}
	return calc
}

// median of a sorted slice
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// printQualityTable renders the per-band score distribution with AI and
// watermark rates for each band.
func printQualityTable(scored []*results.ScoreResult) {
	ui.PrintHighlight("\nQuality distribution:")

	header := fmt.Sprintf("  %-24s | %8s | %6s | %7s | %7s | %9s | %9s",
		"Score range", "Images", "Share", "AI", "AI rate", "Watermark", "WM rate")
	fmt.Println(header)
	fmt.Println("  " + strings.Repeat("-", len(header)-2))

	for _, row := range results.Distribution(scored) {
		fmt.Printf("  %-24s | %8d | %5.1f%% | %7d | %6.1f%% | %9d | %8.1f%%\n",
			row.Band.Label, row.Count, row.Percentage,
			row.AICount, row.AIRate,
			row.WatermarkCount, row.WatermarkRate)
	}
}

// printInvalidDetails itemizes broken result files, capped so one bad
// batch does not flood the terminal.
func printInvalidDetails(invalid []results.FileReport) {
	if len(invalid) == 0 {
		return
	}

	const maxShown = 10

	ui.PrintHighlight("\nInvalid files:")
	for i, report := range invalid {
		if i == maxShown {
			ui.PrintWarning(fmt.Sprintf("... %d more not shown", len(invalid)-maxShown))
			break
		}
		fmt.Printf("\n  %s\n", filepath.Base(report.Path))
		for _, e := range report.Errors {
			fmt.Printf("    error: %s\n", e)
		}
		for _, w := range report.Warnings {
			fmt.Printf("    warning: %s\n", w)
		}
	}
}

// exportCostCSV writes one row per valid result with its token usage,
// cost, and verdict fields.
func exportCostCSV(path string, scored []*results.ScoreResult, calc *cost.Calculator) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"file_path", "prompt_tokens", "completion_tokens", "reasoning_tokens",
		"total_tokens", "cost", "score", "is_ai_generated", "watermark_present",
	}); err != nil {
		return err
	}

	for _, r := range scored {
		row := []string{
			r.Path,
			strconv.Itoa(r.Usage.PromptTokens),
			strconv.Itoa(r.Usage.CompletionTokens),
			strconv.Itoa(r.Usage.ReasoningTokens()),
			strconv.Itoa(totalTokens(r.Usage)),
			strconv.FormatFloat(calc.CostOf(r.Usage), 'f', 6, 64),
			strconv.FormatFloat(r.Score, 'f', 1, 64),
			strconv.FormatBool(r.IsAIGenerated),
			strconv.FormatBool(r.WatermarkPresent),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// totalTokens counts every token a request consumed, including
// reasoning tokens that some providers report separately.
func totalTokens(u vlm.Usage) int {
	return u.PromptTokens + u.CompletionTokens + u.ReasoningTokens()
}
