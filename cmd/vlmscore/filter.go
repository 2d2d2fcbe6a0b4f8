package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"vlmscore/pkg/config"
	"vlmscore/pkg/logger"
	"vlmscore/pkg/results"
	"vlmscore/pkg/ui"
)

var (
	// Filter command flags
	filterScoreExpr string
	filterAI        bool
	filterWatermark bool
	filterLogic     string
	filterDest      string
	filterFlat      bool
	filterDryRun    bool
)

// filterCmd represents the filter command
var filterCmd = &cobra.Command{
	Use:   "filter <directory>",
	Short: "Copy scored images matching quality conditions",
	Long: `Select scored images by their results and copy them, together with
their JSON results, into a destination directory.

Conditions compare against the stored results, so the directory must be
scored first. Score expressions take an operator and a value:

  >:8.5          score strictly above 8.5
  >=:7  <:5      at least / below
  =:10           exactly (within 0.05)
  between:7:9    inclusive range

--ai and --watermark take true or false and match the stored detection
flags. Multiple conditions combine with --logic and (all must hold) or
--logic or (any suffices).

By default the source directory layout is preserved under the
destination. With --flat every image lands directly in the destination,
renamed to the SHA-256 of its content, which deduplicates identical
files pulled from different folders.`,
	Example: `  # Keep only usable shots
  vlmscore filter ./photos --score '>=:8.5' --dest ./keep

  # Real photos without watermarks, flattened and dedup-renamed
  vlmscore filter ./photos --ai=false --watermark=false --logic and --dest ./clean --flat

  # High scores OR AI images, preview without copying
  vlmscore filter ./photos --score '>:9' --ai=true --logic or --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runFilter(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(filterCmd)

	filterCmd.Flags().StringVar(&filterScoreExpr, "score", "", "score condition, e.g. '>:8.5' or 'between:7:9'")
	filterCmd.Flags().BoolVar(&filterAI, "ai", false, "match the AI-generated flag (--ai=true or --ai=false)")
	filterCmd.Flags().BoolVar(&filterWatermark, "watermark", false, "match the watermark flag (--watermark=true or --watermark=false)")
	filterCmd.Flags().StringVar(&filterLogic, "logic", "and", "combine conditions with 'and' or 'or'")
	filterCmd.Flags().StringVar(&filterDest, "dest", "", "destination directory for matched images")
	filterCmd.Flags().BoolVar(&filterFlat, "flat", false, "flatten output and rename files to their content hash")
	filterCmd.Flags().BoolVar(&filterDryRun, "dry-run", false, "list matches without copying")
}

func runFilter(cmd *cobra.Command, args []string) {
	dir := args[0]

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

	if !strings.EqualFold(filterLogic, "and") && !strings.EqualFold(filterLogic, "or") {
		ui.PrintError("Invalid logic", filterLogic+" (use 'and' or 'or')")
		os.Exit(1)
	}
	if filterDest == "" && !filterDryRun {
		ui.PrintError("Destination required", "use --dest or preview with --dry-run")
		os.Exit(1)
	}

	// Build match criteria. Boolean conditions only count when the flag
	// was given, so --ai=false is a condition and omitting --ai is not.
	criteria := results.Criteria{MatchAll: strings.EqualFold(filterLogic, "and")}
	if filterScoreExpr != "" {
		scoreFilter, err := results.ParseScoreFilter(filterScoreExpr)
		if err != nil {
			ui.PrintError("Invalid score condition", err.Error())
			os.Exit(1)
		}
		criteria.Score = scoreFilter
	}
	if cmd.Flags().Changed("ai") {
		criteria.AIGenerated = &filterAI
	}
	if cmd.Flags().Changed("watermark") {
		criteria.Watermarked = &filterWatermark
	}
	if criteria.Empty() {
		ui.PrintError("No conditions given", "use --score, --ai or --watermark")
		os.Exit(1)
	}

	ui.PrintInfo("Source", dir)
	if filterDest != "" {
		ui.PrintInfo("Destination", filterDest)
	}
	if criteria.Score != nil {
		ui.PrintInfo("Score condition", criteria.Score.String())
	}
	ui.PrintInfo("Logic", strings.ToLower(filterLogic))

	store := results.NewStore(&cfg.Output, logger.GetLogger())
	scored := store.FindResults(dir)
	if len(scored) == 0 {
		ui.PrintWarning("No scored images found", dir)
		return
	}

	matched, copied, failed := 0, 0, 0
	for _, r := range scored {
		if !criteria.Matches(r) {
			continue
		}
		matched++

		rel, err := filepath.Rel(dir, r.Path)
		if err != nil {
			rel = filepath.Base(r.Path)
		}

		if filterDryRun {
			fmt.Printf("  %s %s\n", ui.Dim(fmt.Sprintf("score %.1f", r.Score)), rel)
			continue
		}

		if err := copyMatch(store, r, rel); err != nil {
			failed++
			logger.WithError(err).WithField("image", r.Path).Error("Copy failed")
			ui.PrintError("Copy failed", fmt.Sprintf("%s: %v", rel, err))
		} else {
			copied++
		}
	}

	logger.WithFields(map[string]interface{}{
		"scored":  len(scored),
		"matched": matched,
		"copied":  copied,
		"failed":  failed,
	}).Info("Filter run finished")

	fmt.Println()
	ui.PrintInfo("Scored images", strconv.Itoa(len(scored)))
	ui.PrintInfo("Matched", strconv.Itoa(matched))
	if filterDryRun {
		ui.PrintSuccess(fmt.Sprintf("Dry run: %d images would be copied", matched))
		return
	}
	ui.PrintInfo("Copied", strconv.Itoa(copied))
	if failed > 0 {
		ui.PrintError("Failed", strconv.Itoa(failed))
		os.Exit(1)
	}
	ui.PrintSuccess(fmt.Sprintf("Filtered %d images into %s", copied, filterDest))
}

// copyMatch copies one matched image and its result file into the
// destination, either flattened under a content-hash name or keeping
// the source-relative layout.
func copyMatch(store *results.Store, r *results.ScoreResult, rel string) error {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return err
	}

	var imageDst, sidecarDst string
	if filterFlat {
		sum := sha256.Sum256(data)
		stem := hex.EncodeToString(sum[:])
		imageDst = filepath.Join(filterDest, stem+filepath.Ext(r.Path))
		sidecarDst = store.SidecarPath(imageDst)
	} else {
		imageDst = filepath.Join(filterDest, rel)
		sidecarDst = store.SidecarPath(imageDst)
	}

	if err := os.MkdirAll(filepath.Dir(imageDst), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(imageDst, data, 0644); err != nil {
		return err
	}

	sidecar, err := os.ReadFile(store.SidecarPath(r.Path))
	if err != nil {
		return err
	}
	return os.WriteFile(sidecarDst, sidecar, 0644)
}
