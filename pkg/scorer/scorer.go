package scorer

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"vlmscore/internal/taskpool"
	"vlmscore/pkg/checkpoint"
	"vlmscore/pkg/config"
	"vlmscore/pkg/cost"
	"vlmscore/pkg/errors"
	"vlmscore/pkg/imaging"
	"vlmscore/pkg/logger"
	"vlmscore/pkg/results"
	"vlmscore/pkg/ui"
	"vlmscore/pkg/vlm"
)

// DefaultCheckpointName is the checkpoint filename created inside the
// scored directory when no explicit path is configured. The file travels
// with the batch, so moving the directory keeps its progress.
const DefaultCheckpointName = ".vlmscore_checkpoint.json"

// pausePollInterval is how often a paused submission loop rechecks the
// display before submitting more work.
const pausePollInterval = 200 * time.Millisecond

// Options control a single scoring run.
type Options struct {
	// ForceRerun rescores images that already have a sidecar or a
	// completed checkpoint entry, overwriting their results.
	ForceRerun bool

	// DryRun stops after reporting what would be scored.
	DryRun bool

	// Limit caps how many images this run submits. Zero means no cap.
	Limit int
}

// Scorer orchestrates the batch image scoring process
type Scorer struct {
	client        ScoreClient
	store         ResultStore
	tracker       *ui.StatusTracker
	display       ui.Display
	notifier      *ui.Notifier
	config        *config.Config
	logger        logger.Logger
	checkpointMgr *checkpoint.Manager
	costs         *cost.Calculator
	runID         string
}

// New creates a new Scorer instance
func New(cfg *config.Config) (*Scorer, error) {
	log := logger.GetLogger()

	// Scoring client with rate limiting, retries, and the
	// oversized-payload downscale resubmit.
	client := vlm.NewClientWithConfig(cfg, log)

	return &Scorer{
		client:   client,
		store:    results.NewStore(&cfg.Output, log),
		tracker:  ui.NewStatusTracker(cfg.RateLimit.RequestsPerMinute),
		notifier: ui.NewNotifier(),
		config:   cfg,
		logger:   log,
		costs:    cost.NewCalculator(&cfg.Cost),
		runID:    uuid.NewString(),
	}, nil
}

// SetDisplay sets the progress display for the scorer. Without one, a
// plain terminal display is created when a run starts.
func (s *Scorer) SetDisplay(d ui.Display) {
	s.display = d
}

// RunID returns the identifier stamped into this run's sidecars and
// error log entries.
func (s *Scorer) RunID() string {
	return s.runID
}

// Costs returns the calculator accumulating this scorer's token spend.
func (s *Scorer) Costs() *cost.Calculator {
	return s.costs
}

// ScoreDirectory scores every supported image under dir
func (s *Scorer) ScoreDirectory(ctx context.Context, dir string) error {
	return s.scoreDirectoryWithOptions(ctx, dir, Options{})
}

// ScoreDirectoryWithOptions scores a directory with run options
func (s *Scorer) ScoreDirectoryWithOptions(ctx context.Context, dir string, opts Options) error {
	return s.scoreDirectoryWithOptions(ctx, dir, opts)
}

// runState accumulates one run's outcomes. It is written only by the
// result processor goroutine and read after the processor exits, so the
// counters need no locking.
type runState struct {
	dir          string
	total        int
	succeeded    int
	failed       int
	errorEntries []results.ErrorEntry
}

// scoreDirectoryWithOptions is the internal implementation behind the
// public entry points
func (s *Scorer) scoreDirectoryWithOptions(ctx context.Context, dir string, opts Options) error {
	start := time.Now()

	info, err := os.Stat(dir)
	if err != nil {
		s.logger.WithError(err).WithField("directory", dir).Error("Cannot access directory")
		return errors.Wrap(errors.ErrorTypeValidation, fmt.Sprintf("cannot access directory %s", dir), err)
	}
	if !info.IsDir() {
		return errors.New(errors.ErrorTypeValidation, fmt.Sprintf("%s is not a directory", dir))
	}

	if s.display == nil {
		debugMode := strings.EqualFold(s.config.Logging.Level, "debug")
		s.display = ui.NewProgressDisplay(filepath.Base(dir), 0, debugMode)
	}
	if opts.ForceRerun {
		s.store.SetOverwrite(true)
	}

	logger.LogComponentStart("scorer", s.client.ConfigInfo())
	s.logger.InfoWithFields("Starting batch scoring", map[string]interface{}{
		"directory":   dir,
		"run_id":      s.runID,
		"force_rerun": opts.ForceRerun,
		"action":      "scoring_start",
	})
	s.display.LogInfo("Scanning %s for images", dir)

	// Discover images
	allImages := imaging.FindImages(dir)
	if len(allImages) == 0 {
		ui.PrintWarning("No supported images found", dir)
		s.display.LogWarning("No supported images found in %s", dir)
		s.logger.WarnWithFields("No supported images found", map[string]interface{}{
			"directory": dir,
		})
		return nil
	}

	valid, prefilter := s.validateImages(allImages)
	invalid := len(allImages) - len(valid)

	// Checkpoint handling
	checkpointMgr, err := s.setupCheckpoint(dir, opts.ForceRerun)
	if err != nil {
		return err
	}
	s.checkpointMgr = checkpointMgr

	// Skip images that already have a result. Failed checkpoint entries
	// are not skipped; a rerun retries them.
	toProcess := make([]string, 0, len(valid))
	alreadyScored := 0
	for _, path := range valid {
		if !opts.ForceRerun && s.store.Exists(path) {
			alreadyScored++
			continue
		}
		if checkpointMgr != nil && checkpointMgr.ShouldSkip(identifierFor(dir, path), opts.ForceRerun) {
			alreadyScored++
			continue
		}
		toProcess = append(toProcess, path)
	}

	limited := opts.Limit > 0 && len(toProcess) > opts.Limit
	if limited {
		s.logger.InfoWithFields("Applying image limit", map[string]interface{}{
			"limit":    opts.Limit,
			"eligible": len(toProcess),
		})
		toProcess = toProcess[:opts.Limit]
	}

	concurrency := s.config.Pool.MaxConcurrent

	ui.PrintHighlight("\n[PROCESSING STATISTICS]\n")
	ui.PrintInfo("Directory", dir)
	ui.PrintInfo("Images found", strconv.Itoa(len(allImages)))
	ui.PrintInfo("Valid images", strconv.Itoa(len(valid)))
	ui.PrintInfo("Invalid images", fmt.Sprintf("%d (too_small: %d, invalid_dimensions: %d, errors: %d)",
		invalid, prefilter["too_small"], prefilter["invalid_dimensions"], prefilter["error"]))
	ui.PrintInfo("Already scored", strconv.Itoa(alreadyScored))
	ui.PrintInfo("To process", strconv.Itoa(len(toProcess)))
	ui.PrintInfo("Concurrent limit", strconv.Itoa(concurrency))

	s.logger.InfoWithFields("Batch composition", map[string]interface{}{
		"directory":      dir,
		"images_found":   len(allImages),
		"valid":          len(valid),
		"invalid":        invalid,
		"skip_reasons":   prefilter,
		"already_scored": alreadyScored,
		"to_process":     len(toProcess),
		"concurrency":    concurrency,
	})

	if len(toProcess) == 0 {
		ui.PrintSuccess("\nAll valid images already scored\n")
		s.display.LogSuccess("All valid images already scored")
		return nil
	}

	if opts.DryRun {
		if !ui.IsQuietMode() {
			fmt.Println()
			for _, path := range toProcess {
				fmt.Printf("  %s\n", ui.Dim(identifierFor(dir, path)))
			}
		}
		ui.PrintSuccess(fmt.Sprintf("\nDry run: %d images would be scored\n", len(toProcess)))
		s.display.LogInfo("Dry run: %d images would be scored", len(toProcess))
		return nil
	}

	if checkpointMgr != nil {
		checkpointMgr.SetTotalFiles(len(valid))
	}
	s.display.SetTotal(len(toProcess))
	for _, path := range toProcess {
		s.display.EnqueueScore(identifierFor(dir, path), path)
	}

	// Create the task pool for concurrent scoring
	pool, err := taskpool.New[*results.ScoreResult](concurrency,
		taskpool.WithTimeout(s.config.Pool.TaskTimeout.Duration()),
		taskpool.WithLogger(s.logger),
	)
	if err != nil {
		return err
	}

	ui.PrintHighlight("\n[STARTING BATCH SCORING]\n")

	resultsCh := make(chan taskpool.Result[*results.ScoreResult], min(concurrency, len(toProcess)))
	run := &runState{dir: dir, total: len(toProcess)}

	// Result processor goroutine
	var processorWG sync.WaitGroup
	processorWG.Add(1)
	go func() {
		defer processorWG.Done()
		s.processScoreResults(resultsCh, run)
	}()

	var handleWG sync.WaitGroup
	submitted := 0

submitLoop:
	for _, path := range toProcess {
		// Pausing stops new submissions; in-flight scores keep running.
		for s.display.IsPaused() {
			select {
			case <-ctx.Done():
				break submitLoop
			case <-time.After(pausePollInterval):
			}
		}
		if ctx.Err() != nil {
			break
		}

		id := identifierFor(dir, path)
		imagePath := path

		work := func(taskCtx context.Context) (*results.ScoreResult, error) {
			eval, err := s.client.ScoreImage(taskCtx, imagePath)
			if err != nil {
				return nil, err
			}
			res := results.FromEvaluation(imagePath, s.runID, eval)
			if err := s.store.Save(res); err != nil {
				return nil, err
			}
			return res, nil
		}

		// Submit blocks while the pool is full, which is the
		// backpressure that keeps the batch bounded.
		handle, err := pool.Submit(ctx, work, taskpool.Meta{Identifier: id, Payload: imagePath})
		if err != nil {
			if ctx.Err() != nil || stderrors.Is(err, taskpool.ErrPoolClosed) {
				break
			}
			s.logger.WithError(err).WithField("image", imagePath).Error("Failed to submit scoring task")
			continue
		}
		submitted++
		s.display.StartScore(id, imagePath)

		handleWG.Add(1)
		go func(h *taskpool.Handle[*results.ScoreResult]) {
			defer handleWG.Done()
			res, _ := h.Wait(context.Background())
			resultsCh <- res
		}(handle)
	}

	s.logger.InfoWithFields("All scoring tasks submitted, waiting for completion", map[string]interface{}{
		"directory": dir,
		"submitted": submitted,
	})

	if ctx.Err() != nil {
		// Interrupted mid-run: cancel in-flight scores so their handles
		// resolve instead of running to completion.
		_ = pool.Shutdown(context.Background())
	}
	handleWG.Wait()
	close(resultsCh)
	processorWG.Wait()
	_ = pool.Shutdown(context.Background())

	stats := pool.Stats()
	elapsed := time.Since(start)

	if checkpointMgr != nil {
		if err := checkpointMgr.Save(); err != nil {
			s.logger.WithError(err).Warn("Failed to save final checkpoint")
		}
	}

	errorLogPath := filepath.Join(dir, results.DefaultErrorLogName)
	if len(run.errorEntries) > 0 {
		errorLog := results.NewErrorLog(errorLogPath)
		if err := errorLog.Append(run.errorEntries...); err != nil {
			s.logger.WithError(err).Error("Failed to write error log")
		} else {
			s.logger.InfoWithFields("Error log written", map[string]interface{}{
				"path":    errorLog.Path(),
				"entries": len(run.errorEntries),
			})
		}
	}

	if ctx.Err() != nil {
		ui.PrintWarning("\n[SCORING INTERRUPTED]\n")
		ui.PrintInfo("Scored before interrupt", fmt.Sprintf("%d/%d", run.succeeded, run.total))
		s.logger.WarnWithFields("Batch scoring interrupted", map[string]interface{}{
			"directory": dir,
			"succeeded": run.succeeded,
			"failed":    run.failed,
			"submitted": submitted,
		})
		if s.config.UI.Notifications {
			s.notifier.SendError("Batch scoring interrupted", fmt.Sprintf("%d of %d images scored", run.succeeded, run.total))
		}
		return errors.Wrap(errors.ErrorTypeTask, "batch scoring interrupted", ctx.Err())
	}

	// A clean, complete run no longer needs its checkpoint; sidecar
	// files carry the skip state from here on. Failed or capped runs
	// keep it so the next run resumes.
	if checkpointMgr != nil && run.failed == 0 && !limited && checkpointMgr.Exists() {
		if err := checkpointMgr.Clear(); err != nil {
			s.logger.WithError(err).Warn("Failed to delete checkpoint")
		} else {
			s.logger.Info("Checkpoint cleared after successful completion")
		}
	}

	s.display.Complete()

	ui.PrintHighlight("\n[BATCH SCORING COMPLETED]\n")
	ui.PrintInfo("Success", fmt.Sprintf("%d/%d", run.succeeded, run.total))
	ui.PrintInfo("Failed", strconv.Itoa(run.failed))
	ui.PrintInfo("Time", fmt.Sprintf("%.1f seconds", elapsed.Seconds()))
	if elapsed > 0 {
		ui.PrintInfo("Speed", fmt.Sprintf("%.1f images/sec", float64(run.succeeded+run.failed)/elapsed.Seconds()))
	}
	ui.PrintInfo("Tasks submitted", strconv.FormatUint(stats.Submitted, 10))
	ui.PrintInfo("Success rate", fmt.Sprintf("%.1f%%", stats.SuccessRate))
	if len(run.errorEntries) > 0 {
		ui.PrintInfo("Error log", errorLogPath)
	}

	if !ui.IsQuietMode() {
		fmt.Println()
		fmt.Print(s.costs.Report(elapsed, run.succeeded))
	}

	s.logger.InfoWithFields("Batch scoring completed", map[string]interface{}{
		"directory":    dir,
		"run_id":       s.runID,
		"succeeded":    run.succeeded,
		"failed":       run.failed,
		"elapsed":      elapsed.String(),
		"success_rate": stats.SuccessRate,
		"action":       "scoring_complete",
	})

	if s.config.UI.Notifications {
		if run.failed > 0 {
			s.notifier.SendError("Batch scoring finished", fmt.Sprintf("%d scored, %d failed", run.succeeded, run.failed))
		} else {
			s.notifier.SendSuccess("Batch scoring finished", fmt.Sprintf("%d images scored", run.succeeded))
		}
	}

	return nil
}

// validateImages splits discovered images into scoreable ones and counts
// of skipped ones per reason category
func (s *Scorer) validateImages(paths []string) ([]string, map[string]int) {
	valid := make([]string, 0, len(paths))
	categories := make(map[string]int)

	for _, path := range paths {
		v := imaging.Validate(path, s.config.Imaging.MinDimension, s.config.Imaging.MaxDimension, s.config.Imaging.MaxFileSize)
		if v.OK {
			valid = append(valid, path)
			continue
		}

		categories[reasonCategory(v.Reason)]++
		s.logger.WarnWithFields("Skipping invalid image", map[string]interface{}{
			"image":  path,
			"reason": v.Reason,
		})
		s.display.LogWarning("Skipping invalid image: %s (%s)", filepath.Base(path), v.Reason)
	}

	return valid, categories
}

// setupCheckpoint creates the run's checkpoint manager and handles an
// existing file: a force rerun discards it, otherwise its state is
// loaded so completed images are skipped. Checkpointing disabled in
// configuration yields a nil manager.
func (s *Scorer) setupCheckpoint(dir string, forceRerun bool) (*checkpoint.Manager, error) {
	if !s.config.Checkpoint.Enabled {
		s.logger.Info("Checkpointing disabled")
		return nil, nil
	}

	path := s.config.Checkpoint.File
	if path == "" {
		path = filepath.Join(dir, DefaultCheckpointName)
	}

	mgr, err := checkpoint.NewManager(path,
		checkpoint.WithAutoSaveInterval(s.config.Checkpoint.AutoSaveInterval),
		checkpoint.WithLogger(s.logger),
	)
	if err != nil {
		s.logger.WithError(err).WithField("path", path).Error("Failed to create checkpoint manager")
		return nil, errors.Wrap(errors.ErrorTypePersistence, "failed to create checkpoint manager", err)
	}

	if forceRerun && mgr.Exists() {
		if err := mgr.Clear(); err != nil {
			s.logger.WithError(err).Warn("Failed to delete existing checkpoint")
		}
		ui.PrintInfo("Force rerun", "Ignoring existing checkpoint")
		s.display.LogInfo("Force rerun: ignoring existing checkpoint")
	} else if mgr.Exists() {
		completed, failed := mgr.Load()
		s.tracker.SetScoredCount(len(completed))
		ui.PrintInfo("Resuming from checkpoint", fmt.Sprintf("%d scored, %d failed earlier", len(completed), len(failed)))
		s.display.LogInfo("Resuming from checkpoint: %d scored, %d failed earlier", len(completed), len(failed))
		s.logger.InfoWithFields("Resuming from checkpoint", map[string]interface{}{
			"path":      mgr.Path(),
			"completed": len(completed),
			"failed":    len(failed),
		})
	}

	return mgr, nil
}

// processScoreResults consumes terminal task outcomes, updating the
// checkpoint, the display, and the run's cost and error accounting
func (s *Scorer) processScoreResults(resultsCh <-chan taskpool.Result[*results.ScoreResult], run *runState) {
	for res := range resultsCh {
		// Interrupted tasks are neither completed nor failed; the next
		// run picks them up again.
		if res.Err != nil && stderrors.Is(res.Err, context.Canceled) {
			s.logger.DebugWithFields("Scoring task interrupted", map[string]interface{}{
				"task_id":    res.TaskID,
				"identifier": res.Identifier,
			})
			continue
		}

		imagePath := filepath.Join(run.dir, res.Identifier)

		if res.Status == taskpool.StatusSucceeded {
			run.succeeded++
			verdict := res.Value
			logger.LogScore(imagePath, verdict.Score, true, nil)

			s.costs.AddUsage(verdict.Usage)
			s.tracker.IncrementScored()
			s.display.CompleteScore(res.Identifier, imagePath, verdict.Score, verdict.Usage.TotalTokens)

			if s.checkpointMgr != nil {
				if err := s.checkpointMgr.Record(res.Identifier, checkpoint.OutcomeCompleted, true); err != nil {
					s.logger.WithError(err).Warn("Failed to record checkpoint outcome")
				}
			}

			s.logger.DebugWithFields("Image scored", map[string]interface{}{
				"image":    imagePath,
				"score":    verdict.Score,
				"tokens":   verdict.Usage.TotalTokens,
				"duration": res.Duration.String(),
			})
		} else {
			run.failed++
			logger.LogScore(imagePath, 0, false, res.Err)

			s.costs.AddFailure()
			s.display.FailScore(res.Identifier, imagePath, res.Err)

			if s.checkpointMgr != nil {
				if err := s.checkpointMgr.Record(res.Identifier, checkpoint.OutcomeFailed, true); err != nil {
					s.logger.WithError(err).Warn("Failed to record checkpoint outcome")
				}
			}

			run.errorEntries = append(run.errorEntries, results.ErrorEntry{
				Path:   imagePath,
				Error:  res.Err.Error(),
				Type:   string(errors.GetType(res.Err)),
				TaskID: strconv.FormatUint(res.TaskID, 10),
				RunID:  s.runID,
			})

			s.logger.ErrorWithFields("Image scoring failed", map[string]interface{}{
				"image":    imagePath,
				"error":    res.Err.Error(),
				"type":     string(errors.GetType(res.Err)),
				"duration": res.Duration.String(),
			})
		}

		s.updateBudgetDisplay()

		totals := s.costs.Totals()
		s.display.UpdateCost(totals.TotalCost, totals.Symbol())

		processed := run.succeeded + run.failed
		if interval := s.config.UI.ProgressInterval; interval > 0 && processed%interval == 0 {
			logger.LogBatchProgress(s.runID, processed, run.total)
		}
	}
}

// updateBudgetDisplay mirrors the request window into the display and
// logs when the budget is saturated
func (s *Scorer) updateBudgetDisplay() {
	used, limit, resetAt := s.tracker.WindowUsage()
	s.display.UpdateRateLimit(used, limit, resetAt)
	if s.tracker.IsRateLimitReached() {
		logger.LogRateLimit("vlm_api", int(time.Until(resetAt).Seconds()))
	}
}

// identifierFor returns an image's checkpoint identity, relative to the
// batch directory so a moved batch keeps its progress
func identifierFor(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return path
	}
	return rel
}

// reasonCategory extracts the stable category prefix from a validation
// reason string
func reasonCategory(reason string) string {
	if i := strings.IndexByte(reason, ':'); i > 0 {
		return reason[:i]
	}
	return reason
}
