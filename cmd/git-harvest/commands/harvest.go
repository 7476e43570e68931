package commands

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/githarvest/git-harvest/internal/config"
	"github.com/githarvest/git-harvest/internal/observability"
	"github.com/githarvest/git-harvest/internal/report"
	"github.com/githarvest/git-harvest/pkg/harvest"
	"github.com/githarvest/git-harvest/pkg/history"
)

// harvestOptions collects the harvest command flags. Flags the user set
// explicitly override the corresponding configuration values.
type harvestOptions struct {
	start           string
	order           string
	strict          bool
	firstParent     bool
	workers         int
	limit           int
	paths           []string
	format          string
	output          string
	maxRows         int
	resume          bool
	checkpoint      bool
	checkpointDir   string
	clearCheckpoint bool
	metrics         bool
}

// NewHarvestCommand creates the harvest command, the main statistics
// pipeline over a repository's commit history.
func NewHarvestCommand() *cobra.Command {
	opts := &harvestOptions{}

	cmd := &cobra.Command{
		Use:   "harvest [ref]",
		Short: "Aggregate per-author and per-path statistics over commit history",
		Long: `Walk the commit history reachable from a ref (HEAD by default) and fold
every commit into per-author and per-path totals: commit counts, line
deltas and first/last activity timestamps. Commits already folded in,
including those restored from a checkpoint, are never counted twice.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.start = args[0]
			}

			return runHarvest(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.order, "order", "", "traversal order: topological, reverse-chronological or author-date")
	flags.BoolVar(&opts.strict, "strict", false, "abort on corrupt history instead of skipping commits")
	flags.BoolVar(&opts.firstParent, "first-parent", false, "follow only the first parent of merge commits")
	flags.IntVar(&opts.workers, "workers", 0, "parallel harvest workers (0 or 1 for sequential)")
	flags.IntVar(&opts.limit, "limit", 0, "stop after this many commits (0 for no limit)")
	flags.StringSliceVar(&opts.paths, "path", nil, "only count changes under these path prefixes")
	flags.StringVarP(&opts.format, "format", "f", "", "report format: text, yaml or plot")
	flags.StringVarP(&opts.output, "output", "o", "", "write the report to a file instead of stdout")
	flags.IntVar(&opts.maxRows, "max-rows", 0, "cap the author and path rows in table output")
	flags.BoolVar(&opts.resume, "resume", false, "restore state from the repository's checkpoint before harvesting")
	flags.BoolVar(&opts.checkpoint, "checkpoint", false, "save state to the repository's checkpoint after harvesting")
	flags.StringVar(&opts.checkpointDir, "checkpoint-dir", "", "checkpoint base directory (default ~/.git-harvest/checkpoints)")
	flags.BoolVar(&opts.clearCheckpoint, "clear-checkpoint", false, "remove the repository's checkpoint and exit")
	flags.BoolVar(&opts.metrics, "metrics", false, "dump the run metrics to stderr after the report")

	return cmd
}

func runHarvest(cmd *cobra.Command, opts *harvestOptions) error {
	logger := newLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	mergeHarvestFlags(cmd, opts, cfg)

	manager := harvest.NewCheckpointManager(checkpointBase(opts, cfg), location)

	if opts.clearCheckpoint {
		err = manager.Clear()
		if err != nil {
			return err
		}

		logger.Info("checkpoint cleared", "repo", location)

		return nil
	}

	order, err := history.ParseOrder(cfg.Harvest.Order)
	if err != nil {
		return err
	}

	agg := harvest.NewAggregator()

	if opts.resume {
		cp, loadErr := manager.Load()
		if loadErr != nil {
			return loadErr
		}

		agg.Restore(cp.Summary, cp.Seen)
		logger.Info("checkpoint restored",
			"repo", location, "commits", cp.Summary.TotalCommits(), "created_at", cp.CreatedAt)
	}

	runner := &harvest.Runner{
		RepoPath: location,
		Workers:  cfg.Harvest.Workers,
		History: history.Config{
			Start:       opts.start,
			Order:       order,
			Strict:      cfg.Harvest.Strict,
			FirstParent: cfg.Harvest.FirstParent,
			Limit:       cfg.Harvest.Limit,
		},
		PathPrefixes: cfg.Harvest.Paths,
		Logger:       logger,
	}

	run, err := runner.Run(cmd.Context(), agg)
	if err != nil {
		return err
	}

	snapshot := agg.Snapshot()

	metrics := observability.NewRunMetrics()
	metrics.ObserveRun(run, snapshot)

	if opts.checkpoint || cfg.Checkpoint.Enabled {
		err = manager.Save(agg)
		if err != nil {
			return err
		}

		logger.Info("checkpoint saved", "repo", location)
	}

	out, closeOut, err := reportWriter(cmd, opts.output)
	if err != nil {
		return err
	}
	defer closeOut()

	err = report.Render(out, cfg.Report.Format, &report.Report{
		RepoPath: location,
		Summary:  snapshot,
		Run:      run,
		MaxRows:  cfg.Report.MaxRows,
	})
	if err != nil {
		return err
	}

	if opts.metrics {
		return dumpMetrics(cmd.ErrOrStderr(), metrics)
	}

	return nil
}

// dumpMetrics writes the gathered metric values, one per line, sorted by
// name for stable output.
func dumpMetrics(w io.Writer, metrics *observability.RunMetrics) error {
	values, err := metrics.Gather()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(w, "%s %v\n", name, values[name])
	}

	return nil
}

// mergeHarvestFlags overlays explicitly set flags onto the loaded
// configuration, so precedence is flags, then environment and file,
// then defaults.
func mergeHarvestFlags(cmd *cobra.Command, opts *harvestOptions, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("order") {
		cfg.Harvest.Order = opts.order
	}

	if flags.Changed("strict") {
		cfg.Harvest.Strict = opts.strict
	}

	if flags.Changed("first-parent") {
		cfg.Harvest.FirstParent = opts.firstParent
	}

	if flags.Changed("workers") {
		cfg.Harvest.Workers = opts.workers
	}

	if flags.Changed("limit") {
		cfg.Harvest.Limit = opts.limit
	}

	if flags.Changed("path") {
		cfg.Harvest.Paths = opts.paths
	}

	if flags.Changed("format") {
		cfg.Report.Format = opts.format
	}

	if flags.Changed("max-rows") {
		cfg.Report.MaxRows = opts.maxRows
	}
}

// checkpointBase resolves the checkpoint base directory from the flag,
// the configuration, or the default, in that order.
func checkpointBase(opts *harvestOptions, cfg *config.Config) string {
	if opts.checkpointDir != "" {
		return opts.checkpointDir
	}

	if cfg.Checkpoint.Dir != "" {
		return cfg.Checkpoint.Dir
	}

	return harvest.DefaultCheckpointDir()
}

// reportWriter opens the report destination. The returned closer is a
// no-op for stdout.
func reportWriter(cmd *cobra.Command, output string) (io.Writer, func(), error) {
	if output == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}

	file, err := os.Create(output)
	if err != nil {
		return nil, nil, fmt.Errorf("create report file: %w", err)
	}

	return file, func() { file.Close() }, nil
}
