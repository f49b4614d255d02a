// cutoutd manages the production of cutouts for each component of an ASKAP
// scheduling block. It polls a status folder for completion markers and
// keeps the number of concurrent cutout jobs between a floor and a ceiling,
// deferring jobs whose beams are already in use whenever enough jobs are
// running.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jd-au/cutoutsched"
)

// version is set via ldflags at build time.
var version = "dev"

func main() {
	cfg := cutoutsched.LoadConfig()

	var (
		delay       time.Duration
		sbid        int
		statusRoot  string
		logRoot     string
		catalogFile string
		maxLoops    int
		limit       int
		minLimit    int
		usePBS      bool
		active      []int
		script      string
		metricsAddr string
	)

	rootCmd := &cobra.Command{
		Use:           "cutoutd",
		Short:         "Daemon managing the production of cutouts for an ASKAP scheduling block",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), runOptions{
				delay:       delay,
				sbid:        sbid,
				statusRoot:  statusRoot,
				logRoot:     logRoot,
				catalogFile: catalogFile,
				maxLoops:    maxLoops,
				limit:       limit,
				minLimit:    minLimit,
				usePBS:      usePBS,
				active:      active,
				script:      script,
				metricsAddr: metricsAddr,
			})
		},
	}

	flags := rootCmd.Flags()
	flags.DurationVarP(&delay, "delay", "d", cfg.Delay, "Pause between scans for completed jobs")
	flags.IntVarP(&sbid, "sbid", "s", cfg.SBID, "The id of the ASKAP scheduling block to be processed")
	flags.StringVarP(&statusRoot, "status-folder", "t", "status", "The status folder which will contain the completed files")
	flags.StringVarP(&catalogFile, "filename", "f", "smc_srcs_image_params.csv", "The catalog file listing the components to be processed")
	flags.IntVarP(&maxLoops, "max-loops", "m", cfg.MaxLoops, "The maximum number of processing loops the daemon will run")
	flags.IntVarP(&limit, "concurrency-limit", "c", cfg.ConcurrencyLimit, "The maximum number of concurrent jobs allowed to run")
	flags.IntVar(&minLimit, "min-concurrency-limit", cfg.MinConcurrencyLimit, "The minimum number of concurrent jobs we prefer to run; duplicate beam usage is allowed to reach it")
	flags.BoolVar(&usePBS, "pbs", false, "Submit the jobs via the PBS qsub command")
	flags.StringVarP(&logRoot, "log-folder", "l", "logs", "The folder which will contain the stdout and stderr files from the jobs")
	flags.IntSliceVarP(&active, "active", "a", nil, "Job id of an already active cutout job; monitored as if this daemon started it (repeatable)")
	flags.StringVar(&script, "script", "./start_job.sh", "The per-job start script")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "Address to serve /metrics and /healthz on (empty disables)")

	if err := rootCmd.ExecuteContext(signalContext()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type runOptions struct {
	delay       time.Duration
	sbid        int
	statusRoot  string
	logRoot     string
	catalogFile string
	maxLoops    int
	limit       int
	minLimit    int
	usePBS      bool
	active      []int
	script      string
	metricsAddr string
}

func signalContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return ctx
}

func run(ctx context.Context, opts runOptions) error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})).With("run_id", uuid.NewString())
	slog.SetDefault(logger)

	start := time.Now()
	logger.Info("started cutout production", "sbid", opts.sbid, "delay", opts.delay, "max_loops", opts.maxLoops)

	rows, err := cutoutsched.LoadCatalogCSV(opts.catalogFile)
	if err != nil {
		return err
	}
	catalog, err := cutoutsched.BuildCatalog(rows)
	if err != nil {
		return err
	}

	// Per-sbid status and log folders, alongside other runs of the block.
	statusDir := filepath.Join(opts.statusRoot, strconv.Itoa(opts.sbid))
	logDir := filepath.Join(opts.logRoot, strconv.Itoa(opts.sbid))
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("create log folder: %w", err)
	}

	store, err := cutoutsched.NewFileStatusStore(statusDir)
	if err != nil {
		return err
	}
	defer store.Close()

	var launcher cutoutsched.Launcher
	if opts.usePBS {
		launcher = &cutoutsched.QsubLauncher{
			Script: opts.script,
			SBID:   opts.sbid,
			LogDir: logDir,
			Logger: logger,
		}
	} else {
		launcher = &cutoutsched.ScriptLauncher{
			Script: opts.script,
			SBID:   opts.sbid,
			Logger: logger,
		}
	}

	if len(opts.active) > 0 {
		logger.Info("already active jobs", "job_ids", opts.active)
	}

	sched, err := cutoutsched.New(cutoutsched.Config{
		Delay:               opts.delay,
		MaxLoops:            opts.maxLoops,
		ConcurrencyLimit:    opts.limit,
		MinConcurrencyLimit: opts.minLimit,
		SBID:                opts.sbid,
		PreActive:           opts.active,
	}, catalog, store, launcher, logger)
	if err != nil {
		return err
	}

	if opts.metricsAddr != "" {
		sched.SetMetrics(cutoutsched.NewMetrics(prometheus.DefaultRegisterer))
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		})
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			logger.Info("serving metrics", "addr", opts.metricsAddr)
			if err := http.ListenAndServe(opts.metricsAddr, mux); err != nil {
				logger.Error("metrics server", "error", err)
			}
		}()
	}

	report, err := sched.Run(ctx)
	if err != nil {
		if errors.Is(err, cutoutsched.ErrExhausted) {
			logger.Error("processing incomplete", "error", err)
		}
		return err
	}

	logger.Info("processing completed",
		"components", catalog.Size(),
		"completed", report.Completed,
		"failed", report.Failed,
		"loops", report.Loops,
		"average_concurrency", fmt.Sprintf("%.2f", report.AverageConcurrency),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}
