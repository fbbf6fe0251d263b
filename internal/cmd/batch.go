package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/posterize/internal/worker"
)

var batchCmd = &cobra.Command{
	Use:   "batch <inputs...>",
	Short: "Posterize many images with the same band set",
	Long: `Batch renders every input with the same band set using a pool of workers.
Each image is rendered by one worker; outputs go to --output-dir as
<name>_poster.<format>.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("output-dir", "./posters", "Directory for rendered posters")
	batchCmd.Flags().String("format", "png", "Output format (png, jpg, gif, tif, bmp)")
	batchCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	batchCmd.Flags().Bool("progress", true, "Show progress bar")
	batchCmd.Flags().Bool("allow-failures", false, "Exit successfully even if some images fail")
	addBandFlags(batchCmd, "batch")
	bindCommandFlags(batchCmd, "batch", "output-dir", "format", "workers", "progress", "allow-failures")
}

func runBatch(cmd *cobra.Command, args []string) error {
	outputDir := viper.GetString("batch.output_dir")
	format := viper.GetString("batch.format")
	workers := viper.GetInt("batch.workers")
	showProgress := viper.GetBool("batch.progress")
	allowFailures := viper.GetBool("batch.allow_failures")

	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	inputs, err := expandInputs(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	settings, err := loadRenderSettings(ctx, "batch")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	tasks := make([]worker.Task, 0, len(inputs))
	for _, in := range inputs {
		tasks = append(tasks, worker.Task{Input: in, Output: outputPath(in, outputDir, format)})
	}

	progress := worker.NewProgress(len(tasks), showProgress)
	pool := worker.New(worker.Config{
		Workers: workers,
		Renderer: worker.RenderFunc(func(ctx context.Context, task worker.Task) (string, int64, error) {
			n, err := renderFile(task.Input, task.Output, settings)
			return task.Output, n, err
		}),
		OnProgress: progress.Callback(),
		OnResult:   progress.Record,
	})

	logger.Info("Starting batch render",
		"images", len(tasks),
		"workers", workers,
		"output_dir", outputDir,
		"bands", len(settings.Doc.Colors),
	)

	results := pool.Run(ctx, tasks)
	progress.Done()

	var failedCount int
	for _, r := range results {
		if r.Err != nil {
			failedCount++
			logger.Error("Render failed", "input", r.Task.Input, "error", r.Err)
		}
	}
	if skipped := len(tasks) - len(results); skipped > 0 {
		failedCount += skipped
		logger.Warn("Some images were not started", "count", skipped)
	}

	logger.Info(progress.Summary())

	if failedCount > 0 {
		if allowFailures {
			logger.Warn("Some images failed to render, but continuing due to --allow-failures flag", "failed_count", failedCount)
			return nil
		}
		return fmt.Errorf("%d images failed to render", failedCount)
	}
	return nil
}

// expandInputs resolves glob patterns and rejects directories.
func expandInputs(args []string) ([]string, error) {
	var inputs []string
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			matches = []string{arg}
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				return nil, fmt.Errorf("failed to stat input: %w", err)
			}
			if info.IsDir() {
				return nil, fmt.Errorf("input %s is a directory", m)
			}
			inputs = append(inputs, m)
		}
	}
	return inputs, nil
}
