package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"uploadq/internal/config"
	"uploadq/internal/logging"
	"uploadq/internal/notifications"
	"uploadq/internal/queue"
	"uploadq/internal/transport"
	"uploadq/internal/uploader"
)

func newUploadCommand(configFlag *string) *cobra.Command {
	var endpoint string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload files concurrently and wait for the batch to finish",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, *configFlag, endpoint, concurrency, args)
		},
	}

	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Upload endpoint URL (overrides endpoint.upload_url)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Concurrent transfer limit (overrides upload.max_concurrent)")

	return cmd
}

func runUpload(cmd *cobra.Command, configPath, endpoint string, concurrency int, files []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.MaxConcurrent = concurrency
	}
	if endpoint == "" && cfg.UploadURL == "" {
		return errors.New("no upload endpoint configured; set endpoint.upload_url or pass --endpoint")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	// One batch runner per log directory; two would interleave log output
	// and metrics.
	lock := flock.New(filepath.Join(cfg.LogDir, "uploadq.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire batch lock: %w", err)
	}
	if !locked {
		return errors.New("another uploadq batch is already running")
	}
	defer func() {
		_ = lock.Unlock()
	}()

	store, err := queue.Open()
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	var metrics *uploader.Metrics
	if cfg.MetricsBind != "" {
		registry := prometheus.NewRegistry()
		metrics = uploader.NewMetrics(registry)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		server := &http.Server{Addr: cfg.MetricsBind, Handler: mux}
		go func() {
			if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				logger.Error("metrics server stopped", logging.Error(serveErr))
			}
		}()
		defer func() {
			_ = server.Close()
		}()
	}

	notifier := notifications.NewService(cfg)

	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stdout.Fd()) {
		bar = progressbar.NewOptions(100,
			progressbar.OptionSetDescription("uploading"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	// Completed tasks leave the registry after the configured linger, so
	// the batch total is counted from completion events rather than read
	// back from the registry at the end.
	var completedTotal atomic.Int64
	events := uploader.Events{
		OnQueueUpdate: func(tasks []queue.Task) {
			if bar == nil || len(tasks) == 0 {
				return
			}
			var sum float64
			for _, task := range tasks {
				sum += task.Progress
			}
			_ = bar.Set(int(sum / float64(len(tasks))))
		},
		OnComplete: func(queue.Task) {
			completedTotal.Add(1)
		},
		OnError: func(task queue.Task, taskErr error) {
			_ = notifier.NotifyUploadFailed(cmd.Context(), task.Name, taskErr)
		},
	}

	manager := uploader.New(cfg, store, transport.NewClient(cfg, endpoint), logger,
		uploader.WithEvents(events),
		uploader.WithMetrics(metrics),
	)
	defer manager.Close()

	payloads, cleanup, err := openPayloads(files)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	_ = notifier.NotifyBatchStarted(ctx, len(payloads))
	ids := manager.Submit(payloads...)

	summary, err := waitForDrain(ctx, manager)
	if err != nil {
		manager.CancelAll()
		return err
	}
	if bar != nil {
		_ = bar.Finish()
	}

	tasks, tasksErr := manager.Tasks()
	if tasksErr == nil {
		fmt.Fprintln(cmd.OutOrStdout(), renderResults(tasks))
	}

	_ = notifier.NotifyBatchCompleted(context.Background(), int(completedTotal.Load()), summary.Failed, time.Since(start))

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", summary.Failed, len(ids))
	}
	return nil
}

func openPayloads(files []string) ([]uploader.Payload, func(), error) {
	var handles []*os.File
	cleanup := func() {
		for _, handle := range handles {
			_ = handle.Close()
		}
	}

	payloads := make([]uploader.Payload, 0, len(files))
	for _, path := range files {
		file, err := os.Open(path)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("open %s: %w", path, err)
		}
		info, err := file.Stat()
		if err != nil {
			_ = file.Close()
			cleanup()
			return nil, nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if info.IsDir() {
			_ = file.Close()
			cleanup()
			return nil, nil, fmt.Errorf("%s is a directory", path)
		}
		handles = append(handles, file)
		payloads = append(payloads, uploader.Payload{
			Name: filepath.Base(path),
			Size: info.Size(),
			Data: file,
		})
	}
	return payloads, cleanup, nil
}

func waitForDrain(ctx context.Context, manager *uploader.Manager) (queue.Summary, error) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return queue.Summary{}, errors.New("batch interrupted")
		case <-ticker.C:
			summary, err := manager.Status()
			if err != nil {
				return queue.Summary{}, err
			}
			if summary.Drained() {
				return summary, nil
			}
		}
	}
}
