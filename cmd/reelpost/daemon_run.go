package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"reelpost/internal/captioner"
	"reelpost/internal/config"
	"reelpost/internal/daemon"
	"reelpost/internal/fetcher"
	"reelpost/internal/ipc"
	"reelpost/internal/logging"
	"reelpost/internal/notifications"
	"reelpost/internal/preflight"
	"reelpost/internal/publisher"
	"reelpost/internal/queue"
	"reelpost/internal/sheetsync"
	"reelpost/internal/uploader"
	"reelpost/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the reelpost daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonProcess(cmd.Context(), ctx)
		},
	}
}

func runDaemonProcess(cmdCtx context.Context, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateCredentials(); err != nil {
		return fmt.Errorf("validate credentials: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logPreflight(signalCtx, logger, cfg)

	pidPath := filepath.Join(cfg.Paths.LogDir, "reelpost.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	defer store.Close()

	notifier := notifications.NewService(cfg)
	manager := workflow.NewManager(cfg, store, logger, notifier)
	if err := registerStages(signalCtx, manager, cfg, store, logger); err != nil {
		return fmt.Errorf("configure stages: %w", err)
	}

	var poller *sheetsync.Poller
	if cfg.Sheets.Enabled {
		poller = sheetsync.NewPoller(cfg, store, logger, notifier)
	}

	d, err := daemon.New(cfg, store, logger, manager, poller)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, ipc.SocketPath(cfg.Paths.LogDir), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start", logging.Error(err))
	}

	<-signalCtx.Done()
	logger.Info("reelpost daemon shutting down")
	return nil
}

func registerStages(ctx context.Context, mgr *workflow.Manager, cfg *config.Config, store *queue.Store, logger *slog.Logger) error {
	captionStage, err := captioner.NewCaptioner(ctx, cfg, store, logger)
	if err != nil {
		return err
	}
	publishStage, err := publisher.NewPublisher(cfg, store, logger)
	if err != nil {
		return err
	}

	mgr.RegisterStage("captioner", queue.StatusPending, queue.StatusCaptioning, queue.StatusCaptioned, captionStage)
	mgr.RegisterStage("fetcher", queue.StatusCaptioned, queue.StatusFetching, queue.StatusFetched, fetcher.NewFetcher(cfg, store, logger))
	mgr.RegisterStage("uploader", queue.StatusFetched, queue.StatusUploading, queue.StatusUploaded, uploader.NewUploader(cfg, store, logger))
	mgr.RegisterStage("publisher", queue.StatusUploaded, queue.StatusPublishing, queue.StatusCompleted, publishStage)
	return nil
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	for _, result := range preflight.RunAll(ctx, cfg) {
		if result.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
			continue
		}
		logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
		)
	}
	for _, dep := range preflight.CheckSystemDeps(cfg) {
		if !dep.Found {
			logger.Warn("missing external binary", logging.String("detail", dep.Detail()))
		}
	}
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
