package sheetsync

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"reelpost/internal/config"
	"reelpost/internal/logging"
	"reelpost/internal/notifications"
	"reelpost/internal/queue"
	"reelpost/internal/services/sheets"
)

// SheetService is the subset of the Google Sheets client the poller needs.
type SheetService interface {
	FetchRows(ctx context.Context) ([][]string, error)
	MarkStatus(ctx context.Context, row int64, success bool) error
}

// Connector opens a sheet service once credentials become available.
type Connector func(ctx context.Context) (SheetService, error)

// Poller periodically reads the configured worksheet, enqueues new rows,
// and reports finished items back to the status column.
type Poller struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	notifier notifications.Service

	connect Connector

	pollInterval     time.Duration
	credentialsRetry time.Duration

	mu      sync.Mutex
	service SheetService
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewPoller builds a poller backed by the live Google Sheets API. The sheet
// connection is established lazily so the daemon can start before the
// credentials file exists.
func NewPoller(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *Poller {
	connect := func(ctx context.Context) (SheetService, error) {
		return sheets.New(ctx, cfg.Sheets.CredentialsPath, cfg.Sheets.SpreadsheetID, cfg.Sheets.Worksheet)
	}
	return NewPollerWithDependencies(cfg, store, logger, notifier, connect)
}

// NewPollerWithDependencies builds a poller with an injected sheet connector.
func NewPollerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service, connect Connector) *Poller {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewNoop()
	}
	pollInterval := time.Duration(cfg.Workflow.SheetPollInterval) * time.Second
	if pollInterval <= 0 {
		pollInterval = 5 * time.Minute
	}
	return &Poller{
		cfg:              cfg,
		store:            store,
		logger:           logging.NewComponentLogger(logger, "sheetsync"),
		notifier:         notifier,
		connect:          connect,
		pollInterval:     pollInterval,
		credentialsRetry: time.Minute,
	}
}

// Start launches the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(runCtx)
	}()
	return nil
}

// Stop halts polling and waits for an in-flight sync to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	running := p.running
	p.running = false
	p.mu.Unlock()

	if !running {
		return
	}
	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
}

// Running reports whether the polling loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) run(ctx context.Context) {
	p.logger.Info("sheet sync started", logging.Duration("poll_interval", p.pollInterval))
	for {
		wait := p.pollInterval
		if err := p.Connect(ctx); err != nil {
			p.logger.Warn("sheet service unavailable", logging.Error(err))
			wait = p.credentialsRetry
		} else if err := p.SyncOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("sheet sync failed", logging.Error(err))
		}

		select {
		case <-ctx.Done():
			p.logger.Info("sheet sync stopping")
			return
		case <-time.After(wait):
		}
	}
}

// Connect opens the sheet service once the credentials file is present.
// A missing file keeps the poller dormant rather than failing the daemon.
func (p *Poller) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.service != nil {
		return nil
	}
	if p.cfg.Sheets.CredentialsPath != "" {
		if _, err := os.Stat(p.cfg.Sheets.CredentialsPath); err != nil {
			return err
		}
	}
	service, err := p.connect(ctx)
	if err != nil {
		return err
	}
	p.service = service
	p.logger.Info("connected to spreadsheet",
		logging.String("spreadsheet_id", p.cfg.Sheets.SpreadsheetID),
		logging.String("worksheet", p.cfg.Sheets.Worksheet),
	)
	return nil
}

func (p *Poller) currentService() SheetService {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.service
}
