package sheetsync

import (
	"context"
	"errors"

	"reelpost/internal/logging"
	"reelpost/internal/queue"
	"reelpost/internal/services"
	"reelpost/internal/services/sheets"
)

// SyncOnce performs one full pass: enqueue new rows, then report finished
// items back to the status column.
func (p *Poller) SyncOnce(ctx context.Context) error {
	service := p.currentService()
	if service == nil {
		return services.Wrapf(services.ErrUnavailable, "sheet service not connected")
	}

	var errs []error
	if err := p.ingest(ctx, service); err != nil {
		errs = append(errs, err)
	}
	if err := p.reportFinished(ctx, service); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ingest enqueues worksheet rows that are not already tracked. Rows are
// deduplicated by the fingerprint of their coordinates and content, so a
// row edited in place is treated as new work.
func (p *Poller) ingest(ctx context.Context, service SheetService) error {
	rows, err := service.FetchRows(ctx)
	if err != nil {
		return services.Wrap(services.ErrTransient, "fetch worksheet rows", err)
	}

	jobs := sheets.SelectJobs(rows)
	queued := 0
	for _, job := range jobs {
		fingerprint := job.Fingerprint()
		existing, err := p.store.FindByFingerprint(ctx, fingerprint)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		item, err := p.store.NewSheetTask(ctx, job.VideoURL, job.SubtitleURL, fingerprint, job.Row)
		if err != nil {
			return err
		}
		queued++
		p.logger.Info("queued sheet row",
			logging.Int64(logging.FieldItemID, item.ID),
			logging.Int64(logging.FieldSheetRow, job.Row),
			logging.String(logging.FieldVideoURL, job.VideoURL),
		)
		if err := p.notifier.NotifyQueued(ctx, job.VideoURL, job.Row); err != nil {
			p.logger.Debug("queue notification failed", logging.Error(err))
		}
	}
	if queued > 0 {
		p.logger.Info("sheet ingest complete", logging.Int("queued", queued), logging.Int("rows", len(jobs)))
	}
	return nil
}

// reportFinished writes Yes or No into the status column for items that
// reached a terminal status since the last pass. The write is retried on
// the next pass if the sheet is unreachable.
func (p *Poller) reportFinished(ctx context.Context, service SheetService) error {
	items, err := p.store.Unreported(ctx)
	if err != nil {
		return err
	}
	for _, item := range items {
		success := item.Status == queue.StatusCompleted
		if err := service.MarkStatus(ctx, item.SheetRow, success); err != nil {
			p.logger.Warn("failed to update sheet status",
				logging.Int64(logging.FieldItemID, item.ID),
				logging.Int64(logging.FieldSheetRow, item.SheetRow),
				logging.Error(err),
			)
			return services.Wrap(services.ErrTransient, "mark sheet status", err)
		}
		item.Reported = true
		if err := p.store.Update(ctx, item); err != nil {
			return err
		}
		p.logger.Info("reported item to sheet",
			logging.Int64(logging.FieldItemID, item.ID),
			logging.Int64(logging.FieldSheetRow, item.SheetRow),
			logging.Bool("success", success),
		)
	}
	return nil
}
