package worker

import (
	"context"
	"fmt"

	applog "tally/internal/log"
	"tally/internal/metrics"
	"tally/internal/realtime"
	"tally/internal/sheets"
)

// MirrorWorker replays expense change events onto a spreadsheet.
type MirrorWorker struct {
	mirror  sheets.RowMirror
	metrics *metrics.Metrics
	logger  *applog.Logger
}

func NewMirrorWorker(mirror sheets.RowMirror, m *metrics.Metrics, logger *applog.Logger) *MirrorWorker {
	return &MirrorWorker{
		mirror:  mirror,
		metrics: m,
		logger:  logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleChange upserts the row for inserts and updates and clears it for
// deletes. A returned error asks the broker to redeliver.
func (w *MirrorWorker) HandleChange(ctx context.Context, ev realtime.ChangeEvent) error {
	if err := ev.Validate(); err != nil {
		// Redelivery cannot fix a malformed event.
		w.logger.WarnContext(ctx, "Skipping invalid change event", applog.FieldError, err)
		return nil
	}

	var err error
	switch ev.Type {
	case realtime.Insert, realtime.Update:
		err = w.mirror.UpsertRow(ctx, ev.UserID, *ev.Expense)
	case realtime.Delete:
		err = w.mirror.DeleteRow(ctx, ev.UserID, ev.ExpenseID)
	}
	w.metrics.ObserveMirror(string(ev.Type), err)

	fields := applog.NewFields().
		WithOperation(applog.OpMirror).
		WithUser(ev.UserID).
		WithError(err)
	fields[applog.FieldEventType] = ev.Type
	fields[applog.FieldExpenseID] = ev.ExpenseID

	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to mirror change", fields.ToSlice()...)
		return fmt.Errorf("mirror %s %s: %w", ev.Type, ev.ExpenseID, err)
	}
	w.logger.InfoContext(ctx, "Change mirrored to spreadsheet", fields.ToSlice()...)
	return nil
}
