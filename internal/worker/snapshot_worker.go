package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"holdings/internal/amqp"
	"holdings/internal/core"
	"holdings/internal/log"
	"holdings/internal/services"
)

// ErrBalanceUnavailable is returned when a snapshot is requested while the
// balance sheet is degraded. Recording the empty totals would be misleading.
var ErrBalanceUnavailable = errors.New("balance sheet unavailable")

// BalanceReader is the part of the balance service the worker needs.
type BalanceReader interface {
	BalanceSheet(ctx context.Context, q core.Query) services.BalanceView
	Invalidate()
}

// SnapshotSaver persists snapshots.
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, s core.Snapshot) (core.Snapshot, error)
}

// ChangeConsumer delivers holding changed messages until ctx is done.
type ChangeConsumer interface {
	ConsumeHoldingChanged(ctx context.Context, handler func(context.Context, *amqp.HoldingChangedMessage) error) error
}

// SnapshotWorkerConfig holds configuration for the snapshot worker
type SnapshotWorkerConfig struct {
	// Interval between periodic snapshots (default: 1h)
	Interval time.Duration

	// SnapshotOnStart records one snapshot before waiting for the first tick
	SnapshotOnStart bool
}

// DefaultSnapshotWorkerConfig returns the defaults
func DefaultSnapshotWorkerConfig() SnapshotWorkerConfig {
	return SnapshotWorkerConfig{
		Interval:        time.Hour,
		SnapshotOnStart: true,
	}
}

// SnapshotWorker records the unfiltered balance sheet totals whenever a
// holding changes and on a fixed interval.
type SnapshotWorker struct {
	balance BalanceReader
	store   SnapshotSaver
	config  SnapshotWorkerConfig
	logger  *log.Logger
	now     func() time.Time
}

func NewSnapshotWorker(balance BalanceReader, store SnapshotSaver, config SnapshotWorkerConfig, logger *log.Logger) *SnapshotWorker {
	if config.Interval <= 0 {
		config.Interval = DefaultSnapshotWorkerConfig().Interval
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &SnapshotWorker{
		balance: balance,
		store:   store,
		config:  config,
		logger:  logger.WithComponent(log.ComponentWorker),
		now:     time.Now,
	}
}

// TakeSnapshot aggregates every holding and stores the totals.
func (w *SnapshotWorker) TakeSnapshot(ctx context.Context) (core.Snapshot, error) {
	view := w.balance.BalanceSheet(ctx, core.Query{OwnerFilter: core.AllOwners})
	if view.Degraded {
		if view.Err != nil {
			return core.Snapshot{}, fmt.Errorf("%w: %w", ErrBalanceUnavailable, view.Err)
		}
		return core.Snapshot{}, fmt.Errorf("%w: %s", ErrBalanceUnavailable, view.Reason)
	}

	saved, err := w.store.SaveSnapshot(ctx, core.NewSnapshot(view.BalanceSheet, w.now()))
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}

	w.logger.InfoContext(ctx, "Balance snapshot recorded",
		log.FieldOperation, log.OpSnapshot,
		"snapshot_id", saved.ID,
		log.FieldRows, saved.Holdings,
		log.FieldNetEquity, saved.NetEquity.String())
	return saved, nil
}

// HandleHoldingChanged drops the cached rows so the snapshot sees the
// change, then records one. A returned error makes the message redeliver,
// except when a corrupt record blocks the snapshot: that error wraps
// amqp.ErrPermanent and the periodic snapshot picks up once it is fixed.
func (w *SnapshotWorker) HandleHoldingChanged(ctx context.Context, msg *amqp.HoldingChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing holding changed message",
		log.FieldHoldingID, msg.HoldingID,
		log.FieldCategory, msg.Category,
		"action", msg.Action)

	w.balance.Invalidate()
	if _, err := w.TakeSnapshot(ctx); err != nil {
		if errors.Is(err, core.ErrInvalidRecord) {
			return fmt.Errorf("%w: snapshot after %s of %q: %w", amqp.ErrPermanent, msg.Action, msg.HoldingID, err)
		}
		return fmt.Errorf("snapshot after %s of %q: %w", msg.Action, msg.HoldingID, err)
	}
	return nil
}

// Run takes periodic snapshots and, when consumer is non-nil, one per
// holding changed message. It returns when ctx is cancelled or the
// consumer fails for good.
func (w *SnapshotWorker) Run(ctx context.Context, consumer ChangeConsumer) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		w.runTicker(ctx)
		return nil
	})

	if consumer != nil {
		g.Go(func() error {
			err := consumer.ConsumeHoldingChanged(ctx, w.HandleHoldingChanged)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("consume holding changes: %w", err)
			}
			return nil
		})
	}

	w.logger.InfoContext(ctx, "Snapshot worker started",
		"interval", w.config.Interval.String(),
		"consuming", consumer != nil)

	err := g.Wait()
	w.logger.Info("Snapshot worker stopped", log.FieldOperation, log.OpShutdown)
	return err
}

func (w *SnapshotWorker) runTicker(ctx context.Context) {
	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	if w.config.SnapshotOnStart {
		w.periodic(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.periodic(ctx)
		}
	}
}

func (w *SnapshotWorker) periodic(ctx context.Context) {
	if _, err := w.TakeSnapshot(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.ErrorContext(ctx, "Periodic snapshot failed",
			log.FieldOperation, log.OpSnapshot,
			log.FieldError, err)
	}
}
