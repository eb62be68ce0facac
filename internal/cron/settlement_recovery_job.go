package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/yardops-backend/internal/receiving"
	"github.com/angelmondragon/yardops-backend/pkg/logger"
)

const (
	defaultRecoveryLookback = 30 * 24 * time.Hour
	defaultRecoveryBatch    = 100
)

type settlementReconciler interface {
	ListShipmentsNeedingSettlement(ctx context.Context, since time.Time, limit int) ([]uuid.UUID, error)
	ReconcileShipment(ctx context.Context, shipmentID uuid.UUID) (*receiving.ReconcileResult, error)
}

type SettlementRecoveryJobParams struct {
	Logger    *logger.Logger
	Receiving settlementReconciler
	Lookback  time.Duration
	BatchSize int
}

// NewSettlementRecoveryJob re-runs the idempotent receiving steps for
// shipments left half-settled by an earlier failure.
func NewSettlementRecoveryJob(params SettlementRecoveryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Receiving == nil {
		return nil, fmt.Errorf("receiving service required")
	}
	lookback := params.Lookback
	if lookback <= 0 {
		lookback = defaultRecoveryLookback
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultRecoveryBatch
	}
	return &settlementRecoveryJob{
		logg:      params.Logger,
		receiving: params.Receiving,
		lookback:  lookback,
		batch:     batch,
		now:       time.Now,
	}, nil
}

type settlementRecoveryJob struct {
	logg      *logger.Logger
	receiving settlementReconciler
	lookback  time.Duration
	batch     int
	now       func() time.Time
}

func (j *settlementRecoveryJob) Name() string { return "settlement-recovery" }

func (j *settlementRecoveryJob) Run(ctx context.Context) error {
	since := j.now().UTC().Add(-j.lookback)
	ids, err := j.receiving.ListShipmentsNeedingSettlement(ctx, since, j.batch)
	if err != nil {
		return fmt.Errorf("list shipments: %w", err)
	}

	var (
		errs      error
		received  int
		itemCount int
	)
	for _, id := range ids {
		logCtx := j.logg.WithField(ctx, "shipment_id", id.String())
		result, err := j.receiving.ReconcileShipment(logCtx, id)
		if err != nil {
			j.logg.Error(logCtx, "shipment reconcile failed", err)
			errs = multierr.Append(errs, fmt.Errorf("shipment %s: %w", id, err))
			continue
		}
		itemCount += result.ItemsSettled
		if result.ShipmentReceived {
			received++
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"since":              since,
		"shipments_checked":  len(ids),
		"shipments_received": received,
		"items_settled":      itemCount,
	}), "settlement recovery complete")
	return errs
}
