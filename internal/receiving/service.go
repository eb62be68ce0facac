package receiving

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/yardops-backend/internal/capacity"
	"github.com/angelmondragon/yardops-backend/pkg/db/models"
	"github.com/angelmondragon/yardops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/yardops-backend/pkg/errors"
	"github.com/angelmondragon/yardops-backend/pkg/logger"
	"github.com/angelmondragon/yardops-backend/pkg/metrics"
	"github.com/angelmondragon/yardops-backend/pkg/outbox"
	"github.com/angelmondragon/yardops-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) (bool, error)
}

// Service drives trucks, appointments, manifests and shipments into their
// received state.
type Service interface {
	ReceiveTruck(ctx context.Context, input ReceiveTruckInput) (*ReceiveResult, error)
	// ReconcileShipment re-runs the idempotent settlement steps for every
	// received truck and the completion check. Used by the recovery job.
	ReconcileShipment(ctx context.Context, shipmentID uuid.UUID) (*ReconcileResult, error)
	ListShipmentsNeedingSettlement(ctx context.Context, since time.Time, limit int) ([]uuid.UUID, error)
}

type ReceiveTruckInput struct {
	ShipmentID  uuid.UUID
	TruckID     uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.OperatorRole
}

// ReceiveResult reports what this call changed. AlreadyReceived marks a
// repeat call on a received truck; ShipmentReceived is true only for the
// call that completed the shipment.
type ReceiveResult struct {
	ShipmentID           uuid.UUID `json:"shipment_id"`
	TruckID              uuid.UUID `json:"truck_id"`
	AlreadyReceived      bool      `json:"already_received"`
	AppointmentsComplete int64     `json:"appointments_completed"`
	ItemsSettled         int       `json:"items_settled"`
	ShipmentReceived     bool      `json:"shipment_received"`
	NotificationQueued   bool      `json:"notification_queued"`
	OutstandingTrucks    int64     `json:"outstanding_trucks"`
}

// ReconcileResult is the recovery pass outcome for one shipment.
type ReconcileResult struct {
	ShipmentID         uuid.UUID
	TrucksChecked      int
	ItemsSettled       int
	ShipmentReceived   bool
	NotificationQueued bool
}

// ServiceParams groups the receiving dependencies.
type ServiceParams struct {
	Repo    Repository
	Tx      txRunner
	Outbox  outboxPublisher
	Metrics *metrics.YardMetrics
	Logger  *logger.Logger
	Clock   func() time.Time
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	metrics *metrics.YardMetrics
	logg    *logger.Logger
	clock   func() time.Time
}

// NewService builds the receiving state machine.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("receiving repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		outbox:  params.Outbox,
		metrics: params.Metrics,
		logg:    params.Logger,
		clock:   clock,
	}, nil
}

// ReceiveTruck runs all four settlement steps in one transaction with the
// shipment row locked. A failure reports its step and rolls the whole call
// back, so a retry starts from a consistent state.
func (s *service) ReceiveTruck(ctx context.Context, input ReceiveTruckInput) (*ReceiveResult, error) {
	if input.ShipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	if input.TruckID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "truck id required")
	}

	logCtx := s.logg.WithAggregate(ctx, string(enums.AggregateShipment), input.ShipmentID.String())
	logCtx = s.logg.WithField(logCtx, "truck_id", input.TruckID.String())
	actor := buildActor(input.ActorUserID, input.ActorRole)

	result := &ReceiveResult{ShipmentID: input.ShipmentID, TruckID: input.TruckID}
	var truckChanged bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := s.clock().UTC()

		shipment, err := repo.FindShipmentForUpdate(ctx, input.ShipmentID)
		if err != nil {
			return notFoundOr(err, "shipment not found", StepTruckReceived)
		}
		if shipment.Status == enums.ShipmentStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipment is cancelled")
		}
		truck, err := repo.FindTruck(ctx, shipment.ID, input.TruckID)
		if err != nil {
			return notFoundOr(err, "truck not found on shipment", StepTruckReceived)
		}

		switch truck.Status {
		case enums.TruckStatusCancelled:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "truck is cancelled")
		case enums.TruckStatusReceived:
			result.AlreadyReceived = true
		default:
			changed, err := repo.MarkTruckReceived(ctx, truck.ID, now)
			if err != nil {
				return stepFailure(StepTruckReceived, err)
			}
			truckChanged = changed
			result.AlreadyReceived = !changed
		}

		settled, err := s.settleTruck(ctx, tx, repo, truck.ID, now)
		if err != nil {
			return err
		}
		result.AppointmentsComplete = settled.appointments
		result.ItemsSettled = settled.items

		if truckChanged {
			event := outbox.DomainEvent{
				EventType:     enums.EventTruckReceived,
				AggregateType: enums.AggregateShipment,
				AggregateID:   shipment.ID,
				Actor:         actor,
				OccurredAt:    now,
				Data: payloads.TruckReceivedEvent{
					ShipmentID:   shipment.ID,
					TruckID:      truck.ID,
					ItemsSettled: settled.items,
					ReceivedAt:   now,
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return stepFailure(StepTruckReceived, err)
			}
		}

		completion, err := s.completeShipment(ctx, tx, repo, shipment, actor, now)
		if err != nil {
			return err
		}
		result.ShipmentReceived = completion.received
		result.NotificationQueued = completion.queued
		result.OutstandingTrucks = completion.outstanding
		return nil
	})
	if err != nil {
		s.recordFailure(logCtx, err)
		return nil, err
	}

	if truckChanged {
		s.metrics.IncTruckReceived()
		s.logg.Info(logCtx, "truck received")
	} else {
		s.logg.Info(logCtx, "truck already received; settlement re-checked")
	}
	if result.ShipmentReceived {
		s.metrics.IncShipmentReceived()
		s.logg.Info(logCtx, "shipment received")
	}
	return result, nil
}

func (s *service) ReconcileShipment(ctx context.Context, shipmentID uuid.UUID) (*ReconcileResult, error) {
	if shipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	logCtx := s.logg.WithAggregate(ctx, string(enums.AggregateShipment), shipmentID.String())

	result := &ReconcileResult{ShipmentID: shipmentID}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := s.clock().UTC()

		shipment, err := repo.FindShipmentForUpdate(ctx, shipmentID)
		if err != nil {
			return notFoundOr(err, "shipment not found", StepShipmentCompletion)
		}
		if shipment.Status == enums.ShipmentStatusCancelled {
			return nil
		}

		trucks, err := repo.ListReceivedTrucks(ctx, shipment.ID)
		if err != nil {
			return stepFailure(StepAppointmentCompletion, err)
		}
		for _, truck := range trucks {
			settled, err := s.settleTruck(ctx, tx, repo, truck.ID, now)
			if err != nil {
				return err
			}
			result.TrucksChecked++
			result.ItemsSettled += settled.items
		}

		completion, err := s.completeShipment(ctx, tx, repo, shipment, nil, now)
		if err != nil {
			return err
		}
		result.ShipmentReceived = completion.received
		result.NotificationQueued = completion.queued
		if shipment.SettlementFailedAt != nil {
			if err := repo.ClearSettlementFailure(ctx, shipment.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear settlement failure")
			}
		}
		return nil
	})
	if err != nil {
		s.recordFailure(logCtx, err)
		if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			// Stamped outside the rolled-back transaction.
			if markErr := s.repo.MarkSettlementFailed(ctx, shipmentID, s.clock().UTC()); markErr != nil {
				s.logg.Error(logCtx, "failed to stamp settlement failure", markErr)
			}
		}
		return nil, err
	}
	if result.ShipmentReceived {
		s.metrics.IncShipmentReceived()
		s.logg.Info(logCtx, "shipment received by recovery pass")
	}
	return result, nil
}

func (s *service) ListShipmentsNeedingSettlement(ctx context.Context, since time.Time, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 100
	}
	ids, err := s.repo.ListShipmentsNeedingSettlement(ctx, since.UTC(), limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipments needing settlement")
	}
	return ids, nil
}

type settlement struct {
	appointments int64
	items        int
}

// settleTruck runs the appointment and manifest steps; both are no-ops on
// rows already settled.
func (s *service) settleTruck(ctx context.Context, tx *gorm.DB, repo Repository, truckID uuid.UUID, now time.Time) (settlement, error) {
	var out settlement

	completed, err := repo.CompleteAppointmentsForTruck(ctx, truckID)
	if err != nil {
		return out, stepFailure(StepAppointmentCompletion, err)
	}
	out.appointments = completed

	items, err := repo.ListUnsettledItems(ctx, truckID)
	if err != nil {
		return out, stepFailure(StepManifestSettlement, err)
	}
	for _, item := range items {
		changed, err := repo.MarkItemInStorage(ctx, item.ID)
		if err != nil {
			return out, stepFailure(StepManifestSettlement, err)
		}
		if !changed {
			continue
		}
		out.items++
		if item.PipeID == nil {
			continue
		}
		if err := s.settlePipe(ctx, repo, *item.PipeID, now); err != nil {
			return out, stepFailure(StepManifestSettlement, err)
		}
	}
	return out, nil
}

// settlePipe moves the inventory record into storage and, on its first
// drop-off, charges the rack in the rack's unit.
func (s *service) settlePipe(ctx context.Context, repo Repository, pipeID uuid.UUID, now time.Time) error {
	pipe, err := repo.FindPipe(ctx, pipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "pipe inventory record not found").
				WithDetails(map[string]any{"pipe_id": pipeID.String()})
		}
		return err
	}
	firstDropOff, err := repo.MarkPipeDroppedOff(ctx, pipe.ID, now)
	if err != nil {
		return err
	}
	if !firstDropOff || pipe.RackID == nil {
		return nil
	}

	rack, err := repo.FindRack(ctx, *pipe.RackID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "rack not found").
				WithDetails(map[string]any{"rack_ids": []uuid.UUID{*pipe.RackID}})
		}
		return err
	}
	qty := pipeQuantity(*pipe, rack.AllocationMode)
	if !capacity.FitsAfter(capacity.AllocationOf(*rack), qty) {
		return rackFull(rack, qty)
	}
	ok, err := repo.IncrementRackOccupancy(ctx, rack, qty)
	if err != nil {
		return err
	}
	if !ok {
		return rackFull(rack, qty)
	}
	return nil
}

type completion struct {
	received    bool
	queued      bool
	outstanding int64
}

// completeShipment is the guarded RECEIVED transition. Only the call whose
// conditional update lands emits the customer notification.
func (s *service) completeShipment(ctx context.Context, tx *gorm.DB, repo Repository, shipment *models.Shipment, actor *outbox.ActorRef, now time.Time) (completion, error) {
	var out completion
	if shipment.Status == enums.ShipmentStatusReceived {
		return out, nil
	}

	counts, err := repo.CountTrucks(ctx, shipment.ID)
	if err != nil {
		return out, stepFailure(StepShipmentCompletion, err)
	}
	out.outstanding = counts.Outstanding
	if counts.Outstanding > 0 || counts.Received == 0 {
		return out, nil
	}

	changed, err := repo.CompleteShipment(ctx, shipment.ID, now)
	if err != nil {
		return out, stepFailure(StepShipmentCompletion, err)
	}
	if !changed {
		return out, nil
	}
	out.received = true
	shipment.Status = enums.ShipmentStatusReceived
	shipment.ReceivedAt = &now
	shipment.LatestCustomerNotificationAt = &now

	facts, err := repo.LoadNotificationFacts(ctx, shipment)
	if err != nil {
		return out, stepFailure(StepShipmentCompletion, err)
	}
	if facts.Recipient == "" {
		s.logg.Warn(s.logg.WithField(ctx, "shipment_id", shipment.ID.String()), "company has no contact email; received notification skipped")
		return out, nil
	}

	queued, err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventShipmentReceived,
		AggregateType: enums.AggregateShipment,
		AggregateID:   shipment.ID,
		Actor:         actor,
		OccurredAt:    now,
		Data: payloads.ShipmentReceivedEvent{
			ShipmentID:        shipment.ID,
			Recipient:         facts.Recipient,
			ReferenceID:       shipment.ReferenceID,
			CompanyName:       facts.CompanyName,
			TrucksReceived:    facts.TrucksReceived,
			ManifestLines:     facts.ManifestLines,
			DocumentsAttached: facts.DocumentsAttached,
			ReceivedAt:        now,
		},
	})
	if err != nil {
		return out, stepFailure(StepShipmentCompletion, err)
	}
	out.queued = queued
	return out, nil
}

func (s *service) recordFailure(ctx context.Context, err error) {
	typed := pkgerrors.As(err)
	if typed == nil {
		s.logg.Error(ctx, "receiving failed", err)
		return
	}
	if details, ok := typed.Details().(map[string]any); ok {
		if step, ok := details["step"].(string); ok {
			s.metrics.IncSettlementFailure(step)
			ctx = s.logg.WithField(ctx, "step", step)
		}
	}
	if typed.Code() == pkgerrors.CodeDependency {
		s.logg.Error(ctx, "settlement step failed", err)
		return
	}
	s.logg.Warn(ctx, typed.Message())
}

func pipeQuantity(pipe models.Pipe, mode enums.AllocationMode) decimal.Decimal {
	if mode == enums.AllocationModeLinear {
		return pipe.LengthMeters
	}
	return decimal.NewFromInt(int64(pipe.Quantity))
}

func rackFull(rack *models.Rack, qty decimal.Decimal) error {
	alloc := capacity.AllocationOf(*rack)
	return pkgerrors.New(pkgerrors.CodeStateConflict, "rack capacity would be exceeded").
		WithDetails(map[string]any{
			"rack_id":  rack.ID.String(),
			"capacity": alloc.Capacity().String(),
			"occupied": alloc.Occupied().String(),
			"incoming": qty.String(),
		})
}

func notFoundOr(err error, message string, step Step) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	}
	return stepFailure(step, err)
}

func buildActor(userID uuid.UUID, role enums.OperatorRole) *outbox.ActorRef {
	if userID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: userID, Role: role.String()}
}
