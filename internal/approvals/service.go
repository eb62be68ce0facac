package approvals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/yardops-backend/internal/reservations"
	"github.com/angelmondragon/yardops-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/yardops-backend/pkg/db/types"
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
}

type capacityResolver interface {
	ResolveForUpdate(ctx context.Context, tx *gorm.DB, input reservations.ResolveInput) (*reservations.Resolution, error)
}

// Service moves storage requests out of PENDING.
type Service interface {
	Approve(ctx context.Context, input ApproveInput) (*ApprovalResult, error)
	Reject(ctx context.Context, input RejectInput) (*models.StorageRequest, error)
}

// ApproveInput is an operator's rack selection for a request. RequiredJoints
// overrides the request's own figure when positive.
type ApproveInput struct {
	RequestID      uuid.UUID
	RackIDs        []uuid.UUID
	RequiredJoints int
	InternalNotes  *string
	ActorUserID    uuid.UUID
	ActorRole      enums.OperatorRole
}

// RejectInput carries the mandatory rejection reason.
type RejectInput struct {
	RequestID   uuid.UUID
	Reason      string
	ActorUserID uuid.UUID
	ActorRole   enums.OperatorRole
}

// ApprovalResult is the approved request plus the capacity that certified it.
type ApprovalResult struct {
	Request    *models.StorageRequest
	Resolution *reservations.Resolution
}

type service struct {
	repo     Repository
	tx       txRunner
	resolver capacityResolver
	outbox   outboxPublisher
	metrics  *metrics.YardMetrics
	logg     *logger.Logger
	clock    func() time.Time
}

// ServiceParams groups the approval workflow dependencies.
type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Resolver capacityResolver
	Outbox   outboxPublisher
	Metrics  *metrics.YardMetrics
	Logger   *logger.Logger
	Clock    func() time.Time
}

// NewService builds the approval workflow.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("approvals repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Resolver == nil {
		return nil, fmt.Errorf("capacity resolver required")
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
		repo:     params.Repo,
		tx:       params.Tx,
		resolver: params.Resolver,
		outbox:   params.Outbox,
		metrics:  params.Metrics,
		logg:     params.Logger,
		clock:    clock,
	}, nil
}

func (s *service) Approve(ctx context.Context, input ApproveInput) (*ApprovalResult, error) {
	if input.RequestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storage request id required")
	}
	if len(input.RackIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one rack must be selected")
	}
	if input.RequiredJoints < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "required joints must not be negative")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	logCtx := s.logg.WithAggregate(ctx, string(enums.AggregateStorageRequest), input.RequestID.String())
	logCtx = s.logg.WithField(logCtx, "rack_ids", input.RackIDs)

	var result *ApprovalResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := repo.FindStorageRequestForUpdate(ctx, input.RequestID)
		if err != nil {
			return loadError(err)
		}
		if request.Status != enums.StorageRequestStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("storage request is %s, not PENDING", request.Status))
		}

		required := request.RequiredJoints
		if input.RequiredJoints > 0 {
			required = input.RequiredJoints
		}

		resolution, err := s.resolver.ResolveForUpdate(ctx, tx, reservations.ResolveInput{
			RackIDs:  input.RackIDs,
			Window:   reservations.Window{Start: request.StartDate, End: request.EndDate},
			Required: decimal.NewFromInt(int64(required)),
		})
		if err != nil {
			return err
		}
		if !resolution.Sufficient {
			return insufficientCapacity(resolution)
		}

		now := s.clock().UTC()
		rackIDs := dbtypes.NewUUIDArray(input.RackIDs...)
		actor := input.ActorUserID
		updates := map[string]any{
			"status":            enums.StorageRequestStatusApproved,
			"assigned_rack_ids": rackIDs,
			"approved_at":       now,
			"approved_by":       actor,
		}
		if notes := trimmed(input.InternalNotes); notes != nil {
			updates["internal_notes"] = *notes
		}
		changed, err := repo.TransitionFromPending(ctx, request.ID, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve storage request")
		}
		if !changed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "storage request was decided concurrently")
		}

		request.Status = enums.StorageRequestStatusApproved
		request.AssignedRackIDs = rackIDs
		request.ApprovedAt = &now
		request.ApprovedBy = &actor
		if notes := trimmed(input.InternalNotes); notes != nil {
			request.InternalNotes = notes
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventStorageRequestApproved,
			AggregateType: enums.AggregateStorageRequest,
			AggregateID:   request.ID,
			Actor:         buildActor(input.ActorUserID, input.ActorRole),
			OccurredAt:    now,
			Data: payloads.StorageRequestApprovedEvent{
				StorageRequestID: request.ID,
				CompanyID:        request.CompanyID,
				ReferenceID:      request.ReferenceID,
				AssignedRackIDs:  []uuid.UUID(rackIDs),
				RequiredJoints:   required,
				TotalAvailable:   resolution.TotalAvailable,
				ApprovedAt:       now,
				ApprovedBy:       &actor,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit approval event")
		}

		result = &ApprovalResult{Request: request, Resolution: resolution}
		return nil
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeInsufficientCapacity) {
			s.metrics.IncApproval("insufficient_capacity")
			s.logg.Warn(logCtx, "approval blocked by insufficient capacity")
		}
		return nil, err
	}

	s.metrics.IncApproval("approved")
	s.logg.Info(logCtx, "storage request approved")
	return result, nil
}

func (s *service) Reject(ctx context.Context, input RejectInput) (*models.StorageRequest, error) {
	if input.RequestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storage request id required")
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var rejected *models.StorageRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := repo.FindStorageRequestForUpdate(ctx, input.RequestID)
		if err != nil {
			return loadError(err)
		}
		if request.Status != enums.StorageRequestStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("storage request is %s, not PENDING", request.Status))
		}

		now := s.clock().UTC()
		changed, err := repo.TransitionFromPending(ctx, request.ID, map[string]any{
			"status":           enums.StorageRequestStatusRejected,
			"rejected_at":      now,
			"rejection_reason": reason,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject storage request")
		}
		if !changed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "storage request was decided concurrently")
		}
		request.Status = enums.StorageRequestStatusRejected
		request.RejectedAt = &now
		request.RejectionReason = &reason

		event := outbox.DomainEvent{
			EventType:     enums.EventStorageRequestRejected,
			AggregateType: enums.AggregateStorageRequest,
			AggregateID:   request.ID,
			Actor:         buildActor(input.ActorUserID, input.ActorRole),
			OccurredAt:    now,
			Data: payloads.StorageRequestRejectedEvent{
				StorageRequestID: request.ID,
				CompanyID:        request.CompanyID,
				ReferenceID:      request.ReferenceID,
				Reason:           reason,
				RejectedAt:       now,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit rejection event")
		}
		rejected = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncApproval("rejected")
	s.logg.Info(s.logg.WithAggregate(ctx, string(enums.AggregateStorageRequest), input.RequestID.String()), "storage request rejected")
	return rejected, nil
}

func insufficientCapacity(res *reservations.Resolution) error {
	byRack := make(map[string]string, len(res.AvailableByRack))
	for id, available := range res.AvailableByRack {
		byRack[id.String()] = available.String()
	}
	shortfall := res.Shortfall()
	return pkgerrors.New(pkgerrors.CodeInsufficientCapacity,
		fmt.Sprintf("selected racks are short by %s", shortfall.String())).
		WithDetails(map[string]any{
			"required":  res.Required.String(),
			"available": res.TotalAvailable.String(),
			"shortfall": shortfall.String(),
			"by_rack":   byRack,
		})
}

func loadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "storage request not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load storage request")
}

func buildActor(userID uuid.UUID, role enums.OperatorRole) *outbox.ActorRef {
	if userID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: userID, Role: role.String()}
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}

