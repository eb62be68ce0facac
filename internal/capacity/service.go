package capacity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/yardops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/yardops-backend/pkg/errors"
)

// HoldLookup sums ACTIVE reservation quantities per rack over a window.
type HoldLookup interface {
	ActiveReservedByRack(ctx context.Context, rackIDs []uuid.UUID, start, end time.Time) (map[uuid.UUID]decimal.Decimal, error)
}

// Service answers the read-side capacity questions.
type Service interface {
	YardUtilization(ctx context.Context, yardID uuid.UUID) (*ContainerUtilization, error)
	AreaUtilization(ctx context.Context, areaID uuid.UUID) (*ContainerUtilization, error)
	RackFree(ctx context.Context, rackID uuid.UUID) (*RackFreeCapacity, error)
}

// ContainerUtilization is the utilization of a yard or area.
type ContainerUtilization struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Utilization
}

// RackFreeCapacity is the "free now" view of one rack. OverReserved flags
// physical occupancy beyond what today's holds leave available; it is
// informational and never blocks anything.
type RackFreeCapacity struct {
	RackID         uuid.UUID            `json:"rack_id"`
	Name           string               `json:"name"`
	AllocationMode enums.AllocationMode `json:"allocation_mode"`
	Capacity       decimal.Decimal      `json:"capacity"`
	Occupied       decimal.Decimal      `json:"occupied"`
	Free           decimal.Decimal      `json:"free"`
	ReservedNow    decimal.Decimal      `json:"reserved_now"`
	OverReserved   bool                 `json:"over_reserved"`
}

type service struct {
	repo  Repository
	holds HoldLookup
	clock func() time.Time
}

// NewService wires the capacity read service.
func NewService(repo Repository, holds HoldLookup, clock func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("capacity repository required")
	}
	if holds == nil {
		return nil, fmt.Errorf("reservation lookup required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &service{repo: repo, holds: holds, clock: clock}, nil
}

func (s *service) YardUtilization(ctx context.Context, yardID uuid.UUID) (*ContainerUtilization, error) {
	if yardID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "yard id required")
	}
	yard, err := s.repo.FindYard(ctx, yardID)
	if err != nil {
		return nil, notFoundOr(err, "yard not found", "load yard")
	}
	racks, err := s.repo.ListRacksByYard(ctx, yardID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list yard racks")
	}
	return &ContainerUtilization{ID: yard.ID, Name: yard.Name, Utilization: Summarize(racks)}, nil
}

func (s *service) AreaUtilization(ctx context.Context, areaID uuid.UUID) (*ContainerUtilization, error) {
	if areaID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "area id required")
	}
	area, err := s.repo.FindArea(ctx, areaID)
	if err != nil {
		return nil, notFoundOr(err, "area not found", "load area")
	}
	racks, err := s.repo.ListRacksByArea(ctx, areaID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list area racks")
	}
	return &ContainerUtilization{ID: area.ID, Name: area.Name, Utilization: Summarize(racks)}, nil
}

func (s *service) RackFree(ctx context.Context, rackID uuid.UUID) (*RackFreeCapacity, error) {
	if rackID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rack id required")
	}
	rack, err := s.repo.FindRack(ctx, rackID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "rack not found").
				WithDetails(map[string]any{"rack_ids": []uuid.UUID{rackID}})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rack")
	}

	now := s.clock().UTC()
	held, err := s.holds.ActiveReservedByRack(ctx, []uuid.UUID{rackID}, now, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum active reservations")
	}
	reserved := held[rackID]

	alloc := AllocationOf(*rack)
	unreserved := floorZero(alloc.Capacity().Sub(reserved))
	return &RackFreeCapacity{
		RackID:         rack.ID,
		Name:           rack.Name,
		AllocationMode: alloc.Mode(),
		Capacity:       alloc.Capacity(),
		Occupied:       alloc.Occupied(),
		Free:           Free(alloc),
		ReservedNow:    reserved,
		OverReserved:   alloc.Occupied().GreaterThan(unreserved),
	}, nil
}

func notFoundOr(err error, notFound, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
