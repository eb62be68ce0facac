package reservations

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/yardops-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/yardops-backend/pkg/errors"
)

// ResolveInput is the planning query: can these racks hold required units
// over the window?
type ResolveInput struct {
	RackIDs  []uuid.UUID
	Window   Window
	Required decimal.Decimal
}

// Service runs the reservation resolver. It never reserves anything.
type Service interface {
	Resolve(ctx context.Context, input ResolveInput) (*Resolution, error)
	// ResolveForUpdate locks the racks inside tx before resolving, for
	// callers that commit a decision based on the result.
	ResolveForUpdate(ctx context.Context, tx *gorm.DB, input ResolveInput) (*Resolution, error)
}

type service struct {
	repo Repository
}

// NewService wires the resolver service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reservations repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Resolve(ctx context.Context, input ResolveInput) (*Resolution, error) {
	return s.resolve(ctx, s.repo, input, false)
}

func (s *service) ResolveForUpdate(ctx context.Context, tx *gorm.DB, input ResolveInput) (*Resolution, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	return s.resolve(ctx, s.repo.WithTx(tx), input, true)
}

func (s *service) resolve(ctx context.Context, repo Repository, input ResolveInput, lock bool) (*Resolution, error) {
	rackIDs, err := validateInput(input)
	if err != nil {
		return nil, err
	}

	find := repo.FindRacks
	if lock {
		find = repo.FindRacksForUpdate
	}
	racks, err := find(ctx, rackIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load racks")
	}
	if missing := missingRacks(rackIDs, racks); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "rack not found").
			WithDetails(map[string]any{"rack_ids": missing})
	}

	holds, err := repo.ListActiveOverlapping(ctx, rackIDs, input.Window.Start, input.Window.End)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active reservations")
	}

	res := Resolve(racks, holds, input.Window, input.Required)
	return &res, nil
}

func validateInput(input ResolveInput) ([]uuid.UUID, error) {
	if len(input.RackIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one rack id required")
	}
	if !input.Window.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "window end must not precede start")
	}
	if input.Required.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "required quantity must not be negative")
	}
	ids := dedupe(input.RackIDs)
	if len(ids) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one rack id required")
	}
	return ids, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func missingRacks(want []uuid.UUID, got []models.Rack) []uuid.UUID {
	found := make(map[uuid.UUID]struct{}, len(got))
	for _, rack := range got {
		found[rack.ID] = struct{}{}
	}
	var missing []uuid.UUID
	for _, id := range want {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
