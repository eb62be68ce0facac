package capacity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/yardops-backend/pkg/db/models"
	"github.com/angelmondragon/yardops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/yardops-backend/pkg/errors"
)

type stubCapacityRepo struct {
	yard  *models.Yard
	area  *models.Area
	rack  *models.Rack
	racks []models.Rack
	err   error
}

func (s *stubCapacityRepo) FindYard(ctx context.Context, id uuid.UUID) (*models.Yard, error) {
	if s.yard == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.yard, nil
}

func (s *stubCapacityRepo) FindArea(ctx context.Context, id uuid.UUID) (*models.Area, error) {
	if s.area == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.area, nil
}

func (s *stubCapacityRepo) FindRack(ctx context.Context, id uuid.UUID) (*models.Rack, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.rack == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.rack, nil
}

func (s *stubCapacityRepo) ListRacksByYard(ctx context.Context, yardID uuid.UUID) ([]models.Rack, error) {
	return s.racks, s.err
}

func (s *stubCapacityRepo) ListRacksByArea(ctx context.Context, areaID uuid.UUID) ([]models.Rack, error) {
	return s.racks, s.err
}

type stubHolds struct {
	held      map[uuid.UUID]decimal.Decimal
	lastStart time.Time
}

func (s *stubHolds) ActiveReservedByRack(ctx context.Context, rackIDs []uuid.UUID, start, end time.Time) (map[uuid.UUID]decimal.Decimal, error) {
	s.lastStart = start
	return s.held, nil
}

func fixedClock() time.Time {
	return time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
}

func TestYardUtilization(t *testing.T) {
	yardID := uuid.New()
	repo := &stubCapacityRepo{
		yard: &models.Yard{ID: yardID, Name: "North"},
		racks: []models.Rack{
			{AllocationMode: enums.AllocationModeSlot, Capacity: 40, Occupied: 10},
			{AllocationMode: enums.AllocationModeLinear, CapacityMeters: decimal.NewFromInt(50), OccupiedMeters: decimal.NewFromInt(50)},
		},
	}
	svc, err := NewService(repo, &stubHolds{}, fixedClock)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	got, err := svc.YardUtilization(context.Background(), yardID)
	if err != nil {
		t.Fatalf("yard utilization: %v", err)
	}
	if got.Name != "North" || got.SlotCapacity != 40 || got.SlotOccupied != 10 {
		t.Fatalf("unexpected utilization %+v", got)
	}
	if !got.SlotPercent.Equal(decimal.NewFromInt(25)) || !got.LinearPercent.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected percentages slot=%s linear=%s", got.SlotPercent, got.LinearPercent)
	}
}

func TestAreaUtilizationNotFound(t *testing.T) {
	svc, _ := NewService(&stubCapacityRepo{}, &stubHolds{}, fixedClock)

	_, err := svc.AreaUtilization(context.Background(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRackFreeFlagsOverReservation(t *testing.T) {
	rackID := uuid.New()
	holds := &stubHolds{held: map[uuid.UUID]decimal.Decimal{rackID: decimal.NewFromInt(80)}}
	repo := &stubCapacityRepo{rack: &models.Rack{
		ID:             rackID,
		Name:           "A-1",
		AllocationMode: enums.AllocationModeSlot,
		Capacity:       100,
		Occupied:       30,
	}}
	svc, _ := NewService(repo, holds, fixedClock)

	got, err := svc.RackFree(context.Background(), rackID)
	if err != nil {
		t.Fatalf("rack free: %v", err)
	}
	if !got.Free.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("expected 70 free, got %s", got.Free)
	}
	if !got.OverReserved {
		t.Fatalf("expected over-reserved flag with 30 occupied against 20 unreserved")
	}
	if !holds.lastStart.Equal(fixedClock()) {
		t.Fatalf("expected holds evaluated at clock time, got %s", holds.lastStart)
	}
}

func TestRackFreeWithoutHolds(t *testing.T) {
	rackID := uuid.New()
	repo := &stubCapacityRepo{rack: &models.Rack{
		ID:             rackID,
		AllocationMode: enums.AllocationModeLinear,
		CapacityMeters: decimal.NewFromInt(10),
		OccupiedMeters: decimal.NewFromInt(4),
	}}
	svc, _ := NewService(repo, &stubHolds{}, fixedClock)

	got, err := svc.RackFree(context.Background(), rackID)
	if err != nil {
		t.Fatalf("rack free: %v", err)
	}
	if got.OverReserved || !got.ReservedNow.IsZero() || !got.Free.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestRackFreeErrors(t *testing.T) {
	svc, _ := NewService(&stubCapacityRepo{}, &stubHolds{}, fixedClock)

	if _, err := svc.RackFree(context.Background(), uuid.Nil); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.RackFree(context.Background(), uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	failing, _ := NewService(&stubCapacityRepo{err: errors.New("db down")}, &stubHolds{}, fixedClock)
	if _, err := failing.RackFree(context.Background(), uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, &stubHolds{}, nil); err == nil {
		t.Fatal("expected error without repository")
	}
	if _, err := NewService(&stubCapacityRepo{}, nil, nil); err == nil {
		t.Fatal("expected error without hold lookup")
	}
}
