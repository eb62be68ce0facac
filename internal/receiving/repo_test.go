package receiving

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/yardops-backend/pkg/db/models"
	"github.com/angelmondragon/yardops-backend/pkg/enums"
)

func TestCompleteShipmentFlipsOnce(t *testing.T) {
	db := newTestDB(t)
	fx := seedShipment(t, db, 1)
	repo := NewRepository(db)
	ctx := context.Background()

	first, err := repo.CompleteShipment(ctx, fx.shipment.ID, testNow)
	require.NoError(t, err)
	second, err := repo.CompleteShipment(ctx, fx.shipment.ID, testNow)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
}

func TestCompleteShipmentIgnoresCancelled(t *testing.T) {
	db := newTestDB(t)
	fx := seedShipment(t, db, 1)
	require.NoError(t, db.Model(&models.Shipment{}).Where("id = ?", fx.shipment.ID).
		Update("status", enums.ShipmentStatusCancelled).Error)

	changed, err := NewRepository(db).CompleteShipment(context.Background(), fx.shipment.ID, testNow)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestIncrementRackOccupancyGuardsCapacity(t *testing.T) {
	db := newTestDB(t)
	fx := seedShipment(t, db, 1)
	repo := NewRepository(db)
	ctx := context.Background()

	rack := fx.rack
	ok, err := repo.IncrementRackOccupancy(ctx, &rack, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IncrementRackOccupancy(ctx, &rack, decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.False(t, ok)

	var stored models.Rack
	require.NoError(t, db.First(&stored, "id = ?", rack.ID).Error)
	assert.Equal(t, 100, stored.Occupied)
}

func TestCountTrucks(t *testing.T) {
	db := newTestDB(t)
	fx := seedShipment(t, db, 3)
	require.NoError(t, db.Model(&models.ShipmentTruck{}).Where("id = ?", fx.trucks[0].ID).Update("status", enums.TruckStatusReceived).Error)
	require.NoError(t, db.Model(&models.ShipmentTruck{}).Where("id = ?", fx.trucks[1].ID).Update("status", enums.TruckStatusCancelled).Error)

	counts, err := NewRepository(db).CountTrucks(context.Background(), fx.shipment.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Received)
	assert.Equal(t, int64(1), counts.Outstanding)
}
