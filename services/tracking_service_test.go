package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealbridge/delivery-app/models"
)

func TestUpdateStatusAppendsForwardTransitions(t *testing.T) {
	db, _, tracking, _, _ := newTestStack(t)
	order := seedOrder(t, db, "pending")

	for _, status := range []string{StatusPaymentConfirmed, StatusPreparing, StatusReadyForPickup} {
		_, err := tracking.UpdateStatus(models.OrderKindAdhoc, order.ID, status, "", nil, nil)
		require.NoError(t, err)
	}

	rec, err := tracking.GetTracking(models.OrderKindAdhoc, order.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReadyForPickup, rec.Status)

	// order_placed seed + three transitions
	require.Len(t, rec.Timeline, 4)
	assert.Equal(t, StatusOrderPlaced, rec.Timeline[0].Status)
	assert.Equal(t, StatusReadyForPickup, rec.Timeline[3].Status)

	// timestamps never go backwards
	for i := 1; i < len(rec.Timeline); i++ {
		assert.False(t, rec.Timeline[i].CreatedAt.Before(rec.Timeline[i-1].CreatedAt))
	}

	// coarse status mirrored onto the order
	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, StatusReadyForPickup, reloaded.Status)
	assert.NotNil(t, reloaded.ReadyForPickupAt)
}

func TestUpdateStatusDuplicateIsNoOp(t *testing.T) {
	db, _, tracking, _, _ := newTestStack(t)
	order := seedOrder(t, db, "pending")

	_, err := tracking.UpdateStatus(models.OrderKindAdhoc, order.ID, StatusOutForDelivery, "", nil, nil)
	require.NoError(t, err)

	// frequent location-driven pings repeat the same status
	for i := 0; i < 3; i++ {
		_, err = tracking.UpdateStatus(models.OrderKindAdhoc, order.ID, StatusOutForDelivery, "", nil, nil)
		require.NoError(t, err)
	}

	rec, err := tracking.GetTracking(models.OrderKindAdhoc, order.ID)
	require.NoError(t, err)
	require.Len(t, rec.Timeline, 2) // seed + one out_for_delivery
}

func TestUpdateStatusRejectsBackwardTransition(t *testing.T) {
	db, _, tracking, _, _ := newTestStack(t)
	order := seedOrder(t, db, "pending")

	_, err := tracking.UpdateStatus(models.OrderKindAdhoc, order.ID, StatusPickedUp, "", nil, nil)
	require.NoError(t, err)

	_, err = tracking.UpdateStatus(models.OrderKindAdhoc, order.ID, StatusPreparing, "", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	// no entry appended on the failed transition
	rec, err := tracking.GetTracking(models.OrderKindAdhoc, order.ID)
	require.NoError(t, err)
	assert.Len(t, rec.Timeline, 2)
}

func TestCancelledReachableFromAnyNonTerminalState(t *testing.T) {
	db, _, tracking, _, _ := newTestStack(t)
	order := seedOrder(t, db, "pending")

	_, err := tracking.UpdateStatus(models.OrderKindAdhoc, order.ID, StatusPreparing, "", nil, nil)
	require.NoError(t, err)

	rec, err := tracking.UpdateStatus(models.OrderKindAdhoc, order.ID, StatusCancelled, "customer cancelled", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, rec.Status)

	// terminal: nothing moves after cancellation
	_, err = tracking.UpdateStatus(models.OrderKindAdhoc, order.ID, StatusDelivered, "", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestDeliveredStampsTimestampExactlyOnce(t *testing.T) {
	db, _, tracking, _, _ := newTestStack(t)
	order := seedOrder(t, db, "pending")

	_, err := tracking.UpdateStatus(models.OrderKindAdhoc, order.ID, StatusDelivered, "", nil, nil)
	require.NoError(t, err)

	var first models.Order
	require.NoError(t, db.First(&first, order.ID).Error)
	require.NotNil(t, first.DeliveredAt)
	stamped := *first.DeliveredAt

	// delivered is terminal; a repeat is rejected and the stamp stays
	_, err = tracking.UpdateStatus(models.OrderKindAdhoc, order.ID, StatusCancelled, "", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	var second models.Order
	require.NoError(t, db.First(&second, order.ID).Error)
	require.NotNil(t, second.DeliveredAt)
	assert.WithinDuration(t, stamped, *second.DeliveredAt, time.Millisecond)
}

func TestDeliveredIncrementsDriverCounter(t *testing.T) {
	db, _, tracking, assignment, _ := newTestStack(t)
	driver := seedDriver(t, db, "finisher", 4.5, 10, true)
	order := seedOrder(t, db, "pending")

	_, err := assignment.Claim(models.OrderKindAdhoc, order.ID, driver.ID, "driver")
	require.NoError(t, err)

	_, err = tracking.UpdateStatus(models.OrderKindAdhoc, order.ID, StatusDelivered, "", nil, nil)
	require.NoError(t, err)

	var reloaded models.Driver
	require.NoError(t, db.First(&reloaded, driver.ID).Error)
	assert.Equal(t, 11, reloaded.TotalDeliveries)
}

func TestUpdateLocationNeverTouchesTimeline(t *testing.T) {
	db, _, tracking, assignment, _ := newTestStack(t)
	driver := seedDriver(t, db, "pinger", 4.5, 10, true)
	order := seedOrder(t, db, "pending")

	_, err := assignment.Claim(models.OrderKindAdhoc, order.ID, driver.ID, "driver")
	require.NoError(t, err)

	before, err := tracking.GetTracking(models.OrderKindAdhoc, order.ID)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, tracking.UpdateLocation(models.OrderKindAdhoc, order.ID, driver.ID, -6.2, 106.8))
	}

	after, err := tracking.GetTracking(models.OrderKindAdhoc, order.ID)
	require.NoError(t, err)
	assert.Len(t, after.Timeline, len(before.Timeline))
	require.NotNil(t, after.CurrentLat)
	assert.InDelta(t, -6.2, *after.CurrentLat, 0.0001)

	// bad coordinates are rejected
	err = tracking.UpdateLocation(models.OrderKindAdhoc, order.ID, driver.ID, -95, 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateStatusUnknownOrderAndStatus(t *testing.T) {
	db, _, tracking, _, _ := newTestStack(t)
	order := seedOrder(t, db, "pending")

	_, err := tracking.UpdateStatus(models.OrderKindAdhoc, 9999, StatusPreparing, "", nil, nil)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = tracking.UpdateStatus(models.OrderKindAdhoc, order.ID, "teleported", "", nil, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = tracking.UpdateStatus("mystery_kind", order.ID, StatusPreparing, "", nil, nil)
	assert.ErrorIs(t, err, ErrValidation)
}
