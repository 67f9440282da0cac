package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealbridge/delivery-app/models"
)

func TestClaimAssignsDriverAndSeedsTimeline(t *testing.T) {
	db, _, _, assignment, _ := newTestStack(t)
	driver := seedDriver(t, db, "claimer", 4.5, 10, true)
	order := seedOrder(t, db, "pending")

	tracking, err := assignment.Claim(models.OrderKindAdhoc, order.ID, driver.ID, "driver")
	require.NoError(t, err)

	assert.Equal(t, StatusAssigned, tracking.Status)
	require.NotNil(t, tracking.DriverID)
	assert.Equal(t, driver.ID, *tracking.DriverID)

	// order_placed backfilled from creation, then assigned
	require.Len(t, tracking.Timeline, 2)
	assert.Equal(t, StatusOrderPlaced, tracking.Timeline[0].Status)
	assert.Equal(t, StatusAssigned, tracking.Timeline[1].Status)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	require.NotNil(t, reloaded.DriverID)
	assert.Equal(t, driver.ID, *reloaded.DriverID)
	assert.Equal(t, StatusAssigned, reloaded.Status)
}

func TestClaimAlreadyAssignedLeavesOrderUnchanged(t *testing.T) {
	db, _, _, assignment, _ := newTestStack(t)
	first := seedDriver(t, db, "first", 4.5, 10, true)
	second := seedDriver(t, db, "second", 4.9, 99, true)
	order := seedOrder(t, db, "pending")

	_, err := assignment.Claim(models.OrderKindAdhoc, order.ID, first.ID, "driver")
	require.NoError(t, err)

	_, err = assignment.Claim(models.OrderKindAdhoc, order.ID, second.ID, "driver")
	assert.ErrorIs(t, err, ErrAlreadyAssigned)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	require.NotNil(t, reloaded.DriverID)
	assert.Equal(t, first.ID, *reloaded.DriverID)
}

func TestClaimErrors(t *testing.T) {
	db, _, _, assignment, _ := newTestStack(t)
	driver := seedDriver(t, db, "ready", 4.5, 10, true)
	order := seedOrder(t, db, "pending")

	_, err := assignment.Claim(models.OrderKindAdhoc, 9999, driver.ID, "driver")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = assignment.Claim(models.OrderKindAdhoc, order.ID, 9999, "driver")
	assert.ErrorIs(t, err, ErrDriverNotFound)

	offline := seedDriver(t, db, "offline", 4.5, 10, false)
	_, err = assignment.Claim(models.OrderKindAdhoc, order.ID, offline.ID, "driver")
	assert.ErrorIs(t, err, ErrInactiveDriver)

	inactive := seedDriver(t, db, "inactive", 4.5, 10, true)
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)
	_, err = assignment.Claim(models.OrderKindAdhoc, order.ID, inactive.ID, "driver")
	assert.ErrorIs(t, err, ErrInactiveDriver)
}

func TestClaimRefusesTerminalOrders(t *testing.T) {
	db, _, _, assignment, _ := newTestStack(t)
	driver := seedDriver(t, db, "late-claimer", 4.5, 10, true)

	cancelled := seedOrder(t, db, StatusCancelled)
	_, err := assignment.Claim(models.OrderKindAdhoc, cancelled.ID, driver.ID, "driver")
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, cancelled.ID).Error)
	assert.Nil(t, reloaded.DriverID)

	// the admin path is bound by the same terminality rule
	delivered := seedOrder(t, db, StatusDelivered)
	_, err = assignment.ForceClaim(models.OrderKindAdhoc, delivered.ID, driver.ID, "admin")
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestForceClaimSkipsOnlineCheckOnly(t *testing.T) {
	db, _, _, assignment, _ := newTestStack(t)
	offline := seedDriver(t, db, "admin-pick", 4.5, 10, false)
	order := seedOrder(t, db, "pending")

	_, err := assignment.ForceClaim(models.OrderKindAdhoc, order.ID, offline.ID, "admin")
	require.NoError(t, err)

	// forced claims still honor the single-assignment invariant
	other := seedDriver(t, db, "other", 4.5, 10, true)
	_, err = assignment.ForceClaim(models.OrderKindAdhoc, order.ID, other.ID, "admin")
	assert.ErrorIs(t, err, ErrAlreadyAssigned)
}

func TestConcurrentClaimsExactlyOneWins(t *testing.T) {
	db, _, _, assignment, _ := newTestStack(t)
	x := seedDriver(t, db, "racer-x", 4.5, 10, true)
	y := seedDriver(t, db, "racer-y", 4.5, 10, true)
	order := seedOrder(t, db, "pending")

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, id := range []uint{x.ID, y.ID} {
		wg.Add(1)
		go func(driverID uint) {
			defer wg.Done()
			_, err := assignment.Claim(models.OrderKindAdhoc, order.ID, driverID, "driver")
			results <- err
		}(id)
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case assert.ErrorIs(t, err, ErrAlreadyAssigned):
			conflicts++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)
}

func TestRejectReturnsOrderToPool(t *testing.T) {
	db, _, _, assignment, _ := newTestStack(t)
	driver := seedDriver(t, db, "quitter", 4.5, 10, true)
	replacement := seedDriver(t, db, "replacement", 4.0, 3, true)
	order := seedOrder(t, db, "pending")

	_, err := assignment.Claim(models.OrderKindAdhoc, order.ID, driver.ID, "driver")
	require.NoError(t, err)

	require.NoError(t, assignment.Reject(models.OrderKindAdhoc, order.ID, driver.ID, "vehicle breakdown"))

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Nil(t, reloaded.DriverID)
	assert.Equal(t, "pending", reloaded.Status)

	// the pool is open again
	_, err = assignment.Claim(models.OrderKindAdhoc, order.ID, replacement.ID, "driver")
	require.NoError(t, err)
}

func TestRejectByWrongDriverFails(t *testing.T) {
	db, _, _, assignment, _ := newTestStack(t)
	owner := seedDriver(t, db, "owner", 4.5, 10, true)
	impostor := seedDriver(t, db, "impostor", 4.5, 10, true)
	order := seedOrder(t, db, "pending")

	_, err := assignment.Claim(models.OrderKindAdhoc, order.ID, owner.ID, "driver")
	require.NoError(t, err)

	err = assignment.Reject(models.OrderKindAdhoc, order.ID, impostor.ID, "")
	assert.ErrorIs(t, err, ErrNotAssigned)
}
