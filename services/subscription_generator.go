package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mealbridge/delivery-app/models"
	"github.com/mealbridge/delivery-app/utils"
)

// ShiftTimes fixes the wall-clock schedule of one shift: when the meal
// must be ready to cook and when it is due at the customer.
type ShiftTimes struct {
	PrepAt     string // "15:04"
	DeliveryAt string // "15:04"
}

var defaultShiftTimes = map[string]ShiftTimes{
	models.ShiftMorning: {PrepAt: "07:30", DeliveryAt: "09:00"},
	models.ShiftEvening: {PrepAt: "17:30", DeliveryAt: "19:00"},
}

// SubscriptionGenerator materializes one DailyOrder per active
// subscription for a date+shift. It only ever creates new rows, never
// mutates in-flight orders, so it needs no coordination with live
// traffic.
type SubscriptionGenerator struct {
	db         *gorm.DB
	shiftTimes map[string]ShiftTimes
	loc        *time.Location
	now        func() time.Time
}

func NewSubscriptionGenerator(db *gorm.DB, loc *time.Location) *SubscriptionGenerator {
	if loc == nil {
		loc = time.Local
	}
	return &SubscriptionGenerator{
		db:         db,
		shiftTimes: defaultShiftTimes,
		loc:        loc,
		now:        time.Now,
	}
}

// GenerateShiftOrders runs the batch for one date (YYYY-MM-DD) and
// shift. Reruns are idempotent: a subscription that already has its
// DailyOrder for the key is skipped. A failure on one subscription never
// aborts the rest of the batch.
func (g *SubscriptionGenerator) GenerateShiftOrders(date, shift string) ([]models.DailyOrder, error) {
	if shift != models.ShiftMorning && shift != models.ShiftEvening {
		return nil, fmt.Errorf("%w: unknown shift %q", ErrValidation, shift)
	}
	if _, err := time.ParseInLocation("2006-01-02", date, g.loc); err != nil {
		return nil, fmt.Errorf("%w: bad date %q", ErrValidation, date)
	}

	var subs []models.Subscription
	if err := g.db.Where("status = ?", models.SubscriptionActive).Find(&subs).Error; err != nil {
		return nil, err
	}

	created := make([]models.DailyOrder, 0)
	for i := range subs {
		sub := &subs[i]
		if !sub.CoversDate(date) || !sub.HasShift(shift) || sub.MealsRemaining <= 0 {
			continue
		}

		order, err := g.generateOne(sub, date, shift)
		if err != nil {
			utils.ErrorLogger.Printf("generator: subscription %d on %s/%s: %v", sub.ID, date, shift, err)
			continue
		}
		if order != nil {
			created = append(created, *order)
		}
	}
	utils.InfoLogger.Printf("generator: %s/%s produced %d daily orders", date, shift, len(created))
	return created, nil
}

func (g *SubscriptionGenerator) generateOne(sub *models.Subscription, date, shift string) (*models.DailyOrder, error) {
	// Customer asked to skip this date+shift.
	var skips int64
	if err := g.db.Model(&models.SubscriptionSkip{}).
		Where("subscription_id = ? AND date = ? AND shift = ?", sub.ID, date, shift).
		Count(&skips).Error; err != nil {
		return nil, err
	}
	if skips > 0 {
		return nil, nil
	}

	// Rerun safety: the (subscription, date, shift) key is generated once.
	var existing int64
	if err := g.db.Model(&models.DailyOrder{}).
		Where("subscription_id = ? AND date = ? AND shift = ?", sub.ID, date, shift).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, nil
	}

	meal, err := g.effectiveMeal(sub, shift)
	if err != nil {
		return nil, err
	}

	prepAt := g.shiftClock(date, g.shiftTimes[shift].PrepAt)
	deliveryAt := g.shiftClock(date, g.shiftTimes[shift].DeliveryAt)

	amount := 0.0
	if sub.MealsTotal > 0 {
		amount = sub.PlanPrice / float64(sub.MealsTotal)
	}

	now := g.now()
	order := models.DailyOrder{
		SubscriptionID:        sub.ID,
		Date:                  date,
		Shift:                 shift,
		CustomerID:            sub.CustomerID,
		SellerID:              sub.SellerID,
		MealName:              meal,
		Status:                "pending",
		TotalAmount:           amount,
		PickupLat:             sub.PickupLat,
		PickupLng:             sub.PickupLng,
		DeliveryLat:           sub.DeliveryLat,
		DeliveryLng:           sub.DeliveryLng,
		Address:               sub.Address,
		ScheduledDeliveryTime: &deliveryAt,
		PreparationTime:       &prepAt,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	err = g.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		return tx.Model(&models.Subscription{}).
			Where("id = ? AND meals_remaining > 0", sub.ID).
			UpdateColumn("meals_remaining", gorm.Expr("meals_remaining - 1")).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// effectiveMeal resolves the meal to cook: an active customization for
// the shift wins over the plan default.
func (g *SubscriptionGenerator) effectiveMeal(sub *models.Subscription, shift string) (string, error) {
	var custom models.MealCustomization
	err := g.db.
		Where("subscription_id = ? AND shift = ? AND is_active = ?", sub.ID, shift, true).
		Order("updated_at desc").
		First(&custom).Error
	if err == nil {
		return custom.MealName, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sub.DefaultMeal, nil
	}
	return "", err
}

func (g *SubscriptionGenerator) shiftClock(date, clock string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, g.loc)
	if err != nil {
		// Config validated at startup; fall back to midnight.
		t, _ = time.ParseInLocation("2006-01-02", date, g.loc)
	}
	return t
}
