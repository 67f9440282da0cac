package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/mealbridge/delivery-app/models"
	"github.com/mealbridge/delivery-app/utils"
)

// Scoring weights. Rating dominates, then track record, then proximity.
const (
	ratingWeight     = 40.0
	experienceWeight = 30.0
	distanceWeight   = 30.0
	distancePenalty  = 2.0
	experienceCap    = 100.0
)

// ScoreDriver is the single scoring function shared by the auto-assign
// and admin-assign paths. A nil distance (driver never reported a
// location) earns the full proximity share.
func ScoreDriver(rating float64, totalDeliveries int, distanceKm *float64) float64 {
	score := ratingWeight * (rating / 5.0)

	experience := float64(totalDeliveries) / experienceCap
	if experience > 1 {
		experience = 1
	}
	score += experienceWeight * experience

	proximity := distanceWeight
	if distanceKm != nil {
		proximity = distanceWeight - distancePenalty*(*distanceKm)
		if proximity < 0 {
			proximity = 0
		}
	}
	return score + proximity
}

type MatchingService struct {
	db *gorm.DB
}

func NewMatchingService(db *gorm.DB) *MatchingService {
	return &MatchingService{db: db}
}

// FindBestDriver returns the highest scoring active+online driver that
// serves the category, or nil when nobody qualifies. An empty pool is a
// legitimate result, not an error.
//
// Ties break deterministically: higher rating, then more deliveries,
// then lower driver id.
func (s *MatchingService) FindBestDriver(category string, lat, lng, radiusKm float64) (*models.Driver, error) {
	if category == "" {
		return nil, fmt.Errorf("%w: category is required", ErrValidation)
	}
	if err := utils.ValidateCoordinates(lat, lng); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var candidates []models.Driver
	if err := s.db.
		Where("is_active = ? AND is_online = ?", true, true).
		Find(&candidates).Error; err != nil {
		return nil, err
	}

	var best *models.Driver
	var bestScore float64
	for i := range candidates {
		d := &candidates[i]
		if !d.ServesCategory(category) {
			continue
		}

		var distance *float64
		if d.HasLocation() {
			km := utils.HaversineKm(lat, lng, *d.LastLat, *d.LastLng)
			if km > d.ServiceRadiusKm {
				continue
			}
			if radiusKm > 0 && km > radiusKm {
				continue
			}
			distance = &km
		}

		score := ScoreDriver(d.Rating, d.TotalDeliveries, distance)
		if best == nil || score > bestScore || (score == bestScore && betterTieBreak(d, best)) {
			best = d
			bestScore = score
		}
	}
	return best, nil
}

func betterTieBreak(a, b *models.Driver) bool {
	if a.Rating != b.Rating {
		return a.Rating > b.Rating
	}
	if a.TotalDeliveries != b.TotalDeliveries {
		return a.TotalDeliveries > b.TotalDeliveries
	}
	return a.ID < b.ID
}
