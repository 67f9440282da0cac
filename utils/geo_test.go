package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKm(t *testing.T) {
	// same point
	assert.InDelta(t, 0.0, HaversineKm(-6.2, 106.8, -6.2, 106.8), 0.0001)

	// one degree of latitude is ~111 km
	assert.InDelta(t, 111.19, HaversineKm(0, 0, 1, 0), 0.5)

	// Jakarta (Monas) to Bandung (Gedung Sate), ~118 km
	assert.InDelta(t, 118, HaversineKm(-6.1754, 106.8272, -6.9024, 107.6188), 3)

	// symmetric
	assert.Equal(t, HaversineKm(0, 0, 1, 1), HaversineKm(1, 1, 0, 0))
}

func TestValidateCoordinates(t *testing.T) {
	assert.NoError(t, ValidateCoordinates(-6.2, 106.8))
	assert.NoError(t, ValidateCoordinates(90, 180))
	assert.NoError(t, ValidateCoordinates(-90, -180))

	assert.Error(t, ValidateCoordinates(90.1, 0))
	assert.Error(t, ValidateCoordinates(-91, 0))
	assert.Error(t, ValidateCoordinates(0, 180.5))
	assert.Error(t, ValidateCoordinates(0, -181))
}
