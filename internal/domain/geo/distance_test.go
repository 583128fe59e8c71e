package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Coordinates
		expected float64
	}{
		{
			name:     "identical points",
			a:        Coordinates{Longitude: 78.40, Latitude: 17.44},
			b:        Coordinates{Longitude: 78.40, Latitude: 17.44},
			expected: 0,
		},
		{
			name:     "one degree of latitude",
			a:        Coordinates{Longitude: 0, Latitude: 0},
			b:        Coordinates{Longitude: 0, Latitude: 1},
			expected: 111.19,
		},
		{
			name:     "hyderabad to secunderabad",
			a:        Coordinates{Longitude: 78.4867, Latitude: 17.3850},
			b:        Coordinates{Longitude: 78.4983, Latitude: 17.4399},
			expected: 6.23,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, DistanceKm(tt.a, tt.b), 0.01)
		})
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	a := Coordinates{Longitude: 78.40, Latitude: 17.44}
	b := Coordinates{Longitude: 77.59, Latitude: 12.97}

	assert.Equal(t, DistanceKm(a, b), DistanceKm(b, a))
}

func TestCoordinates_Valid(t *testing.T) {
	assert.True(t, Coordinates{Longitude: 180, Latitude: -90}.Valid())
	assert.False(t, Coordinates{Longitude: 181, Latitude: 0}.Valid())
	assert.False(t, Coordinates{Longitude: 0, Latitude: 90.5}.Valid())
}
