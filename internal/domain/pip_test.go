package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingContains(t *testing.T) {
	box := square(-123, 49, 0.2)
	// Concave "C" shape opening to the east.
	concave := Ring{
		{Lon: 0, Lat: 0}, {Lon: 3, Lat: 0}, {Lon: 3, Lat: 1}, {Lon: 1, Lat: 1},
		{Lon: 1, Lat: 2}, {Lon: 3, Lat: 2}, {Lon: 3, Lat: 3}, {Lon: 0, Lat: 3}, {Lon: 0, Lat: 0},
	}

	tests := []struct {
		name string
		ring Ring
		pt   Position
		want bool
	}{
		{"interior", box, Position{Lon: -122.9, Lat: 49.1}, true},
		{"outside", box, Position{Lon: -120, Lat: 50}, false},
		{"on south edge", box, Position{Lon: -122.9, Lat: 49}, true},
		{"on east edge", box, Position{Lon: -122.8, Lat: 49.1}, true},
		{"on vertex", box, Position{Lon: -123, Lat: 49}, true},
		{"within tolerance of edge", box, Position{Lon: -122.9, Lat: 49 - 1e-10}, true},
		{"just past tolerance", box, Position{Lon: -122.9, Lat: 49 - 1e-6}, false},
		{"concave arm", concave, Position{Lon: 2, Lat: 0.5}, true},
		{"concave notch", concave, Position{Lon: 2, Lat: 1.5}, false},
		{"concave notch boundary", concave, Position{Lon: 2, Lat: 1}, true},
		{"too few vertices", Ring{{Lon: 0, Lat: 0}, {Lon: 1, Lat: 1}}, Position{Lon: 0, Lat: 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RingContains(tt.ring, tt.pt))
		})
	}
}

func TestRingContains_Triangle(t *testing.T) {
	tri := Ring{{Lon: 0, Lat: 0}, {Lon: 4, Lat: 0}, {Lon: 2, Lat: 4}, {Lon: 0, Lat: 0}}

	assert.True(t, RingContains(tri, Position{Lon: 2, Lat: 1}))
	assert.True(t, RingContains(tri, Position{Lon: 1, Lat: 2}), "on slanted edge")
	assert.False(t, RingContains(tri, Position{Lon: 0.5, Lat: 2}))
}
