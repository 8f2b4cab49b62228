package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantKm                 float64
		tolKm                  float64
	}{
		{
			name: "zero distance",
			lat1: 60.0, lon1: 8.0, lat2: 60.0, lon2: 8.0,
			wantKm: 0, tolKm: 0.001,
		},
		{
			name: "oslo to bergen",
			lat1: 59.9139, lon1: 10.7522, lat2: 60.3913, lon2: 5.3221,
			wantKm: 305, tolKm: 5,
		},
		{
			name: "one degree of latitude",
			lat1: 60.0, lon1: 8.0, lat2: 61.0, lon2: 8.0,
			wantKm: 111.2, tolKm: 0.5,
		},
		{
			name: "short hop across a valley",
			lat1: 60.86, lon1: 8.55, lat2: 60.87, lon2: 8.57,
			wantKm: 1.55, tolKm: 0.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.wantKm, got, tt.tolKm)
		})
	}
}

func TestHaversineKmSymmetric(t *testing.T) {
	ab := HaversineKm(61.15, 8.30, 60.86, 8.55)
	ba := HaversineKm(60.86, 8.55, 61.15, 8.30)
	assert.InDelta(t, ab, ba, 1e-9)
}

func TestEstimateDriveHours(t *testing.T) {
	assert.InDelta(t, 1.0, EstimateDriveHours(55), 1e-9)
	assert.InDelta(t, 2.0, EstimateDriveHours(110), 1e-9)
	assert.Zero(t, EstimateDriveHours(0))
}
