package geometry

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBounds(t *testing.T) {
	assert.Nil(t, Bounds(nil))

	b := Bounds([]Location{
		{PropertyID: 1, Latitude: 40.1, Longitude: -75.2},
		{PropertyID: 2, Latitude: 39.9, Longitude: -74.8},
	})
	require.NotNil(t, b)
	assert.Equal(t, orb.Point{-75.2, 39.9}, b.Min)
	assert.Equal(t, orb.Point{-74.8, 40.1}, b.Max)
}

func TestConvexHull(t *testing.T) {
	tests := []struct {
		name     string
		points   []orb.Point
		expected int // ring length including the closing point, 0 for nil
	}{
		{"too few", []orb.Point{{0, 0}, {1, 1}}, 0},
		{"collinear", []orb.Point{{0, 0}, {1, 1}, {2, 2}}, 0},
		{"duplicates", []orb.Point{{0, 0}, {0, 0}, {1, 1}}, 0},
		{"triangle", []orb.Point{{0, 0}, {2, 0}, {1, 1}}, 4},
		{"square with interior point", []orb.Point{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {1, 1}}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hull := convexHull(tt.points)
			if tt.expected == 0 {
				assert.Nil(t, hull)
				return
			}
			require.Len(t, hull, tt.expected)
			assert.Equal(t, hull[0], hull[len(hull)-1])
			assert.NotContains(t, hull[:len(hull)-1], orb.Point{1, 1}, "interior point must not be on the hull")
		})
	}
}

func TestFootprint(t *testing.T) {
	locations := []Location{
		{PropertyID: 1, Name: "A", Latitude: 0, Longitude: 0},
		{PropertyID: 2, Name: "B", Latitude: 0, Longitude: 2},
		{PropertyID: 3, Name: "C", Latitude: 2, Longitude: 1},
	}

	fc := Footprint("Acme LLC", locations)
	require.Len(t, fc.Features, 4)
	assert.Equal(t, "Point", fc.Features[0].Geometry.GeoJSONType())
	assert.Equal(t, "Polygon", fc.Features[3].Geometry.GeoJSONType())
	assert.Equal(t, "Acme LLC", fc.Features[3].Properties["entity"])

	raw, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"FeatureCollection"`)

	// two locations give points only
	fc = Footprint("Acme LLC", locations[:2])
	assert.Len(t, fc.Features, 2)
}
