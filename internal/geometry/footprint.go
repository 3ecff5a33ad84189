package geometry

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Location is a property with known coordinates.
type Location struct {
	PropertyID int64   `json:"property_id"`
	Name       string  `json:"name"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

func (l Location) Point() orb.Point {
	return orb.Point{l.Longitude, l.Latitude}
}

// Bounds returns the bounding box of the locations, or nil when there are none.
func Bounds(locations []Location) *orb.Bound {
	if len(locations) == 0 {
		return nil
	}
	points := make(orb.MultiPoint, len(locations))
	for i, l := range locations {
		points[i] = l.Point()
	}
	b := points.Bound()
	return &b
}

// Footprint builds a feature collection with one point per location and, once
// at least three distinct points exist, the convex hull around them.
func Footprint(entity string, locations []Location) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	points := make([]orb.Point, 0, len(locations))
	for _, l := range locations {
		feature := geojson.NewFeature(l.Point())
		feature.Properties = geojson.Properties{
			"property_id": l.PropertyID,
			"name":        l.Name,
		}
		fc.Append(feature)
		points = append(points, l.Point())
	}

	if hull := convexHull(points); hull != nil {
		feature := geojson.NewFeature(orb.Polygon{hull})
		feature.Properties = geojson.Properties{
			"entity":        entity,
			"point_count":   len(locations),
			"geometry_type": "hull",
			"hull_type":     "convex",
		}
		fc.Append(feature)
	}

	return fc
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

// convexHull returns the closed counter-clockwise hull of points using the
// monotone chain algorithm, or nil for fewer than three non-collinear points.
func convexHull(points []orb.Point) orb.Ring {
	pts := make([]orb.Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i][0] == pts[j][0] {
			return pts[i][1] < pts[j][1]
		}
		return pts[i][0] < pts[j][0]
	})

	// Drop duplicates
	unique := pts[:0]
	for _, p := range pts {
		if len(unique) == 0 || p != unique[len(unique)-1] {
			unique = append(unique, p)
		}
	}
	pts = unique
	if len(pts) < 3 {
		return nil
	}

	hull := make([]orb.Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// hull is closed: the last point repeats the first
	if len(hull) < 4 {
		return nil
	}
	return orb.Ring(hull)
}
