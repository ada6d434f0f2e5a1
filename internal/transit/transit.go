// Package transit turns location pairs into transfer durations using the
// catalog override table and a haversine fallback.
package transit

import (
	"github.com/XavierCollard23/LONDON/internal/catalog"
	"github.com/XavierCollard23/LONDON/internal/geo"
	"github.com/XavierCollard23/LONDON/internal/model"
)

// Distance reported for pairs where either side is not in the catalog.
const unknownDistanceKm = 999.0

var walkable = map[model.Category]bool{
	model.CategoryWalk:     true,
	model.CategoryLandmark: true,
	model.CategoryShopping: true,
	model.CategoryPark:     true,
}

// Estimator computes transfer minutes between named catalog locations.
type Estimator struct {
	cat *catalog.Catalog
}

func NewEstimator(cat *catalog.Catalog) *Estimator {
	return &Estimator{cat: cat}
}

// DistanceKm returns the geodesic distance between two named locations, or a
// large sentinel when either name is unknown.
func (e *Estimator) DistanceKm(a, b string) float64 {
	if a == b {
		return 0
	}
	la, okA := e.cat.Get(a)
	lb, okB := e.cat.Get(b)
	if !okA || !okB {
		return unknownDistanceKm
	}
	return geo.HaversineKm(la.Point(), lb.Point())
}

// Estimate returns whole transfer minutes for a leg. Overrides win in either
// direction; otherwise the walking-speed model applies with an 8 minute floor.
func (e *Estimator) Estimate(a, b string) int {
	if a == b {
		return 0
	}
	if m, ok := e.cat.Override(a, b); ok {
		return m
	}
	if m, ok := e.cat.Override(b, a); ok {
		return m
	}
	dist := e.DistanceKm(a, b)
	la, okA := e.cat.Get(a)
	lb, okB := e.cat.Get(b)
	if !okA || !okB {
		return int(dist/4.5*60) + 5
	}
	speed := 5.0
	if walkable[la.Category] && walkable[lb.Category] {
		speed = 3.8
	}
	minutes := int(dist / speed * 60)
	if minutes < 8 {
		minutes = 8
	}
	return minutes
}

// Cost is the continuous ordering metric for nearest-neighbour passes. It
// follows Estimate but skips the integer truncation and the 8 minute floor,
// so near-identical legs still compare by true duration.
func (e *Estimator) Cost(a, b string) float64 {
	if a == b {
		return 0
	}
	if m, ok := e.cat.Override(a, b); ok {
		return float64(m)
	}
	if m, ok := e.cat.Override(b, a); ok {
		return float64(m)
	}
	dist := e.DistanceKm(a, b)
	la, okA := e.cat.Get(a)
	lb, okB := e.cat.Get(b)
	if !okA || !okB {
		return dist/4.5*60 + 5
	}
	speed := 5.0
	if walkable[la.Category] && walkable[lb.Category] {
		speed = 3.8
	}
	return dist / speed * 60
}
