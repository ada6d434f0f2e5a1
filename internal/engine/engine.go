// Package engine implements the itinerary optimization pipeline: resolving
// free text to catalog locations, merging cross-day duplicates, filling in
// theme essentials and laying each day out as a bounded schedule.
package engine

import (
	"math"
	"time"

	"github.com/XavierCollard23/LONDON/internal/catalog"
	"github.com/XavierCollard23/LONDON/internal/geo"
	"github.com/XavierCollard23/LONDON/internal/model"
	"github.com/XavierCollard23/LONDON/internal/resolve"
	"github.com/XavierCollard23/LONDON/internal/transit"
)

// Engine wires the catalog, estimator and resolver into one pipeline.
// Safe for concurrent runs; per-run state stays on the stack.
type Engine struct {
	cat     *catalog.Catalog
	est     *transit.Estimator
	res     *resolve.Resolver
	Timings *StageTimings
}

func New(cat *catalog.Catalog) *Engine {
	return &Engine{
		cat:     cat,
		est:     transit.NewEstimator(cat),
		res:     resolve.New(cat),
		Timings: NewStageTimings(),
	}
}

// Catalog exposes the engine's location library.
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// Estimator exposes the travel-time estimator.
func (e *Engine) Estimator() *transit.Estimator { return e.est }

// Run executes the pipeline over parsed day sections. Sections are mutated
// in place: locations resolved, duplicates merged, essentials added, then
// every day is scheduled. Stage durations are recorded under planID.
func (e *Engine) Run(planID string, days []model.DaySection, improve bool) ([]model.ScheduledDay, error) {
	stage := time.Now()
	for i := range days {
		day := &days[i]
		day.Locations = e.allowedOnly(e.res.Locations(append([]string{day.Title}, day.Lines...)))
	}
	e.Timings.Record(planID, "resolve", time.Since(stage).Milliseconds())

	stage = time.Now()
	e.mergeDuplicates(days)
	e.Timings.Record(planID, "dedup", time.Since(stage).Milliseconds())

	stage = time.Now()
	e.addMissingEssentials(days)
	e.Timings.Record(planID, "augment", time.Since(stage).Milliseconds())

	for i := range days {
		e.applyPostFilters(&days[i])
	}

	stage = time.Now()
	scheduled := make([]model.ScheduledDay, 0, len(days))
	for i := range days {
		sd, err := e.BuildDaySchedule(days[i], improve)
		if err != nil {
			return nil, err
		}
		scheduled = append(scheduled, sd)
	}
	e.Timings.Record(planID, "schedule", time.Since(stage).Milliseconds())
	return scheduled, nil
}

// applyPostFilters sheds redundant stops after augmentation: venues shadowed
// by a scheduled host and the theme's standing drops.
func (e *Engine) applyPostFilters(day *model.DaySection) {
	for _, cover := range e.cat.Covers() {
		if containsName(day.Locations, cover.Host) {
			day.Locations = removeName(day.Locations, cover.Shadows)
		}
	}
	for _, name := range e.cat.Drops(day.Theme) {
		day.Locations = removeName(day.Locations, name)
	}
}

func (e *Engine) allowedOnly(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if e.cat.Allowed(n) {
			out = append(out, n)
		}
	}
	return out
}

// dayCentroid averages the day's known locations, falling back to the hotel
// for empty days.
func (e *Engine) dayCentroid(names []string) model.GeoPoint {
	var pts []model.GeoPoint
	for _, n := range names {
		if entry, ok := e.cat.Get(n); ok {
			pts = append(pts, entry.Point())
		}
	}
	if len(pts) == 0 {
		return e.cat.Hotel().Point()
	}
	return geo.Centroid(pts)
}

// distanceTo measures a named location against a fixed point. Unknown names
// sort after everything.
func (e *Engine) distanceTo(name string, p model.GeoPoint) float64 {
	entry, ok := e.cat.Get(name)
	if !ok {
		return math.Inf(1)
	}
	return geo.HaversineKm(entry.Point(), p)
}

func containsName(list []string, name string) bool {
	for _, n := range list {
		if n == name {
			return true
		}
	}
	return false
}

func removeName(list []string, name string) []string {
	out := make([]string, 0, len(list))
	for _, n := range list {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
