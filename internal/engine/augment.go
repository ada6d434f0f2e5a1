package engine

import (
	"sort"

	"github.com/XavierCollard23/LONDON/internal/model"
)

// addMissingEssentials appends each day's theme essentials that no day of
// the trip covers yet, recording additions on the day, then settles the
// final per-day order. The reference centroid is taken before additions so
// newcomers orbit the day's original focus rather than drag it.
func (e *Engine) addMissingEssentials(days []model.DaySection) {
	used := make(map[string]bool)
	for i := range days {
		for _, n := range days[i].Locations {
			used[n] = true
		}
	}
	for i := range days {
		day := &days[i]
		centroid := e.dayCentroid(day.Locations)
		for _, essential := range e.cat.Essentials(day.Theme) {
			if used[essential] || !e.cat.Allowed(essential) {
				continue
			}
			used[essential] = true
			day.Locations = append(day.Locations, essential)
			day.AddedEssentials = append(day.AddedEssentials, essential)
		}
		day.Locations = e.settleOrder(day.Locations, centroid)
	}
}

// settleOrder dedupes and filters a location list, then sorts it by
// ascending distance from the centroid. The sort is stable so equidistant
// locations keep first-mention order.
func (e *Engine) settleOrder(names []string, centroid model.GeoPoint) []string {
	var unique []string
	seen := make(map[string]bool)
	for _, n := range names {
		if seen[n] || !e.cat.Allowed(n) {
			continue
		}
		seen[n] = true
		unique = append(unique, n)
	}
	sort.SliceStable(unique, func(i, j int) bool {
		return e.distanceTo(unique[i], centroid) < e.distanceTo(unique[j], centroid)
	})
	return unique
}
