package engine

import "github.com/XavierCollard23/LONDON/internal/model"

// mergeDuplicates resolves anchor locations mentioned on several days down
// to a single winning day and strips them elsewhere, recording each removal
// on the losing day. Only whitelisted names and transport or hotel entries
// are merged; ordinary attractions may repeat across days and are left to
// the per-day cleanup.
//
// The winner is the day whose centroid sits closest to the location. All
// centroids are computed before any removal so late merges do not shift the
// comparison. The hotel is never stripped from an arrival day.
func (e *Engine) mergeDuplicates(days []model.DaySection) {
	var order []string
	occurrences := make(map[string][]int)
	for i := range days {
		for _, name := range days[i].Locations {
			if _, ok := occurrences[name]; !ok {
				order = append(order, name)
			}
			occurrences[name] = append(occurrences[name], i)
		}
	}

	centroids := make([]model.GeoPoint, len(days))
	for i := range days {
		centroids[i] = e.dayCentroid(days[i].Locations)
	}

	for _, name := range order {
		idxs := occurrences[name]
		if len(idxs) <= 1 {
			continue
		}
		entry, known := e.cat.Get(name)
		mergeable := e.cat.Whitelisted(name) ||
			(known && (entry.Category == model.CategoryTransport || entry.Category == model.CategoryHotel))
		if !mergeable {
			continue
		}

		best := idxs[0]
		bestDist := e.distanceTo(name, centroids[best])
		for _, idx := range idxs[1:] {
			if d := e.distanceTo(name, centroids[idx]); d < bestDist {
				best, bestDist = idx, d
			}
		}

		for _, idx := range idxs {
			if idx == best {
				continue
			}
			day := &days[idx]
			if name == e.cat.HotelName() && day.Theme == model.ThemeArrival {
				continue
			}
			trimmed := removeName(day.Locations, name)
			if len(trimmed) == len(day.Locations) {
				continue
			}
			day.Locations = trimmed
			day.RemovedDuplicates = append(day.RemovedDuplicates, name)
		}
	}
}
