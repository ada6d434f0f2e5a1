package engine

import "github.com/XavierCollard23/LONDON/internal/model"

// BuildDaySchedule lays one day out as a contiguous segment sequence inside
// the day's time window. Arrival days open with landing formalities, the
// airport transfer and hotel check-in; departure days close with the return
// transfer and airport formalities. Visits that would start past the end
// bound are dropped, and the last visit is clamped to the window with a 30
// minute floor.
func (e *Engine) BuildDaySchedule(day model.DaySection, improve bool) (model.ScheduledDay, error) {
	start, end, err := DayBounds(e.cat, day)
	if err != nil {
		return model.ScheduledDay{}, err
	}

	hotel := e.cat.HotelName()
	airport := e.cat.Airport()
	current := start
	var segments []model.Segment

	poi := make([]string, 0, len(day.Locations))
	for _, name := range day.Locations {
		entry, ok := e.cat.Get(name)
		if !ok || entry.Category == model.CategoryTransport || entry.Category == model.CategoryHotel {
			continue
		}
		poi = append(poi, name)
	}
	for _, cover := range e.cat.Covers() {
		if containsName(poi, cover.Host) {
			poi = removeName(poi, cover.Shadows)
		}
	}

	previous := hotel
	if day.Theme == model.ThemeArrival {
		segments = append(segments, model.Segment{
			Start:    current,
			End:      current + airport.DefaultDuration,
			Title:    "Arrival at " + airport.Name,
			Location: airport.Name,
			Details:  "Formalities and luggage pickup.",
			Type:     model.SegmentTransport,
		})
		current += airport.DefaultDuration

		travel := e.est.Estimate(airport.Name, hotel)
		segments = append(segments, e.transferSegment(current, airport.Name, hotel, travel, "To the hotel"))
		current += travel

		checkin := e.cat.Hotel().DefaultDuration
		if checkin < 45 {
			checkin = 45
		}
		segments = append(segments, model.Segment{
			Start:    current,
			End:      current + checkin,
			Title:    "Hotel check-in",
			Location: hotel,
			Details:  e.cat.Describe(hotel),
			Type:     model.SegmentVisit,
		})
		current += checkin
	}

	for _, next := range e.visitOrder(day.Theme, poi, previous, improve) {
		entry, ok := e.cat.Get(next)
		if !ok {
			continue
		}
		travel := e.est.Estimate(previous, next)
		if current+travel > end {
			break
		}
		if travel > 0 {
			segments = append(segments, e.transferSegment(current, previous, next, travel, "Transfer to "+next))
			current += travel
		}
		duration := entry.DefaultDuration
		segType := model.SegmentVisit
		if entry.Category == model.CategoryFood {
			segType = model.SegmentMeal
			if duration < 75 {
				duration = 75
			}
		} else if duration < 45 {
			duration = 45
		}
		if current+duration > end {
			duration = end - current
			if duration < 30 {
				duration = 30
			}
		}
		segments = append(segments, model.Segment{
			Start:    current,
			End:      current + duration,
			Title:    next,
			Location: next,
			Details:  e.cat.Describe(next),
			Type:     segType,
		})
		current += duration
		previous = next
	}

	if day.Theme != model.ThemeDeparture && previous != hotel {
		travel := e.est.Estimate(previous, hotel)
		segments = append(segments, e.transferSegment(current, previous, hotel, travel, "Back to the hotel"))
		current += travel
		if current < end {
			segments = append(segments, model.Segment{
				Start:    current,
				End:      end,
				Title:    "Relaxed end of evening",
				Location: hotel,
				Details:  "Free time for a drink or a rest.",
				Type:     model.SegmentBuffer,
			})
		}
	}

	if day.Theme == model.ThemeDeparture {
		if previous != hotel {
			travel := e.est.Estimate(previous, hotel)
			segments = append(segments, e.transferSegment(current, previous, hotel, travel, "Back to the hotel"))
			current += travel
		}
		travel := e.est.Estimate(hotel, airport.Name)
		segments = append(segments, e.transferSegment(current, hotel, airport.Name, travel, "Transfer to "+airport.Name))
		current += travel
		segments = append(segments, model.Segment{
			Start:    current,
			End:      current + 45,
			Title:    "Departure formalities",
			Location: airport.Name,
			Details:  "Check-in and security.",
			Type:     model.SegmentTransport,
		})
	}

	return model.ScheduledDay{Section: day, Segments: segments, StartMin: start, EndMin: end}, nil
}

// visitOrder builds the day's visiting sequence: the theme's preferred
// names first in table order, then the remainder ordered nearest-neighbour
// from the last biased stop (or the given anchor when none), optionally
// refined by 2-opt, with the theme finale forced last when configured.
func (e *Engine) visitOrder(theme model.Theme, poi []string, from string, improve bool) []string {
	var ordered []string
	for _, name := range e.cat.Preferred(theme) {
		if containsName(poi, name) && !containsName(ordered, name) {
			ordered = append(ordered, name)
		}
	}
	var remainder []string
	for _, name := range poi {
		if !containsName(ordered, name) {
			remainder = append(remainder, name)
		}
	}
	anchor := from
	if len(ordered) > 0 {
		anchor = ordered[len(ordered)-1]
	}
	remainder = e.OrderVisits(anchor, remainder, "")
	if improve {
		remainder = e.Improve2Opt(anchor, remainder, 3)
	}
	ordered = append(ordered, remainder...)
	if finale, ok := e.cat.Finale(theme); ok && !containsName(ordered, finale) {
		ordered = append(ordered, finale)
	}
	return ordered
}

func (e *Engine) transferSegment(start int, from, to string, minutes int, title string) model.Segment {
	return model.Segment{
		Start:    start,
		End:      start + minutes,
		Title:    title,
		Location: from + " -> " + to,
		Details:  e.transferDetail(from, to, minutes),
		Type:     model.SegmentTransfer,
	}
}

// transferDetail prefers a curated note for the leg, otherwise picks a
// canned phrase by duration.
func (e *Engine) transferDetail(from, to string, minutes int) string {
	if note, ok := e.cat.TransferNote(from, to); ok {
		return note
	}
	switch {
	case minutes <= 15:
		return "Short walk or quick hop (15 min or less)."
	case minutes <= 30:
		return "Smooth ride (about 30 min), take your time."
	}
	return "Allow for this leg without stress, music or podcast on the way."
}
