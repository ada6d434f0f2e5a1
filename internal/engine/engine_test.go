package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/XavierCollard23/LONDON/internal/catalog"
	"github.com/XavierCollard23/LONDON/internal/model"
	"github.com/XavierCollard23/LONDON/internal/parse"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return cat
}

func testEngine(t *testing.T) *Engine {
	t.Helper()
	return New(testCatalog(t))
}

const fourDayPlan = "Long weekend in London, planned loosely.\n" +
	"\n" +
	"\U0001F5D3 Day 1 - Arrival and South Bank\n" +
	"Landing at Heathrow\n" +
	"Evening walk: Carnaby, Regent Street and Covent Garden\n" +
	"\U0001F5D3 Monday - Mayfair, Hyde Park and Winter Wonderland\n" +
	"Liberty London and New Bond Street shopping\n" +
	"Winter Wonderland at Hyde Park\n" +
	"\U0001F5D3 Tuesday - Panorama day along the Thames\n" +
	"09h00-10h00\n" +
	"Breakfast at Borough Market\n" +
	"Stalls and coffee\n" +
	"South Bank stroll to Westminster Pier\n" +
	"Dinner at Oblix The Shard\n" +
	"\U0001F5D3 Last day - Departure\n" +
	"Coffee at gentlemen baristas, then Heathrow\n"

func TestRunFourDayPlan(t *testing.T) {
	e := testEngine(t)
	days := parse.Days(fourDayPlan)
	if len(days) != 4 {
		t.Fatalf("parsed %d days, want 4", len(days))
	}

	scheduled, err := e.Run("plan-1", days, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(scheduled) != 4 {
		t.Fatalf("scheduled %d days, want 4", len(scheduled))
	}

	themes := []model.Theme{model.ThemeArrival, model.ThemeMayfair, model.ThemeCity, model.ThemeDeparture}
	for i, want := range themes {
		if days[i].Theme != want {
			t.Errorf("day %d theme = %q, want %q", i, days[i].Theme, want)
		}
	}

	// Day 1 loses its river and airport mentions to better-placed days and
	// gains the arrival essentials.
	if got, want := days[0].RemovedDuplicates, []string{"South Bank Promenade", "Heathrow Airport"}; !reflect.DeepEqual(got, want) {
		t.Errorf("day 1 removed = %v, want %v", got, want)
	}
	if got, want := days[0].AddedEssentials, []string{"citizenM London Bankside", "London Eye"}; !reflect.DeepEqual(got, want) {
		t.Errorf("day 1 added = %v, want %v", got, want)
	}
	if got, want := days[0].Locations, []string{
		"Carnaby Street", "Regent Street", "Covent Garden", "London Eye", "citizenM London Bankside",
	}; !reflect.DeepEqual(got, want) {
		t.Errorf("day 1 locations = %v, want %v", got, want)
	}

	if got, want := days[1].Locations, []string{
		"Mayfair Arcades", "New Bond Street", "Hyde Park", "Hyde Park Winter Wonderland",
		"Fortnum & Mason", "Liberty London", "Buckingham Palace", "Soho", "St James's Park",
	}; !reflect.DeepEqual(got, want) {
		t.Errorf("day 2 locations = %v, want %v", got, want)
	}

	// The panorama day keeps Oblix and sheds The Shard it covers.
	if containsName(days[2].Locations, "The Shard") {
		t.Errorf("day 3 still lists The Shard: %v", days[2].Locations)
	}
	if !containsName(days[2].Locations, "Oblix at The Shard") {
		t.Errorf("day 3 lost Oblix: %v", days[2].Locations)
	}
	if !containsName(days[2].Locations, "Palace of Westminster") {
		t.Errorf("day 3 missed Palace of Westminster: %v", days[2].Locations)
	}
	if scheduled[2].StartMin != 540 || scheduled[2].EndMin != 1350 {
		t.Errorf("day 3 bounds = %d..%d, want 540..1350", scheduled[2].StartMin, scheduled[2].EndMin)
	}

	last := scheduled[0].Segments[len(scheduled[0].Segments)-1]
	if last.Type != model.SegmentBuffer || last.End != 1380 {
		t.Errorf("day 1 last segment = %+v, want buffer ending 1380", last)
	}
	last = scheduled[1].Segments[len(scheduled[1].Segments)-1]
	if last.Type != model.SegmentTransfer || last.Title != "Back to the hotel" || last.End != 1320 {
		t.Errorf("day 2 last segment = %+v, want return transfer ending 1320", last)
	}
	last = scheduled[3].Segments[len(scheduled[3].Segments)-1]
	if last.Title != "Departure formalities" || last.Location != "Heathrow Airport" || last.End != 631 {
		t.Errorf("day 4 last segment = %+v, want formalities at Heathrow ending 631", last)
	}
	if len(days[3].AddedEssentials) != 0 {
		t.Errorf("day 4 added = %v, want none", days[3].AddedEssentials)
	}
}

func TestRunSegmentsContiguous(t *testing.T) {
	e := testEngine(t)
	scheduled, err := e.Run("plan-contig", parse.Days(fourDayPlan), false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for i, day := range scheduled {
		if len(day.Segments) == 0 {
			continue
		}
		if day.Segments[0].Start != day.StartMin {
			t.Errorf("day %d opens at %d, want %d", i, day.Segments[0].Start, day.StartMin)
		}
		for j := 1; j < len(day.Segments); j++ {
			if day.Segments[j].Start != day.Segments[j-1].End {
				t.Errorf("day %d segment %d starts at %d, previous ends at %d",
					i, j, day.Segments[j].Start, day.Segments[j-1].End)
			}
		}
		for j, seg := range day.Segments {
			if seg.End < seg.Start {
				t.Errorf("day %d segment %d runs backwards: %d..%d", i, j, seg.Start, seg.End)
			}
		}
	}
}

func TestRunIdempotent(t *testing.T) {
	e := testEngine(t)

	first, err := e.Run("plan-a", parse.Days(fourDayPlan), false)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := e.Run("plan-b", parse.Days(fourDayPlan), false)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Fatalf("runs diverged:\n%s\n%s", a, b)
	}
}

func TestRunImproveStaysDeterministic(t *testing.T) {
	e := testEngine(t)
	plain, err := e.Run("plan-plain", parse.Days(fourDayPlan), false)
	if err != nil {
		t.Fatalf("plain run: %v", err)
	}
	improved, err := e.Run("plan-improved", parse.Days(fourDayPlan), true)
	if err != nil {
		t.Fatalf("improved run: %v", err)
	}
	for i := range plain {
		if len(plain[i].Segments) != len(improved[i].Segments) {
			t.Errorf("day %d segment count changed under improvement: %d vs %d",
				i, len(plain[i].Segments), len(improved[i].Segments))
		}
	}
}

func TestRunMalformedTimeFails(t *testing.T) {
	e := testEngine(t)
	days := []model.DaySection{{
		Index:    0,
		Title:    "Broken day",
		Theme:    model.ThemeCity,
		Timeline: []model.TimelineItem{{Time: "abc", Activity: "Mystery slot"}},
	}}
	_, err := e.Run("plan-bad", days, false)
	if err == nil {
		t.Fatal("expected error for malformed time token")
	}
	if !strings.Contains(err.Error(), "unexpected time format") {
		t.Fatalf("error = %v, want time format complaint", err)
	}
}

func TestRunRecordsStageTimings(t *testing.T) {
	e := testEngine(t)
	if _, err := e.Run("plan-timed", parse.Days(fourDayPlan), false); err != nil {
		t.Fatalf("run: %v", err)
	}
	snap := e.Timings.Snapshot("plan-timed")
	for _, stage := range []string{"resolve", "dedup", "augment", "schedule"} {
		if _, ok := snap[stage]; !ok {
			t.Errorf("missing %q stage in %v", stage, snap)
		}
	}
	e.Timings.Forget("plan-timed")
	if snap = e.Timings.Snapshot("plan-timed"); len(snap) != 0 {
		t.Errorf("timings survived Forget: %v", snap)
	}
}
