package engine

import (
	"reflect"
	"testing"

	"github.com/XavierCollard23/LONDON/internal/model"
)

func TestEssentialsAddedOnceAcrossDays(t *testing.T) {
	e := testEngine(t)
	days := []model.DaySection{
		{Index: 0, Theme: model.ThemeCity, Locations: []string{"London Eye"}},
		{Index: 1, Theme: model.ThemeCity, Locations: []string{"Tower Bridge"}},
	}
	e.addMissingEssentials(days)

	// The first day soaks up every missing essential in table order; the
	// second day needs nothing because the trip already covers its theme.
	want := []string{
		"South Bank Promenade", "Borough Market", "Westminster Pier", "Trafalgar Square",
		"Piccadilly Arcade", "Fortnum & Mason", "Harrods", "Oblix at The Shard",
	}
	if !reflect.DeepEqual(days[0].AddedEssentials, want) {
		t.Errorf("day 0 added = %v, want %v", days[0].AddedEssentials, want)
	}
	if len(days[1].AddedEssentials) != 0 {
		t.Errorf("day 1 added = %v, want none", days[1].AddedEssentials)
	}

	counts := make(map[string]int)
	for i := range days {
		for _, n := range days[i].Locations {
			counts[n]++
		}
	}
	for _, essential := range e.Catalog().Essentials(model.ThemeCity) {
		if counts[essential] != 1 {
			t.Errorf("%q appears %d times across the trip, want exactly once", essential, counts[essential])
		}
	}
}

func TestEssentialsSortedAroundOriginalFocus(t *testing.T) {
	e := testEngine(t)
	days := []model.DaySection{
		{Index: 0, Theme: model.ThemeCity, Locations: []string{"London Eye"}},
		{Index: 1, Theme: model.ThemeCity, Locations: []string{"Tower Bridge"}},
	}
	e.addMissingEssentials(days)

	// Distances are measured from London Eye, the day's only original stop.
	want := []string{
		"London Eye", "Westminster Pier", "Trafalgar Square", "Piccadilly Arcade",
		"South Bank Promenade", "Fortnum & Mason", "Borough Market", "Oblix at The Shard", "Harrods",
	}
	if !reflect.DeepEqual(days[0].Locations, want) {
		t.Errorf("day 0 locations = %v\nwant %v", days[0].Locations, want)
	}
}

func TestSettleOrderFiltersAndSorts(t *testing.T) {
	e := testEngine(t)
	shard, _ := e.Catalog().Get("The Shard")
	names := []string{
		"Tower Bridge", "British Museum", "Tower Bridge",
		"St Paul's Cathedral", "Imaginary Corner", "Borough Market",
	}
	got := e.settleOrder(names, shard.Point())
	want := []string{"Borough Market", "Tower Bridge"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("settled = %v, want %v", got, want)
	}
}
