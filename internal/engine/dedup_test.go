package engine

import (
	"reflect"
	"testing"

	"github.com/XavierCollard23/LONDON/internal/model"
)

func TestMergeWhitelistedDuplicate(t *testing.T) {
	e := testEngine(t)
	days := []model.DaySection{
		{Index: 0, Theme: model.ThemeMayfair, Locations: []string{"Harrods", "Hyde Park", "South Bank Promenade", "London Eye"}},
		{Index: 1, Theme: model.ThemeCity, Locations: []string{"Borough Market", "The Shard", "South Bank Promenade", "London Eye"}},
	}
	e.mergeDuplicates(days)

	// The promenade is whitelisted and sits by the river day's centroid, so
	// the Mayfair day loses it.
	if got, want := days[0].Locations, []string{"Harrods", "Hyde Park", "London Eye"}; !reflect.DeepEqual(got, want) {
		t.Errorf("day 0 locations = %v, want %v", got, want)
	}
	if got, want := days[0].RemovedDuplicates, []string{"South Bank Promenade"}; !reflect.DeepEqual(got, want) {
		t.Errorf("day 0 removed = %v, want %v", got, want)
	}
	if !containsName(days[1].Locations, "South Bank Promenade") {
		t.Errorf("day 1 lost the promenade: %v", days[1].Locations)
	}

	// London Eye is an ordinary attraction: repeats survive the merge.
	if !containsName(days[0].Locations, "London Eye") || !containsName(days[1].Locations, "London Eye") {
		t.Error("ordinary attraction was merged")
	}
	if len(days[1].RemovedDuplicates) != 0 {
		t.Errorf("day 1 removed = %v, want none", days[1].RemovedDuplicates)
	}
}

func TestMergeKeepsHotelOnArrivalDay(t *testing.T) {
	e := testEngine(t)
	days := []model.DaySection{
		{Index: 0, Theme: model.ThemeArrival, Locations: []string{"citizenM London Bankside", "Carnaby Street"}},
		{Index: 1, Theme: model.ThemeDeparture, Locations: []string{"citizenM London Bankside"}},
	}
	e.mergeDuplicates(days)

	for i := range days {
		if !containsName(days[i].Locations, "citizenM London Bankside") {
			t.Errorf("day %d lost the hotel: %v", i, days[i].Locations)
		}
		if len(days[i].RemovedDuplicates) != 0 {
			t.Errorf("day %d removed = %v, want none", i, days[i].RemovedDuplicates)
		}
	}
}

func TestMergeSingleMentionUntouched(t *testing.T) {
	e := testEngine(t)
	days := []model.DaySection{
		{Index: 0, Theme: model.ThemeCity, Locations: []string{"Westminster Pier", "Tower Bridge"}},
	}
	e.mergeDuplicates(days)
	if got, want := days[0].Locations, []string{"Westminster Pier", "Tower Bridge"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("locations = %v, want %v", got, want)
	}
}
