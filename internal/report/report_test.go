package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/XavierCollard23/LONDON/internal/catalog"
	"github.com/XavierCollard23/LONDON/internal/engine"
	"github.com/XavierCollard23/LONDON/internal/model"
	"github.com/XavierCollard23/LONDON/internal/parse"
)

const twoDayText = "## Day 1 - Arrival\n" +
	"Carnaby Street and Covent Garden\n" +
	"## Last day - Departure\n" +
	"Coffee at gentlemen baristas, then Heathrow\n"

func buildPlan(t *testing.T) (*catalog.Catalog, []model.DaySection, []model.ScheduledDay) {
	t.Helper()
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	days := parse.Days(twoDayText)
	scheduled, err := engine.New(cat).Run("plan-report", days, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return cat, days, scheduled
}

func TestWriteMapArrivalDay(t *testing.T) {
	cat, _, scheduled := buildPlan(t)
	dir := t.TempDir()

	name, err := WriteMap(dir, cat, scheduled[0])
	if err != nil {
		t.Fatalf("write map: %v", err)
	}
	if name != "day_1_day_1_arrival.html" {
		t.Fatalf("map name = %q", name)
	}

	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read map: %v", err)
	}
	html := string(raw)
	for _, want := range []string{
		"leaflet@1.9.4",
		"0. Start - Heathrow Airport",
		"1. Hotel check-in (16h45 - 17h30)",
		"Finish - citizenM London Bankside",
		"#FF6F61",
		"Legend",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("map missing %q", want)
		}
	}
}

func TestWriteMapDepartureDay(t *testing.T) {
	cat, _, scheduled := buildPlan(t)
	dir := t.TempDir()

	name, err := WriteMap(dir, cat, scheduled[1])
	if err != nil {
		t.Fatalf("write map: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read map: %v", err)
	}
	html := string(raw)
	if !strings.Contains(html, "0. Start - citizenM London Bankside") {
		t.Error("departure map should start at the hotel")
	}
	if !strings.Contains(html, "Finish - Heathrow Airport") {
		t.Error("departure map should finish at the airport")
	}
	if !strings.Contains(html, colorMeal) {
		t.Error("coffee stop should use the meal color")
	}
	if got := strings.Count(html, "L.circleMarker("); got != 3 {
		t.Errorf("marker count = %d, want 3", got)
	}
}

func TestMapFilename(t *testing.T) {
	day := model.DaySection{Index: 2, Title: "\U0001F5D3 Mardi - Panorama!"}
	if got := MapFilename(day); got != "day_3_mardi_panorama.html" {
		t.Fatalf("filename = %q", got)
	}
}

func TestGenerateArtifacts(t *testing.T) {
	cat, _, scheduled := buildPlan(t)
	dir := t.TempDir()

	summary, err := Generate(dir, cat, scheduled)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if summary.OutputDocument != filepath.Join(dir, DocumentName) {
		t.Errorf("output document = %q", summary.OutputDocument)
	}
	if len(summary.Maps) != 2 {
		t.Fatalf("maps = %v, want 2 entries", summary.Maps)
	}
	for idx, name := range summary.Maps {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("map %d (%s) not written: %v", idx, name, err)
		}
	}

	paras, err := parse.DocxParagraphs(summary.OutputDocument)
	if err != nil {
		t.Fatalf("read document back: %v", err)
	}
	text := strings.Join(paras, "\n")
	for _, want := range []string{
		"Optimized itinerary - London getaway",
		"Optimizations: essentials added (",
		"07h00-07h08 | Transfer to The Gentlemen Baristas Bankside | Short walk or quick hop (15 min or less).",
		"Departure formalities",
		"Interactive map: " + summary.Maps[0],
	} {
		if !strings.Contains(text, want) {
			t.Errorf("document missing %q", want)
		}
	}

	raw, err := os.ReadFile(filepath.Join(dir, SummaryName))
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	var decoded struct {
		OutputDocument string                         `json:"output_document"`
		Maps           map[string]string              `json:"maps"`
		Changes        map[string]map[string][]string `json:"changes"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if decoded.OutputDocument == "" || len(decoded.Maps) != 2 {
		t.Errorf("summary fields = %+v", decoded)
	}
	day1, ok := decoded.Changes["Day 1 - Arrival"]
	if !ok {
		t.Fatalf("summary changes keys = %v", decoded.Changes)
	}
	if day1["removed_duplicates"] == nil || day1["added_essentials"] == nil || day1["locations"] == nil {
		t.Errorf("day block incomplete: %v", day1)
	}
}

func TestChangesLine(t *testing.T) {
	cases := []struct {
		day  model.DaySection
		want string
	}{
		{
			day: model.DaySection{
				RemovedDuplicates: []string{"South Bank Promenade"},
				AddedEssentials:   []string{"London Eye"},
			},
			want: "activities grouped elsewhere (South Bank Promenade); essentials added (London Eye)",
		},
		{
			day:  model.DaySection{AddedEssentials: []string{"Harrods", "Tower Bridge"}},
			want: "essentials added (Harrods, Tower Bridge)",
		},
		{
			day:  model.DaySection{},
			want: "reorganized by geographic proximity",
		},
	}
	for _, tc := range cases {
		if got := changesLine(tc.day); got != tc.want {
			t.Errorf("changesLine = %q, want %q", got, tc.want)
		}
	}
}
