package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/XavierCollard23/LONDON/internal/catalog"
	"github.com/XavierCollard23/LONDON/internal/engine"
	"github.com/XavierCollard23/LONDON/internal/model"
)

// Marker colors follow the legend: start, visit, meal, finish.
const (
	colorStart  = "#d9534f"
	colorVisit  = "#337ab7"
	colorMeal   = "#5cb85c"
	colorFinish = "#6f42c1"
)

var mapTmpl = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>html, body, #map { height: 100%; margin: 0; }</style>
</head>
<body>
<div id="map"></div>
<div style="position: fixed; bottom: 20px; left: 20px; z-index: 9999; background-color: white; padding: 10px 14px; border: 1px solid #ccc; box-shadow: 0 0 6px rgba(0,0,0,0.2); font-size: 12px; line-height: 1.4;">
<b>Legend</b><br>
<span style="color:#d9534f">&#9679;</span> Start<br>
<span style="color:#337ab7">&#9679;</span> Walk / visit<br>
<span style="color:#5cb85c">&#9679;</span> Food break<br>
<span style="color:#6f42c1">&#9679;</span> Return hotel / airport<br>
<span style="color:#FF6F61">&#8213;</span> Suggested route
</div>
<script>
var map = L.map('map').setView([{{.CenterLat}}, {{.CenterLon}}], 14);
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
	maxZoom: 19,
	attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);
{{- range .Markers}}
L.circleMarker([{{.Lat}}, {{.Lon}}], {radius: 9, color: {{.Color}}, fillColor: {{.Color}}, fillOpacity: 0.9, weight: 2}).addTo(map).bindPopup({{.Popup}}).bindTooltip({{.Tooltip}});
{{- end}}
{{- if .Route}}
L.polyline({{.Route}}, {color: "#FF6F61", weight: 4, opacity: 0.8}).addTo(map).bindTooltip("Day route");
{{- end}}
</script>
</body>
</html>
`))

type mapMarker struct {
	Lat, Lon float64
	Color    string
	Popup    string
	Tooltip  string
}

type mapData struct {
	Title     string
	CenterLat float64
	CenterLon float64
	Markers   []mapMarker
	Route     [][]float64
}

// MapFilename names a day's map file from its index and slugged title.
func MapFilename(day model.DaySection) string {
	return fmt.Sprintf("day_%d_%s.html", day.Index+1, catalog.Slugify(day.Title))
}

// WriteMap renders the day's Leaflet map into dir and returns the file
// name. Arrival days start at the airport, departure days finish there,
// everything else loops from the hotel. Days with nothing to draw get a
// placeholder name and no file.
func WriteMap(dir string, cat *catalog.Catalog, sd model.ScheduledDay) (string, error) {
	day := sd.Section

	startName := cat.HotelName()
	if day.Theme == model.ThemeArrival {
		startName = cat.AirportName()
	}
	endName := cat.HotelName()
	if day.Theme == model.ThemeDeparture {
		endName = cat.AirportName()
	}
	start, okStart := cat.Get(startName)
	end, okEnd := cat.Get(endName)

	var visits []model.Segment
	for _, seg := range sd.Segments {
		if seg.Type != model.SegmentVisit && seg.Type != model.SegmentMeal {
			continue
		}
		if _, ok := cat.Get(seg.Location); ok {
			visits = append(visits, seg)
		}
	}
	if !okStart || (len(visits) == 0 && !okEnd) {
		return fmt.Sprintf("day_%d_no_map.html", day.Index+1), nil
	}

	seq := []string{startName}
	for _, seg := range visits {
		if !containsStr(seq, seg.Location) {
			seq = append(seq, seg.Location)
		}
	}
	if okEnd && seq[len(seq)-1] != endName {
		seq = append(seq, endName)
	}
	var latSum, lonSum float64
	for _, name := range seq {
		e, _ := cat.Get(name)
		latSum += e.Lat
		lonSum += e.Lon
	}

	data := mapData{
		Title:     day.Title,
		CenterLat: latSum / float64(len(seq)),
		CenterLon: lonSum / float64(len(seq)),
		Markers: []mapMarker{{
			Lat:     start.Lat,
			Lon:     start.Lon,
			Color:   colorStart,
			Popup:   "0. Start - " + startName,
			Tooltip: "Start: " + startName,
		}},
		Route: [][]float64{{start.Lat, start.Lon}},
	}

	for i, seg := range visits {
		e, _ := cat.Get(seg.Location)
		popup := fmt.Sprintf("%d. %s (%s - %s)", i+1, seg.Title,
			engine.MinutesLabel(seg.Start), engine.MinutesLabel(seg.End))
		if seg.Details != "" {
			popup += "<br>" + seg.Details
		}
		color := colorVisit
		if seg.Type == model.SegmentMeal {
			color = colorMeal
		}
		data.Markers = append(data.Markers, mapMarker{
			Lat: e.Lat, Lon: e.Lon, Color: color, Popup: popup, Tooltip: seg.Title,
		})
		data.Route = append(data.Route, []float64{e.Lat, e.Lon})
	}
	if okEnd {
		data.Markers = append(data.Markers, mapMarker{
			Lat:     end.Lat,
			Lon:     end.Lon,
			Color:   colorFinish,
			Popup:   "Finish - " + endName,
			Tooltip: "Return: " + endName,
		})
		data.Route = append(data.Route, []float64{end.Lat, end.Lon})
	}
	if len(data.Route) < 2 {
		data.Route = nil
	}

	name := MapFilename(day)
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	if err := mapTmpl.Execute(f, data); err != nil {
		f.Close()
		return "", err
	}
	return name, f.Close()
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
