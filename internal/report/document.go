package report

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gingfrederik/docx"

	"github.com/XavierCollard23/LONDON/internal/engine"
	"github.com/XavierCollard23/LONDON/internal/model"
)

// WriteDocument renders the optimized plan as a Word document at path. Day
// maps that exist in dir are referenced below their day block.
func WriteDocument(path, dir string, scheduled []model.ScheduledDay, maps map[int]string) error {
	f := docx.NewFile()

	title := f.AddParagraph().AddText("Optimized itinerary - London getaway")
	title.Size(20)

	f.AddParagraph().AddText("Automatically generated: activities grouped by neighbourhood, at a relaxed pace to enjoy the city without stress.")
	note := f.AddParagraph().AddText("Interactive maps: internet connection required for the OpenStreetMap tiles.")
	note.Size(10)
	note.Color("808080")

	for _, sd := range scheduled {
		f.AddParagraph()
		heading := f.AddParagraph().AddText(sd.Section.Title)
		heading.Size(16)

		f.AddParagraph().AddText("Optimizations: " + changesLine(sd.Section))

		header := f.AddParagraph().AddText("Schedule | Moment | Mood")
		header.Size(10)
		header.Color("808080")
		for _, seg := range sd.Segments {
			row := engine.RangeLabel(seg.Start, seg.End) + " | " + seg.Title
			if seg.Details != "" {
				row += " | " + seg.Details
			}
			f.AddParagraph().AddText(row)
		}

		if name, ok := maps[sd.Section.Index]; ok {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				link := f.AddParagraph().AddText("Interactive map: " + name)
				link.Size(10)
				link.Color("0000FF")
			}
		}
	}

	return f.Save(path)
}

// changesLine sums up what the optimizer did to a day for the document and
// the summary.
func changesLine(day model.DaySection) string {
	var changes []string
	if len(day.RemovedDuplicates) > 0 {
		changes = append(changes, "activities grouped elsewhere ("+strings.Join(day.RemovedDuplicates, ", ")+")")
	}
	if len(day.AddedEssentials) > 0 {
		changes = append(changes, "essentials added ("+strings.Join(day.AddedEssentials, ", ")+")")
	}
	if len(changes) == 0 {
		changes = append(changes, "reorganized by geographic proximity")
	}
	return strings.Join(changes, "; ")
}
