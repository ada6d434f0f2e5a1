// Package report renders optimized plans into shareable artifacts: a Word
// document, one Leaflet map per day and a machine-readable JSON summary.
package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/XavierCollard23/LONDON/internal/catalog"
	"github.com/XavierCollard23/LONDON/internal/model"
)

// Artifact names inside an output directory.
const (
	DocumentName = "optimized_itinerary.docx"
	SummaryName  = "optimization_summary.json"
)

// Generate writes the full artifact set for a plan into dir and returns the
// summary describing it.
func Generate(dir string, cat *catalog.Catalog, scheduled []model.ScheduledDay) (model.PlanSummary, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return model.PlanSummary{}, err
	}

	summary := Summarize(scheduled)
	summary.Maps = make(map[int]string, len(scheduled))
	for _, sd := range scheduled {
		name, err := WriteMap(dir, cat, sd)
		if err != nil {
			return model.PlanSummary{}, fmt.Errorf("map for day %d: %w", sd.Section.Index+1, err)
		}
		summary.Maps[sd.Section.Index] = name
	}

	docPath := filepath.Join(dir, DocumentName)
	if err := WriteDocument(docPath, dir, scheduled, summary.Maps); err != nil {
		return model.PlanSummary{}, fmt.Errorf("document: %w", err)
	}
	summary.OutputDocument = docPath

	if err := WriteSummary(filepath.Join(dir, SummaryName), summary); err != nil {
		return model.PlanSummary{}, fmt.Errorf("summary: %w", err)
	}
	return summary, nil
}
