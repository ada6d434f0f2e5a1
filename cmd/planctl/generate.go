package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/XavierCollard23/LONDON/internal/catalog"
	"github.com/XavierCollard23/LONDON/internal/engine"
	"github.com/XavierCollard23/LONDON/internal/model"
	"github.com/XavierCollard23/LONDON/internal/parse"
	"github.com/XavierCollard23/LONDON/internal/report"
	"github.com/XavierCollard23/LONDON/internal/source"
)

var (
	outDir       string
	improveFlag  bool
	skipDocument bool
	skipMaps     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <file-or-url>",
	Short: "Optimize a plan document and write the itinerary artifacts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		doc, err := source.Resolve(ctx, args[0])
		if err != nil {
			return err
		}
		days, err := parse.Bytes(doc.Name, doc.Data)
		if err != nil {
			return err
		}
		if len(days) == 0 {
			return fmt.Errorf("%s: no day sections found", doc.Name)
		}

		cat, err := catalog.Default()
		if err != nil {
			return err
		}
		scheduled, err := engine.New(cat).Run("cli", days, improveFlag)
		if err != nil {
			return err
		}

		summary, err := writeArtifacts(cat, scheduled)
		if err != nil {
			return err
		}

		for _, sd := range scheduled {
			fmt.Printf("%s: %d stops, %s\n", sd.Section.Title, len(sd.Section.Locations),
				engine.RangeLabel(sd.StartMin, sd.EndMin))
		}
		if summary.OutputDocument != "" {
			fmt.Printf("document: %s\n", summary.OutputDocument)
		}
		fmt.Printf("artifacts written to %s\n", outDir)
		return nil
	},
}

// writeArtifacts honors the skip flags; the summary JSON is always written.
func writeArtifacts(cat *catalog.Catalog, scheduled []model.ScheduledDay) (model.PlanSummary, error) {
	if !skipDocument && !skipMaps {
		return report.Generate(outDir, cat, scheduled)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return model.PlanSummary{}, err
	}
	summary := report.Summarize(scheduled)
	summary.Maps = make(map[int]string, len(scheduled))
	if !skipMaps {
		for _, sd := range scheduled {
			name, err := report.WriteMap(outDir, cat, sd)
			if err != nil {
				return model.PlanSummary{}, fmt.Errorf("map for day %d: %w", sd.Section.Index+1, err)
			}
			summary.Maps[sd.Section.Index] = name
		}
	}
	if !skipDocument {
		docPath := filepath.Join(outDir, report.DocumentName)
		if err := report.WriteDocument(docPath, outDir, scheduled, summary.Maps); err != nil {
			return model.PlanSummary{}, fmt.Errorf("document: %w", err)
		}
		summary.OutputDocument = docPath
	}
	if err := report.WriteSummary(filepath.Join(outDir, report.SummaryName), summary); err != nil {
		return model.PlanSummary{}, fmt.Errorf("summary: %w", err)
	}
	return summary, nil
}

func init() {
	generateCmd.Flags().StringVarP(&outDir, "out", "o", "out", "Output directory for artifacts")
	generateCmd.Flags().BoolVar(&improveFlag, "improve", false, "Run the route improvement pass")
	generateCmd.Flags().BoolVar(&skipDocument, "skip-document", false, "Do not write the Word document")
	generateCmd.Flags().BoolVar(&skipMaps, "skip-maps", false, "Do not write the per-day maps")
	rootCmd.AddCommand(generateCmd)
}
