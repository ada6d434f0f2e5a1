package report

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/XavierCollard23/LONDON/internal/model"
)

// Summarize folds a scheduled plan's audit trail into its summary. File
// fields stay empty; Generate fills them when artifacts are written.
func Summarize(scheduled []model.ScheduledDay) model.PlanSummary {
	changes := make(map[string]model.DayChanges, len(scheduled))
	for _, sd := range scheduled {
		changes[sd.Section.Title] = model.DayChanges{
			RemovedDuplicates: emptyIfNil(sd.Section.RemovedDuplicates),
			AddedEssentials:   emptyIfNil(sd.Section.AddedEssentials),
			Locations:         emptyIfNil(sd.Section.Locations),
		}
	}
	return model.PlanSummary{Changes: changes}
}

// The summary file keeps the stable snake_case layout downstream tooling
// reads, independent of the API's JSON shape.
type fileDayChanges struct {
	RemovedDuplicates []string `json:"removed_duplicates"`
	AddedEssentials   []string `json:"added_essentials"`
	Locations         []string `json:"locations"`
}

type fileSummary struct {
	OutputDocument string                    `json:"output_document"`
	Maps           map[string]string         `json:"maps"`
	Changes        map[string]fileDayChanges `json:"changes"`
}

// WriteSummary writes the plan summary as indented JSON at path.
func WriteSummary(path string, s model.PlanSummary) error {
	out := fileSummary{
		OutputDocument: s.OutputDocument,
		Maps:           make(map[string]string, len(s.Maps)),
		Changes:        make(map[string]fileDayChanges, len(s.Changes)),
	}
	for idx, name := range s.Maps {
		out.Maps[strconv.Itoa(idx)] = name
	}
	for title, ch := range s.Changes {
		out.Changes[title] = fileDayChanges{
			RemovedDuplicates: emptyIfNil(ch.RemovedDuplicates),
			AddedEssentials:   emptyIfNil(ch.AddedEssentials),
			Locations:         emptyIfNil(ch.Locations),
		}
	}
	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0644)
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
