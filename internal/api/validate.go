package api

import (
	"fmt"
	"strings"

	"github.com/XavierCollard23/LONDON/internal/engine"
	"github.com/XavierCollard23/LONDON/internal/model"
)

const (
	maxPlanTitleLen = 200
	maxPlanTextLen  = 1 << 20
	maxPlanDays     = 31
)

func validatePlanRequest(req *model.PlanRequest) error {
	if strings.TrimSpace(req.Text) == "" && len(req.Days) == 0 {
		return fmt.Errorf("either text or days is required")
	}
	if len(req.Text) > maxPlanTextLen {
		return fmt.Errorf("text exceeds %d bytes", maxPlanTextLen)
	}
	if len(req.Days) > maxPlanDays {
		return fmt.Errorf("at most %d days per plan", maxPlanDays)
	}
	if len(req.Title) > maxPlanTitleLen {
		return fmt.Errorf("title exceeds %d characters", maxPlanTitleLen)
	}
	for i, d := range req.Days {
		if strings.TrimSpace(d.Title) == "" {
			return fmt.Errorf("day %d: title is required", i+1)
		}
		for _, item := range d.Timeline {
			if _, _, err := engine.ParseTimeRange(item.Time); err != nil {
				return fmt.Errorf("day %d: %w", i+1, err)
			}
		}
	}
	return nil
}
