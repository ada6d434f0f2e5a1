package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/XavierCollard23/LONDON/internal/catalog"
	"github.com/XavierCollard23/LONDON/internal/model"
)

var timePair = regexp.MustCompile(`(\d{1,2})h(\d{2})`)

// ParseTimeRange converts "18h30" or "18h30-20h00" into minutes from
// midnight. A single time implies a 60 minute block. A string with no time
// token at all is a hard error.
func ParseTimeRange(s string) (start, end int, err error) {
	normalized := strings.ReplaceAll(s, "–", "-")
	normalized = strings.ReplaceAll(normalized, "—", "-")
	matches := timePair.FindAllStringSubmatch(normalized, -1)
	if len(matches) == 0 {
		return 0, 0, fmt.Errorf("unexpected time format %q", s)
	}
	h, _ := strconv.Atoi(matches[0][1])
	m, _ := strconv.Atoi(matches[0][2])
	start = h*60 + m
	if len(matches) > 1 {
		h, _ = strconv.Atoi(matches[1][1])
		m, _ = strconv.Atoi(matches[1][2])
		end = h*60 + m
	} else {
		end = start + 60
	}
	return start, end, nil
}

// DayBounds computes a day's scheduling window. Explicit timeline ranges
// win over the theme preset: the window spans the earliest start to the
// latest end. City days are extended to at least 22:30 and no day runs
// past 23:30.
func DayBounds(cat *catalog.Catalog, day model.DaySection) (int, int, error) {
	start, end := 0, 0
	found := false
	for _, item := range day.Timeline {
		s, en, err := ParseTimeRange(item.Time)
		if err != nil {
			return 0, 0, fmt.Errorf("day %d: %w", day.Index+1, err)
		}
		if !found || s < start {
			start = s
		}
		if !found || en > end {
			end = en
		}
		found = true
	}
	if !found {
		start, end = cat.Bounds(day.Theme)
	}
	if day.Theme == model.ThemeCity && end < 22*60+30 {
		end = 22*60 + 30
	}
	if end > 23*60+30 {
		end = 23*60 + 30
	}
	return start, end, nil
}

// MinutesLabel formats minutes from midnight as "HHhMM".
func MinutesLabel(min int) string {
	return fmt.Sprintf("%02dh%02d", min/60, min%60)
}

// RangeLabel formats a segment window as "HHhMM-HHhMM".
func RangeLabel(start, end int) string {
	return MinutesLabel(start) + "-" + MinutesLabel(end)
}
