// Package parse splits a raw trip document into day sections the engine can
// optimize. It accepts plain text with day-marker lines or a Word document.
package parse

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/XavierCollard23/LONDON/internal/catalog"
	"github.com/XavierCollard23/LONDON/internal/model"
)

// Day titles start with the calendar emoji in the source documents, or a
// markdown heading in plain-text plans.
const dayEmoji = "\U0001F5D3"

var timeToken = regexp.MustCompile(`^(\d{1,2}h\d{2}(?:-\d{1,2}h\d{2})?)`)

// Days splits plain text into day sections.
func Days(text string) []model.DaySection {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return FromLines(strings.Split(text, "\n"))
}

// File parses a plan from disk. Word documents are unpacked, anything else
// is treated as plain text.
func File(path string) ([]model.DaySection, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Bytes(filepath.Base(path), raw)
}

// Bytes parses an in-memory plan. Word documents are recognized by the zip
// magic or a .docx name, everything else is plain text.
func Bytes(name string, data []byte) ([]model.DaySection, error) {
	if strings.EqualFold(filepath.Ext(name), ".docx") || bytes.HasPrefix(data, zipMagic) {
		paras, err := docxParagraphs(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return FromLines(paras), nil
	}
	return Days(string(data)), nil
}

// FromLines walks paragraphs in order, opening a new day at each marker line
// and buffering everything else into the current day.
func FromLines(lines []string) []model.DaySection {
	var days []model.DaySection
	var title string
	var buf []string
	open := false

	flush := func() {
		if !open {
			return
		}
		day := model.DaySection{
			Index:    len(days),
			Title:    strings.TrimSpace(title),
			Theme:    InferTheme(title),
			Timeline: Timeline(buf),
		}
		for _, l := range buf {
			if t := strings.TrimSpace(l); t != "" {
				day.Lines = append(day.Lines, t)
			}
		}
		days = append(days, day)
	}

	for _, line := range lines {
		if t, ok := dayTitle(line); ok {
			flush()
			title = t
			buf = nil
			open = true
			continue
		}
		if open {
			buf = append(buf, line)
		}
	}
	flush()
	return days
}

func dayTitle(line string) (string, bool) {
	if strings.HasPrefix(line, dayEmoji) {
		return line, true
	}
	if strings.HasPrefix(line, "## ") {
		return strings.TrimPrefix(line, "## "), true
	}
	return "", false
}

// Timeline scans buffered lines for (time, activity, details) triples: a
// line opening with a time token, then the next two non-empty lines.
func Timeline(lines []string) []model.TimelineItem {
	var clean []string
	for _, l := range lines {
		l = strings.TrimSpace(normalizeDashes(l))
		if l != "" {
			clean = append(clean, l)
		}
	}
	var items []model.TimelineItem
	for i := 0; i < len(clean); {
		m := timeToken.FindStringSubmatch(clean[i])
		if m == nil {
			i++
			continue
		}
		item := model.TimelineItem{Time: m[1]}
		if i+1 < len(clean) {
			item.Activity = clean[i+1]
		}
		if i+2 < len(clean) {
			item.Details = clean[i+2]
		}
		items = append(items, item)
		i += 3
	}
	return items
}

// InferTheme classifies a day by its title keywords. The source plans mix
// French and English day headers, so both sets are recognized.
func InferTheme(title string) model.Theme {
	norm := catalog.Normalize(title)
	switch {
	case containsAny(norm, "depart", "dernier", "mercredi", "wednesday", "last day"):
		return model.ThemeDeparture
	case containsAny(norm, "panorama", "trafalgar", "mardi", "tuesday"):
		return model.ThemeCity
	case containsAny(norm, "mayfair", "hyde", "lundi", "monday"):
		return model.ThemeMayfair
	}
	return model.ThemeArrival
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func normalizeDashes(s string) string {
	s = strings.ReplaceAll(s, "–", "-")
	return strings.ReplaceAll(s, "—", "-")
}
