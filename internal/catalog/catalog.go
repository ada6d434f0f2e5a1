// Package catalog carries the static London location library plus the theme
// tables that drive deduplication, augmentation and scheduling.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/XavierCollard23/LONDON/internal/model"
)

//go:embed data/london.yaml
var rawLibrary []byte

// Alias is one entry of the ordered alias index: a normalized alias and the
// canonical name it resolves to. Index order follows catalog order, with the
// canonical name ahead of its aliases.
type Alias struct {
	Norm string
	Name string
}

// Bounds is a day window in minutes from midnight.
type Bounds struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

type overrideRow struct {
	From    string `yaml:"from"`
	To      string `yaml:"to"`
	Minutes int    `yaml:"minutes"`
}

type noteRow struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Note string `yaml:"note"`
}

// Cover marks a venue whose presence on a day makes another one redundant,
// like a dinner spot inside a tower it already overlooks.
type Cover struct {
	Host    string `yaml:"host"`
	Shadows string `yaml:"shadows"`
}

type library struct {
	Hotel              string                `yaml:"hotel"`
	Airport            string                `yaml:"airport"`
	ExcludedCategories []string              `yaml:"excludedCategories"`
	UnwantedKeywords   []string              `yaml:"unwantedKeywords"`
	Locations          []model.LocationEntry `yaml:"locations"`
	Essentials         map[string][]string   `yaml:"essentials"`
	PreferredOrder     map[string][]string   `yaml:"preferredOrder"`
	TransitOverrides   []overrideRow         `yaml:"transitOverrides"`
	DedupeWhitelist    []string              `yaml:"dedupeWhitelist"`
	ThemeBounds        map[string]Bounds     `yaml:"themeBounds"`
	DefaultBounds      Bounds                `yaml:"defaultBounds"`
	Finale             map[string]string     `yaml:"finale"`
	Covers             []Cover               `yaml:"covers"`
	ThemeDrops         map[string][]string   `yaml:"themeDrops"`
	Descriptions       map[string]string     `yaml:"descriptions"`
	TransferNotes      []noteRow             `yaml:"transferNotes"`
}

type pair struct{ a, b string }

// Catalog is the loaded, indexed library. Immutable after Load.
type Catalog struct {
	entries      []model.LocationEntry
	byName       map[string]model.LocationEntry
	ordinal      map[string]int
	aliases      []Alias
	essentials   map[model.Theme][]string
	preferred    map[model.Theme][]string
	overrides    map[pair]int
	whitelist    map[string]bool
	bounds       map[model.Theme]Bounds
	fallback     Bounds
	finale       map[model.Theme]string
	covers       []Cover
	drops        map[model.Theme][]string
	excluded     map[model.Category]bool
	keywords     []string
	descriptions map[string]string
	notes        map[pair]string
	hotel        string
	airport      string
}

var knownThemes = map[model.Theme]bool{
	model.ThemeArrival:   true,
	model.ThemeMayfair:   true,
	model.ThemeCity:      true,
	model.ThemeDeparture: true,
}

// Load parses the embedded library and builds the lookup indexes.
func Load() (*Catalog, error) {
	var lib library
	if err := yaml.Unmarshal(rawLibrary, &lib); err != nil {
		return nil, fmt.Errorf("parse location library: %w", err)
	}
	c := &Catalog{
		byName:       make(map[string]model.LocationEntry, len(lib.Locations)),
		ordinal:      make(map[string]int, len(lib.Locations)),
		essentials:   make(map[model.Theme][]string, len(lib.Essentials)),
		preferred:    make(map[model.Theme][]string, len(lib.PreferredOrder)),
		overrides:    make(map[pair]int, len(lib.TransitOverrides)),
		whitelist:    make(map[string]bool, len(lib.DedupeWhitelist)),
		bounds:       make(map[model.Theme]Bounds, len(lib.ThemeBounds)),
		fallback:     lib.DefaultBounds,
		finale:       make(map[model.Theme]string, len(lib.Finale)),
		covers:       lib.Covers,
		drops:        make(map[model.Theme][]string, len(lib.ThemeDrops)),
		excluded:     make(map[model.Category]bool, len(lib.ExcludedCategories)),
		keywords:     lib.UnwantedKeywords,
		descriptions: lib.Descriptions,
		notes:        make(map[pair]string, len(lib.TransferNotes)),
		hotel:        lib.Hotel,
		airport:      lib.Airport,
	}
	seen := make(map[string]bool)
	for _, e := range lib.Locations {
		if e.Name == "" {
			return nil, fmt.Errorf("location library has an unnamed entry")
		}
		if _, dup := c.byName[e.Name]; dup {
			return nil, fmt.Errorf("duplicate catalog entry %q", e.Name)
		}
		c.ordinal[e.Name] = len(c.entries)
		c.entries = append(c.entries, e)
		c.byName[e.Name] = e
		for _, raw := range append([]string{e.Name}, e.Aliases...) {
			n := Normalize(raw)
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			c.aliases = append(c.aliases, Alias{Norm: n, Name: e.Name})
		}
	}
	if _, ok := c.byName[lib.Hotel]; !ok {
		return nil, fmt.Errorf("hotel anchor %q not in catalog", lib.Hotel)
	}
	if _, ok := c.byName[lib.Airport]; !ok {
		return nil, fmt.Errorf("airport anchor %q not in catalog", lib.Airport)
	}
	for k, names := range lib.Essentials {
		theme := model.Theme(k)
		if !knownThemes[theme] {
			return nil, fmt.Errorf("essentials table has unknown theme %q", k)
		}
		c.essentials[theme] = names
	}
	for k, names := range lib.PreferredOrder {
		theme := model.Theme(k)
		if !knownThemes[theme] {
			return nil, fmt.Errorf("preferred order table has unknown theme %q", k)
		}
		c.preferred[theme] = names
	}
	for k, b := range lib.ThemeBounds {
		theme := model.Theme(k)
		if !knownThemes[theme] {
			return nil, fmt.Errorf("bounds table has unknown theme %q", k)
		}
		c.bounds[theme] = b
	}
	for k, name := range lib.Finale {
		theme := model.Theme(k)
		if !knownThemes[theme] {
			return nil, fmt.Errorf("finale table has unknown theme %q", k)
		}
		if _, ok := c.byName[name]; !ok {
			return nil, fmt.Errorf("finale %q not in catalog", name)
		}
		c.finale[theme] = name
	}
	for k, names := range lib.ThemeDrops {
		theme := model.Theme(k)
		if !knownThemes[theme] {
			return nil, fmt.Errorf("drops table has unknown theme %q", k)
		}
		c.drops[theme] = names
	}
	for _, row := range lib.TransitOverrides {
		c.overrides[pair{row.From, row.To}] = row.Minutes
	}
	for _, name := range lib.DedupeWhitelist {
		c.whitelist[name] = true
	}
	for _, cat := range lib.ExcludedCategories {
		c.excluded[model.Category(cat)] = true
	}
	for _, row := range lib.TransferNotes {
		c.notes[pair{row.From, row.To}] = row.Note
	}
	return c, nil
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Default loads the embedded catalog once and caches it.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = Load()
	})
	return defaultCat, defaultErr
}

// Entries returns all locations in catalog order.
func (c *Catalog) Entries() []model.LocationEntry { return c.entries }

// Get looks up one location by canonical name.
func (c *Catalog) Get(name string) (model.LocationEntry, bool) {
	e, ok := c.byName[name]
	return e, ok
}

// HotelName returns the trip's home anchor.
func (c *Catalog) HotelName() string { return c.hotel }

// AirportName returns the trip's arrival and departure anchor.
func (c *Catalog) AirportName() string { return c.airport }

// Hotel returns the anchor entry itself. Load guarantees it exists.
func (c *Catalog) Hotel() model.LocationEntry { return c.byName[c.hotel] }

// Airport returns the airport entry itself. Load guarantees it exists.
func (c *Catalog) Airport() model.LocationEntry { return c.byName[c.airport] }

// Aliases returns the ordered alias index for substring resolution.
func (c *Catalog) Aliases() []Alias { return c.aliases }

// Essentials returns the locations a theme requires, in table order.
func (c *Catalog) Essentials(theme model.Theme) []string { return c.essentials[theme] }

// Preferred returns the visiting-order bias for a theme, in table order.
func (c *Catalog) Preferred(theme model.Theme) []string { return c.preferred[theme] }

// Override returns a fixed transfer duration for an ordered pair.
func (c *Catalog) Override(from, to string) (int, bool) {
	m, ok := c.overrides[pair{from, to}]
	return m, ok
}

// Whitelisted reports whether dedup may merge this name across days.
func (c *Catalog) Whitelisted(name string) bool { return c.whitelist[name] }

// Allowed reports whether a name survives the exclusion rules: it must be a
// known location, its category must not be excluded and its name must not
// contain a banned keyword.
func (c *Catalog) Allowed(name string) bool {
	e, ok := c.byName[name]
	if !ok {
		return false
	}
	if c.excluded[e.Category] {
		return false
	}
	lower := strings.ToLower(name)
	for _, kw := range c.keywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	return true
}

// Bounds returns the default day window for a theme.
func (c *Catalog) Bounds(theme model.Theme) (start, end int) {
	if b, ok := c.bounds[theme]; ok {
		return b.Start, b.End
	}
	return c.fallback.Start, c.fallback.End
}

// Ordinal returns a location's position in catalog order. Unknown names sort
// after every known one.
func (c *Catalog) Ordinal(name string) int {
	if i, ok := c.ordinal[name]; ok {
		return i
	}
	return len(c.entries)
}

// Finale returns the location a theme's schedule must close with, if any.
func (c *Catalog) Finale(theme model.Theme) (string, bool) {
	name, ok := c.finale[theme]
	return name, ok
}

// Covers returns the venue-shadowing rules.
func (c *Catalog) Covers() []Cover { return c.covers }

// Drops returns locations a theme always sheds before scheduling.
func (c *Catalog) Drops(theme model.Theme) []string { return c.drops[theme] }

// Describe returns the editorial blurb for a location, falling back to a
// category phrase for entries without one.
func (c *Catalog) Describe(name string) string {
	if d, ok := c.descriptions[name]; ok {
		return d
	}
	e, ok := c.byName[name]
	if !ok {
		return ""
	}
	switch e.Category {
	case model.CategoryFood:
		return "Relaxed food break."
	case model.CategoryWalk:
		return "Free stroll to enjoy the neighbourhood."
	case model.CategoryLandmark:
		return "Iconic viewpoint to discover at an easy pace."
	}
	return capitalize(string(e.Category))
}

// TransferNote returns the curated note for a leg, in either direction.
func (c *Catalog) TransferNote(from, to string) (string, bool) {
	if n, ok := c.notes[pair{from, to}]; ok {
		return n, true
	}
	if n, ok := c.notes[pair{to, from}]; ok {
		return n, true
	}
	return "", false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
