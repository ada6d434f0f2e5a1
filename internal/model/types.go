package model

// Core domain types shared across the engine, store and API.

// Category classifies a catalog location.
type Category string

const (
	CategoryTransport  Category = "transport"
	CategoryHotel      Category = "hotel"
	CategoryLandmark   Category = "landmark"
	CategoryWalk       Category = "walk"
	CategoryFood       Category = "food"
	CategoryShopping   Category = "shopping"
	CategoryPark       Category = "park"
	CategoryExperience Category = "experience"
	CategoryMuseum     Category = "museum"
	CategoryTransfer   Category = "transfer"
)

// Theme classifies a day's purpose and drives default bounds and essentials.
type Theme string

const (
	ThemeArrival   Theme = "arrival"
	ThemeMayfair   Theme = "mayfair"
	ThemeCity      Theme = "city"
	ThemeDeparture Theme = "departure"
)

type GeoPoint struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// LocationEntry is one row of the static catalog. Immutable after load.
type LocationEntry struct {
	Name            string   `json:"name" yaml:"name"`
	Lat             float64  `json:"lat" yaml:"lat"`
	Lon             float64  `json:"lon" yaml:"lon"`
	Category        Category `json:"category" yaml:"category"`
	DefaultDuration int      `json:"defaultDuration" yaml:"duration"`
	Aliases         []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Notes           string   `json:"notes,omitempty" yaml:"notes,omitempty"`
}

func (e LocationEntry) Point() GeoPoint { return GeoPoint{Lat: e.Lat, Lon: e.Lon} }

// TimelineItem is one (time-range, activity, details) triple pre-parsed from
// tabular content in the source text.
type TimelineItem struct {
	Time     string `json:"time"`
	Activity string `json:"activity,omitempty"`
	Details  string `json:"details,omitempty"`
}

// DaySection is one day of the trip: parsed input plus the engine's resolved
// state and audit trails.
type DaySection struct {
	Index             int            `json:"index"`
	Title             string         `json:"title"`
	Theme             Theme          `json:"theme"`
	Lines             []string       `json:"lines,omitempty"`
	Timeline          []TimelineItem `json:"timeline,omitempty"`
	Locations         []string       `json:"locations"`
	RemovedDuplicates []string       `json:"removedDuplicates,omitempty"`
	AddedEssentials   []string       `json:"addedEssentials,omitempty"`
}

// SegmentType tags what a scheduled block of time is for.
type SegmentType string

const (
	SegmentVisit     SegmentType = "visit"
	SegmentTransfer  SegmentType = "transfer"
	SegmentMeal      SegmentType = "meal"
	SegmentBuffer    SegmentType = "buffer"
	SegmentTransport SegmentType = "transport"
)

// Segment is one scheduled block. Start/End are minutes from midnight.
type Segment struct {
	Start    int         `json:"start"`
	End      int         `json:"end"`
	Title    string      `json:"title"`
	Location string      `json:"location"`
	Details  string      `json:"details,omitempty"`
	Type     SegmentType `json:"type"`
}

// ScheduledDay pairs a day section with its synthesized segments and the
// time window the scheduler worked within.
type ScheduledDay struct {
	Section  DaySection `json:"section"`
	Segments []Segment  `json:"segments"`
	StartMin int        `json:"startMin"`
	EndMin   int        `json:"endMin"`
}

// Plan is a stored optimization run.
type Plan struct {
	ID        string         `json:"id"`
	TenantID  string         `json:"tenantId"`
	Title     string         `json:"title,omitempty"`
	Status    string         `json:"status"`
	Days      []ScheduledDay `json:"days"`
	Summary   *PlanSummary   `json:"summary,omitempty"`
	CreatedAt string         `json:"createdAt,omitempty"`
}

// DayInput is a pre-parsed day supplied directly by an API caller.
type DayInput struct {
	Title    string         `json:"title"`
	Theme    Theme          `json:"theme,omitempty"`
	Lines    []string       `json:"lines,omitempty"`
	Timeline []TimelineItem `json:"timeline,omitempty"`
}

// PlanRequest creates and optimizes a plan. Either Text (raw document) or
// Days must be set.
type PlanRequest struct {
	TenantID string     `json:"tenantId,omitempty"`
	Title    string     `json:"title,omitempty"`
	Text     string     `json:"text,omitempty"`
	Days     []DayInput `json:"days,omitempty"`
	Improve  bool       `json:"improve,omitempty"`
}

// DayChanges is the per-day audit block of a plan summary.
type DayChanges struct {
	RemovedDuplicates []string `json:"removedDuplicates"`
	AddedEssentials   []string `json:"addedEssentials"`
	Locations         []string `json:"locations"`
}

// PlanSummary is the machine-readable outcome map keyed by day title.
type PlanSummary struct {
	OutputDocument string                `json:"outputDocument,omitempty"`
	Maps           map[int]string        `json:"maps,omitempty"`
	Changes        map[string]DayChanges `json:"changes"`
}

type SubscriptionRequest struct {
	TenantID string   `json:"tenantId"`
	URL      string   `json:"url"`
	Events   []string `json:"events"`
	Secret   string   `json:"secret"`
}

type Subscription struct {
	ID       string   `json:"id"`
	TenantID string   `json:"tenantId"`
	URL      string   `json:"url"`
	Events   []string `json:"events"`
	Secret   string   `json:"secret,omitempty"`
}
