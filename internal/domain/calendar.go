package domain

import "fmt"

// EventType classifies a catalog event
type EventType string

const (
	EventHoliday    EventType = "holiday"
	EventHistorical EventType = "historical"
	EventReligious  EventType = "religious"
	EventCultural   EventType = "cultural"
)

// LatLng is a GPS coordinate used for travel grounding
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CalendarEvent is a recurring event pinned to a Jalali (month, day)
type CalendarEvent struct {
	Month         int       `json:"month"`
	Day           int       `json:"day"`
	Title         string    `json:"title"`
	TitleEn       string    `json:"title_en"`
	Type          EventType `json:"type"`
	Description   string    `json:"description,omitempty"`
	DescriptionEn string    `json:"description_en,omitempty"`
	Narrative     string    `json:"narrative,omitempty"`
	NarrativeEn   string    `json:"narrative_en,omitempty"`
	Location      string    `json:"location,omitempty"`   // Physical address
	LocationEn    string    `json:"location_en,omitempty"`
	Coords        *LatLng   `json:"coords,omitempty"`
}

// IsHoliday returns true if the event marks a day off
func (e *CalendarEvent) IsHoliday() bool {
	return e.Type == EventHoliday
}

// FullTitle returns the bilingual title "Title | TitleEn"
func (e *CalendarEvent) FullTitle() string {
	return fmt.Sprintf("%s | %s", e.Title, e.TitleEn)
}

// LocalTitle returns the title for the given locale
func (e *CalendarEvent) LocalTitle(l Locale) string {
	if l == LocaleEN {
		return e.TitleEn
	}
	return e.Title
}

// LocalDescription returns the description for the given locale
func (e *CalendarEvent) LocalDescription(l Locale) string {
	if l == LocaleEN {
		return e.DescriptionEn
	}
	return e.Description
}

// LocalLocation returns the address for the given locale, falling back to the Persian one
func (e *CalendarEvent) LocalLocation(l Locale) string {
	if l == LocaleEN && e.LocationEn != "" {
		return e.LocationEn
	}
	return e.Location
}

// TypeEmoji returns an emoji marker for the event type
func (e *CalendarEvent) TypeEmoji() string {
	switch e.Type {
	case EventHoliday:
		return "🔴"
	case EventReligious:
		return "✝️"
	case EventHistorical:
		return "📜"
	case EventCultural:
		return "🔥"
	default:
		return "•"
	}
}
