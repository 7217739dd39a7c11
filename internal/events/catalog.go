// Package events holds the static catalog of recurring Jalali events.
package events

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/tazhate/taqvim/internal/domain"
)

// Catalog is a read-only index of events by Jalali (month, day)
type Catalog struct {
	all   []domain.CalendarEvent
	byDay map[[2]int][]int
}

// NewCatalog validates and indexes events, keeping their given order per day
func NewCatalog(list []domain.CalendarEvent) (*Catalog, error) {
	c := &Catalog{
		all:   make([]domain.CalendarEvent, 0, len(list)),
		byDay: make(map[[2]int][]int),
	}
	for i, ev := range list {
		if ev.Month < 1 || ev.Month > 12 {
			return nil, fmt.Errorf("event %d (%s): invalid month %d", i, ev.TitleEn, ev.Month)
		}
		if ev.Day < 1 || ev.Day > 31 || (ev.Month > 6 && ev.Day > 30) {
			return nil, fmt.Errorf("event %d (%s): invalid day %d/%d", i, ev.TitleEn, ev.Month, ev.Day)
		}
		key := [2]int{ev.Month, ev.Day}
		c.byDay[key] = append(c.byDay[key], len(c.all))
		c.all = append(c.all, ev)
	}
	return c, nil
}

// LoadFile reads a JSON array of events and appends them to the defaults
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read events file: %w", err)
	}
	var extra []domain.CalendarEvent
	if err := json.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("parse events file: %w", err)
	}
	return NewCatalog(append(DefaultEvents(), extra...))
}

// EventsOn returns a copy of the events on a Jalali month/day
func (c *Catalog) EventsOn(month, day int) []domain.CalendarEvent {
	idx := c.byDay[[2]int{month, day}]
	if len(idx) == 0 {
		return nil
	}
	out := make([]domain.CalendarEvent, len(idx))
	for i, j := range idx {
		out[i] = c.all[j]
	}
	return out
}

// IsHoliday reports whether any event on the day is a holiday
func (c *Catalog) IsHoliday(month, day int) bool {
	for _, j := range c.byDay[[2]int{month, day}] {
		if c.all[j].IsHoliday() {
			return true
		}
	}
	return false
}

// All returns every event sorted by month and day
func (c *Catalog) All() []domain.CalendarEvent {
	out := make([]domain.CalendarEvent, len(c.all))
	copy(out, c.all)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].Day < out[j].Day
	})
	return out
}

// InMonth returns the events of a Jalali month sorted by day
func (c *Catalog) InMonth(month int) []domain.CalendarEvent {
	var out []domain.CalendarEvent
	for _, ev := range c.All() {
		if ev.Month == month {
			out = append(out, ev)
		}
	}
	return out
}

// Upcoming returns up to n events on or after month/day, wrapping past
// the end of the year.
func (c *Catalog) Upcoming(month, day, n int) []domain.CalendarEvent {
	sorted := c.All()
	if n <= 0 || len(sorted) == 0 {
		return nil
	}

	start := sort.Search(len(sorted), func(i int) bool {
		ev := sorted[i]
		return ev.Month > month || (ev.Month == month && ev.Day >= day)
	})

	if n > len(sorted) {
		n = len(sorted)
	}
	out := make([]domain.CalendarEvent, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, sorted[(start+i)%len(sorted)])
	}
	return out
}

// Find returns the first event whose English or Persian title matches
func (c *Catalog) Find(title string) (domain.CalendarEvent, bool) {
	for _, ev := range c.all {
		if ev.TitleEn == title || ev.Title == title {
			return ev, true
		}
	}
	return domain.CalendarEvent{}, false
}

// Len returns the number of events
func (c *Catalog) Len() int {
	return len(c.all)
}
