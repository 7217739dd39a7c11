package events

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazhate/taqvim/internal/domain"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	assert.Equal(t, 9, c.Len())

	// Tirgan and St. Thaddeus share 10 Tir
	tir10 := c.EventsOn(4, 10)
	require.Len(t, tir10, 2)
	assert.Equal(t, "Tirgan Festival", tir10[0].TitleEn)
	assert.Equal(t, "Feast of St. Thaddeus", tir10[1].TitleEn)

	assert.Empty(t, c.EventsOn(2, 2))
	assert.True(t, c.IsHoliday(10, 4))
	assert.False(t, c.IsHoliday(1, 1))

	xmas, ok := c.Find("Christmas Day (Western)")
	require.True(t, ok)
	require.NotNil(t, xmas.Coords)
	assert.InDelta(t, 35.7036, xmas.Coords.Lat, 1e-9)
}

func TestEventsOnReturnsCopy(t *testing.T) {
	c := Default()
	got := c.EventsOn(1, 1)
	got[0].TitleEn = "changed"

	assert.Equal(t, "Nowruz Festival", c.EventsOn(1, 1)[0].TitleEn)
}

func TestAllIsSorted(t *testing.T) {
	all := Default().All()
	for i := 1; i < len(all); i++ {
		prev, cur := all[i-1], all[i]
		assert.True(t, prev.Month < cur.Month || (prev.Month == cur.Month && prev.Day <= cur.Day),
			"%d/%d before %d/%d", prev.Month, prev.Day, cur.Month, cur.Day)
	}
}

func TestUpcoming(t *testing.T) {
	c := Default()

	next := c.Upcoming(9, 30, 2)
	require.Len(t, next, 2)
	assert.Equal(t, "Yalda Night", next[0].TitleEn)
	assert.Equal(t, "Christmas Day (Western)", next[1].TitleEn)

	// Wraps into the next year
	wrapped := c.Upcoming(11, 1, 2)
	require.Len(t, wrapped, 2)
	assert.Equal(t, "Nowruz Festival", wrapped[0].TitleEn)
	assert.Equal(t, "Christmas (Orthodox)", wrapped[1].TitleEn)

	assert.Len(t, c.Upcoming(1, 1, 100), c.Len())
	assert.Nil(t, c.Upcoming(1, 1, 0))
}

func TestInMonth(t *testing.T) {
	farvardin := Default().InMonth(1)
	require.Len(t, farvardin, 3)
	assert.Equal(t, []int{1, 7, 13}, []int{farvardin[0].Day, farvardin[1].Day, farvardin[2].Day})
}

func TestNewCatalogValidation(t *testing.T) {
	_, err := NewCatalog([]domain.CalendarEvent{{Month: 13, Day: 1, TitleEn: "bad"}})
	assert.Error(t, err)

	_, err = NewCatalog([]domain.CalendarEvent{{Month: 7, Day: 31, TitleEn: "bad"}})
	assert.Error(t, err)

	_, err = NewCatalog([]domain.CalendarEvent{{Month: 6, Day: 31, TitleEn: "ok"}})
	assert.NoError(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	data := `[{"month": 2, "day": 2, "title": "تولد", "title_en": "Birthday", "type": "cultural"}]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 10, c.Len())

	got := c.EventsOn(2, 2)
	require.Len(t, got, 1)
	assert.Equal(t, "Birthday", got[0].TitleEn)
	assert.Equal(t, domain.EventCultural, got[0].Type)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
