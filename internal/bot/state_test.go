package bot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazhate/taqvim/internal/domain"
)

func TestChatStateLocale(t *testing.T) {
	s := newChatState(domain.LocaleFA)
	assert.Equal(t, domain.LocaleFA, s.locale(1))

	require.NoError(t, s.setLocale(1, domain.LocaleEN))
	assert.Equal(t, domain.LocaleEN, s.locale(1))
	assert.Equal(t, domain.LocaleFA, s.locale(2))
}

func TestChatStateLocation(t *testing.T) {
	s := newChatState(domain.LocaleFA)
	assert.Nil(t, s.location(1))

	require.NoError(t, s.setLocation(1, domain.LatLng{Lat: 35.7, Lng: 51.4}))
	loc := s.location(1)
	require.NotNil(t, loc)
	assert.InDelta(t, 35.7, loc.Lat, 1e-9)
}

func TestSelectionDropsStaleInsight(t *testing.T) {
	s := newChatState(domain.LocaleFA)

	first := s.selectDay(1)
	second := s.selectDay(1)
	other := s.selectDay(2)

	assert.False(t, s.isLatest(1, first))
	assert.True(t, s.isLatest(1, second))
	assert.True(t, s.isLatest(2, other))
}

type memoryPrefs struct {
	saved   []*domain.ChatPreference
	locales map[int64]domain.Locale
	fail    bool
}

func (m *memoryPrefs) ListPreferences() ([]*domain.ChatPreference, error) {
	if m.fail {
		return nil, errors.New("database is locked")
	}
	return m.saved, nil
}

func (m *memoryPrefs) SaveLocale(chatID int64, l domain.Locale) error {
	m.locales[chatID] = l
	return nil
}

func (m *memoryPrefs) SaveLocation(int64, domain.LatLng) error { return nil }

func TestChatStateRestore(t *testing.T) {
	store := &memoryPrefs{
		saved: []*domain.ChatPreference{
			{ChatID: 1, Locale: domain.LocaleEN},
			{ChatID: 2, Location: &domain.LatLng{Lat: 32.6, Lng: 51.7}},
		},
		locales: map[int64]domain.Locale{},
	}
	s := newChatState(domain.LocaleFA)

	n, err := s.restore(store)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, domain.LocaleEN, s.locale(1))
	assert.Equal(t, domain.LocaleFA, s.locale(2), "empty saved locale falls back to default")
	require.NotNil(t, s.location(2))
	assert.Nil(t, s.location(1))

	require.NoError(t, s.setLocale(3, domain.LocaleEN))
	assert.Equal(t, domain.LocaleEN, store.locales[3])
}

func TestChatStateRestoreError(t *testing.T) {
	s := newChatState(domain.LocaleFA)
	_, err := s.restore(&memoryPrefs{fail: true})
	assert.Error(t, err)

	// store stays detached
	assert.NoError(t, s.setLocale(1, domain.LocaleEN))
}
