package bot

import (
	"sync"

	"github.com/tazhate/taqvim/internal/domain"
)

// PreferenceStore persists what chats chose so it survives a restart
type PreferenceStore interface {
	ListPreferences() ([]*domain.ChatPreference, error)
	SaveLocale(chatID int64, l domain.Locale) error
	SaveLocation(chatID int64, loc domain.LatLng) error
}

// chatState keeps per-chat preferences in memory, written through to the
// store when one is attached. Selections are never persisted.
type chatState struct {
	mu        sync.Mutex
	store     PreferenceStore
	def       domain.Locale
	locales   map[int64]domain.Locale
	locations map[int64]domain.LatLng
	selection map[int64]uint64
}

func newChatState(def domain.Locale) *chatState {
	return &chatState{
		def:       def,
		locales:   make(map[int64]domain.Locale),
		locations: make(map[int64]domain.LatLng),
		selection: make(map[int64]uint64),
	}
}

// restore loads saved preferences and attaches the store for later writes
func (s *chatState) restore(store PreferenceStore) (int, error) {
	prefs, err := store.ListPreferences()
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = store
	for _, p := range prefs {
		if p.Locale != "" {
			s.locales[p.ChatID] = p.Locale
		}
		if p.Location != nil {
			s.locations[p.ChatID] = *p.Location
		}
	}
	return len(prefs), nil
}

func (s *chatState) locale(chatID int64) domain.Locale {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locales[chatID]; ok {
		return l
	}
	return s.def
}

func (s *chatState) setLocale(chatID int64, l domain.Locale) error {
	s.mu.Lock()
	s.locales[chatID] = l
	store := s.store
	s.mu.Unlock()

	if store == nil {
		return nil
	}
	return store.SaveLocale(chatID, l)
}

func (s *chatState) location(chatID int64) *domain.LatLng {
	s.mu.Lock()
	defer s.mu.Unlock()
	if loc, ok := s.locations[chatID]; ok {
		return &loc
	}
	return nil
}

func (s *chatState) setLocation(chatID int64, loc domain.LatLng) error {
	s.mu.Lock()
	s.locations[chatID] = loc
	store := s.store
	s.mu.Unlock()

	if store == nil {
		return nil
	}
	return store.SaveLocation(chatID, loc)
}

// selectDay records a new day selection and returns its token. An insight
// started for an older token must not be delivered.
func (s *chatState) selectDay(chatID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection[chatID]++
	return s.selection[chatID]
}

func (s *chatState) isLatest(chatID int64, token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection[chatID] == token
}
