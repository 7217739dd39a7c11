package domain

import "time"

// Locale selects the language of names and texts
type Locale string

const (
	LocaleFA Locale = "fa"
	LocaleEN Locale = "en"
)

// ParseLocale returns LocaleEN for "en" and LocaleFA for anything else
func ParseLocale(s string) Locale {
	if s == string(LocaleEN) {
		return LocaleEN
	}
	return LocaleFA
}

// ChatPreference is what a chat chose with /lang and by sharing a location.
// An empty Locale means the configured default.
type ChatPreference struct {
	ChatID    int64
	Locale    Locale
	Location  *LatLng
	UpdatedAt time.Time
}
