package jalali

import "github.com/tazhate/taqvim/internal/domain"

type Season string

const (
	Spring Season = "SPRING"
	Summer Season = "SUMMER"
	Autumn Season = "AUTUMN"
	Winter Season = "WINTER"
)

// SeasonOf classifies a Jalali month into its season, three months each
func SeasonOf(month int) (Season, error) {
	switch {
	case month >= 1 && month <= 3:
		return Spring, nil
	case month >= 4 && month <= 6:
		return Summer, nil
	case month >= 7 && month <= 9:
		return Autumn, nil
	case month >= 10 && month <= 12:
		return Winter, nil
	}
	return "", invalidMonth(month)
}

// Name returns the localized season name
func (s Season) Name(l domain.Locale) string {
	if l == domain.LocaleEN {
		switch s {
		case Spring:
			return "Spring"
		case Summer:
			return "Summer"
		case Autumn:
			return "Autumn"
		case Winter:
			return "Winter"
		}
		return string(s)
	}
	switch s {
	case Spring:
		return "بهار"
	case Summer:
		return "تابستان"
	case Autumn:
		return "پاییز"
	case Winter:
		return "زمستان"
	}
	return string(s)
}

// Emoji returns a seasonal marker used by the bot headers
func (s Season) Emoji() string {
	switch s {
	case Spring:
		return "🌸"
	case Summer:
		return "☀️"
	case Autumn:
		return "🍂"
	case Winter:
		return "❄️"
	}
	return ""
}
