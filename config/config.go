package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/tazhate/taqvim/internal/domain"
)

type Config struct {
	TelegramToken     string
	OwnerTelegramID   int64
	PartnerTelegramID int64
	DatabasePath      string
	Timezone          *time.Location
	MorningTime       string
	WebhookURL        string
	ServerPort        string

	// REST API (disabled without credentials)
	APIUsername string
	APIPassword string

	// Calendar
	Locale     domain.Locale
	RestDay    time.Weekday
	Converter  string
	EventsFile string

	// Gemini daily insight
	GeminiAPIKey string
	GeminiModel  string

	// CalDAV sync
	CalDAVURL      string
	CalDAVUsername string
	CalDAVPassword string
	CalDAVCalendar string
	CalDAVSyncTime string

	LogLevel  string
	LogFormat string
	LogFile   string
}

// Load reads the configuration from the environment, after merging a .env
// file from the working directory if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	ownerID, err := strconv.ParseInt(os.Getenv("OWNER_TELEGRAM_ID"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("OWNER_TELEGRAM_ID is required and must be a number")
	}

	var partnerID int64
	if p := os.Getenv("PARTNER_TELEGRAM_ID"); p != "" {
		partnerID, err = strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("PARTNER_TELEGRAM_ID must be a number")
		}
	}

	tz, err := time.LoadLocation(getEnv("TIMEZONE", "Asia/Tehran"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	morningTime := getEnv("MORNING_TIME", "08:00")
	if _, err := DailySpec(morningTime); err != nil {
		return nil, fmt.Errorf("invalid MORNING_TIME: %w", err)
	}

	syncTime := os.Getenv("CALDAV_SYNC_TIME")
	if syncTime != "" {
		if _, err := DailySpec(syncTime); err != nil {
			return nil, fmt.Errorf("invalid CALDAV_SYNC_TIME: %w", err)
		}
	}

	restDay, err := ParseWeekday(getEnv("REST_WEEKDAY", "sunday"))
	if err != nil {
		return nil, fmt.Errorf("invalid REST_WEEKDAY: %w", err)
	}

	converter := strings.ToLower(getEnv("CONVERTER", "arithmetic"))
	if converter != "arithmetic" && converter != "ptime" {
		return nil, fmt.Errorf("invalid CONVERTER %q: want arithmetic or ptime", converter)
	}

	return &Config{
		TelegramToken:     token,
		OwnerTelegramID:   ownerID,
		PartnerTelegramID: partnerID,
		DatabasePath:      getEnv("DATABASE_PATH", "./data/taqvim.db"),
		Timezone:          tz,
		MorningTime:       morningTime,
		WebhookURL:        strings.TrimSuffix(os.Getenv("WEBHOOK_URL"), "/"),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		APIUsername:       os.Getenv("API_USERNAME"),
		APIPassword:       os.Getenv("API_PASSWORD"),
		Locale:            domain.ParseLocale(strings.ToLower(os.Getenv("LOCALE"))),
		RestDay:           restDay,
		Converter:         converter,
		EventsFile:        os.Getenv("EVENTS_FILE"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       os.Getenv("GEMINI_MODEL"),
		CalDAVURL:         os.Getenv("CALDAV_URL"),
		CalDAVUsername:    os.Getenv("CALDAV_USERNAME"),
		CalDAVPassword:    os.Getenv("CALDAV_PASSWORD"),
		CalDAVCalendar:    os.Getenv("CALDAV_CALENDAR"),
		CalDAVSyncTime:    syncTime,
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "console"),
		LogFile:           os.Getenv("LOG_FILE"),
	}, nil
}

func (c *Config) IsAllowedUser(telegramID int64) bool {
	return telegramID == c.OwnerTelegramID || (c.PartnerTelegramID != 0 && telegramID == c.PartnerTelegramID)
}

// APIEnabled returns true if REST API credentials are set
func (c *Config) APIEnabled() bool {
	return c.APIUsername != "" && c.APIPassword != ""
}

// DailySpec turns "HH:MM" into a standard cron spec firing once a day
func DailySpec(hhmm string) (string, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return "", fmt.Errorf("want HH:MM, got %q", hhmm)
	}
	spec := fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour())
	if _, err := cron.ParseStandard(spec); err != nil {
		return "", err
	}
	return spec, nil
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday accepts an English weekday name or 0-6 with Sunday as 0
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if wd, ok := weekdays[s]; ok {
		return wd, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 6 {
		return 0, fmt.Errorf("unknown weekday %q", s)
	}
	return time.Weekday(n), nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
