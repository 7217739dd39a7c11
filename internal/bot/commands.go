package bot

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tazhate/taqvim/internal/domain"
	"github.com/tazhate/taqvim/internal/export"
	"github.com/tazhate/taqvim/internal/jalali"
	"github.com/tazhate/taqvim/internal/service"
)

const upcomingCount = 3

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	l := b.chats.locale(chatID)

	switch cmd {
	case "start":
		b.cmdStart(msg, l)
	case "help":
		b.cmdHelp(chatID, l)
	case "today":
		b.cmdToday(chatID, l)
	case "month":
		b.cmdMonth(chatID, args, l)
	case "events":
		b.cmdEvents(chatID, l)
	case "insight":
		b.cmdInsight(chatID, args, l)
	case "ics":
		b.cmdICS(chatID, args, l)
	case "season":
		b.cmdSeason(chatID, l)
	case "lang":
		b.cmdLang(chatID, args)
	default:
		b.SendMessage(chatID, tr(l, "دستور ناشناخته. /help را ببینید", "Unknown command. See /help"))
	}
}

func (b *Bot) cmdStart(msg *tgbotapi.Message, l domain.Locale) {
	name := html.EscapeString(msg.From.FirstName)
	text := tr(l,
		fmt.Sprintf("👋 درود %s!\n\nتقویم پارسی با مناسبت‌های ملی و کلیسایی.\n\n/help — فهرست دستورها", name),
		fmt.Sprintf("👋 Hello %s!\n\nA Persian calendar with national and church feasts.\n\n/help for the command list", name),
	)
	b.SendMessageWithKeyboard(msg.Chat.ID, text, langKeyboard())
}

func (b *Bot) cmdHelp(chatID int64, l domain.Locale) {
	text := tr(l, `<b>دستورها:</b>

/today — امروز و مناسبت‌ها
/month [سال ماه] — تقویم ماه
/events — همه مناسبت‌ها
/insight [مقصد] — بینش و دعای روز
/ics ماه روز — فایل تقویم مناسبت
/season — فصل جاری
/lang — تغییر زبان

📍 موقعیت خود را بفرستید تا پیشنهاد مسیر دریافت کنید`,
		`<b>Commands:</b>

/today — today and its events
/month [year month] — month view
/events — all events
/insight [destination] — daily insight and prayer
/ics month day — calendar file for an event
/season — current season
/lang — switch language

📍 Share your location to get travel suggestions`)

	b.SendMessage(chatID, text)
}

func (b *Bot) cmdToday(chatID int64, l domain.Locale) {
	v, err := b.calendarService.Today(b.calendarService.Now(), l)
	if err != nil {
		b.sendError(chatID, err, l)
		return
	}

	text := b.calendarService.FormatDay(v, l)
	if upcoming := b.calendarService.FormatUpcoming(b.calendarService.Upcoming(v.Date, upcomingCount), l); upcoming != "" {
		text += "\n" + upcoming
	}
	b.SendMessageWithKeyboard(chatID, text, dayKeyboard(v, googleLinks(v), l))
}

func (b *Bot) cmdMonth(chatID int64, args string, l domain.Locale) {
	now := b.calendarService.Now()

	year, month, err := parseYearMonth(args)
	if err != nil {
		b.SendMessage(chatID, tr(l, "مثال: /month 1403 10", "Usage: /month 1403 10"))
		return
	}
	if year == 0 {
		today, err := b.calendarService.Today(now, l)
		if err != nil {
			b.sendError(chatID, err, l)
			return
		}
		year, month = today.Date.Year, today.Date.Month
	}

	v, err := b.calendarService.Month(year, month, now, l)
	if err != nil {
		b.sendError(chatID, err, l)
		return
	}
	b.SendMessageWithKeyboard(chatID, b.monthText(v, l), monthKeyboard(v, l))
}

func (b *Bot) monthText(v service.MonthView, l domain.Locale) string {
	text := "<b>" + b.calendarService.FormatMonthTitle(v, l) + "</b>"
	if len(v.Events) > 0 {
		text += "\n\n" + b.calendarService.FormatEventList(v.Events, l)
	}
	return text
}

func (b *Bot) cmdEvents(chatID int64, l domain.Locale) {
	all := b.calendarService.Catalog().All()
	text := "✨ <b>" + tr(l, "مناسبت‌ها", "Events") + "</b>\n\n" + b.calendarService.FormatEventList(all, l)
	b.SendMessage(chatID, text)
}

func (b *Bot) cmdInsight(chatID int64, destination string, l domain.Locale) {
	if !b.insightService.IsConfigured() {
		b.SendMessage(chatID, tr(l, "بینش روز فعال نیست", "Daily insight is not configured"))
		return
	}

	v, err := b.calendarService.Today(b.calendarService.Now(), l)
	if err != nil {
		b.sendError(chatID, err, l)
		return
	}

	token := b.chats.selectDay(chatID)
	b.deliverInsight(chatID, token, b.insightRequest(chatID, v, destination), l)
}

func (b *Bot) cmdICS(chatID int64, args string, l domain.Locale) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		b.SendMessage(chatID, tr(l, "مثال: /ics 9 30", "Usage: /ics 9 30"))
		return
	}
	month, err1 := strconv.Atoi(fields[0])
	day, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		b.SendMessage(chatID, tr(l, "مثال: /ics 9 30", "Usage: /ics 9 30"))
		return
	}

	evs := b.calendarService.Catalog().EventsOn(month, day)
	if len(evs) == 0 {
		b.SendMessage(chatID, tr(l, "در این روز مناسبتی نیست", "No events on that day"))
		return
	}
	b.sendICS(chatID, evs, 0, l)
}

// icsFile is an .ics attachment with a caption of Google Calendar links
type icsFile struct {
	name    string
	data    bytes.Buffer
	caption string
}

// buildICS exports evs in the given Jalali year, or at their next
// occurrence when year is 0.
func (b *Bot) buildICS(evs []domain.CalendarEvent, year int, l domain.Locale) (*icsFile, error) {
	now := b.calendarService.Now()

	f := &icsFile{name: export.Filename(evs[0])}
	if len(evs) > 1 {
		f.name = fmt.Sprintf("taqvim-%02d-%02d.ics", evs[0].Month, evs[0].Day)
	}

	occs := make([]export.Occurrence, 0, len(evs))
	var caption strings.Builder
	for _, ev := range evs {
		var occ export.Occurrence
		var err error
		if year != 0 {
			occ, err = b.calendarService.Occurrence(year, ev, false)
		} else {
			occ, err = b.calendarService.NextOccurrence(ev, now)
		}
		if err != nil {
			return nil, err
		}
		occs = append(occs, occ)
		caption.WriteString(fmt.Sprintf("%s <a href=\"%s\">%s</a>\n",
			ev.TypeEmoji(), html.EscapeString(export.GoogleCalendarLink(ev, occ.Start)), html.EscapeString(ev.LocalTitle(l))))
	}
	f.caption = caption.String()

	if err := export.EncodeICS(&f.data, "Taqvim", occs); err != nil {
		return nil, fmt.Errorf("encode ics: %w", err)
	}
	return f, nil
}

func (b *Bot) sendICS(chatID int64, evs []domain.CalendarEvent, year int, l domain.Locale) {
	f, err := b.buildICS(evs, year, l)
	if err != nil {
		b.log.Errorw("Failed to build ICS", "chat_id", chatID, "error", err)
		b.sendError(chatID, err, l)
		return
	}
	if err := b.SendDocument(chatID, f.name, &f.data, f.caption); err != nil {
		b.log.Errorw("Failed to send ICS", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) cmdSeason(chatID int64, l domain.Locale) {
	v, err := b.calendarService.Today(b.calendarService.Now(), l)
	if err != nil {
		b.sendError(chatID, err, l)
		return
	}

	first := (v.Date.Month-1)/3*3 + 1
	var months []string
	for m := first; m < first+3; m++ {
		name, _ := jalali.MonthName(m, l)
		months = append(months, name)
	}

	text := fmt.Sprintf("%s <b>%s</b>\n%s", v.Season.Emoji(), v.Season.Name(l), strings.Join(months, " · "))
	b.SendMessage(chatID, text)
}

func (b *Bot) cmdLang(chatID int64, args string) {
	switch strings.ToLower(args) {
	case string(domain.LocaleFA), string(domain.LocaleEN):
		l := domain.ParseLocale(strings.ToLower(args))
		if err := b.chats.setLocale(chatID, l); err != nil {
			b.log.Warnw("Failed to persist locale", "chat_id", chatID, "error", err)
		}
		b.SendMessage(chatID, tr(l, "زبان: فارسی", "Language: English"))
	default:
		b.SendMessageWithKeyboard(chatID, "🌐 زبان · Language", langKeyboard())
	}
}

// parseYearMonth accepts "" (current month) or "year month"
func parseYearMonth(args string) (int, int, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return 0, 0, nil
	}
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("want year and month, got %q", args)
	}
	year, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad year %q", fields[0])
	}
	month, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad month %q", fields[1])
	}
	if year < 1 {
		return 0, 0, fmt.Errorf("bad year %d", year)
	}
	return year, month, nil
}

func googleLinks(v service.DayView) []string {
	links := make([]string, len(v.Events))
	for i, ev := range v.Events {
		links[i] = export.GoogleCalendarLink(ev, v.Gregorian)
	}
	return links
}

// sendError reports calendar errors in the chat's language
func (b *Bot) sendError(chatID int64, err error, l domain.Locale) {
	var text string
	switch {
	case errors.Is(err, jalali.ErrInvalidMonth):
		text = tr(l, "ماه باید بین ۱ تا ۱۲ باشد", "Month must be between 1 and 12")
	case errors.Is(err, jalali.ErrInvalidDay):
		text = tr(l, "این روز در این ماه وجود ندارد", "That day does not exist in this month")
	case errors.Is(err, jalali.ErrOutOfRange):
		text = tr(l, "تاریخ خارج از محدوده است", "Date is out of range")
	default:
		b.log.Errorw("Calendar error", "chat_id", chatID, "error", err)
		text = tr(l, "❌ خطا در محاسبه تاریخ", "❌ Date calculation failed")
	}
	b.SendMessage(chatID, text)
}
