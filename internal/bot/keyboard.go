package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tazhate/taqvim/internal/domain"
	"github.com/tazhate/taqvim/internal/jalali"
	"github.com/tazhate/taqvim/internal/service"
)

const noop = "noop"

// callback is a parsed inline button payload, e.g. "day:1403:10:4"
type callback struct {
	action string
	nums   []int
	arg    string
}

// arity of the numeric arguments per action
var callbackArity = map[string]int{
	"nav":     2, // nav:year:month
	"day":     3, // day:year:month:day
	"insight": 3, // insight:year:month:day
	"ics":     4, // ics:year:month:day:index
}

func parseCallback(data string) (callback, error) {
	parts := strings.Split(data, ":")
	cb := callback{action: parts[0]}

	switch cb.action {
	case noop:
		return cb, nil
	case "lang":
		if len(parts) != 2 || (parts[1] != string(domain.LocaleFA) && parts[1] != string(domain.LocaleEN)) {
			return cb, fmt.Errorf("bad callback %q", data)
		}
		cb.arg = parts[1]
		return cb, nil
	}

	n, ok := callbackArity[cb.action]
	if !ok || len(parts) != n+1 {
		return cb, fmt.Errorf("bad callback %q", data)
	}
	for _, p := range parts[1:] {
		v, err := strconv.Atoi(p)
		if err != nil {
			return cb, fmt.Errorf("bad callback %q: %w", data, err)
		}
		cb.nums = append(cb.nums, v)
	}
	return cb, nil
}

// monthKeyboard renders a month view as a 6x7 grid, Saturday first, with
// navigation below it.
func monthKeyboard(v service.MonthView, l domain.Locale) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, 8)

	header := make([]tgbotapi.InlineKeyboardButton, 0, 7)
	for _, h := range v.Headers {
		header = append(header, tgbotapi.NewInlineKeyboardButtonData(h, noop))
	}
	rows = append(rows, header)

	for week := 0; week < jalali.GridCells/7; week++ {
		row := make([]tgbotapi.InlineKeyboardButton, 0, 7)
		for _, c := range v.Cells[week*7 : week*7+7] {
			if !c.IsCurrentMonth {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData("·", noop))
				continue
			}
			data := fmt.Sprintf("day:%d:%d:%d", c.Jalali.Year, c.Jalali.Month, c.Jalali.Day)
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(cellLabel(c, l), data))
		}
		rows = append(rows, row)
	}

	py, pm := jalali.ShiftMonth(v.Year, v.Month, -1)
	ny, nm := jalali.ShiftMonth(v.Year, v.Month, 1)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("◀️", fmt.Sprintf("nav:%d:%d", py, pm)),
		tgbotapi.NewInlineKeyboardButtonData(tr(l, "امروز", "Today"), "nav:0:0"),
		tgbotapi.NewInlineKeyboardButtonData("▶️", fmt.Sprintf("nav:%d:%d", ny, nm)),
	))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func cellLabel(c jalali.DayState, l domain.Locale) string {
	label := localDigits(c.Jalali.Day, l)
	switch {
	case c.IsHoliday:
		label += "*"
	case len(c.Events) > 0:
		label += "•"
	}
	if c.IsToday {
		label = "«" + label + "»"
	}
	return label
}

// dayKeyboard offers ICS download and a Google Calendar link per event,
// then the insight and a way back to the month.
func dayKeyboard(v service.DayView, googleLinks []string, l domain.Locale) tgbotapi.InlineKeyboardMarkup {
	d := v.Date
	var rows [][]tgbotapi.InlineKeyboardButton

	for i, ev := range v.Events {
		row := tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📥 "+truncate(ev.LocalTitle(l), 24), fmt.Sprintf("ics:%d:%d:%d:%d", d.Year, d.Month, d.Day, i)),
		)
		if i < len(googleLinks) && googleLinks[i] != "" {
			row = append(row, tgbotapi.NewInlineKeyboardButtonURL("Google Calendar", googleLinks[i]))
		}
		rows = append(rows, row)
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(tr(l, "🕊 بینش روز", "🕊 Daily insight"), fmt.Sprintf("insight:%d:%d:%d", d.Year, d.Month, d.Day)),
		tgbotapi.NewInlineKeyboardButtonData(tr(l, "🗓 تقویم", "🗓 Month"), fmt.Sprintf("nav:%d:%d", d.Year, d.Month)),
	))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func langKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("فارسی", "lang:fa"),
			tgbotapi.NewInlineKeyboardButtonData("English", "lang:en"),
		),
	)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
