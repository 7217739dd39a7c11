package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tazhate/taqvim/internal/domain"
	"github.com/tazhate/taqvim/internal/service"
)

const insightTimeout = 90 * time.Second

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message != nil {
		b.handleMessage(update.Message)
	} else if update.CallbackQuery != nil {
		b.handleCallback(update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	chatID := msg.Chat.ID
	l := b.chats.locale(chatID)

	if !b.cfg.IsAllowedUser(msg.From.ID) {
		b.SendMessage(chatID, tr(l, "⛔ دسترسی ندارید", "⛔ Access denied"))
		return
	}

	if msg.Location != nil {
		loc := domain.LatLng{Lat: msg.Location.Latitude, Lng: msg.Location.Longitude}
		if err := b.chats.setLocation(chatID, loc); err != nil {
			b.log.Warnw("Failed to persist location", "chat_id", chatID, "error", err)
		}
		b.SendMessage(chatID, tr(l,
			"📍 موقعیت ذخیره شد. با /insight مقصد را بنویسید، مثلاً /insight کلیسای سرکیس",
			"📍 Location saved. Send /insight with a destination, e.g. /insight Saint Sarkis Cathedral"))
		return
	}

	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}

	b.cmdHelp(chatID, l)
}

func (b *Bot) handleCallback(cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil {
		return
	}
	chatID := cq.Message.Chat.ID
	msgID := cq.Message.MessageID
	l := b.chats.locale(chatID)

	if !b.cfg.IsAllowedUser(cq.From.ID) {
		b.answerCallback(cq.ID, tr(l, "⛔ دسترسی ندارید", "⛔ Access denied"))
		return
	}

	cb, err := parseCallback(cq.Data)
	if err != nil {
		b.log.Warnw("Unknown callback", "data", cq.Data, "error", err)
		b.answerCallback(cq.ID, "")
		return
	}

	switch cb.action {
	case noop:
		b.answerCallback(cq.ID, "")

	case "lang":
		l = domain.ParseLocale(cb.arg)
		if err := b.chats.setLocale(chatID, l); err != nil {
			b.log.Warnw("Failed to persist locale", "chat_id", chatID, "error", err)
		}
		b.answerCallback(cq.ID, tr(l, "فارسی", "English"))
		b.editMessage(chatID, msgID, tr(l, "زبان: فارسی", "Language: English"), nil)

	case "nav":
		b.answerCallback(cq.ID, "")
		now := b.calendarService.Now()
		year, month := cb.nums[0], cb.nums[1]
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
		kb := monthKeyboard(v, l)
		b.editMessage(chatID, msgID, b.monthText(v, l), &kb)

	case "day":
		b.answerCallback(cq.ID, "")
		v, err := b.calendarService.Day(cb.nums[0], cb.nums[1], cb.nums[2], l)
		if err != nil {
			b.sendError(chatID, err, l)
			return
		}
		token := b.chats.selectDay(chatID)
		kb := dayKeyboard(v, googleLinks(v), l)
		b.editMessage(chatID, msgID, b.calendarService.FormatDay(v, l), &kb)

		if b.insightService.IsConfigured() {
			b.deliverInsight(chatID, token, b.insightRequest(chatID, v, ""), l)
		}

	case "insight":
		if !b.insightService.IsConfigured() {
			b.answerCallback(cq.ID, tr(l, "بینش روز فعال نیست", "Daily insight is not configured"))
			return
		}
		b.answerCallback(cq.ID, "🕊")
		v, err := b.calendarService.Day(cb.nums[0], cb.nums[1], cb.nums[2], l)
		if err != nil {
			b.sendError(chatID, err, l)
			return
		}
		token := b.chats.selectDay(chatID)
		b.deliverInsight(chatID, token, b.insightRequest(chatID, v, ""), l)

	case "ics":
		b.answerCallback(cq.ID, "📥")
		evs := b.calendarService.Catalog().EventsOn(cb.nums[1], cb.nums[2])
		if i := cb.nums[3]; i >= 0 && i < len(evs) {
			b.sendICS(chatID, evs[i:i+1], cb.nums[0], l)
		}
	}
}

func (b *Bot) insightRequest(chatID int64, v service.DayView, destination string) service.InsightRequest {
	return service.InsightRequest{
		Date:         v.Date,
		Gregorian:    v.Gregorian,
		UserLocation: b.chats.location(chatID),
		Destination:  destination,
	}
}

// deliverInsight fetches the insight for a selection and sends it unless
// the chat has selected another day in the meantime.
func (b *Bot) deliverInsight(chatID int64, token uint64, req service.InsightRequest, l domain.Locale) {
	b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))

	ctx, cancel := context.WithTimeout(context.Background(), insightTimeout)
	defer cancel()

	ins, err := b.insightService.DailyInsight(ctx, req)
	if err != nil {
		b.log.Warnw("Insight failed", "chat_id", chatID, "date", req.Date.String(), "error", err)
		return
	}

	if !b.chats.isLatest(chatID, token) {
		b.log.Debugw("Dropping stale insight", "chat_id", chatID, "date", req.Date.String())
		return
	}

	if err := b.SendMessage(chatID, formatInsight(ins, l)); err != nil {
		b.log.Errorw("Failed to send insight", "chat_id", chatID, "error", err)
	}
}
