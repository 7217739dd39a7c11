package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/tazhate/taqvim/config"
	"github.com/tazhate/taqvim/internal/domain"
	"github.com/tazhate/taqvim/internal/metrics"
	"github.com/tazhate/taqvim/internal/service"
)

type Bot struct {
	api             *tgbotapi.BotAPI
	cfg             *config.Config
	calendarService *service.CalendarService
	insightService  *service.InsightService
	syncService     *service.SyncService
	metrics         *metrics.Metrics
	log             *zap.SugaredLogger
	chats           *chatState
	server          *http.Server
}

func New(cfg *config.Config, calendarSvc *service.CalendarService, insightSvc *service.InsightService, syncSvc *service.SyncService, m *metrics.Metrics, log *zap.SugaredLogger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Infow("Authorized on Telegram", "username", api.Self.UserName)

	bot := newBot(cfg, calendarSvc, insightSvc, syncSvc, m, log)
	bot.api = api

	// Set bot commands (menu button)
	bot.setCommands()

	return bot, nil
}

// newBot wires everything except the Telegram API
func newBot(cfg *config.Config, calendarSvc *service.CalendarService, insightSvc *service.InsightService, syncSvc *service.SyncService, m *metrics.Metrics, log *zap.SugaredLogger) *Bot {
	return &Bot{
		cfg:             cfg,
		calendarService: calendarSvc,
		insightService:  insightSvc,
		syncService:     syncSvc,
		metrics:         m,
		log:             log,
		chats:           newChatState(cfg.Locale),
	}
}

// SetStore restores saved chat preferences and keeps them persisted
func (b *Bot) SetStore(store PreferenceStore) error {
	n, err := b.chats.restore(store)
	if err != nil {
		return fmt.Errorf("restore chat preferences: %w", err)
	}
	b.log.Infow("Chat preferences restored", "chats", n)
	return nil
}

func (b *Bot) setCommands() {
	commands := []tgbotapi.BotCommand{
		{Command: "today", Description: "📅 امروز · Today"},
		{Command: "month", Description: "🗓 تقویم ماه · Month view"},
		{Command: "events", Description: "✨ مناسبت‌ها · Events"},
		{Command: "insight", Description: "🕊 بینش روز · Daily insight"},
		{Command: "season", Description: "🌸 فصل · Season"},
		{Command: "lang", Description: "🌐 زبان · Language"},
		{Command: "help", Description: "❓ راهنما · Help"},
	}

	cfg := tgbotapi.NewSetMyCommands(commands...)
	if _, err := b.api.Request(cfg); err != nil {
		b.log.Warnw("Failed to set commands", "error", err)
	}
}

// SetupWebhook registers WEBHOOK_URL/bot with Telegram. Without a webhook
// URL the bot falls back to long polling in Start.
func (b *Bot) SetupWebhook() error {
	if b.cfg.WebhookURL == "" {
		if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			return fmt.Errorf("delete webhook: %w", err)
		}
		return nil
	}

	webhookURL := b.cfg.WebhookURL + "/bot"

	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return fmt.Errorf("create webhook: %w", err)
	}

	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}

	info, err := b.api.GetWebhookInfo()
	if err != nil {
		return fmt.Errorf("get webhook info: %w", err)
	}

	if info.LastErrorDate != 0 {
		b.log.Warnw("Webhook last error", "message", info.LastErrorMessage)
	}

	b.log.Infow("Webhook set", "url", webhookURL)
	return nil
}

func (b *Bot) Start(ctx context.Context) error {
	b.server = &http.Server{
		Addr:              ":" + b.cfg.ServerPort,
		Handler:           b.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		b.log.Infow("Starting HTTP server", "port", b.cfg.ServerPort)
		if err := b.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			b.log.Errorw("HTTP server error", "error", err)
		}
	}()

	if b.cfg.WebhookURL != "" {
		<-ctx.Done()
		return nil
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(update)
		}
	}
}

func (b *Bot) Stop(ctx context.Context) error {
	if b.server != nil {
		return b.server.Shutdown(ctx)
	}
	return nil
}

// webhook receives updates pushed by Telegram
func (b *Bot) webhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		b.log.Warnw("Bad webhook update", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	go b.handleUpdate(*update)
}

func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) SendMessageWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = keyboard
	_, err := b.api.Send(msg)
	return err
}

// SendDocument uploads an in-memory file with an HTML caption
func (b *Bot) SendDocument(chatID int64, name string, data *bytes.Buffer, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data.Bytes()})
	doc.Caption = caption
	doc.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(doc)
	return err
}

func (b *Bot) editMessage(chatID int64, msgID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.ReplyMarkup = keyboard
	if _, err := b.api.Send(edit); err != nil {
		b.log.Debugw("Edit message failed", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.log.Debugw("Answer callback failed", "error", err)
	}
}

// LocaleFor returns the language chosen in a chat
func (b *Bot) LocaleFor(chatID int64) domain.Locale {
	return b.chats.locale(chatID)
}
