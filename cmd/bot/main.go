package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tazhate/taqvim/config"
	"github.com/tazhate/taqvim/internal/bot"
	"github.com/tazhate/taqvim/internal/clients/caldav"
	"github.com/tazhate/taqvim/internal/clients/gemini"
	"github.com/tazhate/taqvim/internal/events"
	"github.com/tazhate/taqvim/internal/jalali"
	"github.com/tazhate/taqvim/internal/logger"
	"github.com/tazhate/taqvim/internal/metrics"
	"github.com/tazhate/taqvim/internal/scheduler"
	"github.com/tazhate/taqvim/internal/service"
	"github.com/tazhate/taqvim/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logr, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logr.Sync()

	db, err := storage.New(cfg.DatabasePath)
	if err != nil {
		logr.Fatalw("Failed to init storage", "path", cfg.DatabasePath, "error", err)
	}
	defer db.Close()

	m := metrics.New()

	catalog := events.Default()
	if cfg.EventsFile != "" {
		catalog, err = events.LoadFile(cfg.EventsFile)
		if err != nil {
			logr.Fatalw("Failed to load events", "file", cfg.EventsFile, "error", err)
		}
	}
	logr.Infow("Event catalog loaded", "events", catalog.Len())

	conv, err := jalali.NewConverter(cfg.Converter)
	if err != nil {
		logr.Fatalw("Failed to init converter", "error", err)
	}
	engine := jalali.New(conv,
		jalali.WithLocale(cfg.Locale),
		jalali.WithRestDay(cfg.RestDay),
		jalali.WithEvents(catalog),
		jalali.WithSearchObserver(m.ObserveSearch),
	)

	// Services
	calendarSvc := service.NewCalendarService(engine, catalog, cfg.Timezone)

	var generator service.ContentGenerator
	if geminiClient := gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel); geminiClient.IsConfigured() {
		generator = geminiClient
		logr.Infow("Daily insight enabled", "model", geminiClient.Model())
	}
	insightSvc := service.NewInsightService(generator, m, logr)

	var writer service.CalendarWriter
	caldavClient := caldav.NewClient(cfg.CalDAVURL, cfg.CalDAVUsername, cfg.CalDAVPassword)
	caldavClient.SetCalendarPath(cfg.CalDAVCalendar)
	if caldavClient.IsConfigured() {
		writer = caldavClient
		logr.Infow("CalDAV sync enabled", "calendar", caldavClient.CalendarPath())
	}
	syncSvc := service.NewSyncService(calendarSvc, writer, logr)
	if caldavClient.HasCredentials() {
		syncSvc.SetDirectory(caldavClient)
	}

	tgBot, err := bot.New(cfg, calendarSvc, insightSvc, syncSvc, m, logr)
	if err != nil {
		logr.Fatalw("Failed to init bot", "error", err)
	}

	if err := tgBot.SetStore(db); err != nil {
		logr.Fatalw("Failed to restore chats", "error", err)
	}

	if err := tgBot.SetupWebhook(); err != nil {
		logr.Fatalw("Failed to setup webhook", "error", err)
	}

	sched := scheduler.New(cfg, calendarSvc, syncSvc, logr)
	sched.SetSender(tgBot)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := sched.Start(ctx); err != nil {
			logr.Errorw("Scheduler error", "error", err)
		}
	}()

	go func() {
		if err := tgBot.Start(ctx); err != nil {
			logr.Errorw("Bot error", "error", err)
		}
	}()

	logr.Infow("Taqvim started", "tz", cfg.Timezone.String(), "locale", cfg.Locale, "converter", cfg.Converter)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logr.Info("Shutting down...")

	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := tgBot.Stop(shutdownCtx); err != nil {
		logr.Errorw("Error stopping bot", "error", err)
	}

	logr.Info("Taqvim stopped")
}
