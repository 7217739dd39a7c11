package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tazhate/taqvim/config"
	"github.com/tazhate/taqvim/internal/domain"
	"github.com/tazhate/taqvim/internal/service"
)

const upcomingInBriefing = 3

type MessageSender interface {
	SendMessage(chatID int64, text string) error
	LocaleFor(chatID int64) domain.Locale
}

type Scheduler struct {
	cron            *cron.Cron
	cfg             *config.Config
	calendarService *service.CalendarService
	syncService     *service.SyncService
	sender          MessageSender
	log             *zap.SugaredLogger
	now             func() time.Time
}

func New(cfg *config.Config, calendarSvc *service.CalendarService, syncSvc *service.SyncService, log *zap.SugaredLogger) *Scheduler {
	c := cron.New(cron.WithLocation(cfg.Timezone))

	return &Scheduler{
		cron:            c,
		cfg:             cfg,
		calendarService: calendarSvc,
		syncService:     syncSvc,
		log:             log,
		now:             calendarSvc.Now,
	}
}

func (s *Scheduler) SetSender(sender MessageSender) {
	s.sender = sender
}

func (s *Scheduler) Start(ctx context.Context) error {
	morningSpec, err := config.DailySpec(s.cfg.MorningTime)
	if err != nil {
		return fmt.Errorf("morning time: %w", err)
	}
	if _, err := s.cron.AddFunc(morningSpec, s.morningBriefing); err != nil {
		return fmt.Errorf("add morning briefing: %w", err)
	}

	if s.cfg.CalDAVSyncTime != "" && s.syncService != nil && s.syncService.IsConfigured() {
		syncSpec, err := config.DailySpec(s.cfg.CalDAVSyncTime)
		if err != nil {
			return fmt.Errorf("sync time: %w", err)
		}
		if _, err := s.cron.AddFunc(syncSpec, func() { s.syncCalendar(ctx) }); err != nil {
			return fmt.Errorf("add calendar sync: %w", err)
		}
	}

	s.cron.Start()
	s.log.Infow("Scheduler started",
		"tz", s.cfg.Timezone.String(),
		"morning", s.cfg.MorningTime,
		"caldav_sync", s.cfg.CalDAVSyncTime,
	)

	<-ctx.Done()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("Scheduler stopped")
}

func (s *Scheduler) morningBriefing() {
	if s.sender == nil {
		return
	}

	s.sendBriefingTo(s.cfg.OwnerTelegramID)
	if s.cfg.PartnerTelegramID != 0 {
		s.sendBriefingTo(s.cfg.PartnerTelegramID)
	}
}

func (s *Scheduler) sendBriefingTo(chatID int64) {
	text, err := s.Briefing(s.sender.LocaleFor(chatID))
	if err != nil {
		s.log.Errorw("Failed to build morning briefing", "chat_id", chatID, "error", err)
		return
	}

	if err := s.sender.SendMessage(chatID, text); err != nil {
		s.log.Errorw("Failed to send morning briefing", "chat_id", chatID, "error", err)
	}
}

// Briefing renders today's Jalali date, season, events and what comes next
func (s *Scheduler) Briefing(l domain.Locale) (string, error) {
	v, err := s.calendarService.Today(s.now(), l)
	if err != nil {
		return "", err
	}

	text := "☀️ <b>" + greeting(l) + "</b>\n\n" + s.calendarService.FormatDay(v, l)
	if upcoming := s.calendarService.FormatUpcoming(s.calendarService.Upcoming(v.Date, upcomingInBriefing), l); upcoming != "" {
		text += "\n" + upcoming
	}
	return text, nil
}

func greeting(l domain.Locale) string {
	if l == domain.LocaleEN {
		return "Good morning!"
	}
	return "صبح بخیر!"
}

// syncCalendar pushes the current Jalali year, and the next one during
// Esfand so that Nowruz is already in place.
func (s *Scheduler) syncCalendar(ctx context.Context) {
	v, err := s.calendarService.Today(s.now(), s.cfg.Locale)
	if err != nil {
		s.log.Errorw("Calendar sync: cannot resolve today", "error", err)
		return
	}

	years := []int{v.Date.Year}
	if v.Date.Month == 12 {
		years = append(years, v.Date.Year+1)
	}

	for _, year := range years {
		res, err := s.syncService.SyncYear(ctx, year)
		if err != nil {
			s.log.Errorw("Calendar sync failed", "year", year, "error", err)
			continue
		}
		for _, e := range res.Errors {
			s.log.Warnw("Calendar sync error", "year", year, "error", e)
		}
	}
}
