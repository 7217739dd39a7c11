package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/tazhate/taqvim/internal/clients/caldav"
	"github.com/tazhate/taqvim/internal/domain"
	"github.com/tazhate/taqvim/internal/export"
)

const defaultSyncWorkers = 4

// firstOfYear places 1 Farvardin to bound a year's range
var firstOfYear = domain.CalendarEvent{Month: 1, Day: 1}

// ErrSyncDisabled is returned when no CalDAV calendar is configured
var ErrSyncDisabled = errors.New("calendar sync is not configured")

// ErrDiscoveryDisabled is returned when no CalDAV account is configured
var ErrDiscoveryDisabled = errors.New("calendar discovery needs CalDAV credentials")

// CalendarDirectory lists the calendars of a CalDAV account
type CalendarDirectory interface {
	DiscoverCalendars(ctx context.Context) ([]caldav.Calendar, error)
}

// CalendarWriter stores occurrences in a remote calendar
type CalendarWriter interface {
	IsConfigured() bool
	PutOccurrence(ctx context.Context, o export.Occurrence) error
	DeleteOccurrence(ctx context.Context, uid string) error
	ListUIDs(ctx context.Context, from, to time.Time) ([]string, error)
}

// SyncResult contains sync operation results
type SyncResult struct {
	Year    int
	Pushed  int
	Deleted int
	Skipped []string
	Errors  []string
}

// SyncService pushes the catalog for a Jalali year into a CalDAV calendar
type SyncService struct {
	calendar *CalendarService
	writer   CalendarWriter
	dir      CalendarDirectory
	workers  int
	log      *zap.SugaredLogger
}

// NewSyncService creates the service. writer may be nil when CalDAV is not set up.
func NewSyncService(calendar *CalendarService, writer CalendarWriter, log *zap.SugaredLogger) *SyncService {
	return &SyncService{
		calendar: calendar,
		writer:   writer,
		workers:  defaultSyncWorkers,
		log:      log,
	}
}

// IsConfigured returns true if a calendar is available
func (s *SyncService) IsConfigured() bool {
	return s.writer != nil && s.writer.IsConfigured()
}

// SetDirectory enables calendar discovery, used to find CALDAV_CALENDAR
func (s *SyncService) SetDirectory(dir CalendarDirectory) {
	s.dir = dir
}

// Calendars lists the calendars the account can sync into
func (s *SyncService) Calendars(ctx context.Context) ([]caldav.Calendar, error) {
	if s.dir == nil {
		return nil, ErrDiscoveryDisabled
	}
	cals, err := s.dir.DiscoverCalendars(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover calendars: %w", err)
	}
	return cals, nil
}

// SetWorkers bounds the number of concurrent uploads
func (s *SyncService) SetWorkers(n int) {
	if n > 0 {
		s.workers = n
	}
}

// SyncYear uploads every catalog event of a Jalali year as an all-day
// event and removes our own events that are no longer in the catalog.
func (s *SyncService) SyncYear(ctx context.Context, year int) (*SyncResult, error) {
	if !s.IsConfigured() {
		return nil, ErrSyncDisabled
	}

	occs, skipped, err := s.calendar.YearOccurrences(year, true)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{Year: year}
	for _, ev := range skipped {
		result.Skipped = append(result.Skipped, ev.TitleEn)
	}

	var mu sync.Mutex
	fail := func(format string, args ...any) {
		mu.Lock()
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
		mu.Unlock()
	}

	p := pool.New().WithContext(ctx).WithMaxGoroutines(s.workers)
	for _, o := range occs {
		o := o
		p.Go(func(ctx context.Context) error {
			if err := s.writer.PutOccurrence(ctx, o); err != nil {
				fail("put %s: %v", o.Event.TitleEn, err)
				return err
			}
			mu.Lock()
			result.Pushed++
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil && ctx.Err() != nil {
		return result, fmt.Errorf("sync %d: %w", year, ctx.Err())
	}

	if err := s.prune(ctx, year, occs, result); err != nil {
		s.log.Warnw("Failed to prune stale events", "year", year, "error", err)
		fail("prune: %v", err)
	}

	s.log.Infow("Calendar sync finished",
		"year", year,
		"pushed", result.Pushed,
		"deleted", result.Deleted,
		"skipped", len(result.Skipped),
		"errors", len(result.Errors),
	)
	return result, nil
}

// prune deletes events in the year's range that carry our UID suffix
// but match no current occurrence.
func (s *SyncService) prune(ctx context.Context, year int, occs []export.Occurrence, result *SyncResult) error {
	from, err := s.calendar.Occurrence(year, firstOfYear, true)
	if err != nil {
		return err
	}
	to, err := s.calendar.Occurrence(year+1, firstOfYear, true)
	if err != nil {
		return err
	}

	uids, err := s.writer.ListUIDs(ctx, from.Start, to.Start)
	if err != nil {
		return err
	}

	keep := make(map[string]bool, len(occs))
	for _, o := range occs {
		keep[o.UID()] = true
	}

	for _, uid := range uids {
		if keep[uid] || !export.IsOwnUID(uid) {
			continue
		}
		if err := s.writer.DeleteOccurrence(ctx, uid); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("delete %s: %v", uid, err))
			continue
		}
		result.Deleted++
	}
	return nil
}
