// internal/calendar/panels.go
package calendar

import (
	"context"
	"time"

	"github.com/fractalizend/screener/internal/core"
)

// Panels groups calendar entries the way the dashboard news strip shows them.
type Panels struct {
	TodayNews        []core.CalendarEntry `json:"todayNews"`
	WeekNews         []core.CalendarEntry `json:"weekNews"`
	CurrentSeasons   []core.CalendarEntry `json:"currentSeasons"`
	NextMonthSeasons []core.CalendarEntry `json:"nextMonthSeasons"`
}

// Build sorts entries into panels relative to now. News counts for the week
// when it falls on any calendar day from today through today+7. Entry dates
// are read in now's location; entries with unparsable dates are skipped.
func Build(entries []core.CalendarEntry, now time.Time) Panels {
	loc := now.Location()
	today := now.Format(core.DateLayout)
	weekEnd := now.AddDate(0, 0, 7).Format(core.DateLayout)
	monthEnd := now.AddDate(0, 1, 0)

	p := Panels{
		TodayNews:        []core.CalendarEntry{},
		WeekNews:         []core.CalendarEntry{},
		CurrentSeasons:   []core.CalendarEntry{},
		NextMonthSeasons: []core.CalendarEntry{},
	}

	for _, e := range entries {
		from, err := e.From(loc)
		if err != nil {
			continue
		}
		to, err := e.To(loc)
		if err != nil {
			continue
		}

		if e.IsNews() {
			if e.FromDate == today {
				p.TodayNews = append(p.TodayNews, e)
			}
			// Layout dates compare lexically.
			if e.FromDate >= today && e.FromDate <= weekEnd {
				p.WeekNews = append(p.WeekNews, e)
			}
			continue
		}

		if !from.After(now) && !to.Before(now) {
			p.CurrentSeasons = append(p.CurrentSeasons, e)
		}
		if from.After(now) && !from.After(monthEnd) {
			p.NextMonthSeasons = append(p.NextMonthSeasons, e)
		}
	}
	return p
}

// Lister reads calendar entries in chronological order.
type Lister interface {
	List(ctx context.Context) ([]core.CalendarEntry, error)
}

// Service evaluates panels against a clock.
type Service struct {
	entries Lister
	now     func() time.Time
}

// NewService creates a panel service. A nil clock means time.Now.
func NewService(entries Lister, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{entries: entries, now: clock}
}

// Panels loads entries and builds panels for the current time.
func (s *Service) Panels(ctx context.Context) (Panels, error) {
	entries, err := s.entries.List(ctx)
	if err != nil {
		return Panels{}, err
	}
	return Build(entries, s.now()), nil
}
