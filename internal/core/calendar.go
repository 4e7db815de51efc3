package core

import (
	"fmt"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// CalendarEntry is a dated market event. A single-day entry is a news
// item; a multi-day entry is a season.
type CalendarEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	FromDate    string `json:"fromDate" validate:"required,datetime=2006-01-02"`
	FromTime    string `json:"fromTime" default:"00:00" validate:"datetime=15:04"`
	ToDate      string `json:"toDate" validate:"required,datetime=2006-01-02"`
	ToTime      string `json:"toTime" default:"00:00" validate:"datetime=15:04"`
}

// IsNews reports whether the entry starts and ends on the same day.
func (c CalendarEntry) IsNews() bool {
	return c.FromDate == c.ToDate
}

// From returns the start instant in loc.
func (c CalendarEntry) From(loc *time.Location) (time.Time, error) {
	return parseDateTime(c.FromDate, c.FromTime, loc)
}

// To returns the end instant in loc.
func (c CalendarEntry) To(loc *time.Location) (time.Time, error) {
	return parseDateTime(c.ToDate, c.ToTime, loc)
}

// CheckRange verifies the entry does not end before it starts.
func (c CalendarEntry) CheckRange() error {
	from, err := c.From(time.UTC)
	if err != nil {
		return WrapError(ErrInvalidField, err)
	}
	to, err := c.To(time.UTC)
	if err != nil {
		return WrapError(ErrInvalidField, err)
	}
	if to.Before(from) {
		return WrapError(ErrInvalidField, fmt.Errorf("entry ends (%s %s) before it starts (%s %s)",
			c.ToDate, c.ToTime, c.FromDate, c.FromTime))
	}
	return nil
}

func parseDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	if clock == "" {
		clock = "00:00"
	}
	return time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+clock, loc)
}
