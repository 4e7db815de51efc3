package core

import (
	"errors"
	"testing"
	"time"
)

func TestCalendarEntry_IsNews(t *testing.T) {
	news := CalendarEntry{FromDate: "2024-05-01", ToDate: "2024-05-01"}
	season := CalendarEntry{FromDate: "2024-05-01", ToDate: "2024-05-20"}

	if !news.IsNews() {
		t.Error("single-day entry should be news")
	}
	if season.IsNews() {
		t.Error("multi-day entry should be a season")
	}
}

func TestCalendarEntry_From(t *testing.T) {
	e := CalendarEntry{FromDate: "2024-05-01", FromTime: "13:30"}
	got, err := e.From(time.UTC)
	if err != nil {
		t.Fatalf("From: %v", err)
	}
	want := time.Date(2024, 5, 1, 13, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("From = %v, want %v", got, want)
	}

	e.FromTime = ""
	got, _ = e.From(time.UTC)
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Errorf("empty time should default to midnight, got %v", got)
	}
}

func TestCalendarEntry_CheckRange(t *testing.T) {
	tests := []struct {
		name    string
		entry   CalendarEntry
		wantErr bool
	}{
		{"same instant", CalendarEntry{FromDate: "2024-05-01", FromTime: "10:00", ToDate: "2024-05-01", ToTime: "10:00"}, false},
		{"forward", CalendarEntry{FromDate: "2024-05-01", ToDate: "2024-06-01"}, false},
		{"backwards day", CalendarEntry{FromDate: "2024-06-01", ToDate: "2024-05-01"}, true},
		{"backwards time", CalendarEntry{FromDate: "2024-05-01", FromTime: "12:00", ToDate: "2024-05-01", ToTime: "11:59"}, true},
		{"bad date", CalendarEntry{FromDate: "2024-13-01", ToDate: "2024-05-01"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.CheckRange()
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckRange() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidField) {
				t.Errorf("expected INVALID_FIELD, got %v", err)
			}
		})
	}
}
