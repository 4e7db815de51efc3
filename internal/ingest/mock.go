package ingest

import (
	"context"
	"time"

	"github.com/fractalizend/screener/internal/core"
)

// MockEvents returns the demo pairs seeded by the admin tools, stamped at now.
func MockEvents(now time.Time) []core.Event {
	ts := now.UTC().Format(time.RFC3339)
	mk := func(pair, tf string, d core.Direction) core.Event {
		return core.DirectionEvent{
			EventHeader: core.EventHeader{Pair: pair, Timeframe: tf, Timestamp: ts},
			Direction:   d,
		}
	}
	return []core.Event{
		mk("BTCUSDT", "1H", core.DirectionUp),
		mk("ETHUSDT", "4H", core.DirectionDown),
		mk("SOLUSDT", "1D", core.DirectionUp),
		mk("BNBUSDT", "1H", core.DirectionDown),
		mk("ADAUSDT", "4H", core.DirectionUp),
	}
}

// Seed runs the mock events through the normal ingestion path.
func (s *Service) Seed(ctx context.Context) ([]Result, error) {
	events := MockEvents(s.now())
	results := make([]Result, 0, len(events))
	for _, ev := range events {
		res, err := s.Process(ctx, ev)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
