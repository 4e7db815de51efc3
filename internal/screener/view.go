package screener

import (
	"cmp"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/fractalizend/screener/internal/core"
	"github.com/samber/lo"
)

// SortMode orders the grid rows.
type SortMode string

const (
	SortBookmarked SortMode = "bookmarked"
	SortName       SortMode = "name"
)

// Glyph is the rendered state of one indicator.
type Glyph string

const (
	Bullish Glyph = "bullish"
	Bearish Glyph = "bearish"
	Neutral Glyph = "neutral"
)

// Query selects and orders the pairs shown.
type Query struct {
	Search     string   `json:"search"`
	Tags       []string `json:"tags"`
	Timeframes []string `json:"timeframes"`
	Sort       SortMode `json:"sort"`
	User       string   `json:"user"`
}

// ParseQuery reads a Query from URL parameters. List values are comma
// separated.
func ParseQuery(v url.Values) Query {
	q := Query{
		Search:     strings.TrimSpace(v.Get("search")),
		Tags:       splitList(v.Get("tags")),
		Timeframes: splitList(v.Get("timeframes")),
		Sort:       SortMode(v.Get("sort")),
		User:       strings.TrimSpace(v.Get("user")),
	}
	return q.normalize()
}

func (q Query) normalize() Query {
	if q.Sort != SortName {
		q.Sort = SortBookmarked
	}
	q.Tags = lo.Uniq(lo.Compact(lo.Map(q.Tags, func(t string, _ int) string {
		return strings.TrimSpace(t)
	})))
	q.Timeframes = lo.Uniq(lo.Compact(lo.Map(q.Timeframes, func(t string, _ int) string {
		return core.NormalizeTimeframe(t)
	})))
	return q
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// Cell is one (pair, timeframe) indicator.
type Cell struct {
	Timeframe          string `json:"timeframe"`
	Direction          string `json:"direction,omitempty"`
	ConfirmationStatus string `json:"confirmationStatus,omitempty"`
	DirectionGlyph     Glyph  `json:"directionGlyph"`
	ConfirmationGlyph  Glyph  `json:"confirmationGlyph"`
}

// PairView is one row of the screener grid.
type PairView struct {
	ID                    string                             `json:"id"`
	DirectionTimeframe    map[string]core.Direction          `json:"directionTimeframe"`
	ConfirmationTimeframe map[string]core.ConfirmationStatus `json:"confirmationTimeframe"`
	Tags                  []string                           `json:"tags"`
	Bookmarked            bool                               `json:"bookmarked"`
	Cells                 []Cell                             `json:"cells"`
	LastUpdated           time.Time                          `json:"lastUpdated"`
}

// Bookmarks reports whether a pair is bookmarked.
type Bookmarks interface {
	Has(pair string) bool
}

// Build filters, sorts and renders states for q. A nil bookmarks value is
// treated as an empty set.
func Build(states []core.PairState, bookmarks Bookmarks, q Query) []PairView {
	q = q.normalize()
	search := strings.ToLower(q.Search)

	visible := lo.Filter(states, func(s core.PairState, _ int) bool {
		if !strings.Contains(strings.ToLower(s.ID), search) {
			return false
		}
		if len(q.Tags) > 0 && !lo.Some(s.Tags, q.Tags) {
			return false
		}
		if len(q.Timeframes) > 0 && !lo.Some(timeframeLabels(&s), q.Timeframes) {
			return false
		}
		return true
	})

	views := lo.Map(visible, func(s core.PairState, _ int) PairView {
		return PairView{
			ID:                    s.ID,
			DirectionTimeframe:    s.DirectionTimeframe,
			ConfirmationTimeframe: s.ConfirmationTimeframe,
			Tags:                  s.Tags,
			Bookmarked:            bookmarks != nil && bookmarks.Has(s.ID),
			Cells:                 Cells(&s),
			LastUpdated:           s.LastUpdated,
		}
	})

	switch q.Sort {
	case SortName:
		slices.SortFunc(views, func(a, b PairView) int { return strings.Compare(a.ID, b.ID) })
	default:
		slices.SortFunc(views, func(a, b PairView) int {
			if a.Bookmarked != b.Bookmarked {
				if a.Bookmarked {
					return -1
				}
				return 1
			}
			return strings.Compare(strings.ToLower(a.ID), strings.ToLower(b.ID))
		})
	}
	return views
}

// timeframeLabels returns the normalized labels present in either map.
func timeframeLabels(s *core.PairState) []string {
	raw := append(lo.Keys(s.DirectionTimeframe), lo.Keys(s.ConfirmationTimeframe)...)
	return lo.Uniq(lo.Map(raw, func(k string, _ int) string { return core.NormalizeTimeframe(k) }))
}

// Cells renders one cell per timeframe label, shortest interval first.
// Raw keys that normalize to the same label are merged in key order.
func Cells(s *core.PairState) []Cell {
	byLabel := make(map[string]*Cell)

	keys := append(lo.Keys(s.DirectionTimeframe), lo.Keys(s.ConfirmationTimeframe)...)
	slices.Sort(keys)
	for _, raw := range lo.Uniq(keys) {
		label := core.NormalizeTimeframe(raw)
		c, ok := byLabel[label]
		if !ok {
			c = &Cell{Timeframe: label}
			byLabel[label] = c
		}
		if d, ok := s.DirectionTimeframe[raw]; ok {
			c.Direction = string(d)
		}
		if st, ok := s.ConfirmationTimeframe[raw]; ok {
			c.ConfirmationStatus = string(st)
		}
	}

	cells := make([]Cell, 0, len(byLabel))
	for _, c := range byLabel {
		c.DirectionGlyph = DirectionGlyph(core.Direction(c.Direction))
		c.ConfirmationGlyph = ConfirmationGlyph(core.ConfirmationStatus(c.ConfirmationStatus), core.Direction(c.Direction))
		cells = append(cells, *c)
	}
	slices.SortFunc(cells, func(a, b Cell) int {
		return cmp.Or(
			cmp.Compare(core.TimeframeDuration(a.Timeframe), core.TimeframeDuration(b.Timeframe)),
			strings.Compare(a.Timeframe, b.Timeframe),
		)
	})
	return cells
}

// DirectionGlyph maps a direction to its glyph.
func DirectionGlyph(d core.Direction) Glyph {
	switch d {
	case core.DirectionUp:
		return Bullish
	case core.DirectionDown:
		return Bearish
	default:
		return Neutral
	}
}

// ConfirmationGlyph takes the paired direction's color only when the
// status is ready.
func ConfirmationGlyph(status core.ConfirmationStatus, d core.Direction) Glyph {
	if !status.IsReady() {
		return Neutral
	}
	return DirectionGlyph(d)
}
