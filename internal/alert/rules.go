package alert

import (
	"fmt"
	"slices"
	"strings"

	"github.com/fractalizend/screener/internal/core"
)

// DefaultTemplate renders an HTML alert line.
const DefaultTemplate = "<b>{pair}</b> {timeframe}: {kind} → <b>{value}</b> ({timestamp})"

// Rule allow-lists notifications for a set of (pair, timeframe, kind)
// combinations. Empty Timeframes or Kinds match any; "*" in Pairs matches
// any pair.
//
// Destinations overrides the recipient per notifier name: a chat id for
// telegram, a topic for kafka, a URL for webhook. Notifiers without an
// entry use their configured recipient.
type Rule struct {
	Name         string            `mapstructure:"name" validate:"required"`
	Pairs        []string          `mapstructure:"pairs" validate:"required,min=1"`
	Timeframes   []string          `mapstructure:"timeframes"`
	Kinds        []string          `mapstructure:"kinds" validate:"dive,oneof=direction confirmation"`
	Notifiers    []string          `mapstructure:"notifiers" validate:"required,min=1"`
	Destinations map[string]string `mapstructure:"destinations"`
	Template     string            `mapstructure:"template" default:"<b>{pair}</b> {timeframe}: {kind} → <b>{value}</b> ({timestamp})"`
}

// checkDestinations rejects destinations keyed by a notifier the rule does
// not use.
func (r *Rule) checkDestinations() error {
	for name := range r.Destinations {
		if !slices.Contains(r.Notifiers, name) {
			return core.WrapError(core.ErrInvalidField,
				fmt.Errorf("destination set for %q, which is not one of the rule's notifiers", name))
		}
	}
	return nil
}

// Matches reports whether the rule allows notifying about ev. Pairs compare
// case-insensitively and timeframes after label normalisation.
func (r *Rule) Matches(ev core.Event) bool {
	h := ev.Header()

	if !slices.ContainsFunc(r.Pairs, func(p string) bool {
		return p == "*" || strings.EqualFold(p, h.Pair)
	}) {
		return false
	}

	if len(r.Timeframes) > 0 {
		tf := core.NormalizeTimeframe(h.Timeframe)
		if !slices.ContainsFunc(r.Timeframes, func(t string) bool {
			return core.NormalizeTimeframe(t) == tf
		}) {
			return false
		}
	}

	if len(r.Kinds) > 0 && !slices.Contains(r.Kinds, string(ev.Kind())) {
		return false
	}
	return true
}

// Render fills the rule template with event fields.
func (r *Rule) Render(ev core.Event) string {
	h := ev.Header()
	tmpl := r.Template
	if tmpl == "" {
		tmpl = DefaultTemplate
	}
	return strings.NewReplacer(
		"{rule}", r.Name,
		"{pair}", h.Pair,
		"{timeframe}", core.NormalizeTimeframe(h.Timeframe),
		"{kind}", string(ev.Kind()),
		"{value}", EventValue(ev),
		"{timestamp}", h.Timestamp,
	).Replace(tmpl)
}

// EventValue returns the direction or confirmation status carried by ev.
func EventValue(ev core.Event) string {
	switch e := ev.(type) {
	case core.DirectionEvent:
		return string(e.Direction)
	case core.ConfirmationEvent:
		return string(e.Status)
	default:
		panic(fmt.Sprintf("alert: unhandled event type %T", ev))
	}
}
