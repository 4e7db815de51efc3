package alert

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/fractalizend/screener/internal/core"
	"github.com/fractalizend/screener/internal/notifier"
	"github.com/fractalizend/screener/internal/validate"
)

// Dispatch is one notification the policy allows for an event.
type Dispatch struct {
	Notifiers []string
	Message   notifier.Message
}

// Policy is a static allow-list of rules.
type Policy struct {
	rules []Rule
	now   func() time.Time
}

// NewPolicy applies rule defaults and validates every rule.
func NewPolicy(rules []Rule) (*Policy, error) {
	p := &Policy{rules: make([]Rule, len(rules)), now: time.Now}
	for i, r := range rules {
		if err := validate.Struct(context.Background(), &r); err != nil {
			return nil, fmt.Errorf("alert rule %d (%s): %w", i, r.Name, err)
		}
		if err := r.checkDestinations(); err != nil {
			return nil, fmt.Errorf("alert rule %d (%s): %w", i, r.Name, err)
		}
		p.rules[i] = r
	}
	return p, nil
}

// Rules returns the configured rules.
func (p *Policy) Rules() []Rule {
	return slices.Clone(p.rules)
}

// Match returns the dispatches allowed for ev, in rule order. A rule yields
// one Dispatch per distinct destination so each notifier only ever sees its
// own recipient.
func (p *Policy) Match(ev core.Event) []Dispatch {
	h := ev.Header()
	var out []Dispatch
	for i := range p.rules {
		r := &p.rules[i]
		if !r.Matches(ev) {
			continue
		}
		msg := notifier.Message{
			Text:      r.Render(ev),
			Rule:      r.Name,
			Pair:      h.Pair,
			Timeframe: h.Timeframe,
			Kind:      string(ev.Kind()),
			Value:     EventValue(ev),
			Timestamp: h.Timestamp,
			SentAt:    p.now(),
		}
		for _, group := range groupByDestination(r) {
			m := msg
			m.Destination = group.destination
			out = append(out, Dispatch{Notifiers: group.notifiers, Message: m})
		}
	}
	return out
}

type destinationGroup struct {
	destination string
	notifiers   []string
}

// groupByDestination splits the rule's notifiers by destination, keeping
// the order in which each destination first appears.
func groupByDestination(r *Rule) []destinationGroup {
	var groups []destinationGroup
	for _, name := range r.Notifiers {
		dest := r.Destinations[name]
		idx := slices.IndexFunc(groups, func(g destinationGroup) bool { return g.destination == dest })
		if idx < 0 {
			groups = append(groups, destinationGroup{destination: dest})
			idx = len(groups) - 1
		}
		groups[idx].notifiers = append(groups[idx].notifiers, name)
	}
	return groups
}
