package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fractalizend/screener/internal/alert"
	"github.com/fractalizend/screener/internal/core"
	"github.com/fractalizend/screener/internal/notifier"
	"github.com/fractalizend/screener/internal/storage/docstore"
	"go.uber.org/zap"
)

// Consistency selects how concurrent writes to one pair are resolved.
type Consistency string

const (
	// LastWriterWins writes unconditionally; a concurrent event for the
	// same pair may overwrite another's history entry.
	LastWriterWins Consistency = "last_writer_wins"

	// CompareAndSwap writes conditioned on the version read and re-merges
	// from a fresh read on conflict.
	CompareAndSwap Consistency = "compare_and_swap"
)

// PairStore loads and saves pair state.
type PairStore interface {
	Get(ctx context.Context, id string) (*core.PairState, error)
	Save(ctx context.Context, state *core.PairState, expectedVersion int64) error
}

// Matcher returns the notifications allowed for an event.
type Matcher interface {
	Match(ev core.Event) []alert.Dispatch
}

// Dispatcher delivers a message through named notifiers.
type Dispatcher interface {
	Notify(ctx context.Context, names []string, msg notifier.Message) map[string]error
}

// Recorder receives ingestion metrics.
type Recorder interface {
	RecordEvent(kind string, changed bool)
	RecordIngestConflict()
	RecordNotification(notifier, status string)
}

// Options configures a Service.
type Options struct {
	Consistency Consistency
	MaxAttempts int
	Logger      *zap.Logger
	Metrics     Recorder
}

// Result describes one processed event.
type Result struct {
	Pair     string `json:"pair"`
	Changed  bool   `json:"changed"`
	Notified bool   `json:"notified"`
	Attempts int    `json:"-"`
}

// Service turns validated events into persisted pair state and
// best-effort notifications.
type Service struct {
	pairs       PairStore
	policy      Matcher
	notifiers   Dispatcher
	consistency Consistency
	maxAttempts int
	logger      *zap.Logger
	metrics     Recorder
	now         func() time.Time
}

// NewService creates an ingestion service.
func NewService(pairs PairStore, policy Matcher, notifiers Dispatcher, opts Options) *Service {
	if opts.Consistency == "" {
		opts.Consistency = LastWriterWins
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = nopRecorder{}
	}
	return &Service{
		pairs:       pairs,
		policy:      policy,
		notifiers:   notifiers,
		consistency: opts.Consistency,
		maxAttempts: opts.MaxAttempts,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		now:         time.Now,
	}
}

// Process persists ev and, when it changed the stored value for its
// timeframe, sends the notifications the policy allows. Notification
// failures are logged and counted, never returned.
func (s *Service) Process(ctx context.Context, ev core.Event) (Result, error) {
	h := ev.Header()
	res := Result{Pair: h.Pair}

	attempts := 1
	if s.consistency == CompareAndSwap {
		attempts = s.maxAttempts
	}

	var err error
	for res.Attempts < attempts {
		res.Attempts++
		res.Changed, err = s.persist(ctx, ev)
		if err == nil {
			break
		}
		if !errors.Is(err, core.ErrVersionConflict) {
			s.logger.Error("failed to persist event",
				zap.String("pair", h.Pair),
				zap.String("timeframe", h.Timeframe),
				zap.Error(err),
			)
			return res, core.WrapError(core.ErrUpstreamWrite, err)
		}
		s.metrics.RecordIngestConflict()
		s.logger.Debug("pair modified concurrently, re-merging",
			zap.String("pair", h.Pair),
			zap.Int("attempt", res.Attempts),
		)
	}
	if err != nil {
		return res, core.WrapError(core.ErrVersionConflict,
			fmt.Errorf("%s: gave up after %d attempts: %w", h.Pair, res.Attempts, err))
	}

	s.metrics.RecordEvent(string(ev.Kind()), res.Changed)

	if res.Changed && s.policy != nil && s.notifiers != nil {
		// Delivery outlives the request once state is persisted.
		res.Notified = s.notify(context.WithoutCancel(ctx), ev)
	}

	s.logger.Info("event processed",
		zap.String("pair", h.Pair),
		zap.String("timeframe", h.Timeframe),
		zap.String("kind", string(ev.Kind())),
		zap.Bool("changed", res.Changed),
		zap.Bool("notified", res.Notified),
	)
	return res, nil
}

// persist runs one read-merge-write round.
func (s *Service) persist(ctx context.Context, ev core.Event) (bool, error) {
	pair := ev.Header().Pair

	state, err := s.pairs.Get(ctx, pair)
	switch {
	case errors.Is(err, core.ErrNotFound):
		state = core.NewPairState(pair)
	case err != nil:
		return false, fmt.Errorf("load %s: %w", pair, err)
	}

	changed := state.Apply(ev, s.now().UTC())

	expected := state.Version
	if s.consistency == LastWriterWins {
		expected = docstore.AnyVersion
	}
	if err := s.pairs.Save(ctx, state, expected); err != nil {
		return false, err
	}
	return changed, nil
}

// notify reports whether at least one notifier accepted a message.
func (s *Service) notify(ctx context.Context, ev core.Event) bool {
	h := ev.Header()
	delivered := false

	for _, d := range s.policy.Match(ev) {
		errs := s.notifiers.Notify(ctx, d.Notifiers, d.Message)
		for _, name := range d.Notifiers {
			if err, failed := errs[name]; failed {
				s.metrics.RecordNotification(name, "error")
				s.logger.Warn("notification failed",
					zap.String("notifier", name),
					zap.String("rule", d.Message.Rule),
					zap.String("pair", h.Pair),
					zap.String("timeframe", h.Timeframe),
					zap.Error(core.WrapError(core.ErrNotificationFailed, err)),
				)
				continue
			}
			s.metrics.RecordNotification(name, "success")
			delivered = true
		}
	}
	return delivered
}

type nopRecorder struct{}

func (nopRecorder) RecordEvent(string, bool)          {}
func (nopRecorder) RecordIngestConflict()             {}
func (nopRecorder) RecordNotification(string, string) {}
