package screener

import (
	"context"

	"github.com/fractalizend/screener/internal/core"
	"github.com/fractalizend/screener/internal/storage/preference"
	"go.uber.org/zap"
)

// PairLister lists every tracked pair.
type PairLister interface {
	List(ctx context.Context) ([]core.PairState, error)
}

// BookmarkReader loads a user's bookmark set.
type BookmarkReader interface {
	Get(ctx context.Context, userID string) (*preference.BookmarkSet, error)
}

// Service builds the screener grid from storage.
type Service struct {
	pairs     PairLister
	bookmarks BookmarkReader
	logger    *zap.Logger
}

// NewService creates a screener service.
func NewService(pairs PairLister, bookmarks BookmarkReader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{pairs: pairs, bookmarks: bookmarks, logger: logger}
}

// Grid returns the rows for q. A failed pair read is an upstream read
// error; a failed bookmark read degrades to an empty set.
func (s *Service) Grid(ctx context.Context, q Query) ([]PairView, error) {
	states, err := s.pairs.List(ctx)
	if err != nil {
		s.logger.Error("failed to list pairs", zap.Error(err))
		return nil, core.WrapError(core.ErrUpstreamRead, err)
	}
	return Build(states, s.Bookmarks(ctx, q.User), q), nil
}

// Bookmarks returns the user's set, or an empty one when there is no user
// or the read fails.
func (s *Service) Bookmarks(ctx context.Context, user string) *preference.BookmarkSet {
	empty := &preference.BookmarkSet{UserID: user, Bookmarks: []string{}}
	if user == "" || s.bookmarks == nil {
		return empty
	}
	set, err := s.bookmarks.Get(ctx, user)
	if err != nil {
		s.logger.Warn("failed to load bookmarks, using empty set",
			zap.String("user", user),
			zap.Error(err),
		)
		return empty
	}
	return set
}
