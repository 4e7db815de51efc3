// Package admin implements the maintenance operations shared by the HTTP
// API and the CLI.
package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/fractalizend/screener/internal/core"
	"github.com/fractalizend/screener/internal/storage/archive"
	"github.com/fractalizend/screener/internal/storage/docstore"
	"github.com/fractalizend/screener/internal/storage/pair"
	"go.uber.org/zap"
)

// Recorder receives bulk-clear metrics.
type Recorder interface {
	RecordBulkClear(deleted int)
}

// ClearResult describes one bulk-clear.
type ClearResult struct {
	Deleted  int    `json:"deletedCount"`
	Snapshot string `json:"snapshot,omitempty"`
}

// Service clears and restores pair state.
type Service struct {
	store    docstore.Store
	pairs    *pair.Repository
	archiver *archive.Archiver
	logger   *zap.Logger
	metrics  Recorder
}

// NewService creates an admin service. archiver may be nil, in which case
// bulk-clear deletes without a snapshot and restore is unavailable.
func NewService(store docstore.Store, archiver *archive.Archiver, logger *zap.Logger, metrics Recorder) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		pairs:    pair.NewRepository(store),
		archiver: archiver,
		logger:   logger,
		metrics:  metrics,
	}
}

// Clear archives every pair document, when an archive is configured, and
// then deletes all of them. A failed snapshot aborts before anything is
// deleted.
func (s *Service) Clear(ctx context.Context) (ClearResult, error) {
	var res ClearResult

	if s.archiver != nil {
		docs, err := s.pairs.Documents(ctx)
		if err != nil {
			return res, core.WrapError(core.ErrUpstreamRead, err)
		}
		key, err := s.archiver.Save(ctx, pair.Collection, docs)
		if err != nil {
			s.logger.Error("snapshot before clear failed", zap.Error(err))
			return res, core.WrapError(core.ErrUpstreamWrite, err)
		}
		res.Snapshot = key
	}

	n, err := s.pairs.DeleteAll(ctx)
	if err != nil {
		s.logger.Error("bulk clear failed", zap.Error(err))
		return res, core.WrapError(core.ErrUpstreamWrite, err)
	}
	res.Deleted = n

	if s.metrics != nil {
		s.metrics.RecordBulkClear(n)
	}
	s.logger.Info("pairs cleared",
		zap.Int("deleted", n),
		zap.String("snapshot", res.Snapshot),
	)
	return res, nil
}

// Snapshots lists archived pair snapshots, oldest first.
func (s *Service) Snapshots(ctx context.Context) ([]string, error) {
	if s.archiver == nil {
		return nil, core.WrapError(core.ErrConfigMissing, errors.New("archive is not configured"))
	}
	return s.archiver.Keys(ctx, pair.Collection)
}

// Restore writes a pair snapshot back into the store. An empty key selects
// the newest snapshot.
func (s *Service) Restore(ctx context.Context, key string) (int, error) {
	if s.archiver == nil {
		return 0, core.WrapError(core.ErrConfigMissing, errors.New("archive is not configured"))
	}

	var (
		snap *archive.Snapshot
		err  error
	)
	if key == "" {
		snap, err = s.archiver.Latest(ctx, pair.Collection)
	} else {
		snap, err = s.archiver.Load(ctx, key)
	}
	if err != nil {
		return 0, err
	}
	if snap.Collection != pair.Collection {
		return 0, core.WrapError(core.ErrInvalidField,
			fmt.Errorf("snapshot holds %q, not %q", snap.Collection, pair.Collection))
	}

	n, err := archive.Restore(ctx, s.store, snap)
	if err != nil {
		return n, core.WrapError(core.ErrUpstreamWrite, err)
	}
	s.logger.Info("pairs restored",
		zap.Int("restored", n),
		zap.Time("taken_at", snap.TakenAt),
	)
	return n, nil
}
