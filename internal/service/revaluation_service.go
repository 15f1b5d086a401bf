package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hrops-platform/hrops-api/internal/models"
	"github.com/hrops-platform/hrops-api/pkg/jobs"
)

type revaluationRepository interface {
	ListForRevaluation(ctx context.Context, limit, offset int) ([]models.Asset, error)
	UpdateCurrentValue(ctx context.Context, id string, value float64, updatedAt time.Time) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// RevaluationConfig controls the periodic depreciation sweep.
type RevaluationConfig struct {
	Interval  time.Duration
	Workers   int
	BatchSize int
}

// RevaluationService periodically recomputes the stored current value of all
// depreciable assets so reporting never reads a stale figure. Each batch is a
// queued job processed by the worker pool.
type RevaluationService struct {
	repo   revaluationRepository
	pool   *jobs.Pool[revaluationBatch]
	config RevaluationConfig
	logger *zap.Logger
	now    func() time.Time
	ticker *time.Ticker
	done   chan struct{}
}

type revaluationBatch struct {
	Limit  int
	Offset int
}

// NewRevaluationService constructs a RevaluationService.
func NewRevaluationService(repo revaluationRepository, config RevaluationConfig, logger *zap.Logger) *RevaluationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Interval <= 0 {
		config.Interval = 24 * time.Hour
	}
	if config.Workers <= 0 {
		config.Workers = 2
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 200
	}

	s := &RevaluationService{
		repo:   repo,
		config: config,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		done:   make(chan struct{}),
	}
	s.pool = jobs.NewPool("asset-revaluation", s.processBatch, jobs.Config{
		Workers: config.Workers,
		Logger:  logger,
	})
	return s
}

// Start launches the worker pool and the periodic scheduler.
func (s *RevaluationService) Start(ctx context.Context) {
	s.pool.Start(ctx)
	s.ticker = time.NewTicker(s.config.Interval)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case <-s.ticker.C:
				s.enqueueSweep()
			}
		}
	}()

	s.logger.Info("asset revaluation scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Int("batch_size", s.config.BatchSize))
}

// Stop halts the scheduler and drains the workers.
func (s *RevaluationService) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.done)
	s.pool.Stop()
}

// RunOnce sweeps all depreciable assets synchronously. Used at startup and by
// tests; the scheduler goes through the queue instead.
func (s *RevaluationService) RunOnce(ctx context.Context) (int, error) {
	updated := 0
	for offset := 0; ; offset += s.config.BatchSize {
		n, count, err := s.revalue(ctx, s.config.BatchSize, offset)
		if err != nil {
			return updated, err
		}
		updated += n
		if count < s.config.BatchSize {
			return updated, nil
		}
	}
}

func (s *RevaluationService) enqueueSweep() {
	if err := s.pool.Enqueue(jobs.Task[revaluationBatch]{
		ID:      uuid.NewString(),
		Kind:    "revaluation_sweep",
		Payload: revaluationBatch{Limit: s.config.BatchSize, Offset: 0},
	}); err != nil {
		s.logger.Warn("failed to enqueue revaluation sweep", zap.Error(err))
	}
}

func (s *RevaluationService) processBatch(ctx context.Context, task jobs.Task[revaluationBatch]) error {
	batch := task.Payload

	updated, count, err := s.revalue(ctx, batch.Limit, batch.Offset)
	if err != nil {
		return err
	}

	if count == batch.Limit {
		return s.pool.Enqueue(jobs.Task[revaluationBatch]{
			ID:      uuid.NewString(),
			Kind:    task.Kind,
			Payload: revaluationBatch{Limit: batch.Limit, Offset: batch.Offset + batch.Limit},
		})
	}

	if updated > 0 {
		s.logger.Info("asset revaluation sweep finished", zap.Int("updated", updated))
	}
	return nil
}

// revalue recomputes one page of assets and returns how many values changed
// plus how many records the page held.
func (s *RevaluationService) revalue(ctx context.Context, limit, offset int) (int, int, error) {
	assets, err := s.repo.ListForRevaluation(ctx, limit, offset)
	if err != nil {
		return 0, 0, err
	}

	now := s.now()
	updated := 0
	for i := range assets {
		asset := &assets[i]
		previous := asset.CurrentValue
		RecomputeCurrentValue(asset, now)
		if asset.CurrentValue == nil {
			continue
		}
		if previous != nil && *previous == *asset.CurrentValue {
			continue
		}

		if err := s.repo.UpdateCurrentValue(ctx, asset.ID, *asset.CurrentValue, now); err != nil {
			s.logger.Warn("failed to update asset current value",
				zap.String("asset_id", asset.AssetID),
				zap.Error(err))
			continue
		}
		updated++
	}

	return updated, len(assets), nil
}
