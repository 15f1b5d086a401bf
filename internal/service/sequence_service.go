package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hrops-platform/hrops-api/internal/models"
	appErrors "github.com/hrops-platform/hrops-api/pkg/errors"
)

// sequenceCounter is the atomic increment-and-read primitive backing the
// allocator. Both the Postgres and Redis repositories satisfy it.
type sequenceCounter interface {
	Next(ctx context.Context, class models.EntityClass, year int) (int64, error)
}

// SequenceService allocates collision-free, year-scoped human-readable
// identifiers. Uniqueness rests entirely on the counter's atomicity; the
// service never scans existing records for a maximum.
type SequenceService struct {
	counter sequenceCounter
	timeout time.Duration
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewSequenceService constructs a SequenceService.
func NewSequenceService(counter sequenceCounter, timeout time.Duration, metrics *MetricsService, logger *zap.Logger) *SequenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &SequenceService{
		counter: counter,
		timeout: timeout,
		metrics: metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Allocate returns the next identifier for the entity class, formatted as
// PREFIX-YYYY-NNNN (requisitions) or PREFIX-YYYY-NNNNNN (assets). Sequences
// start at 1 each year. When the counter cannot complete, the call fails with
// RESOURCE_UNAVAILABLE and the caller must abort its creation.
func (s *SequenceService) Allocate(ctx context.Context, class models.EntityClass) (string, error) {
	format, ok := models.FormatFor(class)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrValidation, "unknown entity class "+string(class))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	year := s.now().Year()
	start := time.Now()
	seq, err := s.counter.Next(ctx, class, year)
	if s.metrics != nil {
		s.metrics.ObserveSequenceAllocation(string(class), time.Since(start), err == nil)
	}
	if err != nil {
		s.logger.Warn("sequence allocation failed",
			zap.String("entity_class", string(class)),
			zap.Int("year", year),
			zap.Error(err))
		return "", appErrors.Wrap(err, appErrors.ErrResourceUnavailable.Code, appErrors.ErrResourceUnavailable.Status, "identifier allocation failed")
	}

	return format.Format(year, seq), nil
}
