package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/hrops-platform/hrops-api/internal/models"
)

// SequenceRepository provides the durable atomic counter used by the
// identifier allocator. The upsert increments and reads the per-(class, year)
// sequence in a single statement, so concurrent callers always observe
// distinct, strictly increasing values.
type SequenceRepository struct {
	db *sqlx.DB
}

// NewSequenceRepository creates a new instance of SequenceRepository.
func NewSequenceRepository(db *sqlx.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Next atomically increments and returns the sequence for the given entity
// class and year. The first allocation of a new (class, year) pair yields 1.
func (r *SequenceRepository) Next(ctx context.Context, class models.EntityClass, year int) (int64, error) {
	const query = `INSERT INTO id_sequences (entity_class, year, seq) VALUES ($1, $2, 1)
		ON CONFLICT (entity_class, year) DO UPDATE SET seq = id_sequences.seq + 1
		RETURNING seq`
	var seq int64
	if err := r.db.GetContext(ctx, &seq, query, string(class), year); err != nil {
		return 0, fmt.Errorf("next sequence for %s/%d: %w", class, year, err)
	}
	return seq, nil
}

// RedisSequenceRepository is the Redis-backed counter variant. INCR is atomic
// on the server, giving the same uniqueness guarantee with lower latency; the
// key space is scoped per (class, year) so sequences restart each year.
type RedisSequenceRepository struct {
	client *redis.Client
}

// NewRedisSequenceRepository creates a Redis-backed sequence repository.
func NewRedisSequenceRepository(client *redis.Client) *RedisSequenceRepository {
	return &RedisSequenceRepository{client: client}
}

// Next atomically increments and returns the sequence for the given entity
// class and year.
func (r *RedisSequenceRepository) Next(ctx context.Context, class models.EntityClass, year int) (int64, error) {
	key := fmt.Sprintf("hrops:seq:%s:%d", class, year)
	seq, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr sequence %s: %w", key, err)
	}
	return seq, nil
}
