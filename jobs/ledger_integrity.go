package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/microbooks/microbooks/internal/shared"
)

// scanLockTTL bounds how long a crashed scan can block the next one.
const scanLockTTL = 10 * time.Minute

// MetricsPort counts scan outcomes.
type MetricsPort interface {
	IntegrityScan(outcome string)
}

// IntegrityScanner re-checks posted ledger batches: the debits and credits
// written under one posting id must still sum to zero.
type IntegrityScanner struct {
	pool    *pgxpool.Pool
	redis   *redis.Client
	logger  *slog.Logger
	metrics MetricsPort
}

// NewIntegrityScanner constructs the scanner. The redis client may be nil, in
// which case scans run unguarded.
func NewIntegrityScanner(pool *pgxpool.Pool, rdb *redis.Client, logger *slog.Logger, metrics MetricsPort) *IntegrityScanner {
	return &IntegrityScanner{pool: pool, redis: rdb, logger: logger, metrics: metrics}
}

// Handle processes TaskLedgerIntegrity tasks.
func (s *IntegrityScanner) Handle(ctx context.Context, t *asynq.Task) error {
	var payload LedgerIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if s.redis != nil {
		key := shared.LedgerScanLockKey(payload.EntityID)
		acquired, err := s.redis.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), scanLockTTL).Result()
		if err != nil {
			return err
		}
		if !acquired {
			s.logger.Info("ledger scan already running, skipping", slog.Int64("entity_id", payload.EntityID))
			return nil
		}
		defer s.redis.Del(context.WithoutCancel(ctx), key)
	}
	drifted, err := s.Scan(ctx, payload.EntityID)
	if err != nil {
		return err
	}
	if len(drifted) > 0 && s.metrics != nil {
		s.metrics.IntegrityScan("drift")
	} else if s.metrics != nil {
		s.metrics.IntegrityScan("clean")
	}
	return nil
}

// Drift describes one posting batch that no longer sums to zero.
type Drift struct {
	PostingID string
	Net       string
}

// Scan returns the posting batches whose entries do not balance. Soft deleted
// transactions are excluded, matching what reports and balances read.
func (s *IntegrityScanner) Scan(ctx context.Context, entityID int64) ([]Drift, error) {
	rows, err := s.pool.Query(ctx, `SELECT l.posting_id::text,
SUM(CASE WHEN l.entry_type='DEBIT' THEN l.amount ELSE -l.amount END)::text
FROM ledger_entries l
JOIN transactions t ON t.id = l.transaction_id
WHERE ($1 = 0 OR l.entity_id = $1) AND t.deleted_at IS NULL
GROUP BY l.posting_id
HAVING SUM(CASE WHEN l.entry_type='DEBIT' THEN l.amount ELSE -l.amount END) <> 0`, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Drift
	for rows.Next() {
		var d Drift
		if err := rows.Scan(&d.PostingID, &d.Net); err != nil {
			return nil, err
		}
		s.logger.Error("ledger drift detected",
			slog.String("posting_id", d.PostingID),
			slog.String("net", d.Net))
		out = append(out, d)
	}
	return out, rows.Err()
}
