package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LotSweeper garbage-collects lots that are drained, past expiry, and no
// longer referenced by any ledger entry's consumption map. Referenced lots
// must stay because reversals credit quantity back to them by ID.
type LotSweeper struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewLotSweeper constructs a LotSweeper.
func NewLotSweeper(pool *pgxpool.Pool, logger *slog.Logger) *LotSweeper {
	return &LotSweeper{pool: pool, logger: logger}
}

// Handle processes TaskLotSweep tasks.
func (s *LotSweeper) Handle(ctx context.Context, t *asynq.Task) error {
	var payload LotSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tag, err := s.pool.Exec(ctx, `
		DELETE FROM lots l
		WHERE l.remaining = 0
		  AND l.expiry IS NOT NULL
		  AND l.expiry < $1
		  AND NOT EXISTS (
			SELECT 1
			FROM ledger_entries e,
			     jsonb_array_elements(e.consumption) AS line
			WHERE (line->>'lot_id')::bigint = l.id
		  )`, time.Now().UTC())
	if err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("lot sweep finished",
			slog.Int64("removed", tag.RowsAffected()),
			slog.Time("scheduled_for", payload.ScheduledFor))
	}
	return nil
}
