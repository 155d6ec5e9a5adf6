package workers

import (
	"context"
	"log"
	"time"

	"alphabet-predictions/models"
	"alphabet-predictions/services"
)

// SweepOnce settles every finished match that still has unevaluated
// predictions and returns how many predictions it evaluated. A failing match
// is logged and left for the next sweep.
func SweepOnce(ctx context.Context, settlement *services.SettlementService) (int, error) {
	ids, err := settlement.PendingMatchIDs(ctx)
	if err != nil {
		return 0, err
	}

	evaluated := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return evaluated, ctx.Err()
		}
		result, err := settlement.SettleMatch(ctx, id, models.SettlementTriggerSweeper)
		if err != nil {
			log.Printf("❌ [SWEEPER] Failed to settle match %d: %v", id, err)
			continue
		}
		evaluated += result.Evaluated
	}
	return evaluated, nil
}

// RunSettlementSweeper runs SweepOnce on every tick until ctx is cancelled.
func RunSettlementSweeper(ctx context.Context, settlement *services.SettlementService, interval time.Duration) {
	log.Printf("Starting settlement sweeper (every %s)...", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Settlement sweeper stopped.")
			return
		case <-ticker.C:
			evaluated, err := SweepOnce(ctx, settlement)
			if err != nil {
				log.Printf("❌ [SWEEPER] Sweep failed: %v", err)
				continue
			}
			if evaluated > 0 {
				log.Printf("✅ [SWEEPER] Evaluated %d stranded prediction(s)", evaluated)
			}
		}
	}
}
