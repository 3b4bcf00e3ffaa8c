package workers

import (
	"context"
	"github.com/sol1corejz/loyaltydesk/internal/logger"
	"github.com/sol1corejz/loyaltydesk/internal/tokenstorage"
	"go.uber.org/zap"
	"time"
)

const DefaultSweepInterval = time.Minute

// InitTokenSweeper periodically drops revoked tokens that have expired anyway.
// The worker stops when ctx is done.
func InitTokenSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	go startSweeper(ctx, interval)

	logger.Log.Info("Token sweeper started", zap.Duration("interval", interval))
}

func startSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("Token sweeper stopped")
			return
		case now := <-ticker.C:
			sweepRevokedTokens(now)
		}
	}
}

func sweepRevokedTokens(now time.Time) int {
	removed := tokenstorage.Sweep(now)
	if removed > 0 {
		logger.Log.Debug("Expired revoked tokens removed",
			zap.Int("removed", removed),
			zap.Int("remaining", tokenstorage.Len()))
	}
	return removed
}
