package workers

import (
	"context"
	"testing"
	"time"

	"github.com/sol1corejz/loyaltydesk/internal/tokenstorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepRevokedTokens(t *testing.T) {
	now := time.Now()
	tokenstorage.RevokeToken("sweeper-expired", now.Add(-time.Minute))
	tokenstorage.RevokeToken("sweeper-live", now.Add(time.Hour))

	assert.Equal(t, 1, sweepRevokedTokens(now))
	assert.False(t, tokenstorage.IsRevoked("sweeper-expired"))
	assert.True(t, tokenstorage.IsRevoked("sweeper-live"))
}

func TestTokenSweeperRunsUntilCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tokenstorage.RevokeToken("sweeper-soon", time.Now().Add(10*time.Millisecond))

	InitTokenSweeper(ctx, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return !tokenstorage.IsRevoked("sweeper-soon")
	}, time.Second, 5*time.Millisecond)
}
