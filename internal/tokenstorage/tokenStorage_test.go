package tokenstorage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRevokeAndSweep(t *testing.T) {
	now := time.Now()

	RevokeToken("expired", now.Add(-time.Second))
	RevokeToken("live", now.Add(time.Hour))

	require.True(t, IsRevoked("expired"))
	require.True(t, IsRevoked("live"))
	require.False(t, IsRevoked("unknown"))

	require.Equal(t, 1, Sweep(now))
	require.False(t, IsRevoked("expired"))
	require.True(t, IsRevoked("live"))

	require.Equal(t, 1, Sweep(now.Add(2*time.Hour)))
	require.Zero(t, Len())
}
