package points

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	tests := []struct {
		name      string
		unclaimed int
		eligible  bool
		max       int
		options   []int
	}{
		{name: "empty balance", unclaimed: 0, eligible: false, max: 0, options: nil},
		{name: "below unit", unclaimed: 4, eligible: false, max: 0, options: nil},
		{name: "exactly one unit", unclaimed: 5, eligible: true, max: 5, options: []int{5}},
		{name: "rounded down", unclaimed: 23, eligible: true, max: 20, options: []int{5, 10, 15, 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.eligible, IsEligible(tt.unclaimed))
			require.Equal(t, tt.max, MaxClaimable(tt.unclaimed))
			require.Equal(t, tt.options, ClaimAmountOptions(tt.unclaimed))
		})
	}
}

func TestIsValidClaimAmount(t *testing.T) {
	require.True(t, IsValidClaimAmount(20, 23))
	require.False(t, IsValidClaimAmount(25, 23))
	require.False(t, IsValidClaimAmount(7, 23))
	require.False(t, IsValidClaimAmount(0, 23))
	require.False(t, IsValidClaimAmount(-5, 23))
	require.False(t, IsValidClaimAmount(5, 4))
}

func TestPolicyProperties(t *testing.T) {
	for _, unit := range []int{5, 10} {
		p := New(unit)
		for u := 0; u <= 200; u++ {
			max := p.MaxClaimable(u)
			require.LessOrEqual(t, max, u)
			require.Zero(t, max%unit)
			require.Equal(t, max, p.MaxClaimable(u))
			require.Equal(t, p.IsEligible(u), max > 0)
			require.Equal(t, p.IsEligible(u), u >= unit)

			options := p.ClaimAmountOptions(u)
			if max == 0 {
				require.Empty(t, options)
			} else {
				require.Equal(t, max, options[len(options)-1])
			}
			for i, amount := range options {
				require.Positive(t, amount)
				require.Zero(t, amount%unit)
				if i > 0 {
					require.Greater(t, amount, options[i-1])
				}
			}

			for amount := -unit; amount <= u+unit; amount++ {
				require.Equal(t, p.IsValidClaimAmount(amount, u), contains(options, amount),
					"unit=%d unclaimed=%d amount=%d", unit, u, amount)
			}

			if u > 0 {
				require.GreaterOrEqual(t, max, p.MaxClaimable(u-1))
			}
		}
	}
}

func TestNewFallsBackToDefaultUnit(t *testing.T) {
	require.Equal(t, DefaultUnit, New(0).Unit)
	require.Equal(t, DefaultUnit, New(-3).Unit)
	require.Equal(t, 10, New(10).Unit)
	require.Equal(t, 20, Policy{}.MaxClaimable(23))
}

func TestNegativeBalanceIsNeverEligible(t *testing.T) {
	require.False(t, IsEligible(-10))
	require.Zero(t, MaxClaimable(-10))
	require.Empty(t, ClaimAmountOptions(-10))
}

func contains(values []int, v int) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
