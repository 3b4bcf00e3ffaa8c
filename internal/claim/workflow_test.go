package claim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sol1corejz/loyaltydesk/internal/models"
	"github.com/sol1corejz/loyaltydesk/internal/points"
	"github.com/stretchr/testify/require"
)

type ledgerMock struct {
	getBalanceFn  func(ctx context.Context, code string) (models.CustomerPoints, error)
	claimPointsFn func(ctx context.Context, code string, amount int, staffID uuid.UUID) (models.ClaimResult, error)

	calls []string
}

func (m *ledgerMock) GetBalance(ctx context.Context, code string) (models.CustomerPoints, error) {
	m.calls = append(m.calls, "get")
	if m.getBalanceFn != nil {
		return m.getBalanceFn(ctx, code)
	}
	return models.CustomerPoints{}, nil
}

func (m *ledgerMock) ClaimPoints(ctx context.Context, code string, amount int, staffID uuid.UUID) (models.ClaimResult, error) {
	m.calls = append(m.calls, "claim")
	if m.claimPointsFn != nil {
		return m.claimPointsFn(ctx, code, amount, staffID)
	}
	return models.ClaimResult{}, nil
}

func balance(code string, total, claimed int) models.CustomerPoints {
	return models.CustomerPoints{
		CustomerCode:    code,
		TotalPoints:     total,
		ClaimedPoints:   claimed,
		UnclaimedPoints: total - claimed,
	}
}

func TestRunConfirmedUsesRefetchedBalance(t *testing.T) {
	fetches := 0
	ledger := &ledgerMock{
		getBalanceFn: func(ctx context.Context, code string) (models.CustomerPoints, error) {
			fetches++
			if fetches == 1 {
				return balance(code, 23, 0), nil
			}
			// another claim landed concurrently
			return balance(code, 23, 23), nil
		},
		claimPointsFn: func(ctx context.Context, code string, amount int, _ uuid.UUID) (models.ClaimResult, error) {
			require.Equal(t, "C001", code)
			require.Equal(t, 20, amount)
			return models.ClaimResult{Message: "Claimed 20 points", Balance: balance(code, 23, 20)}, nil
		},
	}

	wf := NewWorkflow(ledger, points.New(5))
	attempt, err := wf.Run(context.Background(), Request{CustomerCode: "C001", Amount: 20})
	require.NoError(t, err)
	require.Equal(t, Confirmed, attempt.State)
	require.Equal(t, 23, attempt.Before.UnclaimedPoints)
	require.Equal(t, 0, attempt.After.UnclaimedPoints)
	require.Equal(t, "Claimed 20 points", attempt.Message)
	require.Equal(t, []string{"get", "claim", "get"}, ledger.calls)
}

func TestRunRejectsWithoutSubmitting(t *testing.T) {
	tests := []struct {
		name      string
		amount    int
		unclaimed int
		reason    Reason
	}{
		{name: "exceeds max", amount: 25, unclaimed: 23, reason: ReasonExceedsMax},
		{name: "not a multiple", amount: 7, unclaimed: 23, reason: ReasonNotMultiple},
		{name: "zero", amount: 0, unclaimed: 23, reason: ReasonNotPositive},
		{name: "negative", amount: -5, unclaimed: 23, reason: ReasonNotPositive},
		{name: "not eligible", amount: 5, unclaimed: 4, reason: ReasonNotEligible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &ledgerMock{
				getBalanceFn: func(ctx context.Context, code string) (models.CustomerPoints, error) {
					return balance(code, tt.unclaimed, 0), nil
				},
			}

			attempt, err := NewWorkflow(ledger, points.New(5)).Run(context.Background(), Request{CustomerCode: "C001", Amount: tt.amount})
			require.Error(t, err)
			require.Equal(t, Rejected, attempt.State)
			require.Equal(t, []string{"get"}, ledger.calls)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			require.Equal(t, tt.reason, verr.Reason)
		})
	}
}

func TestRunMissingCode(t *testing.T) {
	ledger := &ledgerMock{}
	attempt, err := NewWorkflow(ledger, points.Policy{}).Run(context.Background(), Request{Amount: 5})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, ReasonMissingCode, verr.Reason)
	require.Equal(t, Rejected, attempt.State)
	require.Empty(t, ledger.calls)
}

func TestRunFetchFailure(t *testing.T) {
	boom := errors.New("connection refused")
	ledger := &ledgerMock{
		getBalanceFn: func(ctx context.Context, code string) (models.CustomerPoints, error) {
			return models.CustomerPoints{}, boom
		},
	}

	attempt, err := NewWorkflow(ledger, points.New(5)).Run(context.Background(), Request{CustomerCode: "C001", Amount: 5})
	require.ErrorIs(t, err, ErrBalanceUnavailable)
	require.ErrorIs(t, err, boom)
	require.Equal(t, Failed, attempt.State)
	require.Equal(t, []string{"get"}, ledger.calls)
}

func TestRunUnknownCustomer(t *testing.T) {
	ledger := &ledgerMock{
		getBalanceFn: func(ctx context.Context, code string) (models.CustomerPoints, error) {
			return models.CustomerPoints{}, ErrUnknownCustomer
		},
	}

	attempt, err := NewWorkflow(ledger, points.New(5)).Run(context.Background(), Request{CustomerCode: "NOPE", Amount: 5})
	require.ErrorIs(t, err, ErrUnknownCustomer)
	require.NotErrorIs(t, err, ErrBalanceUnavailable)
	require.Equal(t, Failed, attempt.State)
}

func TestRunSubmissionFailureIsNotRetried(t *testing.T) {
	ledger := &ledgerMock{
		getBalanceFn: func(ctx context.Context, code string) (models.CustomerPoints, error) {
			return balance(code, 50, 0), nil
		},
		claimPointsFn: func(ctx context.Context, code string, amount int, _ uuid.UUID) (models.ClaimResult, error) {
			return models.ClaimResult{}, ErrInsufficientPoints
		},
	}

	attempt, err := NewWorkflow(ledger, points.New(5)).Run(context.Background(), Request{CustomerCode: "C001", Amount: 50})
	require.ErrorIs(t, err, ErrInsufficientPoints)
	require.Equal(t, Failed, attempt.State)
	require.Equal(t, []string{"get", "claim"}, ledger.calls)
	require.Equal(t, 50, attempt.Before.UnclaimedPoints)
	require.Zero(t, attempt.After.UnclaimedPoints)
}

func TestRunCanceledBeforeSubmit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ledger := &ledgerMock{
		getBalanceFn: func(_ context.Context, code string) (models.CustomerPoints, error) {
			cancel()
			return balance(code, 10, 0), nil
		},
	}

	attempt, err := NewWorkflow(ledger, points.New(5)).Run(ctx, Request{CustomerCode: "C001", Amount: 10})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, Failed, attempt.State)
	require.Equal(t, []string{"get"}, ledger.calls)
}

func TestRunKeepsConfirmationWhenRefetchFails(t *testing.T) {
	fetches := 0
	ledger := &ledgerMock{
		getBalanceFn: func(ctx context.Context, code string) (models.CustomerPoints, error) {
			fetches++
			if fetches > 1 {
				return models.CustomerPoints{}, errors.New("timeout")
			}
			return balance(code, 23, 0), nil
		},
		claimPointsFn: func(ctx context.Context, code string, amount int, _ uuid.UUID) (models.ClaimResult, error) {
			return models.ClaimResult{Balance: balance(code, 23, 20)}, nil
		},
	}

	attempt, err := NewWorkflow(ledger, points.New(5)).Run(context.Background(), Request{CustomerCode: "C001", Amount: 20})
	require.NoError(t, err)
	require.Equal(t, Confirmed, attempt.State)
	require.Equal(t, 3, attempt.After.UnclaimedPoints)
}

func TestRunRefetchIsBounded(t *testing.T) {
	fetches := 0
	ledger := &ledgerMock{
		getBalanceFn: func(ctx context.Context, code string) (models.CustomerPoints, error) {
			fetches++
			if fetches == 1 {
				return balance(code, 23, 0), nil
			}
			select {
			case <-ctx.Done():
				return models.CustomerPoints{}, ctx.Err()
			case <-time.After(3 * time.Second):
				return balance(code, 23, 20), nil
			}
		},
		claimPointsFn: func(ctx context.Context, code string, amount int, _ uuid.UUID) (models.ClaimResult, error) {
			return models.ClaimResult{Message: "claimed", Balance: balance(code, 23, 20)}, nil
		},
	}

	w := NewWorkflow(ledger, points.New(5))
	w.refetchTimeout = 50 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	attempt, err := w.Run(ctx, Request{CustomerCode: "C001", Amount: 20})
	require.NoError(t, err)
	require.Less(t, time.Since(start), time.Second)
	require.Equal(t, Confirmed, attempt.State)
	require.Equal(t, 3, attempt.After.UnclaimedPoints)
}
