// Package claim runs a single point claim against the ledger.
//
// An attempt is strictly sequenced: the balance is fetched, the amount is
// validated against the points policy, the claim is submitted once and the
// balance is fetched again. The ledger's answer after submission is the truth;
// nothing is predicted locally and nothing is retried.
package claim

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/sol1corejz/loyaltydesk/internal/logger"
	"github.com/sol1corejz/loyaltydesk/internal/models"
	"github.com/sol1corejz/loyaltydesk/internal/points"
	"go.uber.org/zap"
	"time"
)

type State string

const (
	Idle           State = "IDLE"
	BalanceFetched State = "BALANCE_FETCHED"
	Validated      State = "VALIDATED"
	Submitted      State = "SUBMITTED"
	Confirmed      State = "CONFIRMED"
	Rejected       State = "REJECTED"
	Failed         State = "FAILED"
)

var (
	ErrBalanceUnavailable = errors.New("unable to determine eligibility")

	// Rejections the ledger itself reports. They are expected outcomes when
	// the balance changed between fetch and submit.
	ErrInsufficientPoints = errors.New("insufficient unclaimed points")
	ErrInvalidAmount      = errors.New("invalid claim amount")
	ErrUnknownCustomer    = errors.New("unknown customer")
)

type Ledger interface {
	GetBalance(ctx context.Context, customerCode string) (models.CustomerPoints, error)
	ClaimPoints(ctx context.Context, customerCode string, amount int, staffID uuid.UUID) (models.ClaimResult, error)
}

type Reason string

const (
	ReasonNotPositive Reason = "amount must be positive"
	ReasonNotMultiple Reason = "amount is not a multiple of the claim unit"
	ReasonExceedsMax  Reason = "amount exceeds the maximum claimable points"
	ReasonNotEligible Reason = "customer does not have enough unclaimed points"
	ReasonMissingCode Reason = "customer code is required"
)

// ValidationError is returned when a request is rejected before it reaches the ledger.
type ValidationError struct {
	Reason       Reason
	Amount       int
	Unclaimed    int
	MaxClaimable int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s (requested %d, unclaimed %d, max claimable %d)",
		e.Reason, e.Amount, e.Unclaimed, e.MaxClaimable)
}

type Request struct {
	CustomerCode string
	Amount       int
	StaffID      uuid.UUID
}

// Attempt is the state of one claim. It is created per request and discarded after.
type Attempt struct {
	Request Request
	State   State
	// Before is the balance the request was validated against.
	Before models.CustomerPoints
	// After is the authoritative balance once the claim is confirmed.
	After   models.CustomerPoints
	Message string
	Err     error
}

// RefetchTimeout bounds the balance read that follows a confirmed claim.
const RefetchTimeout = 5 * time.Second

type Workflow struct {
	ledger         Ledger
	policy         points.Policy
	refetchTimeout time.Duration
}

func NewWorkflow(ledger Ledger, policy points.Policy) *Workflow {
	return &Workflow{ledger: ledger, policy: points.New(policy.Unit), refetchTimeout: RefetchTimeout}
}

// Validate checks amount against an unclaimed balance without touching the ledger.
func (w *Workflow) Validate(amount, unclaimed int) error {
	if w.policy.IsValidClaimAmount(amount, unclaimed) {
		return nil
	}

	verr := &ValidationError{
		Amount:       amount,
		Unclaimed:    unclaimed,
		MaxClaimable: w.policy.MaxClaimable(unclaimed),
	}
	switch {
	case amount <= 0:
		verr.Reason = ReasonNotPositive
	case amount%w.policy.Unit != 0:
		verr.Reason = ReasonNotMultiple
	case !w.policy.IsEligible(unclaimed):
		verr.Reason = ReasonNotEligible
	default:
		verr.Reason = ReasonExceedsMax
	}
	return verr
}

// Run executes one claim attempt. The returned attempt is never nil and its
// State tells where the attempt stopped.
func (w *Workflow) Run(ctx context.Context, req Request) (*Attempt, error) {
	attempt := &Attempt{Request: req, State: Idle}

	if req.CustomerCode == "" {
		return attempt.reject(&ValidationError{Reason: ReasonMissingCode, Amount: req.Amount})
	}

	before, err := w.ledger.GetBalance(ctx, req.CustomerCode)
	if err != nil {
		if errors.Is(err, ErrUnknownCustomer) {
			return attempt.fail(err)
		}
		return attempt.fail(fmt.Errorf("%w: %w", ErrBalanceUnavailable, err))
	}
	attempt.Before = before
	attempt.State = BalanceFetched

	if err := w.Validate(req.Amount, before.UnclaimedPoints); err != nil {
		return attempt.reject(err)
	}
	attempt.State = Validated

	// The attempt may still be abandoned here; past this point it may not.
	if err := ctx.Err(); err != nil {
		return attempt.fail(err)
	}

	attempt.State = Submitted
	result, err := w.ledger.ClaimPoints(ctx, req.CustomerCode, req.Amount, req.StaffID)
	if err != nil {
		return attempt.fail(err)
	}

	attempt.State = Confirmed
	attempt.Message = result.Message
	attempt.After = result.Balance

	// A submitted claim is not undone by the caller going away, but the
	// refresh still gets its own deadline.
	refetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.refetchTimeout)
	defer cancel()

	after, err := w.ledger.GetBalance(refetchCtx, req.CustomerCode)
	if err != nil {
		logger.Log.Warn("Failed to refresh balance after claim",
			zap.String("customerCode", req.CustomerCode), zap.Error(err))
		return attempt, nil
	}
	attempt.After = after

	if predicted := before.UnclaimedPoints - req.Amount; after.UnclaimedPoints != predicted {
		logger.Log.Info("Ledger balance differs from local prediction",
			zap.String("customerCode", req.CustomerCode),
			zap.Int("predicted", predicted),
			zap.Int("unclaimed", after.UnclaimedPoints))
	}

	return attempt, nil
}

func (a *Attempt) reject(err error) (*Attempt, error) {
	a.State = Rejected
	a.Err = err
	return a, err
}

func (a *Attempt) fail(err error) (*Attempt, error) {
	a.State = Failed
	a.Err = err
	return a, err
}
