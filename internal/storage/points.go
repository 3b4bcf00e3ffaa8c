package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/sol1corejz/loyaltydesk/internal/claim"
	"github.com/sol1corejz/loyaltydesk/internal/models"
)

func GetCustomerPoints(ctx context.Context, code string) (models.CustomerPoints, error) {
	var balance models.CustomerPoints

	err := DB.QueryRowContext(ctx, `
		SELECT customer_code, total_points, claimed_points, unclaimed_points, last_updated
		FROM customer_points WHERE customer_code = $1;
	`, code).Scan(&balance.CustomerCode, &balance.TotalPoints, &balance.ClaimedPoints, &balance.UnclaimedPoints, &balance.LastUpdated)

	if errors.Is(err, sql.ErrNoRows) {
		return models.CustomerPoints{}, claim.ErrUnknownCustomer
	}
	if err != nil {
		return models.CustomerPoints{}, err
	}

	return balance, nil
}

// ClaimPoints calls claim_points, which checks the amount and the balance under
// a row lock, moves the points and records the claim in one statement.
func ClaimPoints(ctx context.Context, code string, amount int, unit int, staffID uuid.UUID) (models.CustomerPoints, error) {
	balance := models.CustomerPoints{CustomerCode: code}
	claimedBy := uuid.NullUUID{UUID: staffID, Valid: staffID != uuid.Nil}

	err := DB.QueryRowContext(ctx, `
		SELECT r_total, r_claimed, r_unclaimed, r_updated FROM claim_points($1, $2, $3, $4, $5);
	`, uuid.New(), code, amount, unit, claimedBy).Scan(&balance.TotalPoints, &balance.ClaimedPoints, &balance.UnclaimedPoints, &balance.LastUpdated)

	if err == nil {
		return balance, nil
	}

	switch pgCode(err) {
	case codeInvalidAmount:
		return models.CustomerPoints{}, fmt.Errorf("%w: %s", claim.ErrInvalidAmount, pgMessage(err))
	case codeUnknownCustomer:
		return models.CustomerPoints{}, fmt.Errorf("%w: %s", claim.ErrUnknownCustomer, pgMessage(err))
	case codeInsufficientFunds, codeCheckViolation:
		return models.CustomerPoints{}, fmt.Errorf("%w: %s", claim.ErrInsufficientPoints, pgMessage(err))
	}

	return models.CustomerPoints{}, err
}

func GetClaimHistory(ctx context.Context, code string) ([]models.ClaimHistory, error) {
	rows, err := DB.QueryContext(ctx, `
		SELECT id, customer_code, points_claimed, claimed_by, claimed_at
		FROM claim_history WHERE customer_code = $1
		ORDER BY claimed_at DESC;
	`, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []models.ClaimHistory
	for rows.Next() {
		var entry models.ClaimHistory
		err = rows.Scan(&entry.ID, &entry.CustomerCode, &entry.PointsClaimed, &entry.ClaimedBy, &entry.ClaimedAt)
		if err != nil {
			return nil, err
		}
		history = append(history, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return history, nil
}

// Ledger exposes the points tables to the claim workflow.
type Ledger struct {
	Unit int
}

func (l Ledger) GetBalance(ctx context.Context, code string) (models.CustomerPoints, error) {
	return GetCustomerPoints(ctx, code)
}

func (l Ledger) ClaimPoints(ctx context.Context, code string, amount int, staffID uuid.UUID) (models.ClaimResult, error) {
	balance, err := ClaimPoints(ctx, code, amount, l.Unit, staffID)
	if err != nil {
		return models.ClaimResult{}, err
	}

	return models.ClaimResult{
		Message: fmt.Sprintf("Claimed %d points for customer %s, %d points remaining", amount, code, balance.UnclaimedPoints),
		Balance: balance,
	}, nil
}
