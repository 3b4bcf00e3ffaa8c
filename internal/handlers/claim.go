package handlers

import (
	"context"
	"errors"
	"github.com/gofiber/fiber/v2"
	"github.com/sol1corejz/loyaltydesk/internal/claim"
	"github.com/sol1corejz/loyaltydesk/internal/logger"
	"github.com/sol1corejz/loyaltydesk/internal/middleware"
	"github.com/sol1corejz/loyaltydesk/internal/models"
	"github.com/sol1corejz/loyaltydesk/internal/storage"
	"go.uber.org/zap"
	"time"
)

type ClaimRequest struct {
	Points int `json:"points"`
}

type ClaimResponse struct {
	Message string          `json:"message"`
	Claimed int             `json:"claimed"`
	Balance BalanceResponse `json:"balance"`
}

func ClaimPointsHandler(c *fiber.Ctx) error {
	var request ClaimRequest
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := c.BodyParser(&request); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	code := c.Params("code")
	staffID := middleware.UserID(c)

	attempt, err := Claims.Run(ctx, claim.Request{
		CustomerCode: code,
		Amount:       request.Points,
		StaffID:      staffID,
	})
	if err != nil {
		return claimError(c, attempt, err)
	}

	logger.Log.Info("Points claimed",
		zap.String("customerCode", code),
		zap.String("staffID", staffID.String()),
		zap.Int("points", request.Points),
		zap.Int("unclaimed", attempt.After.UnclaimedPoints))

	after := attempt.After
	return c.Status(fiber.StatusOK).JSON(ClaimResponse{
		Message: attempt.Message,
		Claimed: request.Points,
		Balance: newBalanceResponse(code, after.TotalPoints, after.ClaimedPoints, after.UnclaimedPoints, after.LastUpdated),
	})
}

func claimError(c *fiber.Ctx, attempt *claim.Attempt, err error) error {
	var verr *claim.ValidationError

	switch {
	case errors.As(err, &verr):
		options := Policy.ClaimAmountOptions(verr.Unclaimed)
		if options == nil {
			options = []int{}
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":         verr.Error(),
			"reason":        verr.Reason,
			"max_claimable": verr.MaxClaimable,
			"claim_options": options,
		})
	case errors.Is(err, claim.ErrUnknownCustomer):
		return errorJSON(c, fiber.StatusNotFound, "Customer points record not found")
	case errors.Is(err, claim.ErrBalanceUnavailable):
		logger.Log.Error("Error fetching balance before claim", zap.Error(err))
		return errorJSON(c, fiber.StatusServiceUnavailable, claim.ErrBalanceUnavailable.Error())
	case errors.Is(err, claim.ErrInsufficientPoints), errors.Is(err, claim.ErrInvalidAmount):
		logger.Log.Info("Claim rejected by ledger", zap.Error(err))
		return errorJSON(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		logger.Log.Warn("Context canceled or timeout exceeded", zap.String("state", string(attempt.State)))
		return errorJSON(c, fiber.StatusRequestTimeout, "Request timed out")
	default:
		logger.Log.Error("Error submitting claim", zap.Error(err))
		return errorJSON(c, fiber.StatusBadGateway, err.Error())
	}
}

type ClaimHistoryEntry struct {
	ID            string    `json:"id"`
	PointsClaimed int       `json:"points_claimed"`
	ClaimedBy     string    `json:"claimed_by,omitempty"`
	ClaimedAt     time.Time `json:"claimed_at"`
}

type ClaimHistoryResponse struct {
	CustomerCode string              `json:"customer_code"`
	Stats        claim.Stats         `json:"stats"`
	Claims       []ClaimHistoryEntry `json:"claims"`
}

func GetClaimHistoryHandler(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	code := c.Params("code")

	if _, err := Ledger.GetBalance(ctx, code); err != nil {
		if errors.Is(err, claim.ErrUnknownCustomer) {
			return errorJSON(c, fiber.StatusNotFound, "Customer points record not found")
		}
		logger.Log.Error("Error getting customer points", zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	history, err := storage.GetClaimHistory(ctx, code)
	if err != nil {
		logger.Log.Error("Error getting claim history", zap.String("customerCode", code), zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load claim history")
	}

	return c.Status(fiber.StatusOK).JSON(newClaimHistoryResponse(code, history))
}

func newClaimHistoryResponse(code string, history []models.ClaimHistory) ClaimHistoryResponse {
	response := ClaimHistoryResponse{
		CustomerCode: code,
		Stats:        claim.Summarize(history),
		Claims:       make([]ClaimHistoryEntry, 0, len(history)),
	}
	for _, entry := range history {
		item := ClaimHistoryEntry{
			ID:            entry.ID.String(),
			PointsClaimed: entry.PointsClaimed,
			ClaimedAt:     entry.ClaimedAt,
		}
		if entry.ClaimedBy.Valid {
			item.ClaimedBy = entry.ClaimedBy.UUID.String()
		}
		response.Claims = append(response.Claims, item)
	}
	return response
}
