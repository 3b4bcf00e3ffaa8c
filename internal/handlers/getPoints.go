package handlers

import (
	"errors"
	"github.com/gofiber/fiber/v2"
	"github.com/sol1corejz/loyaltydesk/internal/claim"
	"github.com/sol1corejz/loyaltydesk/internal/logger"
	"go.uber.org/zap"
)

func GetCustomerPointsHandler(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	code := c.Params("code")

	balance, err := Ledger.GetBalance(ctx, code)
	if errors.Is(err, claim.ErrUnknownCustomer) {
		return errorJSON(c, fiber.StatusNotFound, "Customer points record not found")
	}
	if err != nil {
		logger.Log.Error("Error getting customer points", zap.String("customerCode", code), zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.Status(fiber.StatusOK).JSON(newBalanceResponse(
		balance.CustomerCode, balance.TotalPoints, balance.ClaimedPoints, balance.UnclaimedPoints, balance.LastUpdated,
	))
}
