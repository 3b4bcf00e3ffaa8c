package handlers

import (
	"context"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sol1corejz/loyaltydesk/internal/claim"
	"github.com/sol1corejz/loyaltydesk/internal/customerquery"
	"github.com/sol1corejz/loyaltydesk/internal/points"
	"time"
)

const requestTimeout = 10 * time.Second

var (
	Ledger claim.Ledger
	Claims *claim.Workflow
)

var (
	Policy     = points.New(points.DefaultUnit)
	Queries    = customerquery.NewBuilder(Policy)
	PointsRate = decimal.NewFromInt(1)
)

// Init wires the handlers to a ledger and the configured claim unit.
func Init(ledger claim.Ledger, unit int, rate decimal.Decimal) {
	Policy = points.New(unit)
	Ledger = ledger
	Claims = claim.NewWorkflow(ledger, Policy)
	Queries = customerquery.NewBuilder(Policy)
	PointsRate = rate
}

func requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), requestTimeout)
}

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

type BalanceResponse struct {
	CustomerCode  string    `json:"customer_code"`
	Total         int       `json:"total"`
	Claimed       int       `json:"claimed"`
	Unclaimed     int       `json:"unclaimed"`
	Eligible      bool      `json:"eligible"`
	MaxClaimable  int       `json:"max_claimable"`
	ClaimOptions  []int     `json:"claim_options"`
	MinimumClaim  int       `json:"minimum_claim"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

func newBalanceResponse(code string, total, claimed, unclaimed int, updated time.Time) BalanceResponse {
	options := Policy.ClaimAmountOptions(unclaimed)
	if options == nil {
		options = []int{}
	}
	return BalanceResponse{
		CustomerCode:  code,
		Total:         total,
		Claimed:       claimed,
		Unclaimed:     unclaimed,
		Eligible:      Policy.IsEligible(unclaimed),
		MaxClaimable:  Policy.MaxClaimable(unclaimed),
		ClaimOptions:  options,
		MinimumClaim:  Policy.Unit,
		LastUpdatedAt: updated,
	}
}
