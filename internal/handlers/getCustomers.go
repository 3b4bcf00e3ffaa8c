package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sol1corejz/loyaltydesk/internal/customerquery"
	"github.com/sol1corejz/loyaltydesk/internal/ingest"
	"github.com/sol1corejz/loyaltydesk/internal/logger"
	"github.com/sol1corejz/loyaltydesk/internal/models"
	"github.com/sol1corejz/loyaltydesk/internal/storage"
	"go.uber.org/zap"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

type CustomerResponse struct {
	Code          string              `json:"code"`
	SerialNo      string              `json:"sl_no"`
	Name          string              `json:"name"`
	HouseName     string              `json:"house_name"`
	Street        string              `json:"street"`
	Place         string              `json:"place"`
	PinCode       string              `json:"pin_code"`
	Phone         string              `json:"phone"`
	Mobile        string              `json:"mobile"`
	NetWeight     decimal.NullDecimal `json:"net_weight"`
	LastSalesDate string              `json:"last_sales_date,omitempty"`
	Total         int                 `json:"total"`
	Claimed       int                 `json:"claimed"`
	Unclaimed     int                 `json:"unclaimed"`
	Eligible      bool                `json:"eligible"`
	MaxClaimable  int                 `json:"max_claimable"`
}

type CustomersResponse struct {
	Data            []CustomerResponse `json:"data"`
	TotalCount      int                `json:"total_count"`
	EligibleCount   int                `json:"eligible_count"`
	TotalPages      int                `json:"total_pages"`
	Page            int                `json:"page"`
	PageSize        int                `json:"page_size"`
	PageSizeOptions []int              `json:"page_size_options"`
}

func newCustomersResponse(page models.CustomerPage, q customerquery.Query) CustomersResponse {
	response := CustomersResponse{
		Data:            make([]CustomerResponse, 0, len(page.Rows)),
		TotalCount:      page.TotalCount,
		EligibleCount:   page.EligibleCount,
		TotalPages:      customerquery.TotalPages(page.TotalCount, q.PageSize),
		Page:            q.Page,
		PageSize:        q.PageSize,
		PageSizeOptions: customerquery.PageSizeOptions,
	}
	for _, row := range page.Rows {
		response.Data = append(response.Data, newCustomerResponse(row))
	}
	return response
}

func newCustomerResponse(row models.CustomerRow) CustomerResponse {
	response := CustomerResponse{
		Code:         row.CustomerCode,
		SerialNo:     row.SerialNo,
		Name:         row.Name,
		HouseName:    row.HouseName,
		Street:       row.Street,
		Place:        row.Place,
		PinCode:      row.PinCode,
		Phone:        row.Phone,
		Mobile:       row.Mobile,
		NetWeight:    row.NetWeight,
		Total:        row.TotalPoints,
		Claimed:      row.ClaimedPoints,
		Unclaimed:    row.UnclaimedPoints,
		Eligible:     Policy.IsEligible(row.UnclaimedPoints),
		MaxClaimable: Policy.MaxClaimable(row.UnclaimedPoints),
	}
	if row.LastSalesDate != nil {
		response.LastSalesDate = row.LastSalesDate.Format(dateLayout)
	}
	return response
}

// parseCustomerQuery reads search, filters and paging from the query string.
// Empty parameters impose no constraint.
func parseCustomerQuery(c *fiber.Ctx) (customerquery.Query, error) {
	var f customerquery.Filters

	for _, d := range []struct {
		key    string
		target **time.Time
	}{
		{"start_date", &f.DateRange.Start},
		{"end_date", &f.DateRange.End},
	} {
		raw := c.Query(d.key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return customerquery.Query{}, fmt.Errorf("invalid %s %q", d.key, raw)
		}
		*d.target = &t
	}

	for _, p := range []struct {
		key    string
		target **int
	}{
		{"min_total", &f.Points.MinTotal},
		{"max_total", &f.Points.MaxTotal},
		{"min_claimed", &f.Points.MinClaimed},
		{"max_claimed", &f.Points.MaxClaimed},
		{"min_unclaimed", &f.Points.MinUnclaimed},
		{"max_unclaimed", &f.Points.MaxUnclaimed},
	} {
		raw := c.Query(p.key)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return customerquery.Query{}, fmt.Errorf("invalid %s %q", p.key, raw)
		}
		*p.target = &v
	}

	f.ClaimStatus.HasClaimed = c.QueryBool("has_claimed")
	f.ClaimStatus.HasEligibleClaims = c.QueryBool("has_eligible_claims")

	return Queries.Build(c.Query("q"), f, c.QueryInt("page", 1), c.QueryInt("page_size", customerquery.DefaultPageSize)), nil
}

func GetCustomersHandler(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	q, err := parseCustomerQuery(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	page, err := storage.SearchCustomers(ctx, q)
	if err != nil {
		logger.Log.Error("Error searching customers", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load customer data. Please try again.")
	}

	return c.Status(fiber.StatusOK).JSON(newCustomersResponse(page, q))
}

func GetCustomerHandler(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	row, err := storage.GetCustomer(ctx, c.Params("code"))
	if errors.Is(err, storage.ErrNotFound) {
		return errorJSON(c, fiber.StatusNotFound, "Customer not found")
	}
	if err != nil {
		logger.Log.Error("Error getting customer", zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.Status(fiber.StatusOK).JSON(newCustomerResponse(row))
}

func ExportCustomersHandler(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	q, err := parseCustomerQuery(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	rows, err := storage.ExportCustomers(ctx, q)
	if err != nil {
		logger.Log.Error("Error exporting customers", zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	var buf bytes.Buffer
	if err := ingest.WriteCustomers(&buf, rows); err != nil {
		logger.Log.Error("Error writing csv", zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	c.Attachment("customer_data.csv")
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}
