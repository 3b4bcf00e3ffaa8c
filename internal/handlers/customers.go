package handlers

import (
	"errors"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sol1corejz/loyaltydesk/internal/ingest"
	"github.com/sol1corejz/loyaltydesk/internal/logger"
	"github.com/sol1corejz/loyaltydesk/internal/models"
	"github.com/sol1corejz/loyaltydesk/internal/storage"
	"go.uber.org/zap"
	"strings"
)

type CustomerRequest struct {
	Code          string `json:"code"`
	SerialNo      string `json:"sl_no"`
	Name          string `json:"name"`
	HouseName     string `json:"house_name"`
	Street        string `json:"street"`
	Place         string `json:"place"`
	PinCode       string `json:"pin_code"`
	Phone         string `json:"phone"`
	Mobile        string `json:"mobile"`
	NetWeight     string `json:"net_weight"`
	LastSalesDate string `json:"last_sales_date"`
}

func (r CustomerRequest) toRecord() (models.SalesRecord, error) {
	record := models.SalesRecord{
		CustomerCode: strings.TrimSpace(r.Code),
		SerialNo:     strings.TrimSpace(r.SerialNo),
		Name:         strings.TrimSpace(r.Name),
		HouseName:    strings.TrimSpace(r.HouseName),
		Street:       strings.TrimSpace(r.Street),
		Place:        strings.TrimSpace(r.Place),
		PinCode:      strings.TrimSpace(r.PinCode),
		Phone:        strings.TrimSpace(r.Phone),
		Mobile:       strings.TrimSpace(r.Mobile),
	}
	if record.CustomerCode == "" {
		return record, errors.New("Customer Code is required")
	}

	if raw := strings.TrimSpace(r.NetWeight); raw != "" {
		weight, err := decimal.NewFromString(raw)
		if err != nil || weight.IsNegative() {
			return record, errors.New("Net Weight must be a non-negative number")
		}
		record.NetWeight = decimal.NewNullDecimal(weight)
	}

	if raw := strings.TrimSpace(r.LastSalesDate); raw != "" {
		date, err := ingest.ParseDate(raw)
		if err != nil {
			return record, err
		}
		record.LastSalesDate = &date
	}

	return record, nil
}

func CreateCustomerHandler(c *fiber.Ctx) error {
	var request CustomerRequest
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := c.BodyParser(&request); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	record, err := request.toRecord()
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	err = storage.CreateCustomer(ctx, record)
	if errors.Is(err, storage.ErrAlreadyExists) {
		return errorJSON(c, fiber.StatusConflict, "Customer already exists")
	}
	if err != nil {
		logger.Log.Error("Error creating customer", zap.String("customerCode", record.CustomerCode), zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to save customer data")
	}

	logger.Log.Info("Customer created", zap.String("customerCode", record.CustomerCode))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Customer created",
	})
}

func UpdateCustomerHandler(c *fiber.Ctx) error {
	var request CustomerRequest
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := c.BodyParser(&request); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	// The code in the path wins; customer codes are not editable.
	request.Code = c.Params("code")
	record, err := request.toRecord()
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	err = storage.UpdateCustomer(ctx, record)
	if errors.Is(err, storage.ErrNotFound) {
		return errorJSON(c, fiber.StatusNotFound, "Customer not found")
	}
	if err != nil {
		logger.Log.Error("Error updating customer", zap.String("customerCode", record.CustomerCode), zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to save customer data")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Customer updated",
	})
}

func DeleteCustomerHandler(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	code := c.Params("code")

	n, err := storage.DeleteCustomers(ctx, code)
	if err != nil {
		logger.Log.Error("Error deleting customer", zap.String("customerCode", code), zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to delete customer. Please try again.")
	}
	if n == 0 {
		return errorJSON(c, fiber.StatusNotFound, "Customer not found")
	}

	logger.Log.Info("Customer deleted", zap.String("customerCode", code))
	return c.SendStatus(fiber.StatusNoContent)
}
