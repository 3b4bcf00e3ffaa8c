package handlers

import (
	"errors"
	"fmt"
	"github.com/gofiber/fiber/v2"
	"github.com/sol1corejz/loyaltydesk/internal/ingest"
	"github.com/sol1corejz/loyaltydesk/internal/logger"
	"github.com/sol1corejz/loyaltydesk/internal/models"
	"github.com/sol1corejz/loyaltydesk/internal/storage"
	"go.uber.org/zap"
	"mime/multipart"
	"path/filepath"
	"strings"
)

var (
	ErrNotCSV       = errors.New("Please select a valid CSV file.")
	ErrUploadFailed = errors.New("Upload failed. Please try again.")
)

func isCSV(header *multipart.FileHeader) bool {
	if strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		return true
	}
	return strings.HasPrefix(header.Header.Get(fiber.HeaderContentType), "text/csv")
}

func readUpload(c *fiber.Ctx, limit int) ([]models.SalesRecord, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, errors.New("Please choose a CSV file.")
	}
	if !isCSV(header) {
		return nil, ErrNotCSV
	}

	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := ingest.Parse(file, limit)
	if err != nil {
		return nil, fmt.Errorf("CSV parse error: %w", err)
	}

	return records, nil
}

func UploadSalesHandler(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	records, err := readUpload(c, 0)
	if err != nil {
		logger.Log.Warn("Rejected sales upload", zap.Error(err))
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	if len(records) == 0 {
		return errorJSON(c, fiber.StatusBadRequest, "CSV file has no records")
	}

	summary, err := storage.UpsertSalesRecords(ctx, records, PointsRate)
	if err != nil {
		logger.Log.Error("Error storing sales records", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, ErrUploadFailed.Error())
	}

	logger.Log.Info("Sales records uploaded",
		zap.Int("records", len(records)),
		zap.Int("inserted", summary.Inserted),
		zap.Int("updated", summary.Updated))

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":  fmt.Sprintf("Successfully uploaded %d records!", summary.Inserted+summary.Updated),
		"inserted": summary.Inserted,
		"updated":  summary.Updated,
	})
}

func PreviewSalesHandler(c *fiber.Ctx) error {
	records, err := readUpload(c, ingest.PreviewRows)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	preview := make([]fiber.Map, 0, len(records))
	for _, r := range records {
		points := ingest.AccruedPoints(r, PointsRate)
		row := newCustomerResponse(models.CustomerRow{SalesRecord: r, TotalPoints: points, UnclaimedPoints: points})
		preview = append(preview, fiber.Map{
			"record":         row,
			"accrued_points": points,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"rows": preview,
	})
}

func LastUploadHandler(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	last, err := storage.LastUploadTime(ctx)
	if err != nil {
		logger.Log.Error("Error getting last upload time", zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"last_upload_at": last,
	})
}
