package ingest

import (
	"encoding/csv"
	"github.com/sol1corejz/loyaltydesk/internal/models"
	"io"
	"strconv"
)

const (
	ColTotalPoints     = "TOTAL POINTS"
	ColClaimedPoints   = "CLAIMED POINTS"
	ColUnclaimedPoints = "UNCLAIMED POINTS"
)

// WriteCustomers writes rows in the upload column layout followed by the points columns.
func WriteCustomers(w io.Writer, rows []models.CustomerRow) error {
	cw := csv.NewWriter(w)

	header := append(append([]string{}, Columns...), ColTotalPoints, ColClaimedPoints, ColUnclaimedPoints)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		weight := ""
		if row.NetWeight.Valid {
			weight = row.NetWeight.Decimal.String()
		}
		date := ""
		if row.LastSalesDate != nil {
			date = row.LastSalesDate.Format("2006-01-02")
		}

		if err := cw.Write([]string{
			row.SerialNo,
			row.CustomerCode,
			row.Name,
			row.HouseName,
			row.Street,
			row.Place,
			row.PinCode,
			row.Phone,
			row.Mobile,
			weight,
			date,
			strconv.Itoa(row.TotalPoints),
			strconv.Itoa(row.ClaimedPoints),
			strconv.Itoa(row.UnclaimedPoints),
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
