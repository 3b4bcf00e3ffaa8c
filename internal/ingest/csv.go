// Package ingest reads sales CSV files into sales records and computes the
// points each record accrues.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"github.com/shopspring/decimal"
	"github.com/sol1corejz/loyaltydesk/internal/models"
	"io"
	"strings"
	"time"
)

const PreviewRows = 10

const (
	ColSerialNo      = "SL NO"
	ColCustomerCode  = "CUSTOMER CODE"
	ColName          = "NAME1 & 2"
	ColHouseName     = "HOUSE NAME"
	ColStreet        = "STREET"
	ColPlace         = "PLACE"
	ColPinCode       = "PIN CODE"
	ColPhone         = "PHONE"
	ColMobile        = "MOBILE"
	ColNetWeight     = "NET WEIGHT"
	ColLastSalesDate = "LAST SALES DATE"
)

// Columns is the column order used for export.
var Columns = []string{
	ColSerialNo, ColCustomerCode, ColName, ColHouseName, ColStreet, ColPlace,
	ColPinCode, ColPhone, ColMobile, ColNetWeight, ColLastSalesDate,
}

var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"02.01.2006",
	"2006/01/02",
	"02-Jan-2006",
	"2-Jan-06",
}

var (
	ErrEmptyFile         = errors.New("csv file is empty")
	ErrMissingCodeColumn = errors.New("csv header has no CUSTOMER CODE column")
)

type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Parse reads every data row. limit > 0 stops after that many records.
func Parse(r io.Reader, limit int) ([]models.SalesRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		index[strings.ToUpper(name)] = i
	}
	if _, ok := index[ColCustomerCode]; !ok {
		return nil, ErrMissingCodeColumn
	}

	var records []models.SalesRecord
	row := 1
	for limit <= 0 || len(records) < limit {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return nil, &RowError{Row: row, Err: err}
		}
		if blank(fields) {
			continue
		}

		record, err := parseRecord(index, fields)
		if err != nil {
			return nil, &RowError{Row: row, Err: err}
		}
		records = append(records, record)
	}

	return records, nil
}

func parseRecord(index map[string]int, fields []string) (models.SalesRecord, error) {
	get := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	record := models.SalesRecord{
		SerialNo:     get(ColSerialNo),
		CustomerCode: get(ColCustomerCode),
		Name:         get(ColName),
		HouseName:    get(ColHouseName),
		Street:       get(ColStreet),
		Place:        get(ColPlace),
		PinCode:      get(ColPinCode),
		Phone:        get(ColPhone),
		Mobile:       get(ColMobile),
	}
	if record.CustomerCode == "" {
		return record, errors.New("customer code is empty")
	}

	if raw := get(ColNetWeight); raw != "" {
		weight, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
		if err != nil {
			return record, fmt.Errorf("invalid net weight %q", raw)
		}
		if weight.IsNegative() {
			return record, fmt.Errorf("negative net weight %q", raw)
		}
		record.NetWeight = decimal.NewNullDecimal(weight)
	}

	if raw := get(ColLastSalesDate); raw != "" {
		date, err := ParseDate(raw)
		if err != nil {
			return record, err
		}
		record.LastSalesDate = &date
	}

	return record, nil
}

func ParseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid sales date %q", raw)
}

// AccruedPoints is floor(net weight * rate). Records without a weight accrue nothing.
func AccruedPoints(record models.SalesRecord, rate decimal.Decimal) int {
	if !record.NetWeight.Valid || !rate.IsPositive() {
		return 0
	}
	return int(record.NetWeight.Decimal.Mul(rate).Floor().IntPart())
}

// Dedupe keeps the last record for every customer code, in first-seen order.
func Dedupe(records []models.SalesRecord) []models.SalesRecord {
	pos := make(map[string]int, len(records))
	out := make([]models.SalesRecord, 0, len(records))
	for _, record := range records {
		if i, ok := pos[record.CustomerCode]; ok {
			out[i] = record
			continue
		}
		pos[record.CustomerCode] = len(out)
		out = append(out, record)
	}
	return out
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
