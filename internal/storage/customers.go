package storage

import (
	"context"
	"database/sql"
	"errors"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sol1corejz/loyaltydesk/internal/customerquery"
	"github.com/sol1corejz/loyaltydesk/internal/ingest"
	"github.com/sol1corejz/loyaltydesk/internal/logger"
	"github.com/sol1corejz/loyaltydesk/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"time"
)

type UploadSummary struct {
	Inserted int
	Updated  int
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomerRow(s rowScanner) (models.CustomerRow, error) {
	var row models.CustomerRow
	err := s.Scan(
		&row.SerialNo, &row.CustomerCode, &row.Name, &row.HouseName, &row.Street, &row.Place,
		&row.PinCode, &row.Phone, &row.Mobile, &row.NetWeight, &row.LastSalesDate,
		&row.TotalPoints, &row.ClaimedPoints, &row.UnclaimedPoints,
	)
	return row, err
}

func queryCustomerRows(ctx context.Context, query string, args []any) ([]models.CustomerRow, error) {
	rows, err := DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.CustomerRow
	for rows.Next() {
		row, err := scanCustomerRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// SearchCustomers loads one page and both counts. The counts run concurrently
// with the page and share its predicates.
func SearchCustomers(ctx context.Context, q customerquery.Query) (models.CustomerPage, error) {
	var page models.CustomerPage
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		query, args := q.SelectSQL()
		rows, err := queryCustomerRows(gctx, query, args)
		page.Rows = rows
		return err
	})
	g.Go(func() error {
		query, args := q.CountSQL()
		return DB.QueryRowContext(gctx, query, args...).Scan(&page.TotalCount)
	})
	g.Go(func() error {
		query, args := q.EligibleCountSQL()
		return DB.QueryRowContext(gctx, query, args...).Scan(&page.EligibleCount)
	})

	if err := g.Wait(); err != nil {
		return models.CustomerPage{}, err
	}

	return page, nil
}

func ExportCustomers(ctx context.Context, q customerquery.Query) ([]models.CustomerRow, error) {
	query, args := q.ExportSQL()
	return queryCustomerRows(ctx, query, args)
}

func GetCustomer(ctx context.Context, code string) (models.CustomerRow, error) {
	row, err := scanCustomerRow(DB.QueryRowContext(ctx, `
		SELECT sr.sl_no, sr.customer_code, sr.name, sr.house_name, sr.street, sr.place,
			sr.pin_code, sr.phone, sr.mobile, sr.net_weight, sr.last_sales_date,
			cp.total_points, cp.claimed_points, cp.unclaimed_points
		FROM sales_records sr
		INNER JOIN customer_points cp ON cp.customer_code = sr.customer_code
		WHERE sr.customer_code = $1;
	`, code))

	if errors.Is(err, sql.ErrNoRows) {
		return models.CustomerRow{}, ErrNotFound
	}
	if err != nil {
		return models.CustomerRow{}, err
	}

	return row, nil
}

const upsertSalesRecord = `
	INSERT INTO sales_records (customer_code, sl_no, name, house_name, street, place, pin_code, phone, mobile, net_weight, last_sales_date, uploaded_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, CURRENT_TIMESTAMP)
	ON CONFLICT (customer_code) DO UPDATE SET
		sl_no = EXCLUDED.sl_no,
		name = EXCLUDED.name,
		house_name = EXCLUDED.house_name,
		street = EXCLUDED.street,
		place = EXCLUDED.place,
		pin_code = EXCLUDED.pin_code,
		phone = EXCLUDED.phone,
		mobile = EXCLUDED.mobile,
		net_weight = EXCLUDED.net_weight,
		last_sales_date = EXCLUDED.last_sales_date,
		uploaded_at = EXCLUDED.uploaded_at;
`

// Total points only ever grow; re-uploading the same file accrues nothing new.
const accruePoints = `
	INSERT INTO customer_points (customer_code, total_points, claimed_points, last_updated)
	VALUES ($1, $2, 0, CURRENT_TIMESTAMP)
	ON CONFLICT (customer_code) DO UPDATE SET
		total_points = GREATEST(customer_points.total_points, EXCLUDED.total_points),
		last_updated = CURRENT_TIMESTAMP;
`

// UpsertSalesRecords stores a whole upload in one transaction and accrues points.
func UpsertSalesRecords(ctx context.Context, records []models.SalesRecord, rate decimal.Decimal) (UploadSummary, error) {
	records = ingest.Dedupe(records)
	summary := UploadSummary{}
	if len(records) == 0 {
		return summary, nil
	}

	codes := make([]string, 0, len(records))
	for _, record := range records {
		codes = append(codes, record.CustomerCode)
	}

	tx, err := DB.BeginTx(ctx, nil)
	if err != nil {
		return summary, err
	}
	defer tx.Rollback()

	existing := make(map[string]bool, len(codes))
	rows, err := tx.QueryContext(ctx, `
		SELECT customer_code FROM sales_records WHERE customer_code = ANY($1);
	`, pq.Array(codes))
	if err != nil {
		return summary, err
	}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			rows.Close()
			return summary, err
		}
		existing[code] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return summary, err
	}

	recordStmt, err := tx.PrepareContext(ctx, upsertSalesRecord)
	if err != nil {
		return summary, err
	}
	defer recordStmt.Close()

	pointsStmt, err := tx.PrepareContext(ctx, accruePoints)
	if err != nil {
		return summary, err
	}
	defer pointsStmt.Close()

	for _, r := range records {
		if _, err := recordStmt.ExecContext(ctx, r.CustomerCode, r.SerialNo, r.Name, r.HouseName, r.Street,
			r.Place, r.PinCode, r.Phone, r.Mobile, r.NetWeight, r.LastSalesDate); err != nil {
			logger.Log.Error("Error upserting sales record", zap.String("customerCode", r.CustomerCode), zap.Error(err))
			return summary, err
		}

		if _, err := pointsStmt.ExecContext(ctx, r.CustomerCode, ingest.AccruedPoints(r, rate)); err != nil {
			logger.Log.Error("Error accruing points", zap.String("customerCode", r.CustomerCode), zap.Error(err))
			return summary, err
		}

		if existing[r.CustomerCode] {
			summary.Updated++
		} else {
			summary.Inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return summary, err
	}

	return summary, nil
}

// CreateCustomer adds a customer with an empty points balance.
func CreateCustomer(ctx context.Context, r models.SalesRecord) error {
	tx, err := DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales_records (customer_code, sl_no, name, house_name, street, place, pin_code, phone, mobile, net_weight, last_sales_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`, r.CustomerCode, r.SerialNo, r.Name, r.HouseName, r.Street, r.Place, r.PinCode, r.Phone, r.Mobile, r.NetWeight, r.LastSalesDate)
	if pgCode(err) == codeUniqueViolation {
		return ErrAlreadyExists
	}
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO customer_points (customer_code, total_points, claimed_points) VALUES ($1, 0, 0);
	`, r.CustomerCode)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateCustomer rewrites the sales record fields. Points are not touched.
func UpdateCustomer(ctx context.Context, r models.SalesRecord) error {
	res, err := DB.ExecContext(ctx, `
		UPDATE sales_records SET
			sl_no = $2, name = $3, house_name = $4, street = $5, place = $6,
			pin_code = $7, phone = $8, mobile = $9, net_weight = $10, last_sales_date = $11
		WHERE customer_code = $1;
	`, r.CustomerCode, r.SerialNo, r.Name, r.HouseName, r.Street, r.Place, r.PinCode, r.Phone, r.Mobile, r.NetWeight, r.LastSalesDate)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteCustomers removes customers together with their points and claim history.
func DeleteCustomers(ctx context.Context, codes ...string) (int, error) {
	res, err := DB.ExecContext(ctx, `
		DELETE FROM sales_records WHERE customer_code = ANY($1);
	`, pq.Array(codes))
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(n), nil
}

func LastUploadTime(ctx context.Context) (*time.Time, error) {
	var last sql.NullTime

	err := DB.QueryRowContext(ctx, `
		SELECT MAX(uploaded_at) FROM sales_records;
	`).Scan(&last)
	if err != nil {
		return nil, err
	}
	if !last.Valid {
		return nil, nil
	}

	return &last.Time, nil
}
