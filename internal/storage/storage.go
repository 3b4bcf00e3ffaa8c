package storage

import (
	"context"
	"database/sql"
	"errors"
	"github.com/jackc/pgconn"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/sol1corejz/loyaltydesk/cmd/config"
	"github.com/sol1corejz/loyaltydesk/internal/logger"
	"go.uber.org/zap"
)

var (
	DB                     *sql.DB
	ErrConnectionFailed    = errors.New("db connection failed")
	ErrCreatingTableFailed = errors.New("creating table failed")
	ErrNotFound            = errors.New("record not found")
	ErrAlreadyExists       = errors.New("record already exists")
)

// SQLSTATE codes raised by claim_points.
const (
	codeInvalidAmount     = "LP001"
	codeUnknownCustomer   = "LP002"
	codeInsufficientFunds = "LP003"
	codeUniqueViolation   = "23505"
	codeCheckViolation    = "23514"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS staff (
		id UUID PRIMARY KEY NOT NULL,
		email VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS sales_records (
		customer_code VARCHAR(64) PRIMARY KEY NOT NULL,
		sl_no VARCHAR(32) NOT NULL DEFAULT '',
		name VARCHAR(255) NOT NULL DEFAULT '',
		house_name VARCHAR(255) NOT NULL DEFAULT '',
		street VARCHAR(255) NOT NULL DEFAULT '',
		place VARCHAR(255) NOT NULL DEFAULT '',
		pin_code VARCHAR(16) NOT NULL DEFAULT '',
		phone VARCHAR(32) NOT NULL DEFAULT '',
		mobile VARCHAR(32) NOT NULL DEFAULT '',
		net_weight NUMERIC(14, 3),
		last_sales_date DATE,
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS customer_points (
		customer_code VARCHAR(64) PRIMARY KEY NOT NULL REFERENCES sales_records(customer_code) ON DELETE CASCADE,
		total_points INTEGER NOT NULL DEFAULT 0 CHECK (total_points >= 0),
		claimed_points INTEGER NOT NULL DEFAULT 0 CHECK (claimed_points >= 0),
		unclaimed_points INTEGER GENERATED ALWAYS AS (total_points - claimed_points) STORED,
		last_updated TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CHECK (claimed_points <= total_points)
	);`,
	`CREATE TABLE IF NOT EXISTS claim_history (
		id UUID PRIMARY KEY NOT NULL,
		customer_code VARCHAR(64) NOT NULL REFERENCES sales_records(customer_code) ON DELETE CASCADE,
		points_claimed INTEGER NOT NULL CHECK (points_claimed > 0),
		claimed_by UUID REFERENCES staff(id) ON DELETE SET NULL,
		claimed_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE INDEX IF NOT EXISTS claim_history_customer_idx ON claim_history (customer_code, claimed_at DESC);`,
	`CREATE INDEX IF NOT EXISTS customer_points_unclaimed_idx ON customer_points (unclaimed_points);`,
	`CREATE INDEX IF NOT EXISTS sales_records_last_sales_idx ON sales_records (last_sales_date);`,
	// The single authority on claims: checks and applies under a row lock.
	`CREATE OR REPLACE FUNCTION claim_points(p_id UUID, p_code TEXT, p_points INTEGER, p_unit INTEGER, p_staff UUID)
	RETURNS TABLE (r_total INTEGER, r_claimed INTEGER, r_unclaimed INTEGER, r_updated TIMESTAMPTZ)
	LANGUAGE plpgsql AS $$
	DECLARE
		v_unclaimed INTEGER;
	BEGIN
		IF p_unit <= 0 OR p_points <= 0 OR p_points % p_unit <> 0 THEN
			RAISE EXCEPTION 'claim amount % is not a positive multiple of %', p_points, p_unit
				USING ERRCODE = 'LP001';
		END IF;

		SELECT cp.unclaimed_points INTO v_unclaimed
		FROM customer_points cp
		WHERE cp.customer_code = p_code
		FOR UPDATE;

		IF NOT FOUND THEN
			RAISE EXCEPTION 'customer % not found', p_code USING ERRCODE = 'LP002';
		END IF;

		IF v_unclaimed < p_points THEN
			RAISE EXCEPTION 'customer only has % points available to claim', v_unclaimed
				USING ERRCODE = 'LP003';
		END IF;

		UPDATE customer_points cp
		SET claimed_points = cp.claimed_points + p_points, last_updated = CURRENT_TIMESTAMP
		WHERE cp.customer_code = p_code;

		INSERT INTO claim_history (id, customer_code, points_claimed, claimed_by)
		VALUES (p_id, p_code, p_points, p_staff);

		RETURN QUERY
		SELECT cp.total_points, cp.claimed_points, cp.unclaimed_points, cp.last_updated
		FROM customer_points cp
		WHERE cp.customer_code = p_code;
	END;
	$$;`,
}

func Init() error {
	if config.DatabaseURI == "" {
		return ErrConnectionFailed
	}

	db, err := sql.Open("pgx", config.DatabaseURI)
	if err != nil {
		logger.Log.Error("Error opening database connection", zap.Error(err))
		return ErrConnectionFailed
	}

	if err := db.Ping(); err != nil {
		logger.Log.Error("Error connecting to database", zap.Error(err))
		return ErrConnectionFailed
	}
	DB = db

	return Migrate(context.Background())
}

func Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := DB.ExecContext(ctx, stmt); err != nil {
			logger.Log.Error("Error creating table", zap.Error(err))
			return ErrCreatingTableFailed
		}
	}
	return nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func pgMessage(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Message
	}
	return err.Error()
}
