package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"time"
)

type Staff struct {
	ID           uuid.UUID `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// SalesRecord is one row of an uploaded sales file, keyed by customer code.
type SalesRecord struct {
	SerialNo      string              `db:"sl_no"`
	CustomerCode  string              `db:"customer_code"`
	Name          string              `db:"name"`
	HouseName     string              `db:"house_name"`
	Street        string              `db:"street"`
	Place         string              `db:"place"`
	PinCode       string              `db:"pin_code"`
	Phone         string              `db:"phone"`
	Mobile        string              `db:"mobile"`
	NetWeight     decimal.NullDecimal `db:"net_weight"`
	LastSalesDate *time.Time          `db:"last_sales_date"`
}

// CustomerPoints mirrors the customer_points table. UnclaimedPoints is a
// generated column and is never written.
type CustomerPoints struct {
	CustomerCode    string    `db:"customer_code"`
	TotalPoints     int       `db:"total_points"`
	ClaimedPoints   int       `db:"claimed_points"`
	UnclaimedPoints int       `db:"unclaimed_points"`
	LastUpdated     time.Time `db:"last_updated"`
}

type ClaimHistory struct {
	ID            uuid.UUID     `db:"id"`
	CustomerCode  string        `db:"customer_code"`
	PointsClaimed int           `db:"points_claimed"`
	ClaimedBy     uuid.NullUUID `db:"claimed_by"`
	ClaimedAt     time.Time     `db:"claimed_at"`
}

// ClaimResult is what the ledger reports after a successful claim.
type ClaimResult struct {
	Message string
	Balance CustomerPoints
}

// CustomerRow is a sales record joined with its points balance.
type CustomerRow struct {
	SalesRecord
	TotalPoints     int `db:"total_points"`
	ClaimedPoints   int `db:"claimed_points"`
	UnclaimedPoints int `db:"unclaimed_points"`
}

type CustomerPage struct {
	Rows          []CustomerRow
	TotalCount    int
	EligibleCount int
}
