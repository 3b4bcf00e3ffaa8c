package customerquery

import (
	"strings"
	"testing"
	"time"

	"github.com/sol1corejz/loyaltydesk/internal/points"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestBuildWithoutFiltersImposesNothing(t *testing.T) {
	q := NewBuilder(points.New(5)).Build("   ", Filters{}, 0, 0)

	require.Empty(t, q.Conditions)
	require.Empty(t, q.Args)
	require.Equal(t, 1, q.Page)
	require.Equal(t, DefaultPageSize, q.PageSize)

	countSQL, countArgs := q.CountSQL()
	require.NotContains(t, countSQL, "WHERE")
	require.Empty(t, countArgs)

	selectSQL, selectArgs := q.SelectSQL()
	require.Contains(t, selectSQL, "LIMIT $1 OFFSET $2")
	require.Equal(t, []any{10, 0}, selectArgs)
}

func TestBuildSearchMatchesAnyColumn(t *testing.T) {
	q := NewBuilder(points.New(5)).Build("ab_1%", Filters{}, 1, 10)

	require.Len(t, q.Conditions, 1)
	require.Equal(t,
		"(sr.customer_code ILIKE $1 OR sr.name ILIKE $1 OR sr.mobile ILIKE $1)",
		q.Conditions[0])
	require.Equal(t, []any{`%ab\_1\%%`}, q.Args)
}

func TestBuildCombinesFiltersConjunctively(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := Filters{
		DateRange: DateRange{Start: &start},
		Points: PointsRange{
			MinTotal:     intPtr(100),
			MaxUnclaimed: intPtr(50),
		},
		ClaimStatus: ClaimStatus{HasClaimed: true, HasEligibleClaims: true},
	}

	q := NewBuilder(points.New(5)).Build("smith", f, 3, 25)

	require.Equal(t, []string{
		"(sr.customer_code ILIKE $1 OR sr.name ILIKE $1 OR sr.mobile ILIKE $1)",
		"sr.last_sales_date >= $2",
		"cp.total_points >= $3",
		"cp.unclaimed_points <= $4",
		"cp.claimed_points > 0",
		"cp.unclaimed_points >= $5",
	}, q.Conditions)
	require.Equal(t, []any{"%smith%", start, 100, 50, 5}, q.Args)
	require.Equal(t, 50, q.Offset())

	sql, args := q.SelectSQL()
	require.Contains(t, sql, "LIMIT $6 OFFSET $7")
	require.Equal(t, 25, args[5])
	require.Equal(t, 50, args[6])

	countSQL, _ := q.CountSQL()
	require.Equal(t, 5, strings.Count(countSQL, "AND"))
}

func TestBuildZeroBoundIsStillAConstraint(t *testing.T) {
	q := NewBuilder(points.New(5)).Build("", Filters{Points: PointsRange{MaxClaimed: intPtr(0)}}, 1, 10)

	require.Equal(t, []string{"cp.claimed_points <= $1"}, q.Conditions)
	require.Equal(t, []any{0}, q.Args)
}

func TestEligibleCountSharesActiveFilters(t *testing.T) {
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	q := NewBuilder(points.New(5)).Build("9876", Filters{
		DateRange: DateRange{End: &end},
		Points:    PointsRange{MinClaimed: intPtr(10)},
	}, 1, 10)

	countSQL, countArgs := q.CountSQL()
	eligibleSQL, eligibleArgs := q.EligibleCountSQL()

	require.True(t, strings.HasPrefix(eligibleSQL, countSQL))
	require.Equal(t, "\n\t\tAND cp.unclaimed_points >= $4", strings.TrimPrefix(eligibleSQL, countSQL))
	require.Equal(t, append(countArgs, 5), eligibleArgs)

	// rendering the eligible count must not leak into the base query
	require.Len(t, q.Conditions, 3)
	again, _ := q.CountSQL()
	require.Equal(t, countSQL, again)
}

func TestEligibleCountWithoutFilters(t *testing.T) {
	q := NewBuilder(points.New(10)).Build("", Filters{}, 1, 10)

	sql, args := q.EligibleCountSQL()
	require.Contains(t, sql, "WHERE cp.unclaimed_points >= $1")
	require.Equal(t, []any{10}, args)
}

func TestPageSizeIsClamped(t *testing.T) {
	b := NewBuilder(points.Policy{})
	require.Equal(t, MaxPageSize, b.Build("", Filters{}, 1, 5000).PageSize)
	require.Equal(t, DefaultPageSize, b.Build("", Filters{}, 1, -1).PageSize)
	require.Equal(t, 1, b.Build("", Filters{}, -4, 10).Page)
}

func TestExportSQLHasNoPaging(t *testing.T) {
	q := NewBuilder(points.New(5)).Build("x", Filters{}, 2, 10)
	sql, args := q.ExportSQL()
	require.NotContains(t, sql, "LIMIT")
	require.Equal(t, []any{"%x%"}, args)
}

func TestTotalPages(t *testing.T) {
	require.Equal(t, 1, TotalPages(0, 10))
	require.Equal(t, 1, TotalPages(10, 10))
	require.Equal(t, 2, TotalPages(11, 10))
	require.Equal(t, 1, TotalPages(5, 0))
}
