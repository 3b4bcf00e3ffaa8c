// Package customerquery composes the customer list query from optional
// search, filter and paging inputs.
//
// Every predicate is rendered once into a Query; the page select, the total
// count and the eligible count are all derived from that same predicate set so
// the counts always describe the rows the filters select.
package customerquery

import (
	"fmt"
	"github.com/sol1corejz/loyaltydesk/internal/points"
	"strings"
	"time"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 1000
)

var PageSizeOptions = []int{10, 25, 50, 100, 500, 1000}

const fromClause = `FROM sales_records sr
		INNER JOIN customer_points cp ON cp.customer_code = sr.customer_code`

const selectColumns = `sr.sl_no, sr.customer_code, sr.name, sr.house_name, sr.street, sr.place,
		sr.pin_code, sr.phone, sr.mobile, sr.net_weight, sr.last_sales_date,
		cp.total_points, cp.claimed_points, cp.unclaimed_points`

type DateRange struct {
	Start *time.Time
	End   *time.Time
}

type PointsRange struct {
	MinTotal     *int
	MaxTotal     *int
	MinClaimed   *int
	MaxClaimed   *int
	MinUnclaimed *int
	MaxUnclaimed *int
}

type ClaimStatus struct {
	HasClaimed        bool
	HasEligibleClaims bool
}

type Filters struct {
	DateRange   DateRange
	Points      PointsRange
	ClaimStatus ClaimStatus
}

type Builder struct {
	Policy points.Policy
}

func NewBuilder(policy points.Policy) Builder {
	return Builder{Policy: points.New(policy.Unit)}
}

// Query is a rendered predicate set plus paging. Conditions are ANDed.
type Query struct {
	Conditions []string
	Args       []any
	Page       int
	PageSize   int

	eligibleFrom int
}

func (q Query) Offset() int {
	return (q.Page - 1) * q.PageSize
}

func (q Query) where() string {
	if len(q.Conditions) == 0 {
		return ""
	}
	return "\n\t\tWHERE " + strings.Join(q.Conditions, "\n\t\tAND ")
}

func (q Query) SelectSQL() (string, []any) {
	args := append(append([]any{}, q.Args...), q.PageSize, q.Offset())
	n := len(q.Args)
	return fmt.Sprintf(`SELECT %s
		%s%s
		ORDER BY sr.customer_code ASC
		LIMIT $%d OFFSET $%d`, selectColumns, fromClause, q.where(), n+1, n+2), args
}

// ExportSQL selects every matching row in list order.
func (q Query) ExportSQL() (string, []any) {
	return fmt.Sprintf(`SELECT %s
		%s%s
		ORDER BY sr.customer_code ASC`, selectColumns, fromClause, q.where()), append([]any{}, q.Args...)
}

func (q Query) CountSQL() (string, []any) {
	return fmt.Sprintf(`SELECT COUNT(*) %s%s`, fromClause, q.where()), append([]any{}, q.Args...)
}

// EligibleCountSQL counts the rows of CountSQL that hold at least one claim unit.
func (q Query) EligibleCountSQL() (string, []any) {
	args := append(append([]any{}, q.Args...), q.eligibleFrom)
	eq := q
	eq.Conditions = append(append([]string{}, q.Conditions...), fmt.Sprintf("cp.unclaimed_points >= $%d", len(args)))
	return fmt.Sprintf(`SELECT COUNT(*) %s%s`, fromClause, eq.where()), args
}

type predicates struct {
	conds []string
	args  []any
}

func (p *predicates) add(format string, arg any) {
	p.args = append(p.args, arg)
	p.conds = append(p.conds, fmt.Sprintf(format, len(p.args)))
}

func (b Builder) Build(searchText string, f Filters, page, pageSize int) Query {
	policy := points.New(b.Policy.Unit)
	var p predicates

	if text := strings.TrimSpace(searchText); text != "" {
		p.args = append(p.args, "%"+escapeLike(text)+"%")
		n := len(p.args)
		p.conds = append(p.conds, fmt.Sprintf(
			"(sr.customer_code ILIKE $%[1]d OR sr.name ILIKE $%[1]d OR sr.mobile ILIKE $%[1]d)", n))
	}

	if f.DateRange.Start != nil {
		p.add("sr.last_sales_date >= $%d", *f.DateRange.Start)
	}
	if f.DateRange.End != nil {
		p.add("sr.last_sales_date <= $%d", *f.DateRange.End)
	}

	bounds := []struct {
		value  *int
		format string
	}{
		{f.Points.MinTotal, "cp.total_points >= $%d"},
		{f.Points.MaxTotal, "cp.total_points <= $%d"},
		{f.Points.MinClaimed, "cp.claimed_points >= $%d"},
		{f.Points.MaxClaimed, "cp.claimed_points <= $%d"},
		{f.Points.MinUnclaimed, "cp.unclaimed_points >= $%d"},
		{f.Points.MaxUnclaimed, "cp.unclaimed_points <= $%d"},
	}
	for _, bound := range bounds {
		if bound.value != nil {
			p.add(bound.format, *bound.value)
		}
	}

	if f.ClaimStatus.HasClaimed {
		p.conds = append(p.conds, "cp.claimed_points > 0")
	}
	if f.ClaimStatus.HasEligibleClaims {
		p.add("cp.unclaimed_points >= $%d", policy.Unit)
	}

	if page < 1 {
		page = 1
	}
	switch {
	case pageSize <= 0:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}

	return Query{
		Conditions:   p.conds,
		Args:         p.args,
		Page:         page,
		PageSize:     pageSize,
		eligibleFrom: policy.Unit,
	}
}

func TotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
