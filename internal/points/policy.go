// Package points holds the claim eligibility and rounding rules.
//
// A claim is always a positive multiple of the claim unit and never more than
// the unclaimed balance rounded down to that unit. The unit doubles as the
// minimum claim, so a customer is eligible once they hold at least one unit.
package points

// DefaultUnit is the claim unit used when none is configured.
const DefaultUnit = 5

type Policy struct {
	Unit int
}

// New returns a Policy for unit, falling back to DefaultUnit for non-positive values.
func New(unit int) Policy {
	if unit <= 0 {
		unit = DefaultUnit
	}
	return Policy{Unit: unit}
}

func (p Policy) unit() int {
	if p.Unit <= 0 {
		return DefaultUnit
	}
	return p.Unit
}

func (p Policy) IsEligible(unclaimed int) bool {
	return unclaimed >= p.unit()
}

// MaxClaimable floors unclaimed down to the nearest multiple of the unit.
// Negative balances are treated as zero.
func (p Policy) MaxClaimable(unclaimed int) int {
	if unclaimed <= 0 {
		return 0
	}
	u := p.unit()
	return unclaimed / u * u
}

// ClaimAmountOptions lists every valid claim amount in ascending order.
func (p Policy) ClaimAmountOptions(unclaimed int) []int {
	max := p.MaxClaimable(unclaimed)
	if max == 0 {
		return nil
	}
	u := p.unit()
	options := make([]int, 0, max/u)
	for amount := u; amount <= max; amount += u {
		options = append(options, amount)
	}
	return options
}

func (p Policy) IsValidClaimAmount(amount, unclaimed int) bool {
	return amount > 0 && amount%p.unit() == 0 && amount <= p.MaxClaimable(unclaimed)
}

var std = Policy{Unit: DefaultUnit}

func IsEligible(unclaimed int) bool { return std.IsEligible(unclaimed) }

func MaxClaimable(unclaimed int) int { return std.MaxClaimable(unclaimed) }

func ClaimAmountOptions(unclaimed int) []int { return std.ClaimAmountOptions(unclaimed) }

func IsValidClaimAmount(amount, unclaimed int) bool {
	return std.IsValidClaimAmount(amount, unclaimed)
}
