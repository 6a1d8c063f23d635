// Package fees implements the dual-fee pricing model:
//
//	Client fee:            5% added on top of the charged amount
//	Freelancer commission: 10% on the first $10,000 billed per client
//	                       relationship, 5% thereafter
//
// All functions are pure; the caller supplies the cumulative billed total and
// is responsible for reading it under a lock that survives until the charge
// commits.
package fees

import "github.com/shopspring/decimal"

var (
	clientFeeRate     = decimal.NewFromFloat(0.05)
	tierThreshold     = decimal.NewFromInt(10000)
	commissionLowTier = decimal.NewFromFloat(0.10)
	commissionTopTier = decimal.NewFromFloat(0.05)
)

const (
	RateLow   = "10%"
	RateHigh  = "5%"
	RateSplit = "10%→5% (split)"
)

// Quote captures a commission calculation against a relationship's
// cumulative total at a point in time.
type Quote struct {
	Commission       decimal.Decimal `json:"commission"`
	RateUsed         string          `json:"rate_used"`
	CumulativeBefore decimal.Decimal `json:"cumulative_before"`
	CumulativeAfter  decimal.Decimal `json:"cumulative_after"`
}

// RateInfo describes the rate a relationship is currently paying
type RateInfo struct {
	Rate                string          `json:"rate"`
	CumulativeBilled    decimal.Decimal `json:"cumulative_billed"`
	Threshold           decimal.Decimal `json:"threshold"`
	RemainingAtHighRate decimal.Decimal `json:"remaining_at_high_rate"`
}

// ClientFee returns the 5% fee added on top of amount, rounded to 2dp
func ClientFee(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(clientFeeRate).Round(2)
}

// TotalClientCharge returns amount plus the client fee
func TotalClientCharge(amount decimal.Decimal) decimal.Decimal {
	return amount.Add(amount.Mul(clientFeeRate)).Round(2)
}

// Commission prices the freelancer commission for one charge given the
// cumulative total billed before it. A charge that straddles the threshold is
// split: 10% on the portion under $10,000, 5% on the portion above.
func Commission(amount, cumulativeBefore decimal.Decimal) Quote {
	cumulativeAfter := cumulativeBefore.Add(amount)

	var commission decimal.Decimal
	var rateUsed string

	switch {
	case cumulativeBefore.GreaterThanOrEqual(tierThreshold):
		commission = amount.Mul(commissionTopTier)
		rateUsed = RateHigh
	case cumulativeAfter.LessThanOrEqual(tierThreshold):
		commission = amount.Mul(commissionLowTier)
		rateUsed = RateLow
	default:
		belowPortion := tierThreshold.Sub(cumulativeBefore)
		abovePortion := amount.Sub(belowPortion)
		commission = belowPortion.Mul(commissionLowTier).
			Add(abovePortion.Mul(commissionTopTier))
		rateUsed = RateSplit
	}

	return Quote{
		Commission:       commission.Round(2),
		RateUsed:         rateUsed,
		CumulativeBefore: cumulativeBefore.Round(2),
		CumulativeAfter:  cumulativeAfter.Round(2),
	}
}

// EffectiveRate reports the rate the next dollar billed would pay
func EffectiveRate(cumulativeBilled decimal.Decimal) RateInfo {
	info := RateInfo{
		CumulativeBilled:    cumulativeBilled.Round(2),
		Threshold:           tierThreshold.Round(2),
		RemainingAtHighRate: decimal.Zero.Round(2),
	}
	if cumulativeBilled.GreaterThanOrEqual(tierThreshold) {
		info.Rate = RateHigh
	} else {
		info.Rate = RateLow
		info.RemainingAtHighRate = tierThreshold.Sub(cumulativeBilled).Round(2)
	}
	return info
}

// ToMinorUnits converts a 2dp decimal amount to integer minor units for the
// payment gateway.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
