// Package refundquote computes how much of a paid trip is refundable given
// how early the cancellation is submitted.
package refundquote

import "time"

const (
	// ProcessingFee is deducted from every refund, in minor units.
	ProcessingFee int64 = 500
	PolicyRef           = "trip-cancellation-policy/2025-01"
)

// Location is Pakistan Time. Day boundaries for the tier table are taken here.
var Location = time.FixedZone("PKT", 5*60*60)

type tier struct {
	minDays int
	percent int64
	label   string
}

// tiers is ordered by descending lower bound; the last entry catches everything.
var tiers = []tier{
	{minDays: 15, percent: 100, label: "15+ days"},
	{minDays: 10, percent: 50, label: "10-14 days"},
	{minDays: 5, percent: 30, label: "5-9 days"},
	{minDays: -1 << 31, percent: 0, label: "0-4 days"},
}

type Quote struct {
	AmountPaid          int64     `json:"amount_paid"`
	DaysBeforeDeparture int       `json:"days_before_departure"`
	RefundPercent       int64     `json:"refund_percent"`
	TierLabel           string    `json:"tier_label"`
	ProcessingFee       int64     `json:"processing_fee"`
	RefundAmount        int64     `json:"refund_amount"`
	PolicyRef           string    `json:"policy_ref"`
	EvaluatedAt         time.Time `json:"evaluated_at"`
}

// Calculator computes quotes; Now stamps EvaluatedAt and defaults to time.Now.
type Calculator struct {
	Now func() time.Time
}

func NewCalculator() *Calculator {
	return &Calculator{Now: time.Now}
}

// Compute is the package-level shorthand for NewCalculator().Compute.
func Compute(flagshipStartDate, submittedAt time.Time, amountPaid int64) Quote {
	return NewCalculator().Compute(flagshipStartDate, submittedAt, amountPaid)
}

func (c *Calculator) Compute(flagshipStartDate, submittedAt time.Time, amountPaid int64) Quote {
	if amountPaid < 0 {
		amountPaid = 0
	}
	days := DaysBetween(submittedAt, flagshipStartDate)
	t := tierFor(days)

	refund := percentOf(amountPaid, t.percent) - ProcessingFee
	if refund < 0 {
		refund = 0
	}

	now := time.Now
	if c != nil && c.Now != nil {
		now = c.Now
	}

	return Quote{
		AmountPaid:          amountPaid,
		DaysBeforeDeparture: days,
		RefundPercent:       t.percent,
		TierLabel:           t.label,
		ProcessingFee:       ProcessingFee,
		RefundAmount:        refund,
		PolicyRef:           PolicyRef,
		EvaluatedAt:         now().UTC(),
	}
}

// DaysBetween returns the whole calendar days from the day of from to the day
// of to in Pakistan Time. Negative when to is earlier.
func DaysBetween(from, to time.Time) int {
	return int(StartOfDay(to).Sub(StartOfDay(from)) / (24 * time.Hour))
}

// StartOfDay truncates t to midnight Pakistan Time.
func StartOfDay(t time.Time) time.Time {
	local := t.In(Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Location)
}

func tierFor(days int) tier {
	for _, t := range tiers {
		if days >= t.minDays {
			return t
		}
	}
	return tiers[len(tiers)-1]
}

// percentOf floors amount*percent/100 without overflowing for large amounts.
func percentOf(amount, percent int64) int64 {
	return (amount/100)*percent + (amount%100)*percent/100
}
