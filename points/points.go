// Package points holds the pure accrual calculations: how many points a
// purchase earns and when they are expected to post.
package points

import (
	"math"
	"time"
)

// Calculate returns the points earned for a purchase amount at the given
// conversion factor: floor(amount × factor). A zero amount earns zero
// points. Callers are responsible for the factor being positive; that is
// enforced when the card is configured, not here.
func Calculate(amount, factor float64) int64 {
	if amount <= 0 {
		return 0
	}

	return int64(math.Floor(amount * factor))
}

// ExpectedCreditDate returns the date pending points are expected to post:
// the purchase date advanced by exactly one calendar month. When the target
// month is shorter than the purchase day-of-month, the result is clamped to
// the last valid day of the target month (Jan 31 → Feb 28, or Feb 29 in a
// leap year) rather than overflowing into the following month.
func ExpectedCreditDate(purchaseDate time.Time) time.Time {
	year, month, day := purchaseDate.Date()
	hour, min, sec := purchaseDate.Clock()

	// Day 0 of month+2 is the last day of month+1.
	lastDay := time.Date(year, month+2, 0, 0, 0, 0, 0, purchaseDate.Location()).Day()
	if day > lastDay {
		day = lastDay
	}

	return time.Date(year, month+1, day, hour, min, sec, purchaseDate.Nanosecond(), purchaseDate.Location())
}

// DaysUntilCredit returns the number of whole days from now until the
// expected credit date, rounding partial days up. Past dates yield a
// negative count.
func DaysUntilCredit(expectedCreditDate, now time.Time) int {
	return int(math.Ceil(expectedCreditDate.Sub(now).Hours() / 24))
}
