// Package report implements the client-side derived calculations behind
// the reports view: purchase filtering, summary aggregation, promotion
// status derivation and CSV assembly.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/pointsnav/go-pointsnav/models"
)

// CardFilterAll matches every card in FilterByCard.
const CardFilterAll = "all"

// FilterByRange returns the purchases whose purchase date falls within
// [start, end], bounds inclusive. A zero time leaves that side unbounded.
// Original relative order is preserved.
func FilterByRange(purchases []models.Purchase, start, end time.Time) []models.Purchase {
	out := make([]models.Purchase, 0, len(purchases))
	for _, p := range purchases {
		if !start.IsZero() && p.PurchaseDate.Before(start) {
			continue
		}
		if !end.IsZero() && p.PurchaseDate.After(end) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// FilterByCard returns the purchases made with the given card. An empty id
// or CardFilterAll is a pass-through.
func FilterByCard(purchases []models.Purchase, cardID string) []models.Purchase {
	if cardID == "" || cardID == CardFilterAll {
		return purchases
	}

	out := make([]models.Purchase, 0, len(purchases))
	for _, p := range purchases {
		if p.Card.ID == cardID {
			out = append(out, p)
		}
	}
	return out
}

// FilterByStatus returns the purchases in the given status. An empty status
// is a pass-through.
func FilterByStatus(purchases []models.Purchase, status models.PurchaseStatus) []models.Purchase {
	if status == "" {
		return purchases
	}

	out := make([]models.Purchase, 0, len(purchases))
	for _, p := range purchases {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out
}

// Summary holds the aggregate statistics for a purchase list.
type Summary struct {
	TotalPoints              int64   `json:"total_points"`
	TotalValue               float64 `json:"total_value"`
	AveragePointsPerPurchase float64 `json:"average_points_per_purchase"`
	ConversionRate           float64 `json:"conversion_rate"` // points per currency unit
}

// Summarize aggregates a purchase list. An empty list yields an all-zero
// summary; the average and rate guard their divisors so no division error
// can occur.
func Summarize(purchases []models.Purchase) Summary {
	var s Summary
	for _, p := range purchases {
		s.TotalPoints += p.ComputedPoints
		s.TotalValue += p.Amount
	}

	if n := len(purchases); n > 0 {
		s.AveragePointsPerPurchase = float64(s.TotalPoints) / float64(n)
	}
	if s.TotalValue > 0 {
		s.ConversionRate = float64(s.TotalPoints) / s.TotalValue
	}

	return s
}

// PromotionStatus is the derived lifecycle state of a promotion.
type PromotionStatus string

const (
	PromotionUpcoming PromotionStatus = "upcoming"
	PromotionActive   PromotionStatus = "active"
	PromotionExpired  PromotionStatus = "expired"
)

// DeriveStatus classifies a promotion at the given instant: before the
// start date it is upcoming, after the end date it is expired, otherwise it
// is active. The status is never stored.
func DeriveStatus(p models.Promotion, now time.Time) PromotionStatus {
	if now.Before(p.StartDate) {
		return PromotionUpcoming
	}
	if now.After(p.EndDate) {
		return PromotionExpired
	}
	return PromotionActive
}

// History buckets purchases by calendar month of purchase date, ascending.
func History(purchases []models.Purchase) []models.MonthlyHistory {
	buckets := make(map[string]*models.MonthlyHistory)
	for _, p := range purchases {
		month := p.PurchaseDate.Format("2006-01")
		b, ok := buckets[month]
		if !ok {
			b = &models.MonthlyHistory{Month: month}
			buckets[month] = b
		}
		b.Points += p.ComputedPoints
		b.Purchases++
	}

	out := make([]models.MonthlyHistory, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })

	return out
}

// WriteCSV writes a purchase report in the shape the reports view exports.
func WriteCSV(w io.Writer, purchases []models.Purchase) error {
	cw := csv.NewWriter(w)

	header := []string{"date", "card", "program", "description", "amount", "points", "status", "expected_credit_date"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, p := range purchases {
		row := []string{
			p.PurchaseDate.Format("2006-01-02"),
			p.Card.CustomName,
			p.Card.Program.Name,
			p.Description,
			strconv.FormatFloat(p.Amount, 'f', 2, 64),
			strconv.FormatInt(p.ComputedPoints, 10),
			string(p.Status),
			p.ExpectedCreditDate.Format("2006-01-02"),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
