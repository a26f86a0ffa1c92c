package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pointsnav/go-pointsnav/models"
)

func testPurchase(cardID string, amount float64, pts int64, date time.Time, status models.PurchaseStatus) models.Purchase {
	return models.Purchase{
		ID:             uuid.New().String(),
		Amount:         amount,
		ComputedPoints: pts,
		PurchaseDate:   date,
		Status:         status,
		Card: models.Card{
			ID:         cardID,
			CustomName: "Everyday Card",
			Program:    models.PointsProgram{Name: "SkyMiles"},
		},
	}
}

func TestFilterByRange(t *testing.T) {
	jan := testPurchase("c1", 100, 200, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), models.PurchasePending)
	feb := testPurchase("c1", 100, 200, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), models.PurchasePending)
	mar := testPurchase("c1", 100, 200, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), models.PurchasePending)
	all := []models.Purchase{mar, jan, feb}

	t.Run("both bounds unset keeps everything in order", func(t *testing.T) {
		got := FilterByRange(all, time.Time{}, time.Time{})
		if len(got) != 3 {
			t.Fatalf("expected 3 purchases, got %d", len(got))
		}
		for i := range all {
			if got[i].ID != all[i].ID {
				t.Errorf("order changed at index %d", i)
			}
		}
	})

	t.Run("bounds are inclusive", func(t *testing.T) {
		got := FilterByRange(all, jan.PurchaseDate, feb.PurchaseDate)
		if len(got) != 2 {
			t.Fatalf("expected 2 purchases, got %d", len(got))
		}
		for _, p := range got {
			if p.ID == mar.ID {
				t.Error("march purchase should be excluded")
			}
		}
	})

	t.Run("open ended start", func(t *testing.T) {
		got := FilterByRange(all, time.Time{}, jan.PurchaseDate)
		if len(got) != 1 || got[0].ID != jan.ID {
			t.Fatalf("expected only january purchase, got %d", len(got))
		}
	})
}

func TestFilterByCard(t *testing.T) {
	a := testPurchase("card-a", 50, 100, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), models.PurchasePending)
	b := testPurchase("card-b", 50, 100, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), models.PurchasePending)
	all := []models.Purchase{a, b}

	if got := FilterByCard(all, ""); len(got) != 2 {
		t.Errorf("empty id should pass through, got %d", len(got))
	}
	if got := FilterByCard(all, CardFilterAll); len(got) != 2 {
		t.Errorf("%q should pass through, got %d", CardFilterAll, len(got))
	}
	got := FilterByCard(all, "card-b")
	if len(got) != 1 || got[0].ID != b.ID {
		t.Errorf("expected only card-b purchase, got %d entries", len(got))
	}
}

func TestFilterByStatus(t *testing.T) {
	pending := testPurchase("c1", 50, 100, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), models.PurchasePending)
	credited := testPurchase("c1", 50, 100, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), models.PurchaseCredited)
	all := []models.Purchase{pending, credited}

	if got := FilterByStatus(all, ""); len(got) != 2 {
		t.Errorf("empty status should pass through, got %d", len(got))
	}
	got := FilterByStatus(all, models.PurchaseCredited)
	if len(got) != 1 || got[0].ID != credited.ID {
		t.Errorf("expected only the credited purchase, got %d entries", len(got))
	}
}

func TestSummarize(t *testing.T) {
	t.Run("empty list is all zeros", func(t *testing.T) {
		s := Summarize(nil)
		if s.TotalPoints != 0 || s.TotalValue != 0 || s.AveragePointsPerPurchase != 0 || s.ConversionRate != 0 {
			t.Errorf("expected zero summary, got %+v", s)
		}
	})

	t.Run("aggregates totals and rates", func(t *testing.T) {
		purchases := []models.Purchase{
			testPurchase("c1", 100, 200, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), models.PurchasePending),
			testPurchase("c1", 50, 100, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), models.PurchaseCredited),
		}
		s := Summarize(purchases)
		if s.TotalPoints != 300 {
			t.Errorf("TotalPoints = %d, want 300", s.TotalPoints)
		}
		if s.TotalValue != 150 {
			t.Errorf("TotalValue = %v, want 150", s.TotalValue)
		}
		if s.AveragePointsPerPurchase != 150 {
			t.Errorf("AveragePointsPerPurchase = %v, want 150", s.AveragePointsPerPurchase)
		}
		if s.ConversionRate != 2 {
			t.Errorf("ConversionRate = %v, want 2", s.ConversionRate)
		}
	})

	t.Run("zero value guards the rate divisor", func(t *testing.T) {
		purchases := []models.Purchase{
			testPurchase("c1", 0, 0, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), models.PurchasePending),
		}
		if s := Summarize(purchases); s.ConversionRate != 0 {
			t.Errorf("ConversionRate = %v, want 0", s.ConversionRate)
		}
	})
}

func TestDeriveStatus(t *testing.T) {
	promo := models.Promotion{
		StartDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC),
	}

	tests := []struct {
		name string
		now  time.Time
		want PromotionStatus
	}{
		{"before start", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), PromotionUpcoming},
		{"inside window", time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), PromotionActive},
		{"on start instant", promo.StartDate, PromotionActive},
		{"after end", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), PromotionExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveStatus(promo, tt.now); got != tt.want {
				t.Errorf("DeriveStatus(%v) = %q, want %q", tt.now, got, tt.want)
			}
		})
	}
}

func TestHistory(t *testing.T) {
	purchases := []models.Purchase{
		testPurchase("c1", 100, 200, time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC), models.PurchasePending),
		testPurchase("c1", 100, 150, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), models.PurchaseCredited),
		testPurchase("c1", 100, 100, time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC), models.PurchasePending),
	}

	got := History(purchases)
	if len(got) != 2 {
		t.Fatalf("expected 2 month buckets, got %d", len(got))
	}
	if got[0].Month != "2026-01" || got[0].Points != 250 || got[0].Purchases != 2 {
		t.Errorf("january bucket = %+v", got[0])
	}
	if got[1].Month != "2026-02" || got[1].Points != 200 || got[1].Purchases != 1 {
		t.Errorf("february bucket = %+v", got[1])
	}
}

func TestWriteCSV(t *testing.T) {
	p := testPurchase("c1", 89.90, 134, time.Date(2026, 1, 25, 0, 0, 0, 0, time.UTC), models.PurchasePending)
	p.Description = "groceries"
	p.ExpectedCreditDate = time.Date(2026, 2, 25, 0, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, []models.Purchase{p}); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %d lines", len(lines))
	}
	if lines[0] != "date,card,program,description,amount,points,status,expected_credit_date" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if lines[1] != "2026-01-25,Everyday Card,SkyMiles,groceries,89.90,134,PENDING,2026-02-25" {
		t.Errorf("unexpected row: %s", lines[1])
	}
}
