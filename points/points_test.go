package points

import (
	"testing"
	"time"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		factor float64
		want   int64
	}{
		{"whole units", 450, 2, 900},
		{"fractional result floors", 89.90, 1.5, 134},
		{"factor below one", 100, 0.5, 50},
		{"zero amount", 0, 2, 0},
		{"negative amount", -10, 2, 0},
		{"small fraction floors to zero", 0.40, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(tt.amount, tt.factor)
			if got != tt.want {
				t.Errorf("Calculate(%v, %v) = %d, want %d", tt.amount, tt.factor, got, tt.want)
			}
		})
	}
}

func TestExpectedCreditDate(t *testing.T) {
	tests := []struct {
		name     string
		purchase time.Time
		want     time.Time
	}{
		{
			"mid month",
			time.Date(2026, 1, 25, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 2, 25, 0, 0, 0, 0, time.UTC),
		},
		{
			"jan 31 clamps to feb 28",
			time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			"jan 31 clamps to feb 29 in leap year",
			time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			"march 31 clamps to april 30",
			time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			"december rolls into january",
			time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpectedCreditDate(tt.purchase)
			if !got.Equal(tt.want) {
				t.Errorf("ExpectedCreditDate(%v) = %v, want %v", tt.purchase, got, tt.want)
			}
		})
	}
}

func TestDaysUntilCredit(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	if got := DaysUntilCredit(time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC), now); got != 5 {
		t.Errorf("DaysUntilCredit five days out = %d, want 5", got)
	}
	if got := DaysUntilCredit(time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC), now); got != 1 {
		t.Errorf("DaysUntilCredit partial day = %d, want 1", got)
	}
	if got := DaysUntilCredit(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), now); got != -9 {
		t.Errorf("DaysUntilCredit past date = %d, want -9", got)
	}
}
