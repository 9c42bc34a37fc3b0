package services

import (
	"testing"
	"time"

	"freshersparty_go/config"
	"freshersparty_go/models"
)

func paidPerYearEvent() *models.Event {
	return &models.Event{
		EventType:    models.EventTypePaid,
		PricingMode:  models.PricingModePerYear,
		FreeForYears: models.MustJSON([]int{1}),
		PaidForYears: models.MustJSON([]int{2, 3, 4}),
		YearPrices:   models.MustJSON(map[string]int{"2": 99, "3": 99, "4": 149}),
		BasePrice:    199,
	}
}

func TestComputePrice(t *testing.T) {
	tests := []struct {
		name     string
		event    *models.Event
		year     int
		expected int
	}{
		{
			name: "free event yields zero for every year",
			event: &models.Event{
				EventType: models.EventTypeFree,
				BasePrice: 500,
			},
			year:     3,
			expected: 0,
		},
		{
			name:     "first year listed free",
			event:    paidPerYearEvent(),
			year:     1,
			expected: 0,
		},
		{
			name:     "second year per-year price",
			event:    paidPerYearEvent(),
			year:     2,
			expected: 99,
		},
		{
			name:     "fourth year per-year price",
			event:    paidPerYearEvent(),
			year:     4,
			expected: 149,
		},
		{
			name: "paid year without a per-year entry falls back to base",
			event: &models.Event{
				EventType:    models.EventTypePaid,
				PricingMode:  models.PricingModePerYear,
				PaidForYears: models.MustJSON([]int{2, 3}),
				YearPrices:   models.MustJSON(map[string]int{"2": 99}),
				BasePrice:    199,
			},
			year:     3,
			expected: 199,
		},
		{
			name: "flat pricing ignores year prices",
			event: &models.Event{
				EventType:    models.EventTypePaid,
				PricingMode:  models.PricingModeFlat,
				PaidForYears: models.MustJSON([]int{2, 3, 4}),
				YearPrices:   models.MustJSON(map[string]int{"2": 99}),
				BasePrice:    250,
			},
			year:     2,
			expected: 250,
		},
		{
			name: "year listed in neither bucket pays base price",
			event: &models.Event{
				EventType:    models.EventTypePaid,
				PricingMode:  models.PricingModePerYear,
				FreeForYears: models.MustJSON([]int{1}),
				PaidForYears: models.MustJSON([]int{2, 3}),
				BasePrice:    199,
			},
			year:     4,
			expected: 199,
		},
		{
			name: "free list wins over paid list",
			event: &models.Event{
				EventType:    models.EventTypePaid,
				PricingMode:  models.PricingModePerYear,
				FreeForYears: models.MustJSON([]int{2}),
				PaidForYears: models.MustJSON([]int{2}),
				YearPrices:   models.MustJSON(map[string]int{"2": 99}),
				BasePrice:    199,
			},
			year:     2,
			expected: 0,
		},
		{
			name: "null year buckets fall through to base price",
			event: &models.Event{
				EventType:   models.EventTypePaid,
				PricingMode: models.PricingModeFlat,
				BasePrice:   300,
			},
			year:     1,
			expected: 300,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := ComputePrice(tc.event, tc.year)
			if got != tc.expected {
				t.Fatalf("expected price %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestGenerateRegistrationQR(t *testing.T) {
	prev := config.AppConfig
	config.AppConfig = &config.Config{TicketPrefix: "FP2026"}
	defer func() { config.AppConfig = prev }()

	at := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	got := GenerateRegistrationQR(7, 42, at)
	expected := "FP2026-7-42-1788264000"
	if got != expected {
		t.Fatalf("expected %q, got %q", expected, got)
	}
}
