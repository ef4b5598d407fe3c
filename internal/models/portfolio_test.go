package models

import "testing"

func TestHoldingInvestment(t *testing.T) {
	tests := []struct {
		name    string
		holding Holding
		want    float64
	}{
		{"whole numbers", Holding{PurchasePrice: 100, Qty: 10}, 1000},
		{"fractional price", Holding{PurchasePrice: 44.5, Qty: 450}, 20025},
		{"single unit", Holding{PurchasePrice: 6466, Qty: 1}, 6466},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.holding.Investment(); got != tt.want {
				t.Errorf("Investment() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHoldingValidate(t *testing.T) {
	valid := Holding{Name: "HDFC Bank", PurchasePrice: 1490, Qty: 50, Sector: "Financial Sector"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid holding rejected: %v", err)
	}

	tests := []struct {
		name    string
		holding Holding
	}{
		{"empty name", Holding{PurchasePrice: 1, Qty: 1, Sector: "Tech"}},
		{"zero price", Holding{Name: "A", PurchasePrice: 0, Qty: 1, Sector: "Tech"}},
		{"negative price", Holding{Name: "A", PurchasePrice: -5, Qty: 1, Sector: "Tech"}},
		{"zero qty", Holding{Name: "A", PurchasePrice: 1, Qty: 0, Sector: "Tech"}},
		{"empty sector", Holding{Name: "A", PurchasePrice: 1, Qty: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.holding.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRoundCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1.005, 1.01}, // half rounds up for currency display
		{1.004, 1.0},
		{-1.005, -1.01}, // half away from zero
		{200.0, 200.0},
		{33.333333, 33.33},
	}

	for _, tt := range tests {
		if got := RoundCurrency(tt.in); got != tt.want {
			t.Errorf("RoundCurrency(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRoundPercent(t *testing.T) {
	if got := RoundPercent(33.3333); got != 33.3 {
		t.Errorf("RoundPercent(33.3333) = %v, want 33.3", got)
	}
	if got := RoundPercent(7.35); got != 7.4 {
		t.Errorf("RoundPercent(7.35) = %v, want 7.4", got)
	}
}

func TestRoundCurrencyPtr(t *testing.T) {
	if RoundCurrencyPtr(nil) != nil {
		t.Error("nil input must stay nil")
	}
	v := 1.005
	got := RoundCurrencyPtr(&v)
	if got == nil || *got != 1.01 {
		t.Errorf("RoundCurrencyPtr(1.005) = %v, want 1.01", got)
	}
}
