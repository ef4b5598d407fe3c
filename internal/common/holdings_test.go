package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arjunmehra/folio/internal/models"
)

func TestResolveHoldingsDefaults(t *testing.T) {
	holdings, err := ResolveHoldings(HoldingsConfig{})
	if err != nil {
		t.Fatalf("ResolveHoldings: %v", err)
	}
	if len(holdings) != len(DefaultHoldings) {
		t.Errorf("got %d holdings, want the %d defaults", len(holdings), len(DefaultHoldings))
	}
}

func TestResolveHoldingsInline(t *testing.T) {
	inline := []models.Holding{
		{Name: "A", PurchasePrice: 10, Qty: 1, Sector: "Tech", YahooSymbol: "A.NS", GoogleSymbol: "NSE:A"},
	}

	holdings, err := ResolveHoldings(HoldingsConfig{Stocks: inline})
	if err != nil {
		t.Fatalf("ResolveHoldings: %v", err)
	}
	if len(holdings) != 1 || holdings[0].Name != "A" {
		t.Errorf("inline holdings not used: %+v", holdings)
	}
}

func TestResolveHoldingsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "holdings.toml")
	content := `
[[stocks]]
name = "ICICI Bank"
purchase_price = 780.0
qty = 84
exchange = "NSE"
sector = "Financial Sector"
yahoo_symbol = "ICICIBANK.NS"
google_symbol = "NSE:ICICIBANK"

[[stocks]]
name = "Suzlon"
purchase_price = 44.0
qty = 450
exchange = "NSE"
sector = "Power"
yahoo_symbol = "SUZLON.NS"
google_symbol = "NSE:SUZLON"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	holdings, err := ResolveHoldings(HoldingsConfig{File: path})
	if err != nil {
		t.Fatalf("ResolveHoldings: %v", err)
	}
	if len(holdings) != 2 {
		t.Fatalf("got %d holdings, want 2", len(holdings))
	}
	if holdings[0].Name != "ICICI Bank" || holdings[0].Qty != 84 {
		t.Errorf("first holding wrong: %+v", holdings[0])
	}
	if holdings[1].YahooSymbol != "SUZLON.NS" {
		t.Errorf("second holding wrong: %+v", holdings[1])
	}
}

func TestResolveHoldingsRejectsInvalid(t *testing.T) {
	bad := []models.Holding{
		{Name: "Broken", PurchasePrice: 0, Qty: 1, Sector: "Tech"},
	}

	if _, err := ResolveHoldings(HoldingsConfig{Stocks: bad}); err == nil {
		t.Fatal("invalid holdings must fail resolution")
	}
}

func TestDefaultHoldingsAreValid(t *testing.T) {
	for _, h := range DefaultHoldings {
		if err := h.Validate(); err != nil {
			t.Errorf("default holding %s invalid: %v", h.Name, err)
		}
		if h.YahooSymbol == "" || h.GoogleSymbol == "" {
			t.Errorf("default holding %s missing source symbols", h.Name)
		}
	}
}
