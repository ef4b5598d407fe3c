package common

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/arjunmehra/folio/internal/models"
)

// DefaultHoldings is the built-in holdings set used when none is configured.
// Yahoo symbols carry the .NS suffix; Google symbols use the NSE: prefix.
var DefaultHoldings = []models.Holding{
	{Name: "HDFC Bank", PurchasePrice: 1490, Qty: 50, Exchange: "NSE", Sector: "Financial Sector", YahooSymbol: "HDFCBANK.NS", GoogleSymbol: "NSE:HDFCBANK"},
	{Name: "Bajaj Finance", PurchasePrice: 6466, Qty: 15, Exchange: "NSE", Sector: "Financial Sector", YahooSymbol: "BAJFINANCE.NS", GoogleSymbol: "NSE:BAJFINANCE"},
	{Name: "ICICI Bank", PurchasePrice: 780, Qty: 84, Exchange: "NSE", Sector: "Financial Sector", YahooSymbol: "ICICIBANK.NS", GoogleSymbol: "NSE:ICICIBANK"},
	{Name: "Affle India", PurchasePrice: 1151, Qty: 50, Exchange: "NSE", Sector: "Tech Sector", YahooSymbol: "AFFLE.NS", GoogleSymbol: "NSE:AFFLE"},
	{Name: "LTI Mindtree", PurchasePrice: 4775, Qty: 16, Exchange: "NSE", Sector: "Tech Sector", YahooSymbol: "LTIM.NS", GoogleSymbol: "NSE:LTIM"},
	{Name: "KPIT Tech", PurchasePrice: 672, Qty: 61, Exchange: "NSE", Sector: "Tech Sector", YahooSymbol: "KPITTECH.NS", GoogleSymbol: "NSE:KPITTECH"},
	{Name: "Tata Consumer", PurchasePrice: 845, Qty: 90, Exchange: "NSE", Sector: "Consumer", YahooSymbol: "TATACONSUM.NS", GoogleSymbol: "NSE:TATACONSUM"},
	{Name: "Pidilite", PurchasePrice: 2376, Qty: 36, Exchange: "NSE", Sector: "Consumer", YahooSymbol: "PIDILITIND.NS", GoogleSymbol: "NSE:PIDILITIND"},
	{Name: "Tata Power", PurchasePrice: 224, Qty: 225, Exchange: "NSE", Sector: "Power", YahooSymbol: "TATAPOWER.NS", GoogleSymbol: "NSE:TATAPOWER"},
	{Name: "KPI Green", PurchasePrice: 875, Qty: 50, Exchange: "NSE", Sector: "Power", YahooSymbol: "KPIGREEN.NS", GoogleSymbol: "NSE:KPIGREEN"},
	{Name: "Suzlon", PurchasePrice: 44, Qty: 450, Exchange: "NSE", Sector: "Power", YahooSymbol: "SUZLON.NS", GoogleSymbol: "NSE:SUZLON"},
	{Name: "Astral", PurchasePrice: 1517, Qty: 56, Exchange: "NSE", Sector: "Pipe Sector", YahooSymbol: "ASTRAL.NS", GoogleSymbol: "NSE:ASTRAL"},
	{Name: "Polycab", PurchasePrice: 2818, Qty: 28, Exchange: "NSE", Sector: "Pipe Sector", YahooSymbol: "POLYCAB.NS", GoogleSymbol: "NSE:POLYCAB"},
}

// holdingsFile is the TOML shape of a standalone holdings file.
type holdingsFile struct {
	Stocks []models.Holding `toml:"stocks"`
}

// ResolveHoldings returns the holdings set for this run: inline config
// entries first, then the configured file, then the built-in defaults.
// Every entry is validated; a bad entry fails startup rather than producing
// corrupt analytics later.
func ResolveHoldings(cfg HoldingsConfig) ([]models.Holding, error) {
	holdings := cfg.Stocks

	if len(holdings) == 0 && cfg.File != "" {
		data, err := os.ReadFile(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("failed to read holdings file %s: %w", cfg.File, err)
		}
		var hf holdingsFile
		if err := toml.Unmarshal(data, &hf); err != nil {
			return nil, fmt.Errorf("failed to parse holdings file %s: %w", cfg.File, err)
		}
		holdings = hf.Stocks
	}

	if len(holdings) == 0 {
		holdings = DefaultHoldings
	}

	for _, h := range holdings {
		if err := h.Validate(); err != nil {
			return nil, fmt.Errorf("invalid holdings input: %w", err)
		}
	}

	return holdings, nil
}
