// Package models defines data structures for Folio
package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Holding represents one position in the static holdings set. Holdings are
// supplied as configuration and never change during a run.
type Holding struct {
	Name          string  `json:"name" toml:"name"`
	PurchasePrice float64 `json:"purchasePrice" toml:"purchase_price"`
	Qty           int     `json:"qty" toml:"qty"`
	Exchange      string  `json:"exchange" toml:"exchange"`
	Sector        string  `json:"sector" toml:"sector"`
	YahooSymbol   string  `json:"-" toml:"yahoo_symbol"`
	GoogleSymbol  string  `json:"-" toml:"google_symbol"`
}

// Investment returns the purchase cost of the holding (purchase price × qty).
// It is a static computation, independent of live data availability.
func (h Holding) Investment() float64 {
	return h.PurchasePrice * float64(h.Qty)
}

// Validate checks the holding against the input contract. Violations are
// programming/config errors and fail the whole request, unlike upstream
// fetch failures which degrade to null fields.
func (h Holding) Validate() error {
	if h.Name == "" {
		return fmt.Errorf("holding has empty name")
	}
	if h.PurchasePrice <= 0 {
		return fmt.Errorf("holding %s: purchase price must be positive, got %v", h.Name, h.PurchasePrice)
	}
	if h.Qty <= 0 {
		return fmt.Errorf("holding %s: qty must be positive, got %d", h.Name, h.Qty)
	}
	if h.Sector == "" {
		return fmt.Errorf("holding %s: sector must not be empty", h.Name)
	}
	return nil
}

// Fundamental is the result of a fundamentals lookup for one symbol.
// A nil PERatio means the value was unavailable or confirmed absent.
type Fundamental struct {
	PERatio *float64 `json:"peRatio"`
}

// StockRecord is one holding enriched with live data and derived analytics.
// Nullable fields are pointers; nil means "unavailable" and serializes as
// JSON null so the dashboard can render a placeholder.
type StockRecord struct {
	Name             string   `json:"name"`
	PurchasePrice    float64  `json:"purchasePrice"`
	Qty              int      `json:"qty"`
	Exchange         string   `json:"exchange"`
	Sector           string   `json:"sector"`
	Investment       float64  `json:"investment"`
	PortfolioPercent *float64 `json:"portfolioPercent"`
	CMP              *float64 `json:"cmp"`
	PresentValue     *float64 `json:"presentValue"`
	GainLoss         *float64 `json:"gainLoss"`
	GainLossPercent  *float64 `json:"gainLossPercent"`
	PERatio          *float64 `json:"peRatio"`
	LatestEarnings   *float64 `json:"latestEarnings"`
}

// SectorSummary rolls up the stocks sharing one sector label. Present values
// sum over available data only, substituting 0 for unavailable entries.
type SectorSummary struct {
	Sector            string        `json:"sector"`
	TotalInvestment   float64       `json:"totalInvestment"`
	TotalPresentValue float64       `json:"totalPresentValue"`
	GainLoss          float64       `json:"gainLoss"`
	GainLossPercent   *float64      `json:"gainLossPercent"`
	Stocks            []StockRecord `json:"stocks"`
}

// PortfolioTotals holds the portfolio-wide rollup.
type PortfolioTotals struct {
	TotalInvestment      float64  `json:"totalInvestment"`
	TotalPresentValue    float64  `json:"totalPresentValue"`
	TotalGainLoss        float64  `json:"totalGainLoss"`
	TotalGainLossPercent *float64 `json:"totalGainLossPercent"`
}

// PortfolioSnapshot is one complete computed portfolio report. It is built
// fresh on a snapshot-cache miss, cached as a unit, and never mutated.
type PortfolioSnapshot struct {
	Sectors     []SectorSummary `json:"sectors"`
	Totals      PortfolioTotals `json:"totals"`
	LastUpdated time.Time       `json:"lastUpdated"`
}

// HoldingsBreakdown is the static view: holdings with investment and
// portfolio percentage only, no live data.
type HoldingsBreakdown struct {
	Holdings        []HoldingWeight `json:"holdings"`
	TotalInvestment float64         `json:"totalInvestment"`
}

// HoldingWeight is one holding with its static investment weighting.
type HoldingWeight struct {
	Name             string   `json:"name"`
	PurchasePrice    float64  `json:"purchasePrice"`
	Qty              int      `json:"qty"`
	Exchange         string   `json:"exchange"`
	Sector           string   `json:"sector"`
	Investment       float64  `json:"investment"`
	PortfolioPercent *float64 `json:"portfolioPercent"`
}

// RoundCurrency rounds to 2 decimal places, half away from zero, matching
// currency display semantics.
func RoundCurrency(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// RoundPercent rounds a portfolio percentage to 1 decimal place.
func RoundPercent(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(1).Float64()
	return f
}

// RoundCurrencyPtr rounds a nullable currency value, preserving nil.
func RoundCurrencyPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := RoundCurrency(*v)
	return &r
}

// Float64Ptr returns a pointer to v. Convenience for building nullable fields.
func Float64Ptr(v float64) *float64 {
	return &v
}
