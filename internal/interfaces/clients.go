// Package interfaces defines service contracts for Folio
package interfaces

import (
	"context"

	"github.com/arjunmehra/folio/internal/models"
)

// PriceSource fetches last-traded prices for a batch of symbols.
type PriceSource interface {
	// FetchBatch resolves every requested symbol to its current market
	// price, or nil when that symbol's fetch failed. One symbol's failure
	// never aborts the batch; the returned map always has an entry per
	// requested symbol.
	FetchBatch(ctx context.Context, symbols []string) map[string]*float64
}

// FundamentalsSource fetches P/E data for a single symbol. The provider
// does not support batching.
type FundamentalsSource interface {
	// FetchOne is best-effort: transport or parse failures yield a
	// Fundamental with a nil PERatio, never an error.
	FetchOne(ctx context.Context, symbol string) models.Fundamental
}
