// Package interfaces defines service contracts for Folio
package interfaces

import (
	"context"

	"github.com/arjunmehra/folio/internal/models"
)

// PortfolioService produces portfolio snapshots and manages their cache.
type PortfolioService interface {
	// BuildSnapshot returns the cached snapshot when fresh, otherwise
	// fetches live data, derives analytics, caches and returns a new one.
	// Upstream outages never fail the build; only internal errors do.
	BuildSnapshot(ctx context.Context) (*models.PortfolioSnapshot, error)

	// RefreshSnapshot clears only the whole-portfolio snapshot entry.
	// Warm per-symbol caches are kept so the next build can reuse them.
	RefreshSnapshot(ctx context.Context)

	// FlushAll clears every cache entry, forcing a full re-fetch.
	FlushAll(ctx context.Context)

	// HoldingsBreakdown returns the static holdings view: investment and
	// portfolio weighting only, no live data and no network calls.
	HoldingsBreakdown() *models.HoldingsBreakdown
}
