package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/arjunmehra/folio/internal/common"
	"github.com/arjunmehra/folio/internal/services/portfolio"
)

// --- Portfolio handlers ---

// handlePortfolio serves GET /api/portfolio: the full snapshot with live
// CMP, P/E and derived earnings, from cache when fresh.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	snapshot, err := s.app.PortfolioService.BuildSnapshot(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Snapshot build failed")
		if errors.Is(err, portfolio.ErrBadHolding) {
			WriteError(w, http.StatusInternalServerError, "Invalid holdings data")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to fetch portfolio data")
		return
	}

	WriteJSON(w, http.StatusOK, snapshot)
}

// handlePortfolioRefresh serves GET /api/portfolio/refresh: clears only the
// whole-portfolio snapshot entry. Per-symbol caches stay warm so the next
// read recomputes the merge without necessarily re-fetching.
func (s *Server) handlePortfolioRefresh(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	s.app.PortfolioService.RefreshSnapshot(r.Context())

	w.Header().Set("Cache-Control", "no-store")
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Cache cleared.",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handlePortfolioFlush serves GET /api/portfolio/flush: the stricter
// variant that also drops per-symbol entries, forcing a full re-fetch.
func (s *Server) handlePortfolioFlush(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	s.app.PortfolioService.FlushAll(r.Context())

	w.Header().Set("Cache-Control", "no-store")
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "All cache entries cleared.",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handlePortfolioHoldings serves GET /api/portfolio/holdings: the static
// breakdown, a fast path with no network dependency.
func (s *Server) handlePortfolioHoldings(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, s.app.PortfolioService.HoldingsBreakdown())
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"uptime":        time.Since(s.app.StartupTime).Round(time.Second).String(),
		"holdings":      len(s.app.Holdings),
		"cache_entries": s.app.Cache.Len(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.Build,
		"commit":  common.GitCommit,
	})
}

// handleConfig reports the sanitized runtime configuration.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	cfg := s.app.Config
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"environment": cfg.Environment,
		"cache": map[string]string{
			"default_ttl":  cfg.Cache.GetDefaultTTL().String(),
			"symbol_ttl":   cfg.Cache.GetSymbolTTL().String(),
			"snapshot_ttl": cfg.Cache.GetSnapshotTTL().String(),
		},
		"clients": map[string]interface{}{
			"yahoo": map[string]interface{}{
				"timeout": cfg.Clients.Yahoo.GetTimeout().String(),
				"retries": cfg.Clients.Yahoo.Retries,
			},
			"google": map[string]interface{}{
				"timeout": cfg.Clients.Google.GetTimeout().String(),
			},
		},
	})
}
