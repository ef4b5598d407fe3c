// Package portfolio implements the aggregation engine: it merges static
// holdings with live prices and fundamentals, derives analytics, groups by
// sector and caches the resulting snapshot.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/arjunmehra/folio/internal/cache"
	"github.com/arjunmehra/folio/internal/common"
	"github.com/arjunmehra/folio/internal/interfaces"
	"github.com/arjunmehra/folio/internal/models"
)

// ErrBadHolding marks malformed holdings input. Unlike upstream fetch
// failures, which degrade to null fields, this fails the whole request.
var ErrBadHolding = errors.New("invalid holding")

// Service implements the PortfolioService interface
type Service struct {
	holdings     []models.Holding
	prices       interfaces.PriceSource
	fundamentals interfaces.FundamentalsSource
	quotes       interfaces.QuoteCache
	logger       *common.Logger
	snapshotTTL  time.Duration
	fetchTimeout time.Duration

	// flight coalesces concurrent snapshot builds on a cold cache so a
	// burst of dashboard polls triggers one upstream fan-out, not many.
	flight singleflight.Group
}

// ServiceOption configures the service
type ServiceOption func(*Service)

// WithSnapshotTTL sets how long a built snapshot is served from cache.
func WithSnapshotTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.snapshotTTL = ttl
	}
}

// WithFetchTimeout bounds the combined price/fundamentals fetch phase.
// Zero means no overall deadline beyond per-request timeouts.
func WithFetchTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.fetchTimeout = d
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = &common.Logger{Logger: logger.With().Str("service", "portfolio").Logger()}
	}
}

// NewService creates the aggregation engine. The quote cache is shared with
// the adapters and injected by reference; the service owns only the
// whole-portfolio snapshot entry.
func NewService(holdings []models.Holding, prices interfaces.PriceSource, fundamentals interfaces.FundamentalsSource, quotes interfaces.QuoteCache, opts ...ServiceOption) *Service {
	s := &Service{
		holdings:     holdings,
		prices:       prices,
		fundamentals: fundamentals,
		quotes:       quotes,
		logger:       common.NewSilentLogger(),
		snapshotTTL:  2 * time.Minute,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// BuildSnapshot returns the cached snapshot when fresh, otherwise builds a
// new one. Upstream outages never fail the build: affected fields come back
// null and totals degrade gracefully.
func (s *Service) BuildSnapshot(ctx context.Context) (*models.PortfolioSnapshot, error) {
	if snap, ok := s.cachedSnapshot(); ok {
		return snap, nil
	}

	v, err, _ := s.flight.Do(cache.SnapshotKey(), func() (any, error) {
		// A concurrent caller may have populated the cache while this
		// call waited on the flight group.
		if snap, ok := s.cachedSnapshot(); ok {
			return snap, nil
		}
		return s.buildSnapshot(ctx)
	})
	if err != nil {
		return nil, err
	}

	return v.(*models.PortfolioSnapshot), nil
}

// RefreshSnapshot clears only the whole-portfolio snapshot entry. Warm
// per-symbol price and fundamentals entries are kept, so the next build
// recomputes the merge without necessarily hitting the network.
func (s *Service) RefreshSnapshot(ctx context.Context) {
	s.quotes.Delete(cache.SnapshotKey())
	s.logger.Info().Msg("Portfolio snapshot cache cleared")
}

// FlushAll clears every cache entry, including per-symbol data, forcing the
// next build to re-fetch everything.
func (s *Service) FlushAll(ctx context.Context) {
	s.quotes.Flush()
	s.logger.Info().Msg("Quote cache flushed")
}

// HoldingsBreakdown returns the static holdings view. No live data, no
// network calls, no cache involvement.
func (s *Service) HoldingsBreakdown() *models.HoldingsBreakdown {
	totalInvestment := s.totalInvestment()

	breakdown := &models.HoldingsBreakdown{
		Holdings:        make([]models.HoldingWeight, 0, len(s.holdings)),
		TotalInvestment: totalInvestment,
	}

	for _, h := range s.holdings {
		investment := h.Investment()
		breakdown.Holdings = append(breakdown.Holdings, models.HoldingWeight{
			Name:             h.Name,
			PurchasePrice:    h.PurchasePrice,
			Qty:              h.Qty,
			Exchange:         h.Exchange,
			Sector:           h.Sector,
			Investment:       investment,
			PortfolioPercent: percentOf(investment, totalInvestment, models.RoundPercent),
		})
	}

	return breakdown
}

func (s *Service) cachedSnapshot() (*models.PortfolioSnapshot, bool) {
	if v, ok := s.quotes.Get(cache.SnapshotKey()); ok {
		if snap, ok := v.(*models.PortfolioSnapshot); ok {
			return snap, true
		}
	}
	return nil, false
}

// buildSnapshot runs the full aggregation: fetch both legs concurrently,
// derive per-stock records, group by sector, total, cache.
func (s *Service) buildSnapshot(ctx context.Context) (*models.PortfolioSnapshot, error) {
	started := time.Now()

	for _, h := range s.holdings {
		if err := h.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadHolding, err)
		}
	}

	// Static; independent of live data availability.
	totalInvestment := s.totalInvestment()

	priceMap, peMap := s.fetchLiveData(ctx)

	stocks := make([]models.StockRecord, 0, len(s.holdings))
	for _, h := range s.holdings {
		stocks = append(stocks, deriveStock(h, totalInvestment, priceMap[h.YahooSymbol], peMap[h.GoogleSymbol]))
	}

	sectors := groupBySector(stocks)

	totalPresentValue := 0.0
	for _, st := range stocks {
		if st.PresentValue != nil {
			totalPresentValue += *st.PresentValue
		}
	}
	totalGainLoss := totalPresentValue - totalInvestment

	snapshot := &models.PortfolioSnapshot{
		Sectors: sectors,
		Totals: models.PortfolioTotals{
			TotalInvestment:      totalInvestment,
			TotalPresentValue:    models.RoundCurrency(totalPresentValue),
			TotalGainLoss:        models.RoundCurrency(totalGainLoss),
			TotalGainLossPercent: percentOf(totalGainLoss, totalInvestment, models.RoundCurrency),
		},
		LastUpdated: time.Now().UTC(),
	}

	s.quotes.Set(cache.SnapshotKey(), snapshot, s.snapshotTTL)

	s.logger.Info().
		Int("holdings", len(s.holdings)).
		Int("sectors", len(sectors)).
		Dur("elapsed", time.Since(started)).
		Msg("Portfolio snapshot built")

	return snapshot, nil
}

// fetchLiveData runs the price batch and the per-holding fundamentals
// fan-out concurrently and joins both before returning. The two providers
// are independent, so overall latency is the max of the two legs.
func (s *Service) fetchLiveData(ctx context.Context) (map[string]*float64, map[string]*float64) {
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	yahooSymbols := make([]string, 0, len(s.holdings))
	for _, h := range s.holdings {
		yahooSymbols = append(yahooSymbols, h.YahooSymbol)
	}

	var wg sync.WaitGroup

	var priceMap map[string]*float64
	wg.Add(1)
	go func() {
		defer wg.Done()
		priceMap = s.prices.FetchBatch(ctx, yahooSymbols)
	}()

	peMap := make(map[string]*float64, len(s.holdings))
	var peMu sync.Mutex
	for _, h := range s.holdings {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			f := s.fundamentals.FetchOne(ctx, symbol)
			peMu.Lock()
			peMap[symbol] = f.PERatio
			peMu.Unlock()
		}(h.GoogleSymbol)
	}

	wg.Wait()
	return priceMap, peMap
}

func (s *Service) totalInvestment() float64 {
	total := 0.0
	for _, h := range s.holdings {
		total += h.Investment()
	}
	return total
}

// deriveStock builds one StockRecord, propagating nullability: presentValue,
// gainLoss and gainLossPercent are null exactly when cmp is null, and EPS is
// derived only when both cmp and a positive P/E are known.
func deriveStock(h models.Holding, totalInvestment float64, cmp, peRatio *float64) models.StockRecord {
	investment := h.Investment()

	record := models.StockRecord{
		Name:             h.Name,
		PurchasePrice:    h.PurchasePrice,
		Qty:              h.Qty,
		Exchange:         h.Exchange,
		Sector:           h.Sector,
		Investment:       investment,
		PortfolioPercent: percentOf(investment, totalInvestment, models.RoundPercent),
		CMP:              cmp,
		PERatio:          peRatio,
	}

	if cmp != nil {
		presentValue := *cmp * float64(h.Qty)
		gainLoss := presentValue - investment
		record.PresentValue = models.Float64Ptr(models.RoundCurrency(presentValue))
		record.GainLoss = models.Float64Ptr(models.RoundCurrency(gainLoss))
		record.GainLossPercent = percentOf(gainLoss, investment, models.RoundCurrency)
	}

	if cmp != nil && peRatio != nil && *peRatio > 0 {
		record.LatestEarnings = models.Float64Ptr(models.RoundCurrency(*cmp / *peRatio))
	}

	return record
}

// groupBySector rolls stocks up into sector summaries in first-seen order.
// Unavailable present values contribute 0 to the sector sum so one failed
// symbol cannot poison the rollup.
func groupBySector(stocks []models.StockRecord) []models.SectorSummary {
	var order []string
	grouped := make(map[string][]models.StockRecord)

	for _, st := range stocks {
		if _, ok := grouped[st.Sector]; !ok {
			order = append(order, st.Sector)
		}
		grouped[st.Sector] = append(grouped[st.Sector], st)
	}

	sectors := make([]models.SectorSummary, 0, len(order))
	for _, name := range order {
		members := grouped[name]

		investment := 0.0
		presentValue := 0.0
		for _, st := range members {
			investment += st.Investment
			if st.PresentValue != nil {
				presentValue += *st.PresentValue
			}
		}
		gainLoss := presentValue - investment

		sectors = append(sectors, models.SectorSummary{
			Sector:            name,
			TotalInvestment:   investment,
			TotalPresentValue: models.RoundCurrency(presentValue),
			GainLoss:          models.RoundCurrency(gainLoss),
			GainLossPercent:   percentOf(gainLoss, investment, models.RoundCurrency),
			Stocks:            members,
		})
	}

	return sectors
}

// percentOf returns part/whole × 100 rounded by round, or nil when the
// divisor is zero. Null is the documented policy for every undefined
// percentage in the model.
func percentOf(part, whole float64, round func(float64) float64) *float64 {
	if whole == 0 {
		return nil
	}
	return models.Float64Ptr(round(part / whole * 100))
}
