// Package market aggregates vendor broadcast feeds into a single
// point-in-time price book.
package market

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/auricpulse/goldpulse/internal/config"
	"github.com/auricpulse/goldpulse/internal/feed"
	"github.com/auricpulse/goldpulse/internal/infra"
	"github.com/auricpulse/goldpulse/pkg/models"
)

// Fetcher retrieves raw broadcast text from a vendor endpoint.
type Fetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// Aggregator fans out to every configured vendor feed concurrently and
// assembles the results into a MarketPriceBook.
//
// Feeds are not equal: a fetch failure on a primary feed fails the whole
// snapshot, while a secondary feed degrades to an empty section so one
// flaky premium feed cannot take down the dealer board.
type Aggregator struct {
	client  Fetcher
	vendors []config.FeedConfig
	cache   *infra.Cache
	logger  *log.Logger
}

const cacheKey = "market:snapshot"

// NewAggregator creates an aggregator over the configured vendor set. The
// cache shields vendor endpoints from request bursts; pass the TTL from
// feeds.cache_ttl_sec.
func NewAggregator(client Fetcher, vendors []config.FeedConfig, cacheTTL time.Duration, logger *log.Logger) *Aggregator {
	if logger == nil {
		logger = log.Default()
	}
	return &Aggregator{
		client:  client,
		vendors: vendors,
		cache:   infra.NewCache(cacheTTL),
		logger:  logger,
	}
}

// Snapshot fetches all vendor feeds concurrently and returns the assembled
// price book. A recent cached book is returned as-is. Every primary feed
// must fetch successfully; secondary feeds degrade to empty sections.
func (a *Aggregator) Snapshot(ctx context.Context) (*models.MarketPriceBook, error) {
	if v, ok := a.cache.Get(cacheKey); ok {
		return v.(*models.MarketPriceBook), nil
	}

	book := models.NewMarketPriceBook()
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for _, vendor := range a.vendors {
		vendor := vendor
		g.Go(func() error {
			raw, err := a.client.FetchText(ctx, vendor.URL)
			if err != nil {
				if vendor.Primary {
					return fmt.Errorf("feed %s: %w", vendor.Name, err)
				}
				a.logger.Printf("feed %s unavailable, degrading: %v", vendor.Name, err)
				raw = ""
			}

			mu.Lock()
			defer mu.Unlock()
			a.merge(book, vendor, raw)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	book.FetchedAt = time.Now()
	a.cache.Set(cacheKey, book)
	return book, nil
}

// Invalidate drops the cached snapshot so the next call refetches.
func (a *Aggregator) Invalidate() {
	a.cache.Invalidate(cacheKey)
}

// merge parses one vendor's raw text with its configured strategy and writes
// the result into the book. Must be called with the book lock held.
func (a *Aggregator) merge(book *models.MarketPriceBook, vendor config.FeedConfig, raw string) {
	switch vendor.Parser {
	case "dealer":
		quotes := feed.ParseDealerRows(raw, vendor.Source, vendor.Markers, vendor.Exact)
		book.Dealers[vendor.Name] = quotes
	case "status":
		quotes := feed.ParseStatusRows(raw, vendor.Source, vendor.Markers)
		book.Dealers[vendor.Name] = quotes
	case "costing":
		costings := feed.ParseCostingRows(raw, vendor.Source, vendor.Product, vendor.Markers)
		book.Costings[vendor.Name] = costings
	case "composite":
		book.Composite[vendor.Name] = feed.ParseRankedComposite(raw, vendor.Source, vendor.Product, vendor.Markers)
	default:
		a.logger.Printf("feed %s: unknown parser %q, skipping", vendor.Name, vendor.Parser)
	}
}
