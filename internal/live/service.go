// Package live retrieves last-traded prices for the selected MCX contracts
// and derives retail prices from them.
package live

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/auricpulse/goldpulse/internal/broker"
	"github.com/auricpulse/goldpulse/internal/catalog"
	"github.com/auricpulse/goldpulse/internal/config"
	"github.com/auricpulse/goldpulse/pkg/models"
	"github.com/auricpulse/goldpulse/pkg/utils"
)

// ErrNoData is returned when no price could be obtained this cycle. The
// poller treats it as a degraded cycle and keeps serving the last good
// price from the LatestStore.
var ErrNoData = errors.New("no live price data")

// Sessions is the broker session surface the service needs.
type Sessions interface {
	Ensure(ctx context.Context) (string, error)
	Login(ctx context.Context) (string, error)
	Invalidate()
}

// Quoter fetches last-traded prices for symbol tokens.
type Quoter interface {
	LTP(ctx context.Context, jwt string, tokens []string) ([]models.TokenPrice, error)
}

// Service runs the live price cycle: resolve the selected contract tokens,
// fetch their LTPs through an authenticated session, and record the result.
type Service struct {
	sessions Sessions
	quotes   Quoter
	catalog  *catalog.Store
	latest   *LatestStore
	purity   config.PurityConfig
	logger   *log.Logger
}

// NewService wires a live price service.
func NewService(sessions Sessions, quotes Quoter, cat *catalog.Store, purity config.PurityConfig, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		sessions: sessions,
		quotes:   quotes,
		catalog:  cat,
		latest:   NewLatestStore(),
		purity:   purity,
		logger:   logger,
	}
}

// Latest exposes the last good price store.
func (s *Service) Latest() *LatestStore {
	return s.latest
}

// GetPrice runs one price cycle and returns the LTPs for the selected gold
// and silver contracts. A token the broker omits from its response reports
// 0.0 for that metal. An expired session is invalidated and a fresh login
// is attempted for the next cycle; the current cycle degrades to ErrNoData
// rather than retrying.
func (s *Service) GetPrice(ctx context.Context) (models.LivePrice, error) {
	sel := s.catalog.Selected()

	jwt, err := s.sessions.Ensure(ctx)
	if err != nil {
		return models.LivePrice{}, fmt.Errorf("%w: session: %v", ErrNoData, err)
	}

	prices, err := s.quotes.LTP(ctx, jwt, []string{sel.GoldToken, sel.SilverToken})
	if err != nil {
		if broker.IsAuthError(err) {
			s.sessions.Invalidate()
			if _, lerr := s.sessions.Login(ctx); lerr != nil {
				s.logger.Printf("re-login failed: %v", lerr)
			}
		}
		return models.LivePrice{}, fmt.Errorf("%w: %v", ErrNoData, err)
	}

	var lp models.LivePrice
	for _, p := range prices {
		switch p.SymbolToken {
		case sel.GoldToken:
			lp.Gold = p.LTP
		case sel.SilverToken:
			lp.Silver = p.LTP
		}
	}

	s.latest.Set(lp)
	return lp, nil
}

// Retail derives the retail price card from a live price. MCX gold trades
// per 10g and silver per kg; retail gold is quoted per 10g with GST, lower
// carats through the configured purity ratios.
func (s *Service) Retail(lp models.LivePrice) models.RetailPrices {
	gold24 := utils.AddGST(lp.Gold)
	silver := utils.AddGST(lp.Silver)
	return models.RetailPrices{
		Gold24Carat:      gold24,
		Gold22Carat:      utils.PurityPrice(gold24, s.purity.Gold22Ratio),
		Gold18Carat:      utils.PurityPrice(gold24, s.purity.Gold18Ratio),
		SilverPerKG:      silver,
		GoldWithoutGST:   lp.Gold,
		SilverWithoutGST: lp.Silver,
	}
}

// LatestStore keeps the most recent successful price cycle.
type LatestStore struct {
	mu        sync.RWMutex
	price     models.LivePrice
	updatedAt time.Time
	ok        bool
}

// NewLatestStore returns an empty store.
func NewLatestStore() *LatestStore {
	return &LatestStore{}
}

// Set records a successful cycle result.
func (l *LatestStore) Set(p models.LivePrice) {
	l.mu.Lock()
	l.price = p
	l.updatedAt = time.Now()
	l.ok = true
	l.mu.Unlock()
}

// Get returns the last good price and when it was recorded. ok is false
// until the first successful cycle.
func (l *LatestStore) Get() (p models.LivePrice, at time.Time, ok bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.price, l.updatedAt, l.ok
}
