// Package sched runs the periodic jobs: the live price poll, the nightly
// catalog refresh, and the nightly token reselection.
package sched

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/auricpulse/goldpulse/internal/catalog"
	"github.com/auricpulse/goldpulse/internal/config"
	"github.com/auricpulse/goldpulse/internal/live"
	"github.com/auricpulse/goldpulse/pkg/models"
	"github.com/auricpulse/goldpulse/pkg/utils"
)

// jobTimeout bounds each scheduled run so a stalled upstream cannot pile
// up overlapping cycles.
const jobTimeout = 30 * time.Second

// Scheduler owns the cron runner. Job failures are logged and the next tick
// proceeds; nothing here is fatal once started.
type Scheduler struct {
	cron      *cron.Cron
	cfg       config.SchedulerConfig
	prices    *live.Service
	refresher *catalog.Refresher
	publish   func(models.LivePrice)
	logger    *log.Logger
}

// New creates a scheduler. publish is called after every successful price
// poll; pass nil to skip publishing.
func New(cfg config.SchedulerConfig, prices *live.Service, refresher *catalog.Refresher, publish func(models.LivePrice), logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	if publish == nil {
		publish = func(models.LivePrice) {}
	}
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(utils.IST)),
		cfg:       cfg,
		prices:    prices,
		refresher: refresher,
		publish:   publish,
		logger:    logger,
	}
}

// Start registers the three jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.PricePoll, s.pollPrices); err != nil {
		return fmt.Errorf("bad price_poll spec %q: %w", s.cfg.PricePoll, err)
	}
	if _, err := s.cron.AddFunc(s.cfg.CatalogRefresh, s.refreshCatalog); err != nil {
		return fmt.Errorf("bad catalog_refresh spec %q: %w", s.cfg.CatalogRefresh, err)
	}
	if _, err := s.cron.AddFunc(s.cfg.TokenSelect, s.reselectTokens); err != nil {
		return fmt.Errorf("bad token_select spec %q: %w", s.cfg.TokenSelect, err)
	}

	s.cron.Start()
	s.logger.Printf("scheduler started: poll=%q refresh=%q select=%q",
		s.cfg.PricePoll, s.cfg.CatalogRefresh, s.cfg.TokenSelect)
	return nil
}

// Stop halts the cron runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Jobs returns the number of registered cron entries.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) pollPrices() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	lp, err := s.prices.GetPrice(ctx)
	if err != nil {
		s.logger.Printf("price poll: %v", err)
		return
	}
	s.publish(lp)
}

func (s *Scheduler) refreshCatalog() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := s.refresher.Refresh(ctx); err != nil {
		s.logger.Printf("catalog refresh: %v", err)
	}
}

func (s *Scheduler) reselectTokens() {
	if err := s.refresher.Reselect(utils.NowIST()); err != nil {
		s.logger.Printf("token select: %v", err)
	}
}
