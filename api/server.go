// Package api provides the HTTP REST API server for GoldPulse.
//
// It exposes the aggregated dealer market board, live MCX prices with the
// derived retail card, the futures contract catalog, and WebSocket price
// streaming.
package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/auricpulse/goldpulse/internal/catalog"
	"github.com/auricpulse/goldpulse/internal/config"
	"github.com/auricpulse/goldpulse/internal/live"
	"github.com/auricpulse/goldpulse/internal/market"
	"github.com/auricpulse/goldpulse/pkg/models"
	"github.com/auricpulse/goldpulse/pkg/utils"
)

// Server is the HTTP API server.
type Server struct {
	router    chi.Router
	cfg       *config.Config
	market    *market.Aggregator
	prices    *live.Service
	contracts *catalog.Store
	refresher *catalog.Refresher
	wsHub     *WSHub
}

// Deps are the wired components the server exposes over HTTP.
type Deps struct {
	Market    *market.Aggregator
	Prices    *live.Service
	Contracts *catalog.Store
	Refresher *catalog.Refresher
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, deps Deps) *Server {
	srv := &Server{
		cfg:       cfg,
		market:    deps.Market,
		prices:    deps.Prices,
		contracts: deps.Contracts,
		refresher: deps.Refresher,
		wsHub:     NewWSHub(),
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// PublishPrice pushes one live price cycle to every WebSocket subscriber.
// Wire it as the scheduler's publish callback.
func (s *Server) PublishPrice(lp models.LivePrice) {
	s.wsHub.Broadcast(WSMessage{
		Type: "price",
		Data: livePriceResponse{
			Prices:    lp,
			Retail:    s.prices.Retail(lp),
			UpdatedAt: utils.FormatDateTimeIST(utils.NowIST()),
		},
	})
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.API.Host, s.cfg.API.Port)
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start WebSocket hub
	go s.wsHub.Run()

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("API server listening on %s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Prices
		r.Get("/prices/market", s.handleMarketPrices)
		r.Get("/prices/live", s.handleLivePrices)

		// Contract catalog
		r.Get("/contracts", s.handleContracts)
		r.Post("/contracts/refresh", s.handleContractsRefresh)
		r.Post("/contracts/select", s.handleContractsSelect)
	})

	// WebSocket price stream
	r.Get("/ws/prices", s.handleWebSocket)

	return r
}

// ════════════════════════════════════════════════════════════════════
// Handlers
// ════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"market": utils.MarketStatus(),
		"time":   utils.FormatDateTimeIST(utils.NowIST()),
	})
}

func (s *Server) handleMarketPrices(w http.ResponseWriter, r *http.Request) {
	book, err := s.market.Snapshot(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, fmt.Sprintf("market snapshot failed: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, book)
}

type livePriceResponse struct {
	Prices    models.LivePrice    `json:"prices"`
	Retail    models.RetailPrices `json:"retail"`
	UpdatedAt string              `json:"updated_at"`
}

func (s *Server) handleLivePrices(w http.ResponseWriter, r *http.Request) {
	lp, at, ok := s.prices.Latest().Get()
	if !ok {
		// No poll cycle has succeeded yet; fetch inline.
		var err error
		lp, err = s.prices.GetPrice(r.Context())
		if err != nil {
			respondError(w, http.StatusServiceUnavailable, fmt.Sprintf("live price unavailable: %v", err))
			return
		}
		at = utils.NowIST()
	}

	respondJSON(w, http.StatusOK, livePriceResponse{
		Prices:    lp,
		Retail:    s.prices.Retail(lp),
		UpdatedAt: utils.FormatDateTimeIST(at),
	})
}

type contractsResponse struct {
	Gold     []models.Contract        `json:"gold"`
	Silver   []models.Contract        `json:"silver"`
	Selected models.SelectedContracts `json:"selected"`
}

func (s *Server) handleContracts(w http.ResponseWriter, r *http.Request) {
	gold, silver := s.contracts.Snapshot()
	respondJSON(w, http.StatusOK, contractsResponse{
		Gold:     gold,
		Silver:   silver,
		Selected: s.contracts.Selected(),
	})
}

func (s *Server) handleContractsRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.refresher.Refresh(r.Context()); err != nil {
		respondError(w, http.StatusBadGateway, fmt.Sprintf("refresh failed: %v", err))
		return
	}
	gold, silver := s.contracts.Snapshot()
	respondJSON(w, http.StatusOK, contractsResponse{
		Gold:     gold,
		Silver:   silver,
		Selected: s.contracts.Selected(),
	})
}

func (s *Server) handleContractsSelect(w http.ResponseWriter, r *http.Request) {
	err := s.refresher.Reselect(utils.NowIST())
	if err != nil && errors.Is(err, catalog.ErrNoEligibleContract) {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"selected": s.contracts.Selected(),
	})
}
