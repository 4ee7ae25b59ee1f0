// GoldPulse — precious metals market data service
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/auricpulse/goldpulse/api"
	"github.com/auricpulse/goldpulse/internal/broker"
	"github.com/auricpulse/goldpulse/internal/catalog"
	"github.com/auricpulse/goldpulse/internal/config"
	"github.com/auricpulse/goldpulse/internal/feed"
	"github.com/auricpulse/goldpulse/internal/live"
	"github.com/auricpulse/goldpulse/internal/market"
	"github.com/auricpulse/goldpulse/internal/sched"
	"github.com/auricpulse/goldpulse/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "goldpulse",
	Short: "GoldPulse — precious metals market data service",
	Long: `GoldPulse aggregates bullion dealer broadcast feeds, tracks the MCX
gold and silver futures catalog, and serves live last-traded prices
with derived retail values over REST and WebSocket.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(liveCmd)
	rootCmd.AddCommand(contractsCmd)
	rootCmd.AddCommand(serveCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("GoldPulse %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  GoldPulse — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Market Status: %s\n", utils.MarketStatus())
		fmt.Printf("  Time (IST):    %s\n", utils.FormatDateTimeIST(utils.NowIST()))
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Vendor Feeds:  %d configured\n", len(cfg.Feeds.Vendors))
		fmt.Printf("    Broker:        %s\n", cfg.Broker.BaseURL)
		fmt.Printf("    API Server:    %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Printf("    Price Poll:    %s\n", cfg.Scheduler.PricePoll)
		fmt.Println()

		fmt.Println("  Broker Credentials:")
		for _, c := range config.CheckCredentials(cfg) {
			status := "❌ not set"
			if c.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", c.Source, c.Masked)
			}
			fmt.Printf("    %-15s %s\n", c.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

// --- Fetch Command (dealer market board) ---

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the aggregated dealer market board once",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := feed.NewClient(time.Duration(cfg.Feeds.TimeoutSec) * time.Second)
		agg := market.NewAggregator(client, cfg.Feeds.Vendors, time.Duration(cfg.Feeds.CacheTTLSec)*time.Second, nil)

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		book, err := agg.Snapshot(ctx)
		if err != nil {
			return err
		}
		return printJSON(book)
	},
}

// --- Live Command (one LTP cycle) ---

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Fetch one live MCX price cycle for the selected contracts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		sessions := broker.NewSessionManager(cfg.Broker)
		client := broker.NewClient(cfg.Broker)
		store := catalog.NewStore()
		svc := live.NewService(sessions, client, store, cfg.Purity, nil)

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		lp, err := svc.GetPrice(ctx)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{
			"prices": lp,
			"retail": svc.Retail(lp),
		})
	},
}

// --- Contracts Command ---

var contractsCmd = &cobra.Command{
	Use:   "contracts",
	Short: "Show the futures contract catalog and selected tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := catalog.NewStore()

		refresh, _ := cmd.Flags().GetBool("refresh")
		if refresh {
			client := broker.NewClient(cfg.Broker)
			r := catalog.NewRefresher(client, store, nil)

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()
			if err := r.Refresh(ctx); err != nil {
				return err
			}
			if err := r.Reselect(utils.NowIST()); err != nil {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			}
		}

		gold, silver := store.Snapshot()
		return printJSON(map[string]any{
			"gold":     gold,
			"silver":   silver,
			"selected": store.Selected(),
		})
	},
}

func init() {
	contractsCmd.Flags().Bool("refresh", false, "refresh the catalog from the instrument master first")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server with the polling scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("cannot serve: %w", err)
		}

		feedClient := feed.NewClient(time.Duration(cfg.Feeds.TimeoutSec) * time.Second)
		agg := market.NewAggregator(feedClient, cfg.Feeds.Vendors, time.Duration(cfg.Feeds.CacheTTLSec)*time.Second, nil)

		sessions := broker.NewSessionManager(cfg.Broker)
		brokerClient := broker.NewClient(cfg.Broker)

		store := catalog.NewStore()
		refresher := catalog.NewRefresher(brokerClient, store, nil)
		prices := live.NewService(sessions, brokerClient, store, cfg.Purity, nil)

		srv := api.NewServer(cfg, api.Deps{
			Market:    agg,
			Prices:    prices,
			Contracts: store,
			Refresher: refresher,
		})

		scheduler := sched.New(cfg.Scheduler, prices, refresher, srv.PublishPrice, nil)
		if err := scheduler.Start(); err != nil {
			return err
		}
		defer scheduler.Stop()

		fmt.Printf("🌐 Starting GoldPulse API server on %s:%d\n", cfg.API.Host, cfg.API.Port)
		return srv.ListenAndServe()
	},
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
