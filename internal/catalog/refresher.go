package catalog

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/auricpulse/goldpulse/pkg/models"
)

// InstrumentSource provides the raw instrument master.
type InstrumentSource interface {
	Instruments(ctx context.Context) ([]models.Instrument, error)
}

// Refresher rebuilds the contract catalog from the instrument master and
// reselects the active tokens.
type Refresher struct {
	source InstrumentSource
	store  *Store
	logger *log.Logger
}

// NewRefresher creates a refresher over the given source and store.
func NewRefresher(source InstrumentSource, store *Store, logger *log.Logger) *Refresher {
	if logger == nil {
		logger = log.Default()
	}
	return &Refresher{source: source, store: store, logger: logger}
}

// Refresh downloads the instrument master once, filters it to MCX gold and
// silver futures, and replaces both contract lists wholesale. On any error
// the store is left untouched.
func (r *Refresher) Refresh(ctx context.Context) error {
	instruments, err := r.source.Instruments(ctx)
	if err != nil {
		return fmt.Errorf("refresh catalog: %w", err)
	}

	var gold, silver []models.Contract
	for _, in := range instruments {
		if in.ExchSeg != "MCX" || in.InstrumentType != "FUTCOM" {
			continue
		}
		contract := models.Contract{Token: in.Token, Name: in.Name, Expiry: in.Expiry}
		switch in.Name {
		case "GOLD":
			gold = append(gold, contract)
		case "SILVER":
			silver = append(silver, contract)
		}
	}

	r.store.ReplaceGold(gold)
	r.store.ReplaceSilver(silver)
	r.logger.Printf("catalog refreshed: %d gold, %d silver contracts", len(gold), len(silver))
	return nil
}

// Reselect runs the eligibility selector for each metal against the current
// catalog and updates the selected tokens. A metal with no eligible
// contract keeps its previous token; the error reports which metals failed.
func (r *Refresher) Reselect(now time.Time) error {
	gold, silver := r.store.Snapshot()

	var failed []string
	if token, err := Select(gold, now); err == nil {
		r.store.SetGoldToken(token)
		r.logger.Printf("selected gold token %s", token)
	} else {
		failed = append(failed, "gold")
	}
	if token, err := Select(silver, now); err == nil {
		r.store.SetSilverToken(token)
		r.logger.Printf("selected silver token %s", token)
	} else {
		failed = append(failed, "silver")
	}

	if len(failed) > 0 {
		return fmt.Errorf("reselect %v: %w", failed, ErrNoEligibleContract)
	}
	return nil
}
