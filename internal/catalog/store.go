// Package catalog maintains the MCX futures contract catalog for gold and
// silver and selects the active trading token for each metal.
package catalog

import (
	"sync"

	"github.com/auricpulse/goldpulse/pkg/models"
)

// Store holds the known contracts per metal and the currently selected
// tokens. It starts seeded with a built-in contract set so the service can
// answer before the first instrument master refresh completes; a refresh
// replaces the seeded set wholesale.
type Store struct {
	mu       sync.RWMutex
	gold     []models.Contract
	silver   []models.Contract
	selected models.SelectedContracts
}

// NewStore creates a store seeded with the built-in contract set and
// default selected tokens.
func NewStore() *Store {
	return &Store{
		gold:   defaultGoldContracts(),
		silver: defaultSilverContracts(),
		selected: models.SelectedContracts{
			GoldToken:   "438425",
			SilverToken: "436580",
		},
	}
}

// Snapshot returns copies of the gold and silver contract lists. Mutating
// the returned slices does not affect the store.
func (s *Store) Snapshot() (gold, silver []models.Contract) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	gold = make([]models.Contract, len(s.gold))
	copy(gold, s.gold)
	silver = make([]models.Contract, len(s.silver))
	copy(silver, s.silver)
	return gold, silver
}

// ReplaceGold swaps the gold contract list wholesale.
func (s *Store) ReplaceGold(contracts []models.Contract) {
	s.mu.Lock()
	s.gold = contracts
	s.mu.Unlock()
}

// ReplaceSilver swaps the silver contract list wholesale.
func (s *Store) ReplaceSilver(contracts []models.Contract) {
	s.mu.Lock()
	s.silver = contracts
	s.mu.Unlock()
}

// Selected returns the currently selected tokens.
func (s *Store) Selected() models.SelectedContracts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// SetGoldToken updates the selected gold token.
func (s *Store) SetGoldToken(token string) {
	s.mu.Lock()
	s.selected.GoldToken = token
	s.mu.Unlock()
}

// SetSilverToken updates the selected silver token.
func (s *Store) SetSilverToken(token string) {
	s.mu.Lock()
	s.selected.SilverToken = token
	s.mu.Unlock()
}

// defaultGoldContracts is the seed catalog used before the first refresh.
func defaultGoldContracts() []models.Contract {
	return []models.Contract{
		{Token: "445003", Name: "GOLD", Expiry: "05DEC2025"},
		{Token: "438425", Name: "GOLD", Expiry: "05AUG2025"},
		{Token: "440939", Name: "GOLD", Expiry: "03OCT2025"},
		{Token: "435697", Name: "GOLD", Expiry: "05JUN2025"},
		{Token: "449534", Name: "GOLD", Expiry: "05FEB2026"},
		{Token: "454818", Name: "GOLD", Expiry: "02APR2026"},
	}
}

func defaultSilverContracts() []models.Contract {
	return []models.Contract{
		{Token: "439488", Name: "SILVER", Expiry: "05SEP2025"},
		{Token: "457532", Name: "SILVER", Expiry: "05MAY2026"},
		{Token: "445004", Name: "SILVER", Expiry: "05DEC2025"},
		{Token: "436580", Name: "SILVER", Expiry: "04JUL2025"},
		{Token: "451666", Name: "SILVER", Expiry: "05MAR2026"},
	}
}
