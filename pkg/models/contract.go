package models

// Instrument is one entry of the broker's instrument master file, as
// published on the wire. Only the fields the catalog refresh consumes are
// decoded.
type Instrument struct {
	Token          string `json:"token"`
	Name           string `json:"name"`   // e.g., "GOLD", "SILVER"
	Expiry         string `json:"expiry"` // compact form, e.g., "05AUG2025"
	ExchSeg        string `json:"exch_seg"`
	InstrumentType string `json:"instrumenttype"`
}

// Contract is one tradable MCX futures contract known to the catalog.
// Contracts are immutable; a catalog refresh replaces the whole list rather
// than mutating entries.
type Contract struct {
	Token  string `json:"token"`
	Name   string `json:"name"`   // "GOLD" or "SILVER"
	Expiry string `json:"expiry"` // compact form, e.g., "05AUG2025"
}

// SelectedContracts holds the currently active futures token per metal.
// Exactly one instance exists per process, owned by the catalog store;
// last writer wins.
type SelectedContracts struct {
	GoldToken   string `json:"gold_token"`
	SilverToken string `json:"silver_token"`
}

// TokenPrice is one instrument entry of a broker LTP response.
type TokenPrice struct {
	SymbolToken string  `json:"symbolToken"`
	LTP         float64 `json:"ltp"`
}
