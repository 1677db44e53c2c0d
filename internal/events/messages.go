package events

// Event types.
const (
	TypeCollectionSynced     = "collection:synced"
	TypeCollectionSyncFailed = "collection:sync_failed"
	TypeDecksSynced          = "decks:synced"
	TypeDecksSyncFailed      = "decks:sync_failed"
	TypeDeckState            = "deck:state"
	TypeIntegrityWarning     = "deck:integrity_warning"
)

// CollectionSynced is the payload for collection:synced events.
// Sent when a fresh ownership state replaced the cached one.
type CollectionSynced struct {
	UniqueCards int `json:"uniqueCards"`
	TotalCards  int `json:"totalCards"`
}

// SyncFailed is the payload for collection:sync_failed and decks:sync_failed
// events.
type SyncFailed struct {
	Op    string `json:"op"`
	Error string `json:"error"`
}

// DecksSynced is the payload for decks:synced events.
type DecksSynced struct {
	Count int `json:"count"` // Number of decks in the refreshed list
}

// DeckState is the payload for deck:state events.
// Sent whenever a deck moves between unsynced, loading, ready and error.
type DeckState struct {
	DeckID string `json:"deckId"`
	From   string `json:"from"`
	To     string `json:"to"`
	Error  string `json:"error,omitempty"`
}

// IntegrityWarning is the payload for deck:integrity_warning events.
// Sent when a deck line references a card missing from the catalog.
type IntegrityWarning struct {
	DeckID string `json:"deckId"`
	CardID string `json:"cardId"`
}
