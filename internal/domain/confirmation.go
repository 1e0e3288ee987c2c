package domain

// Confirmation is the outcome of a confirmed ledger submission. Property is the registry view
// after the post-confirmation refresh; Stale is set when that refresh could not read the ledger
// and Property holds the last known or event-derived values instead.
type Confirmation struct {
	PropertyID  uint64    `json:"property_id"`
	TxHash      string    `json:"tx_hash"`
	BlockNumber uint64    `json:"block_number"`
	Property    *Property `json:"-"`
	Stale       bool      `json:"stale"`
}
