// Package ledger is the boundary to the PropertyMarket contract.
package ledger

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Contract methods and events.
const (
	MethodListProperty     = "listProperty"
	MethodChangePrice      = "changePrice"
	MethodBuyProperty      = "buyProperty"
	MethodStartAuction     = "startAuction"
	MethodBid              = "bid"
	MethodStopAuction      = "stopAuction"
	MethodProperties       = "properties"
	MethodHighestBid       = "highestBid"
	MethodHighestBidder    = "highestBidder"
	MethodGetPropertyCount = "getPropertyCount"

	EventPropertyListed  = "PropertyListed"
	EventPriceChanged    = "PriceChanged"
	EventPropertySold    = "PropertySold"
	EventPaymentReceived = "PaymentReceived"
	EventAuctionStarted  = "AuctionStarted"
	EventBidPlaced       = "BidPlaced"
	EventAuctionEnded    = "AuctionEnded"
)

// Gas limits used when a Tx leaves GasLimit unset.
const (
	DefaultGasLimit  uint64 = 3_000_000
	PurchaseGasLimit uint64 = 6_000_000
)

// Tx is a contract call to be signed and submitted by the ledger node.
type Tx struct {
	Method   string
	Args     []interface{}
	From     common.Address
	Value    *big.Int
	GasLimit uint64
}

// Gas returns the effective gas limit for t.
func (t Tx) Gas() uint64 {
	if t.GasLimit > 0 {
		return t.GasLimit
	}
	if t.Method == MethodBuyProperty {
		return PurchaseGasLimit
	}
	return DefaultGasLimit
}

// Event is a decoded contract event. Fields hold *big.Int, common.Address or bool values.
type Event struct {
	Name        string
	BlockNumber uint64
	LogIndex    uint
	TxHash      common.Hash
	Fields      map[string]interface{}
}

// Uint returns a uint256 field as *big.Int, or nil.
func (e Event) Uint(name string) *big.Int {
	v, _ := e.Fields[name].(*big.Int)
	return v
}

// Address returns an address field, or the zero address.
func (e Event) Address(name string) common.Address {
	v, _ := e.Fields[name].(common.Address)
	return v
}

// Receipt is a confirmed, successful submission.
type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
	GasUsed     uint64
	Events      []Event
}

// Event returns the first event named name in the receipt.
func (r *Receipt) Event(name string) (Event, bool) {
	if r == nil {
		return Event{}, false
	}
	for _, ev := range r.Events {
		if ev.Name == name {
			return ev, true
		}
	}
	return Event{}, false
}

// Client is everything the coordinator needs from the ledger. Implementations return
// *domain.LedgerError for ledger-originated failures.
type Client interface {
	SubmitTransaction(ctx context.Context, tx Tx) (*Receipt, error)
	CallReadOnly(ctx context.Context, method string, args ...interface{}) ([]interface{}, error)
	EventsSince(ctx context.Context, eventName string, fromBlock uint64) ([]Event, error)
	ListAccounts(ctx context.Context) ([]common.Address, error)
	AccountBalance(ctx context.Context, account common.Address) (*big.Int, error)
}
