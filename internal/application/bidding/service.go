// Package bidding submits auction bids and reports the ledger's view of the auction afterwards.
package bidding

import (
	"context"
	"math/big"
	"strings"

	"propertydeals-backend/internal/application/accounts"
	"propertydeals-backend/internal/application/registry"
	"propertydeals-backend/internal/domain"
	"propertydeals-backend/internal/infrastructure/ledger"
	"propertydeals-backend/internal/pkg/units"

	"github.com/ethereum/go-ethereum/common"
)

type Service struct {
	Ledger   ledger.Client
	Registry *registry.Registry
	Accounts *accounts.Service
}

// Result is the auction as read back from the ledger after the bid confirmed. Leading is
// never assumed: a concurrent higher bid can land between submission and the read.
type Result struct {
	domain.Confirmation
	Bidder        common.Address
	Amount        *big.Int
	HighestBid    *big.Int
	HighestBidder common.Address
	Leading       bool
}

// PlaceBid bids amount (decimal ether) on id from bidder, which must be a ledger account.
func (s *Service) PlaceBid(ctx context.Context, id uint64, amount string, bidder string) (*Result, error) {
	if id == 0 {
		return nil, domain.Missing("propertyId")
	}
	if strings.TrimSpace(amount) == "" {
		return nil, domain.Missing("amount")
	}
	value, err := units.ToPositiveSmallestUnit(amount)
	if err != nil {
		return nil, &domain.ValidationError{Field: "amount", Err: err}
	}
	from, err := s.Accounts.Resolve(ctx, bidder, true)
	if err != nil {
		return nil, err
	}

	p, err := ledger.Market{Client: s.Ledger}.ReadProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAuctionStarted() {
		return nil, domain.Conflict("property %d has no open auction", id)
	}

	rec, err := s.Ledger.SubmitTransaction(ctx, ledger.Tx{
		Method: ledger.MethodBid,
		Args:   []interface{}{new(big.Int).SetUint64(id), value},
		From:   from,
		Value:  value,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Bidder: from, Amount: new(big.Int).Set(value)}
	res.Confirmation = s.Registry.Confirm(ctx, id, rec, "bid_placed", nil)
	if !res.Stale && res.Property != nil {
		if b := res.Property.HighestBid(); b != nil {
			res.HighestBid = new(big.Int).Set(b.Amount)
			res.HighestBidder = b.Bidder
			res.Leading = b.Bidder == from
		}
	}
	return res, nil
}
