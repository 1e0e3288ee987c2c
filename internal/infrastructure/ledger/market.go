package ledger

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"propertydeals-backend/internal/domain"

	"github.com/ethereum/go-ethereum/common"
)

// Market adds typed PropertyMarket view calls on top of a Client.
type Market struct {
	Client Client
}

// ReadProperty point-reads the current mutable state of one property.
func (m Market) ReadProperty(ctx context.Context, id uint64) (domain.Property, error) {
	key := new(big.Int).SetUint64(id)
	vals, err := m.Client.CallReadOnly(ctx, MethodProperties, key)
	if err != nil {
		return domain.Property{}, err
	}
	if len(vals) != 6 {
		return domain.Property{}, domain.Rejected(MethodProperties, fmt.Sprintf("unexpected result arity %d", len(vals)))
	}
	rawID, err := asUint(vals[0])
	if err != nil {
		return domain.Property{}, err
	}
	owner, err := asAddress(vals[1])
	if err != nil {
		return domain.Property{}, err
	}
	if rawID.Sign() == 0 && owner == (common.Address{}) {
		return domain.Property{}, fmt.Errorf("%w: %d", domain.ErrPropertyNotFound, id)
	}
	price, err := asUint(vals[2])
	if err != nil {
		return domain.Property{}, err
	}
	listed, err := asBool(vals[3])
	if err != nil {
		return domain.Property{}, err
	}
	auctionOpen, err := asBool(vals[4])
	if err != nil {
		return domain.Property{}, err
	}
	endTime, err := asUint(vals[5])
	if err != nil {
		return domain.Property{}, err
	}

	amount, bidder, err := m.ReadHighestBid(ctx, id)
	if err != nil {
		return domain.Property{}, err
	}

	p := domain.Property{ID: id, Owner: owner, Price: price, IsListed: listed}
	if auctionOpen {
		a := &domain.Auction{}
		if endTime.Sign() > 0 && endTime.IsInt64() {
			t := time.Unix(endTime.Int64(), 0).UTC()
			a.EndTime = &t
		}
		if amount.Sign() > 0 && bidder != (common.Address{}) {
			a.HighestBid = &domain.Bid{Amount: amount, Bidder: bidder}
		}
		p.Auction = a
	}
	return p, nil
}

// ReadHighestBid reads highestBid(id) and highestBidder(id).
func (m Market) ReadHighestBid(ctx context.Context, id uint64) (*big.Int, common.Address, error) {
	key := new(big.Int).SetUint64(id)
	vals, err := m.Client.CallReadOnly(ctx, MethodHighestBid, key)
	if err != nil {
		return nil, common.Address{}, err
	}
	if len(vals) != 1 {
		return nil, common.Address{}, domain.Rejected(MethodHighestBid, fmt.Sprintf("unexpected result arity %d", len(vals)))
	}
	amount, err := asUint(vals[0])
	if err != nil {
		return nil, common.Address{}, err
	}
	vals, err = m.Client.CallReadOnly(ctx, MethodHighestBidder, key)
	if err != nil {
		return nil, common.Address{}, err
	}
	if len(vals) != 1 {
		return nil, common.Address{}, domain.Rejected(MethodHighestBidder, fmt.Sprintf("unexpected result arity %d", len(vals)))
	}
	bidder, err := asAddress(vals[0])
	if err != nil {
		return nil, common.Address{}, err
	}
	return amount, bidder, nil
}

// PropertyCount reads getPropertyCount().
func (m Market) PropertyCount(ctx context.Context) (uint64, error) {
	vals, err := m.Client.CallReadOnly(ctx, MethodGetPropertyCount)
	if err != nil {
		return 0, err
	}
	if len(vals) != 1 {
		return 0, domain.Rejected(MethodGetPropertyCount, fmt.Sprintf("unexpected result arity %d", len(vals)))
	}
	n, err := asUint(vals[0])
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// PropertyIDOf returns the property a transaction targets, using the receipt for listings.
func PropertyIDOf(tx Tx, rec *Receipt) (uint64, bool) {
	if tx.Method == MethodListProperty {
		ev, ok := rec.Event(EventPropertyListed)
		if !ok || ev.Uint("propertyId") == nil {
			return 0, false
		}
		return ev.Uint("propertyId").Uint64(), true
	}
	if len(tx.Args) == 0 {
		return 0, false
	}
	id, ok := tx.Args[0].(*big.Int)
	if !ok || id == nil || !id.IsUint64() {
		return 0, false
	}
	return id.Uint64(), true
}

func asUint(v interface{}) (*big.Int, error) {
	n, ok := v.(*big.Int)
	if !ok || n == nil {
		return nil, fmt.Errorf("expected uint256, got %T", v)
	}
	return n, nil
}

func asAddress(v interface{}) (common.Address, error) {
	a, ok := v.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("expected address, got %T", v)
	}
	return a, nil
}

func asBool(v interface{}) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expected bool, got %T", v)
	}
	return b, nil
}
