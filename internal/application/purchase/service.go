// Package purchase buys listed properties at their ask price.
package purchase

import (
	"context"
	"math/big"
	"strings"

	"propertydeals-backend/internal/application/accounts"
	"propertydeals-backend/internal/application/registry"
	"propertydeals-backend/internal/domain"
	"propertydeals-backend/internal/infrastructure/ledger"
	"propertydeals-backend/internal/pkg/units"
)

type Service struct {
	Ledger   ledger.Client
	Registry *registry.Registry
	Accounts *accounts.Service
}

// BuyProperty purchases id for price (decimal ether). An empty buyer signs with the default
// account. Properties with an open auction cannot be bought directly.
func (s *Service) BuyProperty(ctx context.Context, id uint64, price string, buyer string) (*domain.Confirmation, error) {
	if id == 0 {
		return nil, domain.Missing("propertyId")
	}
	if strings.TrimSpace(price) == "" {
		return nil, domain.Missing("price")
	}
	value, err := units.ToPositiveSmallestUnit(price)
	if err != nil {
		return nil, &domain.ValidationError{Field: "price", Err: err}
	}
	from, err := s.Accounts.Resolve(ctx, buyer, false)
	if err != nil {
		return nil, err
	}

	p, err := ledger.Market{Client: s.Ledger}.ReadProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsAuctionStarted() {
		return nil, domain.Conflict("property %d is being auctioned", id)
	}
	if !p.IsListed {
		return nil, domain.Conflict("property %d is not listed for sale", id)
	}

	rec, err := s.Ledger.SubmitTransaction(ctx, ledger.Tx{
		Method:   ledger.MethodBuyProperty,
		Args:     []interface{}{new(big.Int).SetUint64(id), value},
		From:     from,
		Value:    value,
		GasLimit: ledger.PurchaseGasLimit,
	})
	if err != nil {
		return nil, err
	}
	c := s.Registry.Confirm(ctx, id, rec, "sold", nil)
	return &c, nil
}
