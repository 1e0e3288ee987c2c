// Package listings lists new properties and changes ask prices.
package listings

import (
	"context"
	"math/big"
	"strings"

	"propertydeals-backend/internal/application/accounts"
	"propertydeals-backend/internal/application/registry"
	"propertydeals-backend/internal/domain"
	"propertydeals-backend/internal/infrastructure/ledger"
	"propertydeals-backend/internal/pkg/units"

	"github.com/rs/zerolog/log"
)

type Service struct {
	Ledger   ledger.Client
	Registry *registry.Registry
	Accounts *accounts.Service
}

// ListProperty lists a new property at price (decimal ether). The id comes from the
// PropertyListed event of the receipt. A confirmed receipt without that event still succeeds:
// the result is stale with no id, and an incremental rebuild picks the property up.
func (s *Service) ListProperty(ctx context.Context, price string, owner string) (*domain.Confirmation, error) {
	if strings.TrimSpace(price) == "" {
		return nil, domain.Missing("price")
	}
	value, err := units.ToPositiveSmallestUnit(price)
	if err != nil {
		return nil, &domain.ValidationError{Field: "price", Err: err}
	}
	from, err := s.Accounts.Resolve(ctx, owner, false)
	if err != nil {
		return nil, err
	}

	tx := ledger.Tx{Method: ledger.MethodListProperty, Args: []interface{}{value}, From: from}
	rec, err := s.Ledger.SubmitTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	ev, ok := rec.Event(ledger.EventPropertyListed)
	id, idOK := ledger.PropertyIDOf(tx, rec)
	if !ok || !idOK || id == 0 {
		log.Warn().Str("tx_hash", rec.TxHash.Hex()).Uint64("block", rec.BlockNumber).
			Msg("listing confirmed without a PropertyListed event; rebuilding registry")
		if _, err := s.Registry.Rebuild(ctx, false); err != nil {
			log.Warn().Err(err).Str("tx_hash", rec.TxHash.Hex()).Msg("rebuild after listing failed")
		}
		return &domain.Confirmation{TxHash: rec.TxHash.Hex(), BlockNumber: rec.BlockNumber, Stale: true}, nil
	}

	c := s.Registry.Confirm(ctx, id, rec, "listed", func(domain.Property, bool) (domain.Property, bool) {
		p := domain.Property{ID: id, Owner: ev.Address("owner"), Price: value, IsListed: true}
		if confirmed := ev.Uint("price"); confirmed != nil {
			p.Price = new(big.Int).Set(confirmed)
		}
		return p, true
	})
	return &c, nil
}

// ChangePrice sets a new ask price and re-lists id. Ownership is enforced by the ledger. The
// cached price is the confirmed one, which can differ from the submitted value.
func (s *Service) ChangePrice(ctx context.Context, id uint64, newPrice string, caller string) (*domain.Confirmation, error) {
	if id == 0 {
		return nil, domain.Missing("propertyId")
	}
	if strings.TrimSpace(newPrice) == "" {
		return nil, domain.Missing("newPrice")
	}
	value, err := units.ToPositiveSmallestUnit(newPrice)
	if err != nil {
		return nil, &domain.ValidationError{Field: "newPrice", Err: err}
	}
	from, err := s.Accounts.Resolve(ctx, caller, false)
	if err != nil {
		return nil, err
	}

	rec, err := s.Ledger.SubmitTransaction(ctx, ledger.Tx{
		Method: ledger.MethodChangePrice,
		Args:   []interface{}{new(big.Int).SetUint64(id), value},
		From:   from,
	})
	if err != nil {
		return nil, err
	}
	c := s.Registry.Confirm(ctx, id, rec, "price_changed", func(cached domain.Property, ok bool) (domain.Property, bool) {
		ev, found := rec.Event(ledger.EventPriceChanged)
		if !ok || !found || ev.Uint("newPrice") == nil {
			return domain.Property{}, false
		}
		cached.Price = new(big.Int).Set(ev.Uint("newPrice"))
		cached.IsListed = true
		return cached, true
	})
	return &c, nil
}
