// Package auction drives the per-property auction state machine on the ledger.
package auction

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"propertydeals-backend/internal/application/accounts"
	"propertydeals-backend/internal/application/registry"
	"propertydeals-backend/internal/domain"
	"propertydeals-backend/internal/infrastructure/ledger"
	"propertydeals-backend/internal/pkg/units"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
)

// State is the auction lifecycle position of a property.
type State int

const (
	// Listed: no auction open; the property may or may not be for direct sale.
	Listed State = iota
	AuctionOpen
	// Settled: owned, neither listed nor auctioning. Not terminal.
	Settled
)

func (s State) String() string {
	switch s {
	case Listed:
		return "listed"
	case AuctionOpen:
		return "auction_open"
	case Settled:
		return "settled"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// StateOf derives the state from a ledger view.
func StateOf(p domain.Property) State {
	switch {
	case p.IsAuctionStarted():
		return AuctionOpen
	case p.IsListed:
		return Listed
	default:
		return Settled
	}
}

var errNotPositive = errors.New("must be greater than zero")

type Service struct {
	Ledger   ledger.Client
	Registry *registry.Registry
	Accounts *accounts.Service
}

func (s *Service) market() ledger.Market {
	return ledger.Market{Client: s.Ledger}
}

// StartAuction opens an auction. Ownership is enforced by the ledger.
func (s *Service) StartAuction(ctx context.Context, id uint64, startingPrice string, durationSeconds int64, caller string) (*domain.Confirmation, error) {
	if id == 0 {
		return nil, domain.Missing("propertyId")
	}
	if strings.TrimSpace(startingPrice) == "" {
		return nil, domain.Missing("startingPrice")
	}
	price, err := units.ToPositiveSmallestUnit(startingPrice)
	if err != nil {
		return nil, &domain.ValidationError{Field: "startingPrice", Err: err}
	}
	if durationSeconds <= 0 {
		return nil, &domain.ValidationError{Field: "duration", Err: errNotPositive}
	}
	from, err := s.Accounts.Resolve(ctx, caller, false)
	if err != nil {
		return nil, err
	}

	p, err := s.market().ReadProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	if StateOf(p) == AuctionOpen {
		return nil, domain.Conflict("property %d already has an open auction", id)
	}

	rec, err := s.Ledger.SubmitTransaction(ctx, ledger.Tx{
		Method: ledger.MethodStartAuction,
		Args:   []interface{}{new(big.Int).SetUint64(id), price, big.NewInt(durationSeconds)},
		From:   from,
	})
	if err != nil {
		return nil, err
	}
	c := s.Registry.Confirm(ctx, id, rec, "auction_started", nil)
	return &c, nil
}

// StopAuction settles an open auction. Only the current owner or the current highest bidder,
// both read from the ledger immediately before the check, may stop it.
func (s *Service) StopAuction(ctx context.Context, id uint64, caller string) (*domain.Confirmation, error) {
	if id == 0 {
		return nil, domain.Missing("propertyId")
	}
	from, err := s.Accounts.Resolve(ctx, caller, false)
	if err != nil {
		return nil, err
	}

	p, err := s.market().ReadProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	if StateOf(p) != AuctionOpen {
		return nil, domain.Conflict("property %d has no open auction", id)
	}
	if !mayStop(p, from) {
		log.Info().Uint64("property_id", id).Str("caller", from.Hex()).Msg("stop auction refused: caller is neither owner nor highest bidder")
		return nil, fmt.Errorf("%w: only the owner or the highest bidder can stop the auction", domain.ErrUnauthorized)
	}

	rec, err := s.Ledger.SubmitTransaction(ctx, ledger.Tx{
		Method: ledger.MethodStopAuction,
		Args:   []interface{}{new(big.Int).SetUint64(id)},
		From:   from,
	})
	if err != nil {
		return nil, err
	}
	c := s.Registry.Confirm(ctx, id, rec, "auction_ended", nil)
	return &c, nil
}

func mayStop(p domain.Property, caller common.Address) bool {
	if caller == p.Owner {
		return true
	}
	b := p.HighestBid()
	return b != nil && b.Bidder == caller
}
