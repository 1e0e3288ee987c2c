// Package coordinator is the entry point for every property operation. It owns the registry
// and wires the listing, purchase, auction and bidding services around one ledger client.
package coordinator

import (
	"context"
	"errors"
	"math/big"
	"time"

	"propertydeals-backend/internal/application/accounts"
	"propertydeals-backend/internal/application/auction"
	"propertydeals-backend/internal/application/bidding"
	"propertydeals-backend/internal/application/listings"
	"propertydeals-backend/internal/application/purchase"
	"propertydeals-backend/internal/application/registry"
	"propertydeals-backend/internal/domain"
	"propertydeals-backend/internal/infrastructure/ledger"
	"propertydeals-backend/internal/infrastructure/metrics"
	"propertydeals-backend/internal/infrastructure/notify"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
)

// Options configures a Coordinator.
type Options struct {
	Store               registry.Store
	Notifier            notify.Notifier
	RebuildConcurrency  int
	DefaultAccountIndex int
	// TxTimeout bounds each mutating operation, receipt wait included. Zero leaves the
	// caller's context alone.
	TxTimeout time.Duration
}

type Coordinator struct {
	Ledger    ledger.Client
	Registry  *registry.Registry
	Accounts  *accounts.Service
	Listings  *listings.Service
	Purchases *purchase.Service
	Auctions  *auction.Service
	Bids      *bidding.Service

	txTimeout time.Duration
}

func New(client ledger.Client, opts Options) *Coordinator {
	reg := registry.New(client, registry.Options{
		Store:       opts.Store,
		Notifier:    opts.Notifier,
		Concurrency: opts.RebuildConcurrency,
	})
	acc := &accounts.Service{Ledger: client, DefaultIndex: opts.DefaultAccountIndex}
	return &Coordinator{
		Ledger:    client,
		Registry:  reg,
		Accounts:  acc,
		Listings:  &listings.Service{Ledger: client, Registry: reg, Accounts: acc},
		Purchases: &purchase.Service{Ledger: client, Registry: reg, Accounts: acc},
		Auctions:  &auction.Service{Ledger: client, Registry: reg, Accounts: acc},
		Bids:      &bidding.Service{Ledger: client, Registry: reg, Accounts: acc},
		txTimeout: opts.TxTimeout,
	}
}

func (c *Coordinator) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.txTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.txTimeout)
}

func observe(op string, id uint64, err error) {
	metrics.ObserveOperation(op, err)
	if err == nil {
		return
	}
	ev := log.Info()
	if domain.Class(err) == "internal" || errors.Is(err, domain.ErrLedgerUnavailable) {
		ev = log.Warn()
	}
	ev.Err(err).Str("operation", op).Uint64("property_id", id).Str("class", domain.Class(err)).Msg("operation failed")
}

func (c *Coordinator) ListProperty(ctx context.Context, price, owner string) (*domain.Confirmation, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	res, err := c.Listings.ListProperty(ctx, price, owner)
	var id uint64
	if res != nil {
		id = res.PropertyID
	}
	observe("list_property", id, err)
	return res, err
}

func (c *Coordinator) ChangePrice(ctx context.Context, id uint64, newPrice, caller string) (*domain.Confirmation, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	res, err := c.Listings.ChangePrice(ctx, id, newPrice, caller)
	observe("change_price", id, err)
	return res, err
}

func (c *Coordinator) BuyProperty(ctx context.Context, id uint64, price, buyer string) (*domain.Confirmation, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	res, err := c.Purchases.BuyProperty(ctx, id, price, buyer)
	observe("buy_property", id, err)
	return res, err
}

func (c *Coordinator) StartAuction(ctx context.Context, id uint64, startingPrice string, durationSeconds int64, caller string) (*domain.Confirmation, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	res, err := c.Auctions.StartAuction(ctx, id, startingPrice, durationSeconds, caller)
	observe("start_auction", id, err)
	return res, err
}

func (c *Coordinator) StopAuction(ctx context.Context, id uint64, caller string) (*domain.Confirmation, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	res, err := c.Auctions.StopAuction(ctx, id, caller)
	observe("stop_auction", id, err)
	return res, err
}

func (c *Coordinator) PlaceBid(ctx context.Context, id uint64, amount, bidder string) (*bidding.Result, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	res, err := c.Bids.PlaceBid(ctx, id, amount, bidder)
	observe("place_bid", id, err)
	return res, err
}

// Rebuild reconstructs the registry from the ledger.
func (c *Coordinator) Rebuild(ctx context.Context, full bool) (registry.RebuildResult, error) {
	res, err := c.Registry.Rebuild(ctx, full)
	observe("rebuild", 0, err)
	return res, err
}

// Property returns the cached record, point-reading the ledger on a cache miss.
func (c *Coordinator) Property(ctx context.Context, id uint64) (domain.Property, error) {
	if id == 0 {
		return domain.Property{}, domain.Missing("propertyId")
	}
	if p, ok := c.Registry.Get(id); ok {
		return p, nil
	}
	return c.Registry.Refresh(ctx, id)
}

func (c *Coordinator) Properties() []domain.Property {
	return c.Registry.List()
}

func (c *Coordinator) OwnedBy(account common.Address) []domain.Property {
	return c.Registry.OwnedBy(account)
}

// HighestBid reads the current highest bid straight from the ledger.
func (c *Coordinator) HighestBid(ctx context.Context, id uint64) (*big.Int, common.Address, error) {
	if id == 0 {
		return nil, common.Address{}, domain.Missing("propertyId")
	}
	return ledger.Market{Client: c.Ledger}.ReadHighestBid(ctx, id)
}

func (c *Coordinator) ListAccounts(ctx context.Context) ([]accounts.Account, error) {
	return c.Accounts.List(ctx)
}
