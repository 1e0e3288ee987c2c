// Package notify fans confirmed property changes out to subscribers (broadcast services,
// dashboards). Publishing is best effort: the ledger remains the source of truth.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"propertydeals-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// PropertyUpdate is the message published after the registry accepts a refreshed property.
type PropertyUpdate struct {
	EventID       string     `json:"event_id"`
	Reason        string     `json:"reason"`
	PropertyID    uint64     `json:"property_id"`
	Owner         string     `json:"owner"`
	PriceWei      string     `json:"price_wei"`
	IsListed      bool       `json:"is_listed"`
	AuctionOpen   bool       `json:"auction_open"`
	AuctionEnd    *time.Time `json:"auction_end,omitempty"`
	HighestBidWei string     `json:"highest_bid_wei,omitempty"`
	HighestBidder string     `json:"highest_bidder,omitempty"`
	SyncedBlock   uint64     `json:"synced_block"`
	Timestamp     time.Time  `json:"timestamp"`
}

// NewUpdate snapshots p for publishing.
func NewUpdate(p domain.Property, reason string) PropertyUpdate {
	u := PropertyUpdate{
		EventID:     uuid.New().String(),
		Reason:      reason,
		PropertyID:  p.ID,
		Owner:       p.Owner.Hex(),
		PriceWei:    "0",
		IsListed:    p.IsListed,
		AuctionOpen: p.IsAuctionStarted(),
		SyncedBlock: p.SyncedBlock,
		Timestamp:   time.Now().UTC(),
	}
	if p.Price != nil {
		u.PriceWei = p.Price.String()
	}
	if p.Auction != nil {
		u.AuctionEnd = p.Auction.EndTime
	}
	if b := p.HighestBid(); b != nil {
		u.HighestBidWei = b.Amount.String()
		u.HighestBidder = b.Bidder.Hex()
	}
	return u
}

// Notifier publishes property updates.
type Notifier interface {
	Publish(ctx context.Context, u PropertyUpdate) error
}

// Redis publishes to the property_events:<id> channel.
type Redis struct {
	Client *redis.Client
}

// Channel returns the pub/sub channel for a property.
func Channel(id uint64) string {
	return fmt.Sprintf("property_events:%d", id)
}

func (r *Redis) Publish(ctx context.Context, u PropertyUpdate) error {
	payload, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}
	return r.Client.Publish(ctx, Channel(u.PropertyID), payload).Err()
}

// NATS publishes to the property.events.<id> subject.
type NATS struct {
	Conn *nats.Conn
}

// Subject returns the NATS subject for a property.
func Subject(id uint64) string {
	return fmt.Sprintf("property.events.%d", id)
}

func (n *NATS) Publish(ctx context.Context, u PropertyUpdate) error {
	payload, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}
	return n.Conn.Publish(Subject(u.PropertyID), payload)
}

// Multi publishes to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Publish(ctx context.Context, u PropertyUpdate) error {
	var errs []error
	for _, n := range m {
		if err := n.Publish(ctx, u); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
