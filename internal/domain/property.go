package domain

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Property is the coordinator's typed view of a ledger property record.
// Auction is nil unless an auction is open on the ledger.
type Property struct {
	ID          uint64
	Owner       common.Address
	Price       *big.Int
	IsListed    bool
	Auction     *Auction
	SyncedBlock uint64
}

// Auction holds the fields that only exist while an auction is open.
type Auction struct {
	EndTime    *time.Time
	HighestBid *Bid
}

// Bid is the leading bid of an open auction.
type Bid struct {
	Amount *big.Int
	Bidder common.Address
}

func (p Property) IsAuctionStarted() bool {
	return p.Auction != nil
}

// HighestBid returns the leading bid, or nil when there is no open auction or no bid yet.
func (p Property) HighestBid() *Bid {
	if p.Auction == nil {
		return nil
	}
	return p.Auction.HighestBid
}

// Clone returns a deep copy so cached records cannot be mutated through returned values.
func (p Property) Clone() Property {
	out := p
	if p.Price != nil {
		out.Price = new(big.Int).Set(p.Price)
	}
	if p.Auction != nil {
		a := *p.Auction
		if p.Auction.EndTime != nil {
			t := *p.Auction.EndTime
			a.EndTime = &t
		}
		if p.Auction.HighestBid != nil {
			b := *p.Auction.HighestBid
			if b.Amount != nil {
				b.Amount = new(big.Int).Set(b.Amount)
			}
			a.HighestBid = &b
		}
		out.Auction = &a
	}
	return out
}

// PropertyRecord is the persisted snapshot row of a Property. Amounts are base-10 wei strings.
type PropertyRecord struct {
	ID               uint64     `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	Owner            string     `gorm:"column:owner;type:varchar(42);not null;index" json:"owner"`
	PriceWei         string     `gorm:"column:price_wei;type:varchar(80);not null" json:"price_wei"`
	IsListed         bool       `gorm:"column:is_listed;not null" json:"is_listed"`
	IsAuctionStarted bool       `gorm:"column:is_auction_started;not null" json:"is_auction_started"`
	AuctionEndTime   *time.Time `gorm:"column:auction_end_time" json:"auction_end_time"`
	HighestBidWei    *string    `gorm:"column:highest_bid_wei;type:varchar(80)" json:"highest_bid_wei"`
	HighestBidder    *string    `gorm:"column:highest_bidder;type:varchar(42)" json:"highest_bidder"`
	SyncedBlock      uint64     `gorm:"column:synced_block;not null" json:"synced_block"`
	UpdatedAt        time.Time  `gorm:"column:updatedAt" json:"updatedAt"`
}

func (PropertyRecord) TableName() string {
	return "properties"
}

// ToRecord flattens p for persistence.
func (p Property) ToRecord() PropertyRecord {
	rec := PropertyRecord{
		ID:          p.ID,
		Owner:       p.Owner.Hex(),
		PriceWei:    "0",
		IsListed:    p.IsListed,
		SyncedBlock: p.SyncedBlock,
	}
	if p.Price != nil {
		rec.PriceWei = p.Price.String()
	}
	if p.Auction != nil {
		rec.IsAuctionStarted = true
		rec.AuctionEndTime = p.Auction.EndTime
		if b := p.Auction.HighestBid; b != nil && b.Amount != nil {
			amount := b.Amount.String()
			bidder := b.Bidder.Hex()
			rec.HighestBidWei = &amount
			rec.HighestBidder = &bidder
		}
	}
	return rec
}

// ToProperty restores a Property from its snapshot row.
func (r PropertyRecord) ToProperty() (Property, error) {
	price, ok := new(big.Int).SetString(r.PriceWei, 10)
	if !ok {
		return Property{}, fmt.Errorf("property %d: malformed price %q", r.ID, r.PriceWei)
	}
	p := Property{
		ID:          r.ID,
		Owner:       common.HexToAddress(r.Owner),
		Price:       price,
		IsListed:    r.IsListed,
		SyncedBlock: r.SyncedBlock,
	}
	if r.IsAuctionStarted {
		p.Auction = &Auction{EndTime: r.AuctionEndTime}
		if r.HighestBidWei != nil && r.HighestBidder != nil {
			amount, ok := new(big.Int).SetString(*r.HighestBidWei, 10)
			if !ok {
				return Property{}, fmt.Errorf("property %d: malformed highest bid %q", r.ID, *r.HighestBidWei)
			}
			p.Auction.HighestBid = &Bid{Amount: amount, Bidder: common.HexToAddress(*r.HighestBidder)}
		}
	}
	return p, nil
}

// SyncCursor stores the last ledger block whose events were applied to the registry.
type SyncCursor struct {
	Name      string    `gorm:"column:name;primaryKey;type:varchar(64)" json:"name"`
	Block     uint64    `gorm:"column:block;not null" json:"block"`
	UpdatedAt time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (SyncCursor) TableName() string {
	return "sync_cursors"
}
