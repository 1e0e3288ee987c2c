package memledger

import (
	"math/big"

	"propertydeals-backend/internal/infrastructure/ledger"

	"github.com/ethereum/go-ethereum/common"
)

type property struct {
	id            uint64
	owner         common.Address
	price         *big.Int
	listed        bool
	auction       bool
	endTime       int64
	startingPrice *big.Int
	highestBid    *big.Int
	highestBidder common.Address
}

func (p *property) clearAuction() {
	p.auction = false
	p.endTime = 0
	p.startingPrice = new(big.Int)
	p.highestBid = new(big.Int)
	p.highestBidder = common.Address{}
}

// call applies one transaction's state changes. Handlers return a revert reason instead of
// mutating anything when a require would fail.
type call struct {
	l     *Ledger
	from  common.Address
	value *big.Int
}

func event(name string, fields map[string]interface{}) ledger.Event {
	return ledger.Event{Name: name, Fields: fields}
}

func (c call) lookup(id *big.Int) (*property, string) {
	if !id.IsUint64() {
		return nil, "Property does not exist"
	}
	p, ok := c.l.props[id.Uint64()]
	if !ok {
		return nil, "Property does not exist"
	}
	return p, ""
}

func (c call) normalize(price *big.Int) *big.Int {
	if c.l.NormalizePrice == nil {
		return price
	}
	return c.l.NormalizePrice(new(big.Int).Set(price))
}

func (c call) listProperty(price *big.Int) ([]ledger.Event, string) {
	if price.Sign() <= 0 {
		return nil, "Price must be greater than zero"
	}
	price = c.normalize(price)
	c.l.count++
	p := &property{id: c.l.count, owner: c.from, price: price, listed: true}
	p.clearAuction()
	c.l.props[p.id] = p
	return []ledger.Event{event(ledger.EventPropertyListed, map[string]interface{}{
		"propertyId": new(big.Int).SetUint64(p.id),
		"owner":      c.from,
		"price":      new(big.Int).Set(price),
	})}, ""
}

func (c call) changePrice(id, price *big.Int) ([]ledger.Event, string) {
	p, reason := c.lookup(id)
	if reason != "" {
		return nil, reason
	}
	if p.owner != c.from {
		return nil, "Only the owner can change the price"
	}
	if p.auction {
		return nil, "Auction in progress"
	}
	if price.Sign() <= 0 {
		return nil, "Price must be greater than zero"
	}
	p.price = c.normalize(price)
	p.listed = true
	return []ledger.Event{event(ledger.EventPriceChanged, map[string]interface{}{
		"propertyId": new(big.Int).SetUint64(p.id),
		"newPrice":   new(big.Int).Set(p.price),
	})}, ""
}

func (c call) buyProperty(id, price *big.Int) ([]ledger.Event, string) {
	p, reason := c.lookup(id)
	if reason != "" {
		return nil, reason
	}
	if !p.listed {
		return nil, "Property is not for sale"
	}
	if p.owner == c.from {
		return nil, "Owner cannot buy own property"
	}
	if price.Cmp(p.price) != 0 || c.value.Cmp(p.price) != 0 {
		return nil, "Incorrect price"
	}
	seller := p.owner
	c.l.balances[seller].Add(c.l.balances[seller], c.value)
	p.owner = c.from
	p.listed = false
	return []ledger.Event{
		event(ledger.EventPaymentReceived, map[string]interface{}{
			"from":   c.from,
			"amount": new(big.Int).Set(c.value),
		}),
		event(ledger.EventPropertySold, map[string]interface{}{
			"propertyId": new(big.Int).SetUint64(p.id),
			"buyer":      c.from,
			"price":      new(big.Int).Set(p.price),
		}),
	}, ""
}

func (c call) startAuction(id, startingPrice, duration *big.Int) ([]ledger.Event, string) {
	p, reason := c.lookup(id)
	if reason != "" {
		return nil, reason
	}
	if p.owner != c.from {
		return nil, "Only the owner can start an auction"
	}
	if p.auction {
		return nil, "Auction already started"
	}
	if duration.Sign() <= 0 || !duration.IsInt64() {
		return nil, "Duration must be greater than zero"
	}
	p.auction = true
	p.endTime = c.l.now().Unix() + duration.Int64()
	p.startingPrice = new(big.Int).Set(startingPrice)
	p.highestBid = new(big.Int)
	p.highestBidder = common.Address{}
	return []ledger.Event{event(ledger.EventAuctionStarted, map[string]interface{}{
		"propertyId":    new(big.Int).SetUint64(p.id),
		"startingPrice": new(big.Int).Set(startingPrice),
		"endTime":       big.NewInt(p.endTime),
	})}, ""
}

func (c call) bid(id, amount *big.Int) ([]ledger.Event, string) {
	p, reason := c.lookup(id)
	if reason != "" {
		return nil, reason
	}
	if !p.auction {
		return nil, "Auction is not active"
	}
	if c.l.now().Unix() >= p.endTime {
		return nil, "Auction has ended"
	}
	if p.owner == c.from {
		return nil, "Owner cannot bid"
	}
	if c.value.Cmp(amount) != 0 {
		return nil, "Bid amount does not match value sent"
	}
	if amount.Cmp(p.startingPrice) < 0 {
		return nil, "Bid is below the starting price"
	}
	if amount.Cmp(p.highestBid) <= 0 {
		return nil, "There already is a higher bid"
	}
	if p.highestBidder != (common.Address{}) {
		c.l.balances[p.highestBidder].Add(c.l.balances[p.highestBidder], p.highestBid)
	}
	p.highestBid = new(big.Int).Set(amount)
	p.highestBidder = c.from
	return []ledger.Event{event(ledger.EventBidPlaced, map[string]interface{}{
		"propertyId": new(big.Int).SetUint64(p.id),
		"bidder":     c.from,
		"amount":     new(big.Int).Set(amount),
	})}, ""
}

func (c call) stopAuction(id *big.Int) ([]ledger.Event, string) {
	p, reason := c.lookup(id)
	if reason != "" {
		return nil, reason
	}
	if !p.auction {
		return nil, "Auction is not active"
	}
	if c.from != p.owner && (p.highestBidder == (common.Address{}) || c.from != p.highestBidder) {
		return nil, "Only the owner or highest bidder can stop the auction"
	}
	winner := p.highestBidder
	amount := new(big.Int).Set(p.highestBid)
	if winner != (common.Address{}) {
		c.l.balances[p.owner].Add(c.l.balances[p.owner], amount)
		p.owner = winner
	}
	p.clearAuction()
	p.listed = false
	p.price = new(big.Int)
	return []ledger.Event{event(ledger.EventAuctionEnded, map[string]interface{}{
		"propertyId": new(big.Int).SetUint64(p.id),
		"winner":     winner,
		"amount":     amount,
	})}, ""
}
