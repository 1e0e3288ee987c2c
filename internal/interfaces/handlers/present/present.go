// Package present renders coordinator values for the HTTP API and reads loosely typed
// request bodies.
package present

import (
	"encoding/json"
	"math/big"
	"strconv"
	"strings"
	"time"

	"propertydeals-backend/internal/domain"
	"propertydeals-backend/internal/pkg/units"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
)

// Property is the API shape of a domain.Property. Amounts are decimal ether with the wei
// value alongside.
type Property struct {
	ID               uint64   `json:"id"`
	Owner            string   `json:"owner"`
	Price            string   `json:"price"`
	PriceWei         string   `json:"price_wei"`
	IsListed         bool     `json:"is_listed"`
	IsAuctionStarted bool     `json:"is_auction_started"`
	Auction          *Auction `json:"auction"`
	SyncedBlock      uint64   `json:"synced_block"`
}

type Auction struct {
	EndTime       *time.Time `json:"end_time"`
	HighestBid    *string    `json:"highest_bid"`
	HighestBidWei *string    `json:"highest_bid_wei"`
	HighestBidder *string    `json:"highest_bidder"`
}

// Confirmation is the API shape of a confirmed submission.
type Confirmation struct {
	PropertyID  uint64    `json:"property_id"`
	TxHash      string    `json:"tx_hash"`
	BlockNumber uint64    `json:"block_number"`
	Stale       bool      `json:"stale"`
	Property    *Property `json:"property"`
}

func NewProperty(p domain.Property) Property {
	out := Property{
		ID:               p.ID,
		Owner:            p.Owner.Hex(),
		Price:            Amount(p.Price),
		PriceWei:         wei(p.Price),
		IsListed:         p.IsListed,
		IsAuctionStarted: p.IsAuctionStarted(),
		SyncedBlock:      p.SyncedBlock,
	}
	if p.Auction != nil {
		a := &Auction{EndTime: p.Auction.EndTime}
		if b := p.Auction.HighestBid; b != nil {
			amt, w, bidder := Amount(b.Amount), wei(b.Amount), b.Bidder.Hex()
			a.HighestBid, a.HighestBidWei, a.HighestBidder = &amt, &w, &bidder
		}
		out.Auction = a
	}
	return out
}

func NewProperties(ps []domain.Property) []Property {
	out := make([]Property, 0, len(ps))
	for _, p := range ps {
		out = append(out, NewProperty(p))
	}
	return out
}

func NewConfirmation(c domain.Confirmation) Confirmation {
	out := Confirmation{
		PropertyID:  c.PropertyID,
		TxHash:      c.TxHash,
		BlockNumber: c.BlockNumber,
		Stale:       c.Stale,
	}
	if c.Property != nil {
		p := NewProperty(*c.Property)
		out.Property = &p
	}
	return out
}

// Amount renders wei as decimal ether; nil is zero.
func Amount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return units.MustDecimal(v)
}

func wei(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// Address renders the zero address as an empty string.
func Address(a common.Address) string {
	if a == (common.Address{}) {
		return ""
	}
	return a.Hex()
}

// Body is a decoded JSON object whose fields may arrive as strings or numbers.
type Body map[string]interface{}

// ParseBody decodes raw into a Body. Numbers keep their literal text.
func ParseBody(raw []byte) (Body, error) {
	b := Body{}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return b, nil
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(&b); err != nil {
		return nil, err
	}
	return b, nil
}

// String returns the field as text; missing and null fields are empty.
func (b Body) String(key string) string {
	switch v := b[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		out, _ := json.Marshal(v)
		return string(out)
	}
}

// Parse reads the request body, answering 400 through the error handler when it is not a
// JSON object.
func Parse(c *fiber.Ctx) (Body, error) {
	b, err := ParseBody(c.Body())
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return b, nil
}
