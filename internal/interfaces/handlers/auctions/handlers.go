package auctions

import (
	"propertydeals-backend/internal/application/coordinator"
	"propertydeals-backend/internal/interfaces/handlers/present"
	"propertydeals-backend/internal/pkg/response"
	"propertydeals-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Coordinator *coordinator.Coordinator
}

// BidResult is the response of a confirmed bid. Leading reflects the ledger after
// confirmation, not the request.
type BidResult struct {
	present.Confirmation
	Bidder        string `json:"bidder"`
	Amount        string `json:"amount"`
	HighestBid    string `json:"highest_bid"`
	HighestBidder string `json:"highest_bidder"`
	Leading       bool   `json:"leading"`
}

// POST /api/v1/auctions/:id/start: { starting_price, duration, caller }
func (h *Handlers) Start(c *fiber.Ctx) error {
	id, err := validation.PropertyID(c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	b, err := present.Parse(c)
	if err != nil {
		return err
	}
	duration, err := validation.Duration(b.String("duration"))
	if err != nil {
		return response.FromError(c, err)
	}
	res, err := h.Coordinator.StartAuction(c.Context(), id, b.String("starting_price"), duration, b.String("caller"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Auction started successfully", present.NewConfirmation(*res), nil)
}

// POST /api/v1/auctions/:id/stop: { caller }
func (h *Handlers) Stop(c *fiber.Ctx) error {
	id, err := validation.PropertyID(c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	b, err := present.Parse(c)
	if err != nil {
		return err
	}
	res, err := h.Coordinator.StopAuction(c.Context(), id, b.String("caller"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Auction ended successfully", present.NewConfirmation(*res), nil)
}

// POST /api/v1/auctions/:id/bids: { amount, bidder }
func (h *Handlers) Bid(c *fiber.Ctx) error {
	id, err := validation.PropertyID(c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	b, err := present.Parse(c)
	if err != nil {
		return err
	}
	res, err := h.Coordinator.PlaceBid(c.Context(), id, b.String("amount"), b.String("bidder"))
	if err != nil {
		return response.FromError(c, err)
	}
	out := BidResult{
		Confirmation:  present.NewConfirmation(res.Confirmation),
		Bidder:        res.Bidder.Hex(),
		Amount:        present.Amount(res.Amount),
		HighestBid:    present.Amount(res.HighestBid),
		HighestBidder: present.Address(res.HighestBidder),
		Leading:       res.Leading,
	}
	msg := "Bid placed successfully"
	if !res.Leading {
		msg = "Bid placed but outbid"
	}
	return response.Success(c, msg, out, nil)
}

// GET /api/v1/auctions/:id/highest-bid: read from the ledger, not the cache.
func (h *Handlers) HighestBid(c *fiber.Ctx) error {
	id, err := validation.PropertyID(c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	amount, bidder, err := h.Coordinator.HighestBid(c.Context(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	wei := "0"
	if amount != nil {
		wei = amount.String()
	}
	return response.Success(c, "Highest bid fetched successfully", fiber.Map{
		"property_id":     id,
		"highest_bid":     present.Amount(amount),
		"highest_bid_wei": wei,
		"highest_bidder":  present.Address(bidder),
	}, nil)
}
