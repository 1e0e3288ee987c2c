package auctions

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"propertydeals-backend/internal/application/coordinator"
	"propertydeals-backend/internal/infrastructure/ledger/memledger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuctionsTest(t *testing.T) (*fiber.App, *memledger.Ledger) {
	l := memledger.New(3, memledger.Ether(100))
	co := coordinator.New(l, coordinator.Options{TxTimeout: 5 * time.Second})
	_, err := co.ListProperty(context.Background(), "1", l.Account(0).Hex())
	require.NoError(t, err)

	h := &Handlers{Coordinator: co}
	app := fiber.New()
	app.Post("/auctions/:id/start", h.Start)
	app.Post("/auctions/:id/stop", h.Stop)
	app.Post("/auctions/:id/bids", h.Bid)
	app.Get("/auctions/:id/highest-bid", h.HighestBid)
	return app, l
}

func do(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestAuctionLifecycle(t *testing.T) {
	app, l := setupAuctionsTest(t)
	owner, bidder, stranger := l.Account(0).Hex(), l.Account(1).Hex(), l.Account(2).Hex()

	code, out := do(t, app, http.MethodPost, "/auctions/1/start", map[string]interface{}{"starting_price": "1", "duration": 3600, "caller": owner})
	require.Equal(t, fiber.StatusOK, code, out)
	prop := out["data"].(map[string]interface{})["property"].(map[string]interface{})
	assert.Equal(t, true, prop["is_auction_started"])

	code, out = do(t, app, http.MethodPost, "/auctions/1/start", map[string]interface{}{"starting_price": "1", "duration": "60", "caller": owner})
	assert.Equal(t, fiber.StatusConflict, code)

	code, out = do(t, app, http.MethodPost, "/auctions/1/bids", map[string]interface{}{"amount": "1.5", "bidder": bidder})
	require.Equal(t, fiber.StatusOK, code, out)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, true, data["leading"])
	assert.Equal(t, "1.5", data["highest_bid"])
	assert.Equal(t, bidder, data["highest_bidder"])

	code, out = do(t, app, http.MethodGet, "/auctions/1/highest-bid", nil)
	require.Equal(t, fiber.StatusOK, code)
	data = out["data"].(map[string]interface{})
	assert.Equal(t, "1.5", data["highest_bid"])
	assert.Equal(t, "1500000000000000000", data["highest_bid_wei"])

	code, out = do(t, app, http.MethodPost, "/auctions/1/stop", map[string]interface{}{"caller": stranger})
	assert.Equal(t, fiber.StatusForbidden, code)
	assert.Contains(t, out["error"].(map[string]interface{})["message"], "only the owner or the highest bidder")

	code, out = do(t, app, http.MethodPost, "/auctions/1/stop", map[string]interface{}{"caller": owner})
	require.Equal(t, fiber.StatusOK, code, out)
	prop = out["data"].(map[string]interface{})["property"].(map[string]interface{})
	assert.Equal(t, bidder, prop["owner"])
	assert.Equal(t, false, prop["is_auction_started"])
}

func TestStart_BadDurationNeverSubmits(t *testing.T) {
	app, l := setupAuctionsTest(t)
	before := len(l.Submitted())

	code, _ := do(t, app, http.MethodPost, "/auctions/1/start", map[string]interface{}{"starting_price": "1", "duration": -5, "caller": l.Account(0).Hex()})
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Len(t, l.Submitted(), before)
}

func TestBid_WithoutAuctionIsConflict(t *testing.T) {
	app, l := setupAuctionsTest(t)
	code, _ := do(t, app, http.MethodPost, "/auctions/1/bids", map[string]interface{}{"amount": "2", "bidder": l.Account(1).Hex()})
	assert.Equal(t, fiber.StatusConflict, code)
}

func TestHighestBid_NoBids(t *testing.T) {
	app, _ := setupAuctionsTest(t)
	code, out := do(t, app, http.MethodGet, "/auctions/1/highest-bid", nil)
	require.Equal(t, fiber.StatusOK, code)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, "0", data["highest_bid"])
	assert.Equal(t, "", data["highest_bidder"])
}
