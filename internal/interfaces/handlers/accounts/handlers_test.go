package accounts

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"propertydeals-backend/internal/application/coordinator"
	"propertydeals-backend/internal/infrastructure/ledger/memledger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_ReturnsBalances(t *testing.T) {
	l := memledger.New(2, memledger.Ether(100))
	h := &Handlers{Coordinator: coordinator.New(l, coordinator.Options{DefaultAccountIndex: 1})}
	app := fiber.New()
	app.Get("/accounts", h.List)

	resp, err := app.Test(httptest.NewRequest("GET", "/accounts", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out struct {
		Data []struct {
			Address   string `json:"address"`
			Balance   string `json:"balance"`
			IsDefault bool   `json:"is_default"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Data, 2)
	assert.Equal(t, l.Account(0).Hex(), out.Data[0].Address)
	assert.Equal(t, "100", out.Data[0].Balance)
	assert.False(t, out.Data[0].IsDefault)
	assert.True(t, out.Data[1].IsDefault)
}

func TestList_LedgerDownIs503(t *testing.T) {
	l := memledger.New(2, memledger.Ether(100))
	l.FailNext(errors.New("connection refused"))
	h := &Handlers{Coordinator: coordinator.New(l, coordinator.Options{})}
	app := fiber.New()
	app.Get("/accounts", h.List)

	resp, err := app.Test(httptest.NewRequest("GET", "/accounts", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
