package transactions

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	txsvc "propertydeals-backend/internal/application/transactions"
	"propertydeals-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const account = "0x0000000000000000000000000000000000001000"

func setupTxTest(t *testing.T) (*fiber.App, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.LedgerTransaction{}))
	h := &Handlers{Service: &txsvc.Service{DB: db}}
	app := fiber.New()
	app.Get("/transactions", h.GetTransactions)
	return app, db
}

func TestGetTransactions_EmptyResult(t *testing.T) {
	app, _ := setupTxTest(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/transactions", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestGetTransactions_FilterByAccountAndStatus(t *testing.T) {
	app, db := setupTxTest(t)
	reason := "Incorrect price"
	id := uint64(1)
	require.NoError(t, db.Create(&domain.LedgerTransaction{Method: "buyProperty", PropertyID: &id, FromAccount: account, ValueWei: "1000000000000000000", Status: domain.TxStatusRejected, Reason: &reason}).Error)
	require.NoError(t, db.Create(&domain.LedgerTransaction{Method: "listProperty", FromAccount: account, ValueWei: "0", Status: domain.TxStatusConfirmed}).Error)
	require.NoError(t, db.Create(&domain.LedgerTransaction{Method: "listProperty", FromAccount: "0x0000000000000000000000000000000000001001", ValueWei: "0", Status: domain.TxStatusConfirmed}).Error)

	resp, err := app.Test(httptest.NewRequest("GET", "/transactions?account="+account+"&status=rejected", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	var out struct {
		Data []txsvc.FormattedTx `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Data, 1)
	assert.Equal(t, "buyProperty", out.Data[0].Method)
	assert.Equal(t, "1", out.Data[0].Value)
	require.NotNil(t, out.Data[0].Reason)
	assert.Equal(t, reason, *out.Data[0].Reason)
}

func TestGetTransactions_BadAccount(t *testing.T) {
	app, _ := setupTxTest(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/transactions?account=nope", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}
