package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"propertydeals-backend/internal/config"
	"propertydeals-backend/internal/domain"
	"propertydeals-backend/internal/infrastructure/ledger/memledger"
	"propertydeals-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func memoryConfig(t *testing.T) *config.Config {
	mr := miniredis.RunT(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	return &config.Config{
		Env:                  "test",
		DatabaseURL:          ":memory:",
		RedisURL:             "redis://" + mr.Addr(),
		LedgerMode:           config.LedgerModeMemory,
		MemoryAccounts:       3,
		TxTimeout:            5 * time.Second,
		RebuildConcurrency:   4,
		OperatorUsername:     "operator",
		OperatorPasswordHash: string(hash),
		HealthAdminKey:       "key",
	}
}

func TestNewLedger_RejectsBadConfig(t *testing.T) {
	_, err := NewLedger(context.Background(), &config.Config{LedgerMode: config.LedgerModeRPC, ContractAddress: "nope"})
	assert.Error(t, err)

	_, err = NewLedger(context.Background(), &config.Config{LedgerMode: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestRuntime_EndToEnd(t *testing.T) {
	ctx := context.Background()
	rt, err := New(ctx, memoryConfig(t))
	require.NoError(t, err)
	defer rt.Close()
	app := rt.App()

	mem := memledger.New(3, memledger.Ether(1))
	owner := mem.Account(0).Hex()

	body := func(v interface{}) *bytes.Reader {
		b, _ := json.Marshal(v)
		return bytes.NewReader(b)
	}

	// Mutations need an operator session.
	req := httptest.NewRequest("POST", "/api/v1/properties", body(map[string]string{"price": "1", "owner": owner}))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	req = httptest.NewRequest("POST", "/api/v1/auth/login", body(map[string]string{"username": "operator", "password": "s3cret"}))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	var cookie string
	for _, c := range resp.Header.Values("Set-Cookie") {
		if strings.HasPrefix(c, middleware.SessionCookieName+"=") {
			cookie = strings.SplitN(c, ";", 2)[0]
		}
	}
	require.NotEmpty(t, cookie)

	req = httptest.NewRequest("POST", "/api/v1/properties", body(map[string]string{"price": "1", "owner": owner}))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", cookie)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)

	// Public reads, journal and metrics.
	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/properties/1", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/ledger-events?property_id=1", nil))
	require.NoError(t, err)
	var events struct {
		Data []domain.LedgerEvent `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	require.NotEmpty(t, events.Data)
	assert.Equal(t, "PropertyListed", events.Data[0].Name)

	var n int64
	require.NoError(t, rt.DB.Model(&domain.LedgerTransaction{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/health/json", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestNew_MemoryLedgerDiscardsEarlierSnapshot(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig(t)
	cfg.DatabaseURL = "file:" + t.TempDir() + "/deals.db"

	rt, err := New(ctx, cfg)
	require.NoError(t, err)
	_, err = rt.Coordinator.ListProperty(ctx, "2", "")
	require.NoError(t, err)
	require.Equal(t, 1, rt.Coordinator.Registry.Len())
	rt.Close()

	// The restarted memory ledger is empty, so nothing from the first run may be served.
	rt, err = New(ctx, cfg)
	require.NoError(t, err)
	defer rt.Close()
	assert.Equal(t, 0, rt.Coordinator.Registry.Len())
	assert.Equal(t, uint64(0), rt.Coordinator.Registry.Cursor())

	res, err := rt.Coordinator.ListProperty(ctx, "3", "")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.PropertyID)
	assert.Equal(t, 1, rt.Coordinator.Registry.Len())
}
