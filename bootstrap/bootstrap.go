// Package bootstrap assembles the coordinator runtime from configuration. Both the HTTP
// server and the operator CLI start here.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	authsvc "propertydeals-backend/internal/application/auth"
	"propertydeals-backend/internal/application/coordinator"
	"propertydeals-backend/internal/application/registry"
	"propertydeals-backend/internal/config"
	"propertydeals-backend/internal/infrastructure/database"
	"propertydeals-backend/internal/infrastructure/ledger"
	"propertydeals-backend/internal/infrastructure/ledger/memledger"
	"propertydeals-backend/internal/infrastructure/notify"
	"propertydeals-backend/internal/interfaces/router"
	"propertydeals-backend/internal/pkg/validation"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Runtime owns every long-lived connection. Close releases them.
type Runtime struct {
	Config      *config.Config
	Coordinator *coordinator.Coordinator
	DB          *gorm.DB
	Rdb         *redis.Client
	Nats        *nats.Conn
}

// New connects the ledger, database, Redis and NATS, builds the coordinator and warms the
// registry: the persisted snapshot is loaded and events since its cursor are replayed. A
// failed replay is logged and the snapshot is served until the next rebuild.
func New(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	rt := &Runtime{Config: cfg}
	ok := false
	defer func() {
		if !ok {
			rt.Close()
		}
	}()

	var recorder ledger.Recorder
	var store registry.Store
	if cfg.DatabaseURL != "" {
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		rt.DB = db
		if err := database.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		recorder = &database.Journal{DB: db}
		ps := &database.PropertyStore{DB: db}
		// A fresh in-memory ledger starts empty; a snapshot from an earlier process would name
		// properties it never had.
		if cfg.LedgerMode == config.LedgerModeMemory {
			if err := ps.Reset(ctx); err != nil {
				return nil, fmt.Errorf("reset registry snapshot: %w", err)
			}
		}
		store = ps
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rt.Rdb = redis.NewClient(opt)
	notifiers := notify.Multi{&notify.Redis{Client: rt.Rdb}}

	if cfg.NatsURL != "" {
		nc, err := nats.Connect(cfg.NatsURL, nats.Name("propertydeals"))
		if err != nil {
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		rt.Nats = nc
		notifiers = append(notifiers, &notify.NATS{Conn: nc})
	}

	client, err := NewLedger(ctx, cfg)
	if err != nil {
		return nil, err
	}

	rt.Coordinator = coordinator.New(ledger.Instrument(client, recorder), coordinator.Options{
		Store:               store,
		Notifier:            notifiers,
		RebuildConcurrency:  cfg.RebuildConcurrency,
		DefaultAccountIndex: cfg.DefaultAccountIndex,
		TxTimeout:           cfg.TxTimeout,
	})

	if err := rt.Coordinator.Registry.Load(ctx); err != nil {
		return nil, fmt.Errorf("load registry snapshot: %w", err)
	}
	if res, err := rt.Coordinator.Rebuild(ctx, false); err != nil {
		log.Warn().Err(err).Msg("startup replay failed; serving the persisted snapshot")
	} else {
		log.Info().Uint64("from_block", res.FromBlock).Uint64("to_block", res.ToBlock).
			Int("properties", res.Properties).Msg("registry warmed")
	}

	ok = true
	return rt, nil
}

// NewLedger returns the ledger client selected by LEDGER_MODE.
func NewLedger(ctx context.Context, cfg *config.Config) (ledger.Client, error) {
	switch cfg.LedgerMode {
	case config.LedgerModeMemory:
		log.Warn().Int("accounts", cfg.MemoryAccounts).Msg("using the in-memory ledger; state is lost on restart")
		return memledger.New(cfg.MemoryAccounts, memledger.Ether(100)), nil
	case config.LedgerModeRPC, "":
		if !validation.IsValidAddress(cfg.ContractAddress) {
			return nil, errors.New("CONTRACT_ADDRESS must be a hex contract address")
		}
		l, err := ledger.Dial(ctx, cfg.LedgerRPCURL, common.HexToAddress(cfg.ContractAddress), cfg.ReceiptPollInterval)
		if err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, fmt.Errorf("unknown LEDGER_MODE %q", cfg.LedgerMode)
	}
}

// App builds the HTTP application for rt.
func (rt *Runtime) App() *fiber.App {
	var auth authsvc.Authenticator = &authsvc.StaticOperator{
		Username:     rt.Config.OperatorUsername,
		PasswordHash: rt.Config.OperatorPasswordHash,
	}
	return router.CreateApp(rt.Config, router.Deps{
		Coordinator:   rt.Coordinator,
		Rdb:           rt.Rdb,
		DB:            rt.DB,
		Authenticator: auth,
	})
}

func (rt *Runtime) Close() {
	if rt.Nats != nil {
		rt.Nats.Close()
	}
	if rt.Rdb != nil {
		_ = rt.Rdb.Close()
	}
	if rt.DB != nil {
		if sqlDB, err := rt.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
