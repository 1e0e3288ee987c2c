package router

import (
	authsvc "propertydeals-backend/internal/application/auth"
	"propertydeals-backend/internal/application/coordinator"
	healthsvc "propertydeals-backend/internal/application/health"
	lesvc "propertydeals-backend/internal/application/ledgerevents"
	txsvc "propertydeals-backend/internal/application/transactions"
	"propertydeals-backend/internal/config"
	"propertydeals-backend/internal/infrastructure/metrics"
	accthandler "propertydeals-backend/internal/interfaces/handlers/accounts"
	auctionhandler "propertydeals-backend/internal/interfaces/handlers/auctions"
	authhandler "propertydeals-backend/internal/interfaces/handlers/auth"
	healthhandler "propertydeals-backend/internal/interfaces/handlers/health"
	lehandler "propertydeals-backend/internal/interfaces/handlers/ledgerevents"
	prophandler "propertydeals-backend/internal/interfaces/handlers/properties"
	txhandler "propertydeals-backend/internal/interfaces/handlers/transactions"
	"propertydeals-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the runtime collaborators the routes are wired to. DB may be nil, in which case
// the journal endpoints are not mounted.
type Deps struct {
	Coordinator   *coordinator.Coordinator
	Rdb           *redis.Client
	DB            *gorm.DB
	Authenticator authsvc.Authenticator
}

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func CreateApp(cfg *config.Config, deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	rdb := deps.Rdb
	app.Use(middleware.Tracing())
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.Session(rdb))
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.RouteLogger())

	sessionCfg := middleware.SessionConfig{
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}

	co := deps.Coordinator
	checker := &healthsvc.Checker{Rdb: rdb, Ledger: co.Ledger, Registry: co.Registry}
	if deps.DB != nil {
		checker.DB = &gormDBPinger{db: deps.DB}
	}
	hh := &healthhandler.Handlers{Rdb: rdb, Checker: checker, HealthAdminKey: cfg.HealthAdminKey}
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	ah := &authhandler.Handlers{Authenticator: deps.Authenticator, Rdb: rdb, Config: sessionCfg}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	operator := middleware.RequireAuth()

	ph := &prophandler.Handlers{Coordinator: co}
	pg := app.Group("/api/v1/properties")
	pg.Get("/", ph.List)
	pg.Get("/owned/:account", ph.OwnedBy)
	pg.Post("/rebuild", operator, ph.Rebuild)
	pg.Get("/:id", ph.Get)
	pg.Post("/", operator, ph.Create)
	pg.Put("/:id/price", operator, ph.ChangePrice)
	pg.Post("/:id/buy", operator, ph.Buy)

	auh := &auctionhandler.Handlers{Coordinator: co}
	ag := app.Group("/api/v1/auctions")
	ag.Get("/:id/highest-bid", auh.HighestBid)
	ag.Post("/:id/start", operator, auh.Start)
	ag.Post("/:id/stop", operator, auh.Stop)
	ag.Post("/:id/bids", operator, auh.Bid)

	acch := &accthandler.Handlers{Coordinator: co}
	app.Get("/api/v1/accounts", acch.List)

	if deps.DB != nil {
		leh := &lehandler.Handlers{Service: &lesvc.Service{DB: deps.DB}}
		app.Get("/api/v1/ledger-events", leh.GetPropertyEvents)

		txh := &txhandler.Handlers{Service: &txsvc.Service{DB: deps.DB}}
		app.Get("/api/v1/transactions", operator, txh.GetTransactions)
	}

	return app
}
