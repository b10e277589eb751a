package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"

	"storefront/internal/account"
	"storefront/internal/api"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/data"
	"storefront/internal/db"
	"storefront/internal/events"
	"storefront/internal/history"
	"storefront/internal/manager"
	"storefront/internal/sellerops"
	"storefront/internal/store"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "migrate", Value: true, Usage: "apply the schema before serving"},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			defer e.close()

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := db.Ping(ctx, e.db); err != nil {
				return err
			}
			if c.Bool("migrate") {
				if err := data.EnsureSchema(e.db); err != nil {
					return err
				}
			}

			st := store.New(e.db)
			bus := events.NewBus(e.log)

			var cache catalog.Cache
			if rc := e.cfg.Database.Redis; rc.Enabled() {
				rdb, err := catalog.DialRedis(ctx, rc)
				if err != nil {
					e.log.Warn("redis unavailable, catalog cached in memory", "error", err)
				} else {
					defer rdb.Close()
					cache = catalog.NewRedisCache(rdb, catalog.DefaultRedisKey, time.Duration(rc.TTL)*time.Second)
				}
			}
			cat := catalog.New(st, cache, e.log)
			bus.Subscribe("catalog", cat.OnOrderPlaced)

			if e.cfg.MQ.Enabled() {
				fwd, err := events.DialAMQP(e.cfg.MQ)
				if err != nil {
					e.log.Warn("rabbitmq unavailable, events stay in process", "error", err)
				} else {
					defer fwd.Close()
					bus.Subscribe("amqp", fwd.Handle)
				}
			}

			switch e.cfg.Server.Mode {
			case gin.DebugMode, gin.TestMode:
				gin.SetMode(e.cfg.Server.Mode)
			default:
				gin.SetMode(gin.ReleaseMode)
			}
			tokens := account.NewTokens(e.cfg.JWT.Secret, e.cfg.JWT.ExpireHours)
			router := api.NewRouter(&api.Services{
				Accounts:  account.NewService(st, tokens, e.log),
				Tokens:    tokens,
				Catalog:   cat,
				Carts:     cart.NewRegistry(),
				Checkout:  checkout.NewService(st, bus, checkout.OptionsFrom(e.cfg.Checkout), e.log),
				History:   history.NewService(st, e.log),
				SellerOps: sellerops.NewService(st, e.log),
				Manager:   manager.NewService(st, e.log),
			}, api.Options{
				RateRPS:        float64(e.cfg.RateLimit.RPS),
				RateBurst:      e.cfg.RateLimit.Burst,
				RequestTimeout: e.cfg.Server.Timeout(),
				Log:            e.log,
			})

			return api.Serve(ctx, router, e.cfg.Server, e.log)
		},
	}
}
