package main

import (
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"storefront/internal/config"
	"storefront/internal/data"
	"storefront/internal/db"
	"storefront/internal/logger"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "storefront",
		Usage: "online storefront: catalog, cart, checkout, seller and manager portals",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML config file; environment variables are used when empty",
				EnvVars: []string{"STOREFRONT_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			seedCommand(),
			serveCommand(),
			catalogCommand(),
			ordersCommand(),
			dashboardCommand(),
			probeCommand(),
		},
	}
}

// env is what every command needs: configuration, a logger and the pool.
type env struct {
	cfg *config.Config
	log *slog.Logger
	db  *gorm.DB
}

func setup(c *cli.Context) (*env, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	l, err := logger.InitLogger(cfg.Logger, "storefront")
	if err != nil {
		return nil, err
	}
	gdb, err := db.Open(cfg.Database.Mysql)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: l, db: gdb}, nil
}

func (e *env) close() {
	if err := db.Close(e.db); err != nil {
		e.log.Warn("close database", "error", err)
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "create or update the storefront schema",
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			defer e.close()

			if err := data.EnsureSchema(e.db.WithContext(c.Context)); err != nil {
				return err
			}
			e.log.Info("schema ready")
			return nil
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "fill an empty database with demo data",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "customers", Value: 50},
			&cli.IntFlag{Name: "sellers", Value: 10},
			&cli.IntFlag{Name: "products", Value: 60},
			&cli.IntFlag{Name: "orders", Value: 500},
			&cli.IntFlag{Name: "batch", Value: 500, Usage: "batch size for bulk inserts"},
			&cli.Int64Flag{Name: "seed", Value: 42, Usage: "random seed"},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			defer e.close()

			if err := data.EnsureSchema(e.db); err != nil {
				return err
			}
			start := time.Now()
			err = data.SeedDataset(c.Context, e.db, data.SeedConfig{
				Customers: c.Int("customers"),
				Sellers:   c.Int("sellers"),
				Products:  c.Int("products"),
				Orders:    c.Int("orders"),
				BatchSize: c.Int("batch"),
				Seed:      c.Int64("seed"),
			})
			if err != nil {
				return err
			}
			e.log.Info("dataset ready", "elapsed", time.Since(start).String(),
				"manager_login", data.DemoManagerLogin, "seller_login", data.DemoSellerLogin)
			return nil
		},
	}
}
