package main

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/shopnotes/app"
	"github.com/dmitrymomot/shopnotes/migrations"
	"github.com/dmitrymomot/shopnotes/pkg/config"
	"github.com/dmitrymomot/shopnotes/pkg/httpserver"
	"github.com/dmitrymomot/shopnotes/pkg/pg"
	"github.com/dmitrymomot/shopnotes/pkg/redis"
	"github.com/dmitrymomot/shopnotes/pkg/shopify"
	"github.com/dmitrymomot/shopnotes/store/postgres"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and webhook intake",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		var (
			pgCfg    pg.Config
			redisCfg redis.Config
			httpCfg  httpserver.Config
			shopCfg  shopify.Config
		)
		for _, load := range []func() error{
			func() error { return config.Load(&pgCfg) },
			func() error { return config.Load(&redisCfg) },
			func() error { return config.Load(&httpCfg) },
			func() error { return config.Load(&shopCfg) },
		} {
			if err := load(); err != nil {
				return err
			}
		}

		catalog, err := app.LoadCatalog(ctx, appCfg)
		if err != nil {
			return err
		}

		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		if migrateOnStart {
			if err := pg.Migrate(ctx, pool, pgCfg, migrations.FS, log); err != nil {
				return err
			}
		}

		db := pg.OpenDB(pool)
		defer db.Close()

		checks := map[string]httpserver.Check{"postgres": pg.Healthcheck(pool)}

		srv := app.Server{
			Config:  appCfg,
			Shopify: shopCfg,
			Catalog: catalog,
			Checks:  checks,
			Log:     log,
		}
		if appCfg.WebhookLedger == app.LedgerRedis {
			client, err := redis.Connect(ctx, redisCfg)
			if err != nil {
				return err
			}
			defer client.Close()
			checks["redis"] = redis.Healthcheck(client)
			if srv.Ledger, err = app.NewLedger(appCfg, client); err != nil {
				return err
			}
		} else if srv.Ledger, err = app.NewLedger(appCfg, nil); err != nil {
			return err
		}

		st := postgres.New(db, postgres.WithLogger(log))
		return httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log)).
			Run(ctx, app.NewAPI(st, srv).Router())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "Apply pending migrations before serving")
	rootCmd.AddCommand(serveCmd)
}
