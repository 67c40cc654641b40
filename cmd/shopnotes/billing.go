package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/shopnotes/app"
	"github.com/dmitrymomot/shopnotes/pkg/config"
	"github.com/dmitrymomot/shopnotes/pkg/logger"
	"github.com/dmitrymomot/shopnotes/pkg/pg"
	"github.com/dmitrymomot/shopnotes/pkg/shopify"
	"github.com/dmitrymomot/shopnotes/store/postgres"
	"github.com/dmitrymomot/shopnotes/svc/billing"
)

var (
	syncShop  string
	syncToken string
)

var billingCmd = &cobra.Command{
	Use:   "billing",
	Short: "Subscription maintenance",
}

var billingSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile a shop's plan with its active Shopify subscription",
	Long: `sync asks the Shopify Admin API for the shop's active app subscriptions
and applies the first one as if it had arrived by webhook. A shop without an
active subscription is reconciled as cancelled.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		domain, err := shopify.NormalizeShopDomain(syncShop)
		if err != nil {
			return err
		}

		var (
			pgCfg   pg.Config
			shopCfg shopify.Config
		)
		if err := config.Load(&pgCfg); err != nil {
			return err
		}
		if err := config.Load(&shopCfg); err != nil {
			return err
		}

		subs, err := shopify.NewAdminClient(shopCfg).ActiveSubscriptions(ctx, domain, syncToken)
		if err != nil {
			return err
		}
		payload := billing.Payload{Status: string(billing.StatusCancelled)}
		if len(subs) > 0 {
			if payload, err = billing.NormalizePayload(subs[0]); err != nil {
				return err
			}
		}

		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return err
		}
		defer pool.Close()
		db := pg.OpenDB(pool)
		defer db.Close()

		st := postgres.New(db, postgres.WithLogger(log))
		res, err := app.NewReconciler(st, appCfg, log).SyncManagedSubscription(ctx, domain, payload)
		if err != nil {
			return err
		}

		log.InfoContext(ctx, "subscription synced",
			logger.ShopDomain(domain),
			logger.Plan(res.Plan.String()),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "%s: plan %s, status %s\n", domain, res.Plan, res.Status)
		return nil
	},
}

func init() {
	billingSyncCmd.Flags().StringVar(&syncShop, "shop", "", "Shop domain, e.g. acme.myshopify.com")
	billingSyncCmd.Flags().StringVar(&syncToken, "token", "", "Offline Admin API access token of the shop")
	_ = billingSyncCmd.MarkFlagRequired("shop")
	_ = billingSyncCmd.MarkFlagRequired("token")

	billingCmd.AddCommand(billingSyncCmd)
	rootCmd.AddCommand(billingCmd)
}
