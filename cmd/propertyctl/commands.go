package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"propertydeals-backend/bootstrap"
	"propertydeals-backend/internal/config"
	"propertydeals-backend/internal/interfaces/handlers/present"
	"propertydeals-backend/internal/pkg/logging"
	"propertydeals-backend/internal/pkg/validation"

	"github.com/spf13/cobra"
)

var (
	fullRebuild bool
	ownerFilter string
	timeout     time.Duration
)

func init() {
	rebuildCmd.Flags().BoolVar(&fullRebuild, "full", false, "replay from genesis instead of the persisted cursor")
	propertiesCmd.Flags().StringVar(&ownerFilter, "owner", "", "only properties owned by this account")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall deadline")
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the property registry from ledger events",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *bootstrap.Runtime) error {
			res, err := rt.Coordinator.Rebuild(ctx, fullRebuild)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		})
	},
}

var propertiesCmd = &cobra.Command{
	Use:   "properties",
	Short: "List cached properties",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *bootstrap.Runtime) error {
			props := rt.Coordinator.Properties()
			if ownerFilter != "" {
				owner, err := validation.Address("owner", ownerFilter)
				if err != nil {
					return err
				}
				props = rt.Coordinator.OwnedBy(owner)
			}
			return printJSON(cmd.OutOrStdout(), present.NewProperties(props))
		})
	},
}

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List ledger accounts and balances",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *bootstrap.Runtime) error {
			accts, err := rt.Coordinator.ListAccounts(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), accts)
		})
	},
}

func withRuntime(cmd *cobra.Command, fn func(context.Context, *bootstrap.Runtime) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(logging.Options{Level: cfg.LogLevel, Development: true, File: cfg.LogFile})

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	rt, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	defer rt.Close()
	return fn(ctx, rt)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
