package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ohan/internal/cache"
	"github.com/JonMunkholm/ohan/internal/relay"
)

var errCacheDisabled = errors.New("relay cache is not configured (set REDIS_ADDR and RELAY_CACHE_TTL)")

func newCacheCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the relay snapshot cache",
	}
	cmd.AddCommand(newCacheWarmCmd(root), newCacheFlushCmd(root))
	return cmd
}

// openCache connects to the configured Redis and verifies it answers.
func openCache(cmd *cobra.Command, a *app) (*cache.Redis, error) {
	if !a.cfg.Cache.Enabled() {
		return nil, errCacheDisabled
	}
	rc := cache.NewRedis(a.cfg.Cache)
	if err := rc.Ping(cmd.Context()); err != nil {
		_ = rc.Close()
		return nil, err
	}
	return rc, nil
}

func newCacheWarmCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "warm",
		Short: "Fetch every upstream row and store a fresh snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, root)
			if err != nil {
				return err
			}
			rc, err := openCache(cmd, a)
			if err != nil {
				return err
			}
			defer rc.Close()

			n, err := relay.New(a.source, rc, a.logger).Refresh(cmd.Context())
			if err != nil {
				return a.userFacing(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cached %d rows for %s\n", n, a.cfg.Cache.TTL)
			return nil
		},
	}
}

func newCacheFlushCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Drop the cached snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, root)
			if err != nil {
				return err
			}
			rc, err := openCache(cmd, a)
			if err != nil {
				return err
			}
			defer rc.Close()

			if err := rc.Invalidate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "relay cache flushed")
			return nil
		},
	}
}
