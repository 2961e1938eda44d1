package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the geocode cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the number of cached geocodes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		st, cache, err := initCache(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := cache.Len(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s (%s): %d entries\n", cfg.Cache.Driver, cfg.Cache.DSN, n)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached geocode",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		st, cache, err := initCache(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := cache.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Geocode cache cleared.")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
