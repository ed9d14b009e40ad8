package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"EMAScan/internal/di"
)

// statusCmd prints the remote job status and the local cache state
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the remote scan job and result cache status",
	RunE:  runStatus,
}

// healthCmd checks the analysis service
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the analysis service is reachable",
	RunE:  runHealth,
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the local result cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the cached result set",
	RunE:  runCacheClear,
}

func init() {
	rootCmd.AddCommand(statusCmd, healthCmd, cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, cleanup, err := di.InitializeClient(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	w := cmd.OutOrStdout()
	job, err := client.Scanner.Status(ctx)
	if err != nil {
		return fmt.Errorf("scan status: %w", err)
	}
	fmt.Fprintf(w, "Running:  %t\n", job.Running)
	fmt.Fprintf(w, "Progress: %d/%d\n", job.Progress, job.Total)
	if job.CurrentItem != nil {
		fmt.Fprintf(w, "Current:  %s\n", *job.CurrentItem)
	}
	if job.StatusMessage != "" {
		fmt.Fprintf(w, "Message:  %s\n", job.StatusMessage)
	}

	ttl := client.Cache.TTL()
	if age, ok := client.Cache.Age(ctx); ok {
		state := "fresh"
		if age >= ttl {
			state = "expired"
		}
		fmt.Fprintf(w, "Cache:    %s old (%s, ttl %s)\n", age.Round(time.Second), state, ttl)
	} else {
		fmt.Fprintf(w, "Cache:    empty (ttl %s)\n", ttl)
	}
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	client, cleanup, err := di.InitializeClient(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	if err := client.Scanner.Health(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "analysis service at %s is up\n", cfg.Scanner.URL)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	client, cleanup, err := di.InitializeClient(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	if err := client.Cache.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "result cache cleared")
	return nil
}
