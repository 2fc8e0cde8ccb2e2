package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/folio/internal/infrastructure/logger"
	"github.com/iho/folio/internal/infrastructure/postgres"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "folio-cli",
		Short: "Folio CLI tool",
		Long:  `A command line interface for interacting with the Folio holdings API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the Folio API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	// Holdings commands
	var holdingsCurrency, holdingsAsOf string
	holdingsCmd := &cobra.Command{
		Use:   "holdings <account-id>",
		Short: "Show resolved positions for an account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			query := url.Values{}
			if holdingsCurrency != "" {
				query.Set("currency", holdingsCurrency)
			}
			if holdingsAsOf != "" {
				query.Set("as_of", holdingsAsOf)
			}
			getJSON(fmt.Sprintf("/api/v1/accounts/%s/holdings", args[0]), query)
		},
	}
	holdingsCmd.Flags().StringVar(&holdingsCurrency, "currency", "", "Target currency for valuation")
	holdingsCmd.Flags().StringVar(&holdingsAsOf, "as-of", "", "Point-in-time date (YYYY-MM-DD)")
	rootCmd.AddCommand(holdingsCmd)

	var summaryCurrency, summaryAccounts, summaryOwner string
	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the portfolio summary across accounts",
		Run: func(cmd *cobra.Command, args []string) {
			query := url.Values{}
			if summaryCurrency != "" {
				query.Set("currency", summaryCurrency)
			}
			if summaryAccounts != "" {
				query.Set("account_ids", summaryAccounts)
			}
			if summaryOwner != "" {
				query.Set("owner_id", summaryOwner)
			}
			getJSON("/api/v1/portfolio/summary", query)
		},
	}
	summaryCmd.Flags().StringVar(&summaryCurrency, "currency", "USD", "Reporting currency")
	summaryCmd.Flags().StringVar(&summaryAccounts, "accounts", "", "Comma-separated account IDs")
	summaryCmd.Flags().StringVar(&summaryOwner, "owner", "", "Filter accounts by owner ID")
	rootCmd.AddCommand(summaryCmd)

	reconcileCmd := &cobra.Command{
		Use:   "reconcile <account-id>",
		Short: "Run a snapshot-vs-ledger reconciliation for an account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runReconcile(args[0])
		},
	}
	rootCmd.AddCommand(reconcileCmd)

	accountsCmd := &cobra.Command{
		Use:   "accounts",
		Short: "List accounts",
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/accounts", nil)
		},
	}
	rootCmd.AddCommand(accountsCmd)

	// Migration commands run directly against the database.
	var databaseURL, migrationsPath string
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration operations",
	}
	migrateCmd.PersistentFlags().StringVar(&databaseURL, "database-url",
		os.Getenv("DATABASE_URL"), "Postgres connection URL")
	migrateCmd.PersistentFlags().StringVar(&migrationsPath, "path", "migrations", "Path to migration files")

	migrateUpCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigrations(databaseURL, migrationsPath, false)
		},
	}
	migrateDownCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigrations(databaseURL, migrationsPath, true)
		},
	}
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runReconcile(accountID string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+"/api/v1/accounts/"+accountID+"/reconcile", "application/json", nil)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Reconciliation FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	discrepancies, _ := result["discrepancies"].([]any)
	if len(discrepancies) == 0 {
		fmt.Printf("Reconciliation PASSED: snapshots and ledger agree\n")
	} else {
		fmt.Printf("Reconciliation found %d discrepancies:\n", len(discrepancies))
	}
	printJSON(result)
}

func runMigrations(databaseURL, migrationsPath string, down bool) {
	if databaseURL == "" {
		fmt.Println("database URL required (--database-url or DATABASE_URL)")
		os.Exit(1)
	}
	log := logger.New(logger.Config{Level: "info", Format: "console"})
	var err error
	if down {
		err = postgres.RunMigrationsDown(databaseURL, migrationsPath, log)
	} else {
		err = postgres.RunMigrations(databaseURL, migrationsPath, log)
	}
	if err != nil {
		fmt.Printf("Migration failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Migrations applied")
}

func getJSON(path string, query url.Values) {
	client := &http.Client{Timeout: timeout}
	target := baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	resp, err := client.Get(target)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}
	printJSON(result)
}

func printJSON(v any) {
	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Printf("Failed to render response: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(sb.String())
}
