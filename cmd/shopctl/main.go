// Package main provides the shopctl binary entry point.
// Shopctl is the operations toolbox for the shop backend: schema
// migrations, seed data, cart housekeeping, password hashing and bank
// account lookups against the payment provider.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/estyshop/ecommerce-backend/internal/config"
	"github.com/estyshop/ecommerce-backend/internal/domain/cart"
	"github.com/estyshop/ecommerce-backend/internal/domain/payment"
	"github.com/estyshop/ecommerce-backend/internal/infrastructure/database/postgres"
	"github.com/estyshop/ecommerce-backend/internal/pkg/auth"
)

const (
	Version = "1.0.0"
	appName = "shopctl"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shopctl",
		Short: "Operations toolbox for the shop backend",
		Long: `Shopctl runs the operational chores that do not belong in the API
process: applying schema migrations, loading seed data, pruning
abandoned carts and resolving bank accounts via the payment provider.

Configuration comes from the same environment variables the API reads.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(migrateCmd())
	cmd.AddCommand(seedCmd())
	cmd.AddCommand(pruneCartsCmd())
	cmd.AddCommand(resolveAccountCmd())
	cmd.AddCommand(hashPasswordCmd())

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			migration := postgres.NewMigration(db.GetDB())
			if err := migration.RunAutoMigrations(); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			if err := migration.CreateIndexes(); err != nil {
				return fmt.Errorf("index creation failed: %w", err)
			}

			fmt.Println("Migrations applied")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load seed data into an empty database",
		Long: `Seed loads the starter catalog, demo account and homepage sections.
Existing rows are left alone, so running it twice is harmless.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			migration := postgres.NewMigration(db.GetDB())
			if err := migration.RunAutoMigrations(); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			if err := migration.SeedInitialData(); err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}

			migration.GetTableInfo()
			return nil
		},
	}
}

func pruneCartsCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune-carts",
		Short: "Delete abandoned anonymous carts",
		Long: `Prune-carts removes anonymous carts that have not been touched for
longer than --older-than. Carts attached to an account are never
pruned; stock is only reserved at checkout, so nothing is released.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			pruned, err := cart.NewService(db.GetDB(), cfg).PruneAbandoned(ctx, olderThan)
			if err != nil {
				return fmt.Errorf("prune failed: %w", err)
			}

			fmt.Printf("Pruned %d abandoned cart(s) older than %s\n", pruned, olderThan)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour,
		"Idle age beyond which an anonymous cart is removed")

	return cmd
}

func resolveAccountCmd() *cobra.Command {
	var (
		accountNumber string
		bankCode      string
	)

	cmd := &cobra.Command{
		Use:   "resolve-account",
		Short: "Resolve a bank account holder via the payment provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			if accountNumber == "" || bankCode == "" {
				return fmt.Errorf("both --account-number and --bank-code are required")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			account, err := payment.NewClient(cfg).ResolveAccount(ctx, accountNumber, bankCode)
			if err != nil {
				return fmt.Errorf("resolve failed: %w", err)
			}

			fmt.Printf("Account name: %s\nAccount number: %s\n", account.AccountName, account.AccountNumber)
			return nil
		},
	}

	cmd.Flags().StringVar(&accountNumber, "account-number", "", "Account number to resolve")
	cmd.Flags().StringVar(&bankCode, "bank-code", "", "Provider bank code")

	return cmd
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash of a password",
		Long: `Hash-password prints a bcrypt hash suitable for inserting accounts
directly, for example when preparing fixtures or resetting a locked
account by hand. The cost factor comes from BCRYPT_COST.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			hash, err := auth.NewPasswordManager(cfg).HashPassword(args[0])
			if err != nil {
				return fmt.Errorf("hashing failed: %w", err)
			}

			fmt.Println(hash)
			return nil
		},
	}
}

// openDatabase loads configuration and opens the database connection
// shared by the data-touching subcommands.
func openDatabase() (*config.Config, *postgres.Database, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := postgres.NewConnection(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return cfg, db, nil
}
