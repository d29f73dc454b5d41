package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/richmondazadze/scantotap-sub001/internal/admin"
	"github.com/richmondazadze/scantotap-sub001/internal/config"
	"github.com/richmondazadze/scantotap-sub001/internal/inventory"
	"github.com/richmondazadze/scantotap-sub001/internal/models"
	"github.com/richmondazadze/scantotap-sub001/internal/store"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "scan2tap",
		Short:        "Operator tools for the Scan2Tap backend",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (defaults to DB_PATH)")

	rootCmd.AddCommand(addAdminCmd())
	rootCmd.AddCommand(setPasswordCmd())
	rootCmd.AddCommand(seedInventoryCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(purgeTokensCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore opens and migrates the database so the CLI works before the
// server has ever run.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		cfg, err := config.LoadConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.DBPath
	}
	db, err := store.NewStore(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func credentials(cmd *cobra.Command) (string, string, error) {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")
	if username == "" || password == "" {
		return "", "", fmt.Errorf("username and password are required")
	}
	hash, err := admin.HashPassword(password)
	if err != nil {
		return "", "", err
	}
	return username, hash, nil
}

func addAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-admin",
		Short: "Create an admin console user",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, hash, err := credentials(cmd)
			if err != nil {
				return err
			}
			db, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.CreateAdmin(cmd.Context(), username, hash); err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Admin '%s' created successfully.\n", username)
			return nil
		},
	}
	cmd.Flags().StringP("username", "u", "", "Username for the new admin")
	cmd.Flags().StringP("password", "p", "", "Password for the new admin")
	return cmd
}

func setPasswordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-password",
		Short: "Replace the password of an admin user",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, hash, err := credentials(cmd)
			if err != nil {
				return err
			}
			db, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.SetAdminPassword(cmd.Context(), username, hash); err != nil {
				return fmt.Errorf("set password: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password for '%s' updated.\n", username)
			return nil
		},
	}
	cmd.Flags().StringP("username", "u", "", "Admin username")
	cmd.Flags().StringP("password", "p", "", "New password")
	return cmd
}

// starterCatalogue is loaded by seed-inventory into empty tables.
var starterCatalogue = map[models.InventoryKind][]inventory.ItemInput{
	models.KindCardType: {
		{Name: "Classic", Description: "Matte PVC card with an embedded NFC chip", IsAvailable: true, SortOrder: 1},
		{Name: "Premium", Description: "Soft touch finish with spot gloss", IsAvailable: true, PriceModifier: 10, SortOrder: 2},
		{Name: "Metal", Description: "Brushed stainless steel", IsAvailable: true, PriceModifier: 30, SortOrder: 3},
	},
	models.KindColorScheme: {
		{Name: "Midnight", IsAvailable: true, SortOrder: 1},
		{Name: "Ivory", IsAvailable: true, SortOrder: 2},
		{Name: "Gold", IsAvailable: true, PriceModifier: 5, SortOrder: 3},
	},
	models.KindMaterial: {
		{Name: "PVC", IsAvailable: true, SortOrder: 1},
		{Name: "Bamboo", IsAvailable: true, PriceModifier: 8, SortOrder: 2},
	},
}

func seedInventoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-inventory",
		Short: "Load the starter card designs, colors and materials into empty tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			svc := inventory.NewService(db, inventory.Pricing{})
			for _, kind := range []models.InventoryKind{models.KindCardType, models.KindColorScheme, models.KindMaterial} {
				n, err := seedKind(cmd.Context(), svc, kind)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d added\n", kind, n)
			}
			return nil
		},
	}
}

func seedKind(ctx context.Context, svc *inventory.Service, kind models.InventoryKind) (int, error) {
	existing, err := svc.List(ctx, kind, false)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for _, in := range starterCatalogue[kind] {
		if _, err := svc.Create(ctx, kind, in); err != nil {
			return 0, fmt.Errorf("seed %s %q: %w", kind, in.Name, err)
		}
	}
	return len(starterCatalogue[kind]), nil
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "export [profiles|orders]",
		Short:     "Write profiles or orders as CSV to stdout",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"profiles", "orders"},
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			var q admin.Query
			q.Search, _ = cmd.Flags().GetString("search")
			q.Plan, _ = cmd.Flags().GetString("plan")
			q.Status, _ = cmd.Flags().GetString("status")

			svc := admin.NewService(db, nil)
			switch args[0] {
			case "profiles":
				return svc.ExportProfiles(cmd.Context(), cmd.OutOrStdout(), q)
			case "orders":
				return svc.ExportOrders(cmd.Context(), cmd.OutOrStdout(), q)
			default:
				return fmt.Errorf("unknown export %q, expected profiles or orders", args[0])
			}
		},
	}
	cmd.Flags().StringP("search", "q", "", "Free text filter")
	cmd.Flags().String("plan", "", "Only profiles on this plan")
	cmd.Flags().String("status", "", "Only orders in this status")
	return cmd
}

func purgeTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-tokens",
		Short: "Delete expired magic link tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := db.PurgeExpiredLoginTokens(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d login tokens.\n", n)
			return nil
		},
	}
}
