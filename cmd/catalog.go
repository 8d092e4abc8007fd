package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/lineup/app"
	"github.com/kilianp07/lineup/config"
	"github.com/kilianp07/lineup/core/catalog"
	"github.com/kilianp07/lineup/infra/catalogstore"
)

var (
	catalogFormat string
	seedDB        string
	seedFrom      string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and store driver and constructor reference data",
}

var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configured catalog",
	RunE:  runCatalogShow,
}

var catalogSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Store a catalog file (or the built-in season) in a SQLite database",
	RunE:  runCatalogSeed,
}

var catalogSeasonsCmd = &cobra.Command{
	Use:   "seasons",
	Short: "List the seasons stored in a SQLite database",
	RunE:  runCatalogSeasons,
}

func init() {
	catalogShowCmd.Flags().StringVarP(&catalogFormat, "format", "f", "yaml", "output format: yaml or json")
	catalogSeedCmd.Flags().StringVar(&seedDB, "db", "", "SQLite database path")
	catalogSeedCmd.Flags().StringVar(&seedFrom, "from", "", "catalog file; the built-in season when empty")
	_ = catalogSeedCmd.MarkFlagRequired("db")
	catalogSeasonsCmd.Flags().StringVar(&seedDB, "db", "", "SQLite database path")
	_ = catalogSeasonsCmd.MarkFlagRequired("db")
	catalogCmd.AddCommand(catalogShowCmd, catalogSeedCmd, catalogSeasonsCmd)
	rootCmd.AddCommand(catalogCmd)
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := app.LoadCatalog(cmd.Context(), cfg.Catalog)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch catalogFormat {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(cat.Definition()); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cat.Definition())
	default:
		return fmt.Errorf("unknown format %q", catalogFormat)
	}
}

func runCatalogSeed(cmd *cobra.Command, args []string) error {
	cat := catalog.Default()
	if seedFrom != "" {
		var err error
		if cat, err = app.LoadCatalog(cmd.Context(), config.CatalogConfig{Source: config.CatalogFile, Path: seedFrom}); err != nil {
			return err
		}
	}
	store, err := catalogstore.Open(seedDB)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	if err := store.Save(cmd.Context(), cat.Definition()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stored season %s: %d drivers, %d constructors\n",
		cat.Season(), len(cat.Individuals()), len(cat.Composites()))
	return nil
}

func runCatalogSeasons(cmd *cobra.Command, args []string) error {
	store, err := catalogstore.Open(seedDB)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	seasons, err := store.Seasons(cmd.Context())
	if err != nil {
		return err
	}
	for _, s := range seasons {
		fmt.Fprintln(cmd.OutOrStdout(), s)
	}
	return nil
}
