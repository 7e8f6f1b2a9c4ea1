package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/MobiAdvisor-core/server/internal/catalog"
)

func runImport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Catalog.Driver == "memory" {
		return fmt.Errorf("import needs CATALOG_DRIVER=postgres; the memory catalog loads the CSV at startup")
	}

	ctx := cmd.Context()
	store, closeStore, err := openCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	path := csvPath
	if path == "" {
		path = cfg.Catalog.CSVPath
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	res, err := catalog.NewImporter(store).ImportCSV(ctx, f, clearFirst)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s phones (%s rows skipped) from %s\n",
		humanize.Comma(int64(res.Imported)), humanize.Comma(int64(res.Errors)), path)
	return nil
}

func runIndex(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, closeStore, err := openCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	_, indexer, err := openVector(cfg, store)
	if err != nil {
		return err
	}
	if indexer == nil {
		return fmt.Errorf("index needs WEAVIATE_URL and an embedding provider")
	}

	res, err := indexer.Build(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d of %d phones and %d names (%d failures)\n",
		res.Indexed, res.Total, res.Entities, res.Errors)
	return nil
}
