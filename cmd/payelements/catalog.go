package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/payelements/internal/config"
	"github.com/vango-dev/payelements/internal/errors"
	"github.com/vango-dev/payelements/pkg/backend"
)

func catalogCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the S3 product catalog",
		Long: `Manage the product catalog object configured under backend.catalog.

Examples:
  payelements catalog publish
  payelements catalog publish --file=products.json
  payelements catalog list`,
	}
	cmd.AddCommand(catalogPublishCmd(configPath), catalogListCmd(configPath))
	return cmd
}

func openCatalog(configPath string) (*backend.S3Catalog, *config.Config, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	c := cfg.Backend.Catalog
	if !c.Enabled() {
		return nil, nil, errors.New("P081").
			WithDetail("backend.catalog.bucket and backend.catalog.key are empty").
			WithSuggestion("Configure an S3 catalog in the config file")
	}
	return backend.NewS3Catalog(backend.NewS3Client(c, os.Getenv), c.Bucket, c.Key).WithTTL(0), cfg, nil
}

func catalogPublishCmd(configPath *string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Write products to the catalog object",
		Long: `Write products to the catalog object. Without --file a generated set
of sample products in the configured currency is published.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, cfg, err := openCatalog(*configPath)
			if err != nil {
				return err
			}

			products := backend.SampleProducts(cfg.Backend.Currency)
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return errors.New("P072").Wrap(err)
				}
				products = nil
				if err := json.Unmarshal(data, &products); err != nil {
					return errors.New("P072").WithDetail(file + " must hold a JSON array of products").Wrap(err)
				}
			}

			if err := catalog.Publish(cmd.Context(), products); err != nil {
				return err
			}
			c := cfg.Backend.Catalog
			success(cmd.OutOrStdout(), "Published %d products to s3://%s/%s", len(products), c.Bucket, c.Key)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with an array of products")

	return cmd
}

func catalogListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List products in the catalog object",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, _, err := openCatalog(*configPath)
			if err != nil {
				return err
			}
			products, err := catalog.Products(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range products {
				info(out, "%-24s %-20s %8d %s", p.ID, p.Name, p.UnitAmount, p.Currency)
			}
			return nil
		},
	}
}
