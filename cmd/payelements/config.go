package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/payelements/internal/errors"
)

func configCmd(configPath *string) *cobra.Command {
	var (
		validate bool
		format   string
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		Long: `Print the configuration after defaults and environment overrides.
Secrets are masked.

Examples:
  payelements config
  payelements config --format=json
  payelements config --validate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if validate {
				if err := cfg.Validate(); err != nil {
					return err
				}
				success(out, "Configuration is valid")
				return nil
			}

			redacted := cfg.Redacted()
			switch format {
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(&redacted)
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(&redacted)
			default:
				return errors.New("P080").WithDetail("--format must be yaml or json")
			}
		},
	}

	cmd.Flags().BoolVar(&validate, "validate", false, "Only validate the configuration")
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: yaml or json")

	return cmd
}
