package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mercator-hq/mercury/pkg/cli"
	"mercator-hq/mercury/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load the configuration file, apply defaults, and report every
validation error. Exits non-zero when the configuration is invalid.

Examples:
  # Validate the default config file
  mercury validate

  # Validate a specific file
  mercury validate --config /etc/mercury/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(cfgFile)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("Config file %s does not exist; the gateway would start with pure defaults.\n", cfgFile)
			fmt.Println("✓ Configuration valid")
			return nil
		}
		return cli.NewConfigError("", fmt.Sprintf("failed to read %s: %v", cfgFile, err))
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to parse %s: %v", cfgFile, err))
	}
	config.ApplyDefaults(&cfg)

	if err := config.Validate(&cfg); err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(os.Stderr, "Configuration invalid (%d errors):\n", len(verr.Errors))
			for _, fieldErr := range verr.Errors {
				fmt.Fprintf(os.Stderr, "  - %s\n", fieldErr.Error())
			}
			return cli.NewConfigError("", fmt.Sprintf("%d validation errors", len(verr.Errors)))
		}
		return cli.NewConfigError("", err.Error())
	}

	fmt.Printf("Validating %s\n", cfgFile)
	fmt.Println("✓ Configuration valid")

	if verbose {
		fmt.Printf("  listen_address:  %s\n", cfg.Server.ListenAddress)
		fmt.Printf("  store_path:      %s\n", cfg.Backend.StorePath)
		fmt.Printf("  history backend: %s (enabled: %v)\n", cfg.History.Backend, cfg.History.Enabled)
	}
	return nil
}
