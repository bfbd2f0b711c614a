package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/mercury/pkg/backend"
	"mercator-hq/mercury/pkg/cli"
	"mercator-hq/mercury/pkg/config"
)

var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Inspect or change the persisted backend location",
	Long: `Inspect or change the backend origin the gateway forwards to.

These commands operate on the same store file the server reads per request,
so a change made here is picked up by a running gateway on its next forward.`,
}

var backendGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the currently effective backend origin",
	RunE:  backendGet,
}

var backendSetCmd = &cobra.Command{
	Use:   "set <url>",
	Short: "Persist a new backend origin",
	Args:  cobra.ExactArgs(1),
	RunE:  backendSet,
}

func init() {
	rootCmd.AddCommand(backendCmd)
	backendCmd.AddCommand(backendGetCmd)
	backendCmd.AddCommand(backendSetCmd)
}

// openStore builds the FileStore from the configuration, same path the
// server uses.
func openStore() (*backend.FileStore, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()
	return backend.NewFileStore(cfg.Backend.StorePath, nil), nil
}

func backendGet(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	fmt.Println(store.Read())
	return nil
}

func backendSet(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	url := strings.TrimSpace(args[0])
	if err := store.Write(url); err != nil {
		return cli.NewCommandError("backend set", err)
	}

	fmt.Printf("✓ Backend set to %s\n", store.Read())
	return nil
}
