package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"doxyscan/internal/config"
	"doxyscan/internal/errors"
	"doxyscan/internal/paths"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage doxyscan configuration",
	Long:  "View and manage the configuration stored in .doxyscan/config.json",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Display the configuration after defaults, the config file and DOXYSCAN_*
environment overrides are merged.

Examples:
  doxyscan config show
  DOXYSCAN_INDEX_WORKERS=8 doxyscan config show --format yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing configuration")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	root := rootFlag
	path := paths.ConfigPath(root)
	if _, err := os.Stat(path); err == nil && !configForce {
		return errors.New(errors.ConfigInvalid, path+" already exists; use --force to overwrite", nil)
	}
	if err := config.DefaultConfig().Save(root); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	return e.print(e.cfg)
}
