package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abelbrown/strategist/internal/config"
)

var flagForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the config file",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(configFile())
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := writeDefaultConfig(configFile(), flagForce)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&flagForce, "force", "f", false, "overwrite an existing file")
	configCmd.AddCommand(configPathCmd, configInitCmd)
}

// configFile is --config, or the XDG location.
func configFile() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.ConfigPath()
}

// writeDefaultConfig saves the defaults to path. An existing file is only
// replaced when force is set.
func writeDefaultConfig(path string, force bool) (string, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}
	return path, nil
}
