package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/variantops/vcfsquare/internal/caller"
)

// initConfig loads persistent defaults from ~/.vcfsquare.yaml if present.
func initConfig() {
	viper.SetDefault("caller", caller.NameFreebayes)
	viper.SetDefault("cores", 1)

	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	viper.SetConfigFile(filepath.Join(home, ".vcfsquare.yaml"))
	_ = viper.ReadInConfig() // missing config file is fine
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vcfsquare configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/.vcfsquare.yaml.",
		Example: `  vcfsquare config                     # show all config
  vcfsquare config set caller mpileup  # change the default recall backend
  vcfsquare config get cores           # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow()
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(args[0])
		},
	}
}

func runConfigShow() error {
	out, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

// runConfigSet validates the value against what the key actually controls
// before persisting: an unsupported backend or a non-positive worker count
// would otherwise only surface on the next square run.
func runConfigSet(key, value string) error {
	switch key {
	case "caller":
		if !caller.KnownName(value) {
			return fmt.Errorf("unsupported caller %q (want %s, %s or %s)",
				value, caller.NameFreebayes, caller.NamePlatypus, caller.NameMpileup)
		}
		viper.Set(key, value)
	case "cores":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("cores must be a positive integer, got %q", value)
		}
		viper.Set(key, n)
	default:
		return fmt.Errorf("unknown config key %q (want caller or cores)", key)
	}

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".vcfsquare.yaml")
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func runConfigGet(key string) error {
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Println(val)
	return nil
}
