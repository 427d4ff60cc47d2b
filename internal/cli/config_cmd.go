package cli

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"

	"github.com/khanglvm/vidrank/internal/config"
)

// NewConfigCmd creates the 'config' command group.
func NewConfigCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create and inspect the configuration file",
		Long: `Manage ~/.vidrank.yaml.

Precedence, lowest first: built-in defaults, the config file, VIDRANK_*
environment variables (nested keys use a double underscore, e.g.
VIDRANK_SERVER__ADDR=:9090), command-line flags.`,
	}

	cmd.AddCommand(newConfigInitCmd(global))
	cmd.AddCommand(newConfigShowCmd(global))

	return cmd
}

// path is --config, then $VIDRANK_CONFIG, then the default path.
func (o *globalOptions) path() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	if p := os.Getenv(config.ConfigPathEnvVar); p != "" {
		return p, nil
	}
	return config.GetDefaultConfigPath()
}

func newConfigInitCmd(global *globalOptions) *cobra.Command {
	var (
		force   bool
		catalog string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default settings",
		Example: `  vidrank config init
  vidrank config init --catalog ~/data/videos.csv
  vidrank --config ./vidrank.yaml config init --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := global.path()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
			}

			cfg := config.Default()
			cfg.Catalog.Path = catalog
			if err := config.Save(cfg, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file (a .bak copy is kept)")
	cmd.Flags().StringVar(&catalog, "catalog", "", "Catalog CSV path to store in the file")

	return cmd
}

func newConfigShowCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.load()
			if err != nil {
				return err
			}

			k := koanf.New(".")
			if err := k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			data, err := k.Marshal(yaml.Parser())
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
