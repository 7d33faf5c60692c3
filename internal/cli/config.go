// config.go implements "servicesaver config init" and "config path".
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/servicesaver/servicesaver/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage config.yaml",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config.yaml with defaults",
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := config.Home(homeFlag)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), config.Path(home))
		return nil
	},
}

var (
	projectFlag string
	apiKeyFlag  string
	baseURLFlag string
	forceFlag   bool
)

func init() {
	configInitCmd.Flags().StringVar(&projectFlag, "project", "", "Firebase project id")
	configInitCmd.Flags().StringVar(&apiKeyFlag, "api-key", "", "Firebase web API key")
	configInitCmd.Flags().StringVar(&baseURLFlag, "base-url", "", "Negotiation backend URL")
	configInitCmd.Flags().BoolVar(&forceFlag, "force", false, "Overwrite an existing config.yaml")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	home, err := config.Home(homeFlag)
	if err != nil {
		return err
	}

	path := config.Path(home)
	if _, statErr := os.Stat(path); statErr == nil && !forceFlag {
		return fmt.Errorf("%s already exists; use --force to overwrite", path)
	}

	cfg := config.DefaultConfig()
	cfg.Firebase.ProjectID = projectFlag
	cfg.Firebase.APIKey = apiKeyFlag
	if baseURLFlag != "" {
		cfg.Backend.BaseURL = baseURLFlag
	}

	if err := config.WriteConfig(home, cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Warning: %v\n", err)
	}
	return nil
}
