package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/daydemir/postdoc/internal/config"
	"github.com/daydemir/postdoc/internal/workspace"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "View or modify configuration",
	Long: `View or modify postdoc configuration.

Without arguments the effective configuration is shown, including defaults
and POSTDOC_* environment overrides.

Examples:
  postdoc config                        Show all config
  postdoc config llm.backend            Get a specific value
  postdoc config llm.backend claude     Set a value
  postdoc config verify.languages py,python`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := cfgFile
		if configPath == "" {
			wsDir, err := workspace.Find()
			if err != nil {
				return err
			}
			configPath = workspace.ConfigPath(wsDir)
		}

		out := cmd.OutOrStdout()
		switch len(args) {
		case 0:
			return showConfig(out, configPath)
		case 1:
			return getConfigValue(out, configPath, args[0])
		case 2:
			return setConfigValue(out, configPath, args[0], args[1])
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// readConfig layers the file over defaults and the environment
func readConfig(configPath string) (*viper.Viper, error) {
	v := config.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return v, nil
}

func showConfig(out io.Writer, configPath string) error {
	v, err := readConfig(configPath)
	if err != nil {
		return err
	}

	content, err := yaml.Marshal(v.AllSettings())
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	fmt.Fprintf(out, "# %s\n%s", configPath, content)
	return nil
}

func getConfigValue(out io.Writer, configPath, key string) error {
	v, err := readConfig(configPath)
	if err != nil {
		return err
	}

	if !v.IsSet(key) {
		return fmt.Errorf("key not found: %s", key)
	}

	fmt.Fprintln(out, v.Get(key))
	return nil
}

// setConfigValue writes only the file's own keys back, so defaults and
// environment overrides do not leak into it
func setConfigValue(out io.Writer, configPath, key, value string) error {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	// Handle array values (comma-separated)
	if strings.Contains(value, ",") {
		v.Set(key, strings.Split(value, ","))
	} else {
		v.Set(key, value)
	}

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	// Warn about values the loader would refuse
	wsDir := filepath.Dir(filepath.Dir(configPath))
	if _, err := config.Load(wsDir, configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config no longer validates:\n%s\n", validationDetailsOr(err))
	}

	fmt.Fprintf(out, "Set %s = %s\n", key, value)
	return nil
}

func validationDetailsOr(err error) string {
	if details := validationDetails(err); details != "" {
		return details
	}
	return err.Error()
}
