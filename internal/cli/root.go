package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "postdoc",
	Short: "Phase-driven assistant for writing analysis scripts",
	Long: `postdoc walks you from a conversation about what you need to a verified
analysis script.

Each session moves through phases:
  planning         Gather requirements until the model is ready to code
  code_generation  Ask the model for a complete script
  import_check     Import every module the script uses, one process each
  testing          Compile the script without running it

Get started:
  postdoc init            Initialize a new workspace
  postdoc chat            Start an interactive session
  postdoc check file.py   Verify a script outside a session`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; a malformed one is not
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		if noColor {
			color.NoColor = true
		}
		return nil
	},
}

// Execute runs the root command and reports the error, if any
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		exitError(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .postdoc/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colors and markdown rendering")
	rootCmd.SetVersionTemplate(fmt.Sprintf("postdoc version %s\n", version))
}

func exitError(err error) {
	if details := validationDetails(err); details != "" {
		fmt.Fprintln(os.Stderr, details)
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
}
