package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/daydemir/postdoc/internal/workspace"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new postdoc workspace",
	Long: `Initialize a new postdoc workspace in the current directory.

Creates .postdoc/ folder with:
  - config.yaml   Configuration settings
  - prompts/      Customizable prompt templates (base, planning, codegen)
  - sessions/     Session files for the file store`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}

		wsPath, err := workspace.Init(cwd, initForce)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Initialized postdoc workspace in", wsPath)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Next steps:")
		fmt.Fprintln(out, "  1. Set OPENAI_API_KEY (or choose llm.backend: claude)")
		fmt.Fprintln(out, "  2. Put example scripts under examples/hep-programming-hints/")
		fmt.Fprintln(out, "  3. Run 'postdoc chat'")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing workspace")
	rootCmd.AddCommand(initCmd)
}
