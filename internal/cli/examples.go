package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/daydemir/postdoc/internal/examples"
)

var (
	examplesDir      string
	examplesMaxChars int
	examplesFormat   string
	examplesContent  bool
)

var examplesCmd = &cobra.Command{
	Use:   "examples",
	Short: "Show which example files fit the prompt budget",
	Long: `Load the example markdown files the way the code generation prompt does
and print the manifest: which files were included, truncated or skipped.

Use --content to print the prompt section itself.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		dir := a.cfg.Examples.Dir
		if examplesDir != "" {
			dir = examplesDir
		}
		if a.wsDir != "" && !filepath.IsAbs(dir) && examplesDir == "" {
			dir = filepath.Join(a.wsDir, dir)
		}
		maxChars := a.cfg.Examples.MaxChars
		if examplesMaxChars > 0 {
			maxChars = examplesMaxChars
		}

		content, manifest := examples.Load(dir, maxChars)
		out := cmd.OutOrStdout()

		if examplesContent {
			fmt.Fprint(out, examples.FormatForPrompt(content))
			return nil
		}

		switch examplesFormat {
		case "", "text":
			fmt.Fprintln(out, examples.FormatManifest(manifest))
			fmt.Fprintf(out, "Approx tokens: %d\n", examples.EstimateTokens(content))
			if !a.cfg.Examples.Enabled {
				fmt.Fprintln(out, "Note: examples.enabled is false, the prompt will not include them")
			}
			return nil
		default:
			return writeFormatted(out, examplesFormat, manifest)
		}
	},
}

func init() {
	examplesCmd.Flags().StringVar(&examplesDir, "dir", "", "examples directory (default: examples.dir)")
	examplesCmd.Flags().IntVar(&examplesMaxChars, "max-chars", 0, "character budget (default: examples.max_chars)")
	examplesCmd.Flags().StringVarP(&examplesFormat, "format", "o", "text", "output format (text, yaml, json)")
	examplesCmd.Flags().BoolVar(&examplesContent, "content", false, "print the prompt section instead of the manifest")
	rootCmd.AddCommand(examplesCmd)
}
