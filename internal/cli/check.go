package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daydemir/postdoc/internal/verify"
	"github.com/daydemir/postdoc/internal/workflow"
)

var errCheckFailed = errors.New("verification failed")

var checkSkipImports bool

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Verify a script outside a session",
	Long: `Run the verification pipeline on a file without a model.

A .py file is checked as-is. A markdown file (.md) is treated like a model
reply: its fenced python blocks are extracted and joined first.

Steps:
  1. Discover absolute imports
  2. Import each module in its own interpreter process
  3. Compile the script without running it`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}

		p, err := a.pipeline(nil)
		if err != nil {
			return err
		}

		code := string(content)
		if isMarkdown(args[0]) {
			blocks := p.extractor.Extract(code)
			if len(blocks) == 0 {
				a.display.Error(workflow.MsgNoCode)
				return errCheckFailed
			}
			code = verify.JoinBlocks(blocks)
			a.display.Info("Extracted", fmt.Sprintf("%d code block(s)", len(blocks)))
		}

		return runCheck(cmd.Context(), a, p, code)
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkSkipImports, "skip-imports", false, "only check syntax")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(ctx context.Context, a *app, p *pipeline, code string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	d := a.display
	ok := true

	if !checkSkipImports {
		modules := verify.DiscoverImports(code)
		d.Info("Imports", strings.Join(modules, ", "))
		results := p.imports.Check(ctx, modules)
		d.Handler("import_check", workflow.FormatImportReport(results))
		ok = results.Success
	}

	res := p.syntax.Check(ctx, code)
	if res.Valid {
		d.Handler("testing", workflow.MsgSyntaxPassed)
	} else {
		d.Handler("testing", workflow.FormatSyntaxFailure(res.Error))
		ok = false
	}

	if !ok {
		return errCheckFailed
	}
	d.Success("Script verified")
	return nil
}

func isMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}
