package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var execTimeout time.Duration

var execCmd = &cobra.Command{
	Use:   "exec <file.py>",
	Short: "Run a script with the configured interpreter",
	Long: `Run a script once, with a timeout, in the workspace directory.

Sessions never execute generated code; this command is the manual way to
do it after a script has been verified.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		code, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}

		timeout := a.cfg.Verify.ExecTimeout
		if execTimeout > 0 {
			timeout = execTimeout
		}

		p, err := a.pipeline(nil)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		start := time.Now()
		res := p.executor.Execute(ctx, string(code), timeout)

		fmt.Fprint(cmd.OutOrStdout(), res.Output)
		if res.Error != "" {
			fmt.Fprint(cmd.ErrOrStderr(), res.Error)
		}
		if verbose {
			a.display.Duration(time.Since(start))
		}
		if !res.Success {
			return fmt.Errorf("script failed (exit code %d)", res.ExitCode)
		}
		return nil
	},
}

func init() {
	execCmd.Flags().DurationVar(&execTimeout, "timeout", 0, "execution timeout (default: verify.exec_timeout)")
	rootCmd.AddCommand(execCmd)
}
