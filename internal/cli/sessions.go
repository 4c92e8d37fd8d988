package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/daydemir/postdoc/internal/session"
	"github.com/daydemir/postdoc/internal/transcript"
	"github.com/daydemir/postdoc/internal/workspace"
)

var (
	sessionsFormat    string
	sessionsOlderThan time.Duration
	sessionsOutDir    string
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage stored sessions",
	Long: `List, inspect, export, delete and prune sessions in the configured store.

The memory store lives only as long as one 'postdoc chat' process, so these
commands are useful with sessions.backend set to file or sqlite.`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(func(ctx context.Context, reg session.Registry) error {
			list, err := reg.List(ctx)
			if err != nil {
				return err
			}
			return printSummaries(cmd.OutOrStdout(), list)
		})
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one session's state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := session.ValidateID(args[0]); err != nil {
			return err
		}
		return withSessions(func(ctx context.Context, reg session.Registry) error {
			state, err := reg.Load(ctx, args[0])
			if err != nil {
				return err
			}
			if state.IterationCount == 0 && len(state.Messages) == 0 {
				return fmt.Errorf("%w: %s", session.ErrNotFound, args[0])
			}
			return writeFormatted(cmd.OutOrStdout(), sessionsFormat, newStateView(state))
		})
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(func(ctx context.Context, reg session.Registry) error {
			if err := reg.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
			return nil
		})
	},
}

var sessionsExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Write a session's transcript as markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := session.ValidateID(args[0]); err != nil {
			return err
		}
		return withSessions(func(ctx context.Context, reg session.Registry) error {
			state, err := reg.Load(ctx, args[0])
			if err != nil {
				return err
			}
			dir := sessionsOutDir
			if dir == "" {
				dir = "."
				if wsDir, err := workspace.Find(); err == nil {
					dir = workspace.TranscriptsDir(wsDir)
				}
			}
			path, err := transcript.Export(state, dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		})
	},
}

var sessionsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete sessions idle longer than --older-than",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if sessionsOlderThan <= 0 {
			return fmt.Errorf("--older-than must be positive")
		}
		return withSessions(func(ctx context.Context, reg session.Registry) error {
			pruner, ok := reg.(session.Pruner)
			if !ok {
				return fmt.Errorf("the configured session store does not support pruning")
			}
			n, err := pruner.Prune(ctx, sessionsOlderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d session(s)\n", n)
			return nil
		})
	},
}

func init() {
	sessionsShowCmd.Flags().StringVarP(&sessionsFormat, "format", "o", "yaml", "output format (yaml, json)")
	sessionsPruneCmd.Flags().DurationVar(&sessionsOlderThan, "older-than", 7*24*time.Hour, "idle time after which a session is pruned")

	sessionsExportCmd.Flags().StringVar(&sessionsOutDir, "out", "", "output directory (default: .postdoc/transcripts)")

	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsExportCmd, sessionsDeleteCmd, sessionsPruneCmd)
	rootCmd.AddCommand(sessionsCmd)
}

// withSessions opens the configured store for the duration of fn
func withSessions(fn func(ctx context.Context, reg session.Registry) error) error {
	a, err := loadApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	reg, err := a.openSessions()
	if err != nil {
		return err
	}
	defer reg.Close()

	return fn(context.Background(), reg)
}

func printSummaries(out io.Writer, list []session.Summary) error {
	if len(list) == 0 {
		fmt.Fprintln(out, "No sessions")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPHASE\tITERATIONS\tMESSAGES\tUPDATED")
	for _, s := range list {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
			s.ID, s.Phase, s.IterationCount, s.Messages, s.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func writeFormatted(out io.Writer, format string, v interface{}) error {
	switch format {
	case "", "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown format %q (valid: yaml, json)", format)
	}
}
