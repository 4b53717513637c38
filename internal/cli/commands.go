package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/codalotl/codepal/internal/approve"
	"github.com/codalotl/codepal/internal/assistant"
	"github.com/codalotl/codepal/internal/diffview"
	"github.com/codalotl/codepal/internal/health"
	"github.com/codalotl/codepal/internal/host"
	"github.com/codalotl/codepal/internal/linealign"
	"github.com/codalotl/codepal/internal/termtext"
	"github.com/codalotl/codepal/internal/watch"

	"github.com/spf13/cobra"
)

func (a *app) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "codepal",
		Short:         "codepal reviews, edits, and explains code with an LLM.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.initLogger()
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "also log debug output to stderr")
	root.PersistentFlags().StringVar(&a.provider, "provider", "", "model provider (openai or ollama); overrides config")
	root.PersistentFlags().StringVar(&a.model, "model", "", "model name; overrides config")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	root.AddCommand(
		a.newReviewCommand(),
		a.newReportCommand(),
		a.newEditCommand(),
		a.newDiffCommand(),
		a.newWatchCommand(),
		a.newKeysCommand(),
		a.newConfigCommand(),
		a.newVersionCommand(),
	)
	return root
}

func (a *app) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the codepal version",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(a.out, Version)
			return err
		},
	}
}

func (a *app) newReviewCommand() *cobra.Command {
	var lines string
	cmd := &cobra.Command{
		Use:   "review [path]",
		Short: "Review a file (or every source file under a directory) and print diagnostics",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			if info.IsDir() {
				if lines != "" {
					return usageErrorf("--lines requires a file")
				}
				return a.reviewDir(cmd.Context(), path)
			}

			sel, err := parseLines(lines)
			if err != nil {
				return err
			}
			s, err := a.fileSession(path, sel)
			if err != nil {
				return err
			}
			_, err = s.assistant.ReviewDocument(cmd.Context())
			return err
		},
	}
	cmd.Flags().StringVar(&lines, "lines", "", "review only lines `a:b` (1-based, inclusive)")
	return cmd
}

func (a *app) reviewDir(ctx context.Context, dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	s, err := a.newSession(abs, "", nil)
	if err != nil {
		return err
	}
	sum, err := s.assistant.ReviewWorkspace(ctx, abs)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Reviewed %d files: %d issues", len(sum.Files), sum.Issues())
	if sum.Truncated {
		fmt.Fprintf(a.out, " (stopped at %d files)", s.cfg.MaxFiles)
	}
	fmt.Fprintln(a.out)

	failed := sum.Failed()
	for _, f := range failed {
		fmt.Fprintf(a.errW, "%s: %s\n", f.Rel, userMessage(f.Err))
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d files could not be reviewed", len(failed), len(sum.Files))
	}
	return nil
}

func (a *app) newReportCommand() *cobra.Command {
	var lines string
	cmd := &cobra.Command{
		Use:   "report <file>",
		Short: "Explain a file and write the explanation as an HTML panel",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := parseLines(lines)
			if err != nil {
				return err
			}
			s, err := a.fileSession(args[0], sel)
			if err != nil {
				return err
			}
			_, err = s.assistant.Report(cmd.Context())
			return err
		},
	}
	cmd.Flags().StringVar(&lines, "lines", "", "explain only lines `a:b` (1-based, inclusive)")
	return cmd
}

func (a *app) newEditCommand() *cobra.Command {
	var (
		lines   string
		yes     bool
		unified bool
	)
	cmd := &cobra.Command{
		Use:   "edit <file> <instruction...>",
		Short: "Ask the model to change a file, review the diff, and apply it",
		Args:  usageArgs(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sel, err := parseLines(lines)
			if err != nil {
				return err
			}
			instruction := strings.Join(args[1:], " ")
			if strings.TrimSpace(instruction) == "" {
				return usageErrorf("instruction is empty")
			}
			s, err := a.fileSession(args[0], sel)
			if err != nil {
				return err
			}
			p, err := s.assistant.ProposeEdit(ctx, instruction)
			if err != nil {
				return err
			}
			if !p.Alignment.HasChanges() {
				_, err := fmt.Fprintln(a.out, "No changes proposed.")
				return err
			}

			name := relTo(s.root, args[0])
			tty := termtext.IsTerminal(a.out)
			var body string
			if tty && !unified {
				body = diffview.RenderPretty(p.Alignment, name, s.cfg.ContextLines)
			} else {
				body = diffview.RenderUnified(p.Alignment, "a/"+name, "b/"+name, s.cfg.ContextLines)
			}
			stats := formatStats(p.Alignment.Stats())

			switch {
			case yes:
				fmt.Fprintln(a.out, body)
			case tty && a.inputIsTerminal():
				title := "Proposed edit: " + name
				if p.Explanation != "" {
					title += " (" + p.Explanation + ")"
				}
				d, err := approve.Run(ctx, title, stats, body, a.in, a.out)
				if err != nil {
					return err
				}
				if d != approve.Apply {
					_, err := fmt.Fprintln(a.out, "Edit rejected.")
					return err
				}
			default:
				fmt.Fprintln(a.out, body)
				fmt.Fprintf(a.out, "%s. Not applied: re-run with --yes to apply.\n", stats)
				return nil
			}

			if err := s.assistant.Apply(ctx, p); errors.Is(err, assistant.ErrStaleProposal) {
				return health.WrapHuman(name+" changed while the edit was pending; nothing was applied", "cli.edit.stale", err)
			} else if err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "Applied edit to %s (%s).\n", name, stats)
			return err
		},
	}
	cmd.Flags().StringVar(&lines, "lines", "", "edit only lines `a:b` (1-based, inclusive)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "apply the edit without asking")
	cmd.Flags().BoolVar(&unified, "unified", false, "show the diff in unified format")
	return cmd
}

func (a *app) newDiffCommand() *cobra.Command {
	var contextLines int
	cmd := &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Show the line alignment between two files",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if contextLines < 0 {
				return usageErrorf("-U must not be negative")
			}
			oldData, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			newData, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			res := linealign.Align(string(oldData), string(newData))
			if !res.HasChanges() {
				return nil
			}
			var out string
			if termtext.IsTerminal(a.out) {
				out = diffview.RenderPretty(res, args[1], contextLines)
			} else {
				out = diffview.RenderUnified(res, args[0], args[1], contextLines)
			}
			_, err = fmt.Fprintln(a.out, out)
			return err
		},
	}
	cmd.Flags().IntVarP(&contextLines, "unified", "U", 3, "lines of context")
	return cmd
}

func (a *app) newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Review files as they change",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			abs, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			s, err := a.newSession(abs, "", nil)
			if err != nil {
				return err
			}
			w, err := watch.New(abs, func(ctx context.Context, path string) error {
				s.terminal.SetActive(path, nil)
				_, err := s.assistant.ReviewDocument(ctx)
				if err != nil {
					fmt.Fprintf(a.errW, "%s: %s\n", relTo(abs, path), userMessage(err))
				}
				return err
			}, watch.Options{Debounce: s.cfg.Debounce.Duration, Logger: a.logger})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Watching %s (ctrl+c to stop)\n", abs)
			return w.Run(cmd.Context())
		},
	}
}

func (a *app) newConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "# sources: %s\n", strings.Join(cfg.Sources, ", "))
			return cfg.Write(a.out)
		},
	}
}

// parseLines parses a 1-based inclusive "a:b" line selection into a Range covering those whole lines.
func parseLines(s string) (*host.Range, error) {
	if s == "" {
		return nil, nil
	}
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return nil, usageErrorf("--lines must look like a:b (got %q)", s)
	}
	start, err1 := strconv.Atoi(strings.TrimSpace(lo))
	end, err2 := strconv.Atoi(strings.TrimSpace(hi))
	if err1 != nil || err2 != nil || start < 1 || end < start {
		return nil, usageErrorf("--lines must be a:b with 1 <= a <= b (got %q)", s)
	}
	r := host.LineRange(start-1, end)
	return &r, nil
}

func formatStats(st linealign.Stats) string {
	return fmt.Sprintf("%d removed, %d added", st.Removed, st.Added)
}

// relTo returns path relative to root when it is inside root, and path otherwise.
func relTo(root, path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
