package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/codalotl/codepal/internal/health"

	"github.com/spf13/cobra"
)

// Version is the codepal version. It is a var (not a const) so build tooling can override it (for example via `-ldflags "-X .../internal/cli.Version=1.2.3"`).
var Version = "0.1.0"

// In/Out/Err override standard I/O. If nil, defaults are used. Overriding is useful for testing.
type RunOptions struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Run runs the CLI with args (typically you'd use os.Args).
//
// It returns a recommended exit code (0, 1, or 2) and an error, if any:
//   - 0 -> err == nil
//   - 1 -> err != nil, but the structure of args is sound (flags are correct, etc).
//   - 2 -> err != nil, args parse error or misuse of flags, etc.
//
// Note that in cases of errors, Run has already displayed an error message to opts.Err || Stderr. Callers may use os.Exit with the exit code.
func Run(args []string, opts *RunOptions) (int, error) {
	argv := args
	if len(argv) > 0 {
		argv = argv[1:]
	}

	a := &app{in: os.Stdin, out: os.Stdout, errW: os.Stderr}
	if opts != nil {
		if opts.In != nil {
			a.in = opts.In
		}
		if opts.Out != nil {
			a.out = opts.Out
		}
		if opts.Err != nil {
			a.errW = opts.Err
		}
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := a.newRootCommand()
	root.SetArgs(argv)
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errW)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0, nil
	}

	fmt.Fprintf(a.errW, "error: %s\n", userMessage(err))
	if a.logger != nil {
		_ = health.LogErr(a.logger, err)
	}

	var ue *usageError
	if errors.As(err, &ue) || strings.HasPrefix(err.Error(), "unknown command") {
		return 2, err
	}
	return 1, err
}

// userMessage prefers a HumanErr's message over the full error chain.
func userMessage(err error) string {
	var he *health.HumanErr
	if errors.As(err, &he) && he.HumanMessage != "" {
		return he.HumanMessage
	}
	return err.Error()
}

// usageError marks errors caused by how the command was invoked.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// usageArgs wraps an argument validator so its failures are usage errors.
func usageArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}
