package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/codalotl/codepal/internal/keystore"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func (a *app) newKeysCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage provider API keys",
	}

	set := &cobra.Command{
		Use:   "set <provider> [key]",
		Short: "Store an API key (read from stdin if omitted)",
		Args:  usageArgs(cobra.RangeArgs(1, 2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.keys()
			if err != nil {
				return err
			}
			key := ""
			if len(args) == 2 {
				key = args[1]
			} else {
				key, err = a.readKey(args[0])
				if err != nil {
					return err
				}
			}
			key = strings.TrimSpace(key)
			if key == "" {
				return usageErrorf("empty key")
			}
			if err := store.Set(args[0], key); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "Stored %s key %s in %s\n", args[0], keystore.Mask(key), store.Path())
			return err
		},
	}

	get := &cobra.Command{
		Use:   "get <provider>",
		Short: "Print a masked API key",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.keys()
			if err != nil {
				return err
			}
			key, err := store.Get(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, keystore.Mask(key))
			return err
		},
	}

	del := &cobra.Command{
		Use:   "delete <provider>",
		Short: "Remove a stored API key",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.keys()
			if err != nil {
				return err
			}
			return store.Delete(args[0])
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List providers with stored keys",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.keys()
			if err != nil {
				return err
			}
			providers, err := store.Providers()
			if err != nil {
				return err
			}
			for _, p := range providers {
				fmt.Fprintln(a.out, p)
			}
			return nil
		},
	}

	cmd.AddCommand(set, get, del, list)
	return cmd
}

// readKey reads a key from stdin: without echo on a terminal, otherwise the first line.
func (a *app) readKey(provider string) (string, error) {
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(a.errW, "%s API key: ", provider)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.errW)
		return string(b), err
	}
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && line == "" {
		return "", usageErrorf("no key given on stdin")
	}
	return line, nil
}

func (a *app) inputIsTerminal() bool {
	f, ok := a.in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
