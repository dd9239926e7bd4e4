package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/0xRadioAc7iv/go-flashdir/internal/utils"
)

var shellHandlers = map[string]handler{
	"put":     put,
	"check":   check,
	"receive": receive,
	"sweep":   sweep,
	"stats":   stats,
	"dump":    dump,
}

const shellHelp = `commands:
  put <credential> <expiry>
  check <credential>
  receive <packet>
  sweep
  stats
  dump
  help
  exit`

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run commands interactively against one open directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDirectory(func() error {
				return runShell(a, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}
}

// runShell reads commands from in until EOF or "exit". A failing command
// is reported and the shell carries on.
func runShell(a *app, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "Opened %s (%d slots)\n", a.cfg.Image, a.dir.Capacity())
	fmt.Fprintln(out, "Type commands. 'help' for information or 'exit' to quit.")

	reader := bufio.NewReader(in)

	for {
		fmt.Fprint(out, "> ")

		line, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)

		if line == "" {
			continue
		}

		if line == "exit" {
			return nil
		}

		cmd, args, err := utils.SplitStringIntoCommandAndArguments(line)
		if err != nil {
			fmt.Fprintln(out, "parse error:", err)
			continue
		}

		if cmd == "help" {
			fmt.Fprintln(out, shellHelp)
			continue
		}

		h, ok := shellHandlers[cmd]
		if !ok {
			fmt.Fprintf(out, "unknown command %q\n", cmd)
			continue
		}

		if err := h(a, out, args); err != nil {
			fmt.Fprintln(out, "error:", err)
		}
	}
}
