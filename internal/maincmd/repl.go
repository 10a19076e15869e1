package maincmd

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/mna/mainer"
	"github.com/mna/wisp/internal/config"
	"github.com/mna/wisp/lang/vm"
	"golang.org/x/exp/slices"
)

// Repl reads one line at a time from stdio.Stdin, interpreting each as a
// complete program.
func (c *Cmd) Repl(_ context.Context, stdio mainer.Stdio, cfg config.Config, _ []string) error {
	return RunRepl(stdio, cfg)
}

// RunRepl drives the read-eval-print loop until stdin closes. A single VM
// persists across lines, so globals defined on one line are visible on the
// next. The `:globals` meta-command lists currently defined global names,
// sorted, as a debugging aid; it is a host-level convenience, not part of
// the language.
func RunRepl(stdio mainer.Stdio, cfg config.Config) error {
	m := vm.New(stdio.Stdout, stdio.Stderr)
	defer m.Free()
	if cfg.Trace {
		m.SetTrace(stdio.Stderr)
	}
	m.SetMaxSteps(cfg.MaxSteps)

	scanner := bufio.NewScanner(stdio.Stdin)
	for {
		fmt.Fprint(stdio.Stdout, "> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()

		// a whitespace-only line or a line starting with "//" is skipped
		// without being compiled; it would compile to a RETURN-only chunk
		// and have no effect anyway
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}

		if trimmed == ":globals" {
			names := m.GlobalNames()
			slices.Sort(names)
			fmt.Fprintln(stdio.Stdout, strings.Join(names, " "))
			continue
		}

		interpretLine(stdio, m, line)
	}
	if err := scanner.Err(); err != nil {
		return wrapIO(err)
	}
	return nil
}

func interpretLine(stdio mainer.Stdio, m *vm.VM, line string) {
	defer func() {
		if r := recover(); r != nil {
			fe, ok := r.(vm.FatalError)
			if !ok {
				panic(r)
			}
			fmt.Fprintf(stdio.Stderr, "fatal: %s\n", fe)
		}
	}()
	m.Interpret(line)
}
