package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/wisp/internal/config"
	"github.com/mna/wisp/lang/vm"
)

// Run compiles and executes a single file.
func (c *Cmd) Run(_ context.Context, stdio mainer.Stdio, cfg config.Config, args []string) error {
	return RunFile(stdio, cfg, args[0])
}

// RunFile reads path and interprets it to completion, writing `print`
// output to stdio.Stdout and diagnostics to stdio.Stderr.
func RunFile(stdio mainer.Stdio, cfg config.Config, path string) (runErr error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return wrapIO(err)
	}

	m := vm.New(stdio.Stdout, stdio.Stderr)
	defer m.Free()
	if cfg.Trace {
		m.SetTrace(stdio.Stderr)
	}
	m.SetMaxSteps(cfg.MaxSteps)

	// a FatalError (stack over/underflow) means the compiler or VM let
	// something through it shouldn't have; it is announced distinctly and
	// then surfaced as the runtime-error exit code, since that is the
	// closest of the five codes this shell reports through.
	defer func() {
		if r := recover(); r != nil {
			fe, ok := r.(vm.FatalError)
			if !ok {
				panic(r)
			}
			fmt.Fprintf(stdio.Stderr, "fatal: %s\n", fe)
			runErr = wrapRuntime(fe)
		}
	}()

	switch result, err := m.Interpret(string(src)); result {
	case vm.InterpretOK:
		return nil
	case vm.InterpretCompileError:
		return wrapCompile(err)
	default:
		return wrapRuntime(err)
	}
}
