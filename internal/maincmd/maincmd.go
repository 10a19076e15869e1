// Package maincmd implements the wisp CLI shell: argument parsing and
// subcommand dispatch on top of github.com/mna/mainer, using a Cmd struct
// with a reflection-dispatched subcommand table.
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"
	"github.com/mna/wisp/internal/config"
)

const binName = "wisp"

// Exit codes: 0 success, 65 compile error, 70 runtime error, 74 I/O error,
// 64 usage error.
const (
	exitSuccess      = 0
	exitUsage        = 64
	exitCompileError = 65
	exitRuntimeError = 70
	exitIOError      = 74
)

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <command> [<path>]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <command> [<path>]
       %[1]s -h|--help
       %[1]s -v|--version

Compiler and virtual machine for the wisp scripting language.

Run with no arguments to start the REPL. The <command> can be one of:
       run <path>                Compile and execute a script file.
       repl                      Start the interactive read-eval-print loop.
       tokenize <path>           Run only the scanner and print each token.
       disasm <path>             Compile and print the disassembled chunk
                                 without running it.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --trace                   Trace every instruction the VM executes.

More information on the wisp repository:
       https://github.com/mna/wisp
`, binName)
)

// cmdFunc is the shape every subcommand method must have to be picked up by
// buildCmds: a context, the process's stdio, the loaded configuration, and
// the command's positional arguments, returning an error.
type cmdFunc func(context.Context, mainer.Stdio, config.Config, []string) error

// Cmd is the CLI entry point, in the shape github.com/mna/mainer.Parser
// expects: flag-tagged fields plus the Validate/Main methods.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`
	Trace   bool `flag:"trace"`

	args  []string
	flags map[string]bool
	cmdFn cmdFunc
}

func (c *Cmd) SetArgs(args []string)          { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) { c.flags = flags }

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}

	// a bare invocation (no command) starts the REPL
	if len(c.args) == 0 {
		c.args = []string{"repl"}
	}

	cmdName := c.args[0]
	commands := buildCmds(c)
	c.cmdFn = commands[cmdName]
	if c.cmdFn == nil {
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	switch cmdName {
	case "run", "tokenize", "disasm":
		if len(c.args[1:]) != 1 {
			return fmt.Errorf("%s: exactly one file path must be provided", cmdName)
		}
	case "repl":
		if len(c.args[1:]) != 0 {
			return errors.New("repl: no arguments expected")
		}
	}

	return nil
}

// Main runs the CLI and returns the process's exit code.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: strings.ToUpper(binName) + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return exitUsage
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return exitSuccess
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return exitSuccess
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid configuration: %s\n", err)
		return exitUsage
	}
	if c.Trace {
		cfg.Trace = true
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.cmdFn(ctx, stdio, cfg, c.args[1:]); err != nil {
		return exitCodeFor(err)
	}
	return exitSuccess
}

// exitCodeFor maps a subcommand's returned error to one of this package's
// exit codes. Each subcommand wraps its errors in one of the three sentinel
// kinds declared in errors.go; anything else is treated as a usage error.
func exitCodeFor(err error) mainer.ExitCode {
	switch {
	case errors.Is(err, errCompile):
		return exitCompileError
	case errors.Is(err, errRuntime):
		return exitRuntimeError
	case errors.Is(err, errIO):
		return exitIOError
	default:
		return exitUsage
	}
}

// valid commands are those that take a context, a Stdio, a config, and a
// slice of strings as input, and return an error as output.
func buildCmds(v interface{}) map[string]cmdFunc {
	cmds := make(map[string]cmdFunc)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		if mt.NumIn() != 5 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Struct || p3.Name() != "Config" {
			continue
		}
		if p4 := mt.In(4); p4.Kind() != reflect.Slice || p4.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(cmdFunc)
	}
	return cmds
}
