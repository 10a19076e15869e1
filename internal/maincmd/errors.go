package maincmd

import (
	"errors"
	"fmt"
)

// Sentinel kinds a subcommand wraps its returned error in, so Main can map
// it back to the right exit code without each subcommand knowing about
// exit codes itself.
var (
	errCompile = errors.New("compile error")
	errRuntime = errors.New("runtime error")
	errIO      = errors.New("I/O error")
)

func wrapCompile(err error) error { return fmt.Errorf("%w: %v", errCompile, err) }
func wrapRuntime(err error) error { return fmt.Errorf("%w: %v", errRuntime, err) }
func wrapIO(err error) error      { return fmt.Errorf("%w: %v", errIO, err) }
