package maincmd

import (
	"context"
	"errors"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/wisp/internal/config"
	"github.com/mna/wisp/lang/chunk"
	"github.com/mna/wisp/lang/compiler"
	"github.com/mna/wisp/lang/heap"
)

// Disasm compiles a file and prints the disassembled chunk without running
// it. Its output format is not normative.
func (c *Cmd) Disasm(_ context.Context, stdio mainer.Stdio, _ config.Config, args []string) error {
	return DisasmFile(stdio, args[0])
}

// DisasmFile compiles path and writes its disassembly to stdio.Stdout.
func DisasmFile(stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return wrapIO(err)
	}

	h := heap.New()
	defer h.Free()
	var ch chunk.Chunk
	if !compiler.Compile(string(src), h, &ch, stdio.Stderr) {
		return wrapCompile(errors.New("compilation failed"))
	}

	ch.Disassemble(stdio.Stdout, path)
	return nil
}
