package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/wisp/internal/config"
	"github.com/mna/wisp/lang/scanner"
	"github.com/mna/wisp/lang/token"
)

// Tokenize runs only the scanner over a file and prints each token. Its
// output format is not normative.
func (c *Cmd) Tokenize(_ context.Context, stdio mainer.Stdio, _ config.Config, args []string) error {
	return TokenizeFile(stdio, args[0])
}

// TokenizeFile scans path to completion, printing one line per token to
// stdio.Stdout.
func TokenizeFile(stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return wrapIO(err)
	}

	s := scanner.New(string(src))
	for {
		tok := s.Scan()
		fmt.Fprintf(stdio.Stdout, "%4d %-16s '%s'\n", tok.Line, tok.Type, tok.Lexeme)
		if tok.Type == token.EOF {
			return nil
		}
	}
}
