// Command domfuzz generates domain XML documents from a RELAX NG grammar.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/domfuzz/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(cli.GetExitCode(err))
}
