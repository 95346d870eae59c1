// Command frontpagewatch tracks the Reddit front page between runs.
package main

import (
	"fmt"
	"os"

	"github.com/qepting91/frontpage-watch/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "frontpagewatch:", err)
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}
