// Command flowfilt parses, explains and evaluates flow filter expressions.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/flowfilt/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
