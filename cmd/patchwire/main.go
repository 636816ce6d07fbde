// Command patchwire runs patch delivery scenarios and inspects their
// journals.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/patchwire/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
