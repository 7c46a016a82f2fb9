// Command rota checks shift schedules against position rotation rules.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/rota/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
