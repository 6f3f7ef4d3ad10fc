// Command blockxml converts IR block trees into Blockly XML.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/blockxml/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
