package main

import (
	"os"

	"github.com/nace/cvmprep/internal/cli"
)

func main() {
	cmd, opts := cli.NewFirewallCommand()
	os.Exit(cli.Execute(cmd, opts))
}
