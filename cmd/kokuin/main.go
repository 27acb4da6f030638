package main

import (
	"os"

	"github.com/kokuin/kokuin"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	env := kokuin.Env{
		Out:     os.Stdout,
		Err:     os.Stderr,
		Args:    os.Args[1:],
		Version: version,
		Commit:  commit,
		Date:    date,
	}
	os.Exit(kokuin.RunCLI(env))
}
