package main

import (
	"os"

	"github.com/altinukshini/rgtree/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
