// # cmd/juparc/main.go
package main

import (
	"os"

	"juparc/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
