package main

import (
	"os"

	"autoload/internal/cliapp"
)

func main() {
	os.Exit(cliapp.Run(os.Args[1:]))
}
