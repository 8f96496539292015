package main

import (
	"mod-catalog-mirror/cmd"

	_ "go.uber.org/automaxprocs"
)

func main() {
	// The logger is initialized by each command once the config is loaded.
	cmd.Execute()
}
